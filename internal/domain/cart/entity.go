// internal/domain/cart/entity.go
package cart

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/pricing"
)

// Cart represents a user's shopping cart. One cart per user, created
// lazily on the first add and cleared (never deleted) at settlement.
type Cart struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UserID         uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	CouponID       *uint          `gorm:"index" json:"coupon_id,omitempty"`
	DiscountAmount int64          `gorm:"default:0" json:"discount_amount"` // cached, minor units
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items  []CartItem `gorm:"foreignKey:CartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items,omitempty"`
	Coupon *Coupon    `gorm:"foreignKey:CouponID" json:"coupon,omitempty"`
}

// CartItem represents one line in a cart. At most one row exists per
// (cart, product, variant); repeated adds merge by incrementing quantity.
type CartItem struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	CartID           uint      `gorm:"not null;index:idx_cart_product_variant,unique" json:"cart_id"`
	ProductID        uint      `gorm:"not null;index:idx_cart_product_variant,unique" json:"product_id"`
	ProductVariantID *uint     `gorm:"index:idx_cart_product_variant,unique" json:"product_variant_id,omitempty"`
	Quantity         int       `gorm:"not null;default:1" json:"quantity"`
	Price            int64     `gorm:"not null" json:"price"` // Price at time of adding, minor units
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Relationships
	Product *catalog.Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Variant *catalog.ProductVariant `gorm:"foreignKey:ProductVariantID" json:"product_variant,omitempty"`
}

// Coupon represents a discount rule identified by an upper-cased code
type Coupon struct {
	ID                uint               `gorm:"primaryKey" json:"id"`
	Code              string             `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Type              pricing.CouponType `gorm:"not null;size:20" json:"type"`
	Value             int64              `gorm:"not null" json:"value"`
	MaxDiscountAmount int64              `gorm:"default:0" json:"max_discount_amount"` // 0 = uncapped
	MinOrderAmount    int64              `gorm:"default:0" json:"min_order_amount"`
	UsageLimit        int                `gorm:"default:0" json:"usage_limit"` // 0 = unlimited
	UsedCount         int                `gorm:"default:0" json:"used_count"`
	IsActive          bool               `gorm:"default:true" json:"is_active"`
	ExpiresAt         *time.Time         `json:"expires_at,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
	DeletedAt         gorm.DeletedAt     `gorm:"index" json:"-"`
}

// TableName overrides
func (Cart) TableName() string     { return "carts" }
func (CartItem) TableName() string { return "cart_items" }
func (Coupon) TableName() string   { return "coupons" }

// NormalizeCode upper-cases and trims a coupon code for lookup
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks coupon eligibility against the given subtotal.
// Checks run in a fixed order so callers get the most specific error.
func (c *Coupon) Validate(now time.Time, subtotal int64) error {
	if !c.IsActive {
		return ErrCouponInactive
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return ErrCouponExpired
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return ErrCouponUsageLimit
	}
	if c.MinOrderAmount > 0 && subtotal < c.MinOrderAmount {
		return &MinimumOrderError{Required: c.MinOrderAmount, Subtotal: subtotal}
	}
	return nil
}

// ToSpec converts the coupon into its pricing parameters
func (c *Coupon) ToSpec() *pricing.CouponSpec {
	return &pricing.CouponSpec{
		Code:        c.Code,
		Type:        c.Type,
		Value:       c.Value,
		MaxDiscount: c.MaxDiscountAmount,
	}
}

// Summary is a priced view of a cart
type Summary struct {
	CartID     uint           `json:"cart_id"`
	UserID     uint           `json:"user_id"`
	Items      []CartItem     `json:"items"`
	CouponCode string         `json:"coupon_code,omitempty"`
	Totals     pricing.Result `json:"totals"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
