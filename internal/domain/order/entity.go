// internal/domain/order/entity.go
package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/domain/payment"
)

// Status represents the order status
type Status string

const (
	StatusNew       Status = "NEW"
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusFulfilled Status = "FULFILLED"
	StatusCancelled Status = "CANCELLED"
)

// validTransitions is the order state machine. FULFILLED and CANCELLED
// are terminal.
var validTransitions = map[Status][]Status{
	StatusNew:       {StatusPending, StatusPaid, StatusCancelled},
	StatusPending:   {StatusPaid, StatusCancelled},
	StatusPaid:      {StatusFulfilled, StatusCancelled},
	StatusFulfilled: {},
	StatusCancelled: {},
}

// CanTransition reports whether from -> to is a legal status change
func CanTransition(from, to Status) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist from the status
func (s Status) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// Order represents the order entity
type Order struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OrderNumber string `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	UserID      uint   `gorm:"not null;index" json:"user_id"`
	Email       string `gorm:"not null;size:255" json:"email"`
	Status      Status `gorm:"not null;default:'NEW'" json:"status"`

	// Financial information, minor units
	SubtotalAmount int64 `gorm:"not null" json:"subtotal_amount"`
	TaxAmount      int64 `gorm:"default:0" json:"tax_amount"`
	ShippingAmount int64 `gorm:"default:0" json:"shipping_amount"`
	DiscountAmount int64 `gorm:"default:0" json:"discount_amount"`
	TotalAmount    int64 `gorm:"not null" json:"total_amount"`

	// Addresses
	ShippingAddress Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	BillingAddress  Address `gorm:"embedded;embeddedPrefix:billing_" json:"billing_address"`

	Currency   string `gorm:"size:3;default:'MRU'" json:"currency"`
	Notes      string `gorm:"type:text" json:"notes"`
	CouponCode string `gorm:"size:50" json:"coupon_code"`

	// Timestamps
	PaidAt      *time.Time     `json:"paid_at"`
	FulfilledAt *time.Time     `json:"fulfilled_at"`
	CancelledAt *time.Time     `json:"cancelled_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items    []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	Payments []Payment   `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"payments,omitempty"`
}

// OrderItem snapshots a purchased line at order time
type OrderItem struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	OrderID          uint      `gorm:"not null;index" json:"order_id"`
	ProductID        uint      `gorm:"not null;index" json:"product_id"`
	ProductVariantID *uint     `gorm:"index" json:"product_variant_id"`
	SKU              string    `gorm:"not null;size:100" json:"sku"`
	Name             string    `gorm:"not null;size:255" json:"name"`
	Quantity         int       `gorm:"not null" json:"quantity"`
	Price            int64     `gorm:"not null" json:"price"`       // Price per unit, minor units
	TotalPrice       int64     `gorm:"not null" json:"total_price"` // Quantity * Price
	Weight           float64   `gorm:"default:0" json:"weight"`     // kg per unit, 0 = unknown
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Payment represents a payment attempt for an order. The (provider,
// transaction_id) pair is unique so a provider transaction settles at
// most one payment.
type Payment struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	OrderID       uint             `gorm:"not null;index" json:"order_id"`
	Provider      payment.Provider `gorm:"not null;size:20;uniqueIndex:idx_provider_txn" json:"provider"`
	TransactionID string           `gorm:"not null;size:255;uniqueIndex:idx_provider_txn" json:"transaction_id"`
	Amount        int64            `gorm:"not null" json:"amount"` // minor units
	Currency      string           `gorm:"size:3;default:'MRU'" json:"currency"`
	Status        payment.Status   `gorm:"not null;default:'PENDING'" json:"status"`
	RawResponse   string           `gorm:"type:text" json:"-"` // provider metadata JSON
	ProcessedAt   *time.Time       `json:"processed_at"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	DeletedAt     gorm.DeletedAt   `gorm:"index" json:"-"`
}

// Address represents a shipping/billing address (embedded in Order)
type Address struct {
	FirstName    string `gorm:"size:100" json:"first_name" binding:"required"`
	LastName     string `gorm:"size:100" json:"last_name" binding:"required"`
	AddressLine1 string `gorm:"size:255" json:"address_line1" binding:"required"`
	AddressLine2 string `gorm:"size:255" json:"address_line2"`
	City         string `gorm:"size:100" json:"city" binding:"required"`
	State        string `gorm:"size:100" json:"state"`
	PostalCode   string `gorm:"size:20" json:"postal_code"`
	Country      string `gorm:"size:2" json:"country"`
	Phone        string `gorm:"size:20" json:"phone"`
}

// IsZero reports whether the address was omitted entirely
func (a Address) IsZero() bool {
	return a == Address{}
}

// TableName overrides
func (Order) TableName() string     { return "orders" }
func (OrderItem) TableName() string { return "order_items" }
func (Payment) TableName() string   { return "payments" }

// NewOrderNumber generates an order number like ORD-20250601-A3F07B12.
// The random suffix keeps numbers unique without a DB round trip.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}

// CanBeCancelled checks if the order can still be cancelled
func (o *Order) CanBeCancelled() bool {
	return CanTransition(o.Status, StatusCancelled)
}

// IsPaid reports whether the order has settled
func (o *Order) IsPaid() bool {
	return o.Status == StatusPaid || o.Status == StatusFulfilled
}
