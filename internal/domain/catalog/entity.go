// internal/domain/catalog/entity.go
package catalog

import (
	"time"

	"gorm.io/gorm"
)

// Product represents the catalog product entity. The storefront treats
// the catalog as read-only input; stock lives on Quantity.
type Product struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	SKU         string         `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Slug        string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string         `gorm:"type:text" json:"description"`
	Price       int64          `gorm:"not null" json:"price"` // Price in minor units
	Weight      float64        `json:"weight"`                // Weight in kg
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	Quantity    int            `gorm:"default:0" json:"quantity"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Variants []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"variants,omitempty"`
}

// ProductVariant represents product variants (size, color, etc.)
type ProductVariant struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ProductID uint           `gorm:"not null;index" json:"product_id"`
	SKU       string         `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Name      string         `gorm:"not null;size:255" json:"name"`
	Price     int64          `json:"price"` // Overrides product price if set
	Weight    float64        `json:"weight"`
	Options   string         `gorm:"type:text" json:"options"` // JSON string for variant options
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides
func (Product) TableName() string        { return "products" }
func (ProductVariant) TableName() string { return "product_variants" }

// IsInStock reports whether at least one unit is available.
func (p *Product) IsInStock() bool {
	return p.Quantity > 0
}

// EffectivePrice returns the variant price when it overrides the product price.
func (p *Product) EffectivePrice(variant *ProductVariant) int64 {
	if variant != nil && variant.Price > 0 {
		return variant.Price
	}
	return p.Price
}

// EffectiveWeight returns the shipping weight in kg, falling back to the
// given default when the catalog carries no weight.
func (p *Product) EffectiveWeight(variant *ProductVariant, defaultWeight float64) float64 {
	if variant != nil && variant.Weight > 0 {
		return variant.Weight
	}
	if p.Weight > 0 {
		return p.Weight
	}
	return defaultWeight
}
