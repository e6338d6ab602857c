// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/pricing"
	"github.com/your-org/storefront-backend/internal/domain/shipping"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{db: db}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Dependency order: catalog first, orders last
	models := []interface{}{
		&catalog.Product{},
		&catalog.ProductVariant{},

		&cart.Coupon{},
		&cart.Cart{},
		&cart.CartItem{},

		&order.Order{},
		&order.OrderItem{},
		&order.Payment{},

		&shipping.Shipment{},
	}

	for _, model := range models {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance.
// The unique (provider, transaction_id) payments index and the cart line
// uniqueness index come from the entity tags; these are query helpers.
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_products_active_quantity ON products(is_active, quantity)",
		"CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_payments_order_status ON payments(order_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_shipments_order ON shipments(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_coupons_active_expiry ON coupons(is_active, expires_at)",
	}

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("⚠️ Failed to create index: %v", err)
		}
	}

	log.Println("✅ Database indexes ensured")
	return nil
}

// SeedInitialData inserts development data: a few products and the
// SAVE10 coupon. Safe to run repeatedly.
func (m *Migration) SeedInitialData() error {
	if err := m.seedProducts(); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}
	if err := m.seedCoupons(); err != nil {
		return fmt.Errorf("failed to seed coupons: %w", err)
	}
	log.Println("✅ Initial data seeded successfully")
	return nil
}

func (m *Migration) seedProducts() error {
	products := []catalog.Product{
		{
			SKU:         "TEE-CLASSIC-01",
			Name:        "Classic Cotton Tee",
			Slug:        "classic-cotton-tee",
			Description: "Plain cotton t-shirt, pre-shrunk.",
			Price:       5000,
			Weight:      0.2,
			IsActive:    true,
			Quantity:    100,
		},
		{
			SKU:         "MUG-CERAMIC-01",
			Name:        "Ceramic Mug",
			Slug:        "ceramic-mug",
			Description: "350ml ceramic mug.",
			Price:       3000,
			Weight:      0.4,
			IsActive:    true,
			Quantity:    50,
		},
		{
			SKU:         "BAG-CANVAS-01",
			Name:        "Canvas Tote Bag",
			Slug:        "canvas-tote-bag",
			Description: "Heavy duty canvas tote.",
			Price:       8000,
			Weight:      0.6,
			IsActive:    true,
			Quantity:    25,
		},
	}

	for _, prod := range products {
		var existing catalog.Product
		if err := m.db.Where("sku = ?", prod.SKU).First(&existing).Error; err != nil {
			if err := m.db.Create(&prod).Error; err != nil {
				return err
			}
			log.Printf("✅ Created product: %s", prod.Name)
		}
	}
	return nil
}

func (m *Migration) seedCoupons() error {
	expires := time.Now().UTC().AddDate(1, 0, 0)
	coupons := []cart.Coupon{
		{
			Code:           "SAVE10",
			Type:           pricing.CouponTypePercentage,
			Value:          10,
			MinOrderAmount: 5000,
			IsActive:       true,
			ExpiresAt:      &expires,
		},
		{
			Code:              "WELCOME",
			Type:              pricing.CouponTypeFixed,
			Value:             1000,
			MaxDiscountAmount: 0,
			UsageLimit:        1000,
			IsActive:          true,
		},
	}

	for _, coupon := range coupons {
		var existing cart.Coupon
		if err := m.db.Where("code = ?", coupon.Code).First(&existing).Error; err != nil {
			if err := m.db.Create(&coupon).Error; err != nil {
				return err
			}
			log.Printf("✅ Created coupon: %s", coupon.Code)
		}
	}
	return nil
}
