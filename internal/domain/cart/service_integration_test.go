//go:build integration

package cart

import (
	"io"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
)

// Run with: go test -tags integration ./... against a disposable
// database, e.g. TEST_DATABASE_DSN="host=localhost user=postgres ...".

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&catalog.Product{}, &catalog.ProductVariant{},
		&Cart{}, &CartItem{}, &Coupon{},
	))

	t.Cleanup(func() {
		wipe := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped()
		wipe.Delete(&CartItem{})
		wipe.Delete(&Cart{})
		wipe.Delete(&Coupon{})
		wipe.Delete(&catalog.ProductVariant{})
		wipe.Delete(&catalog.Product{})
	})
	return db
}

func integrationService(db *gorm.DB) *Service {
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := &config.Config{
		Store: config.StoreConfig{
			Currency:              "MRU",
			TaxRateBps:            1000,
			ShippingFlatRate:      1000,
			FreeShippingThreshold: 10000,
			MaxLineQuantity:       100,
		},
	}
	return NewService(db, cfg, log)
}

func TestAddItem_MergesRepeatedAdds(t *testing.T) {
	db := openTestDB(t)
	s := integrationService(db)

	prod := &catalog.Product{SKU: "TEE-01", Name: "Tee", Slug: "tee", Price: 5000, IsActive: true, Quantity: 10}
	require.NoError(t, db.Create(prod).Error)

	_, err := s.AddItem(1, &AddItemRequest{ProductID: prod.ID, Quantity: 2})
	require.NoError(t, err)
	summary, err := s.AddItem(1, &AddItemRequest{ProductID: prod.ID, Quantity: 3})
	require.NoError(t, err)

	require.Len(t, summary.Items, 1, "repeated adds merge into one line")
	assert.Equal(t, 5, summary.Items[0].Quantity)

	var rows int64
	require.NoError(t, db.Model(&CartItem{}).Where("cart_id = ?", summary.CartID).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)
}

func TestAddItem_VariantsKeepSeparateLines(t *testing.T) {
	db := openTestDB(t)
	s := integrationService(db)

	prod := &catalog.Product{SKU: "MUG-01", Name: "Mug", Slug: "mug", Price: 3000, IsActive: true, Quantity: 10}
	require.NoError(t, db.Create(prod).Error)
	variant := &catalog.ProductVariant{ProductID: prod.ID, SKU: "MUG-01-L", Name: "Large", Price: 3500, IsActive: true}
	require.NoError(t, db.Create(variant).Error)

	_, err := s.AddItem(2, &AddItemRequest{ProductID: prod.ID, Quantity: 1})
	require.NoError(t, err)
	summary, err := s.AddItem(2, &AddItemRequest{ProductID: prod.ID, ProductVariantID: &variant.ID, Quantity: 1})
	require.NoError(t, err)

	assert.Len(t, summary.Items, 2, "variant and base product are distinct lines")
}

func TestAddItem_MergedQuantityRespectsStock(t *testing.T) {
	db := openTestDB(t)
	s := integrationService(db)

	prod := &catalog.Product{SKU: "CAP-01", Name: "Cap", Slug: "cap", Price: 2000, IsActive: true, Quantity: 3}
	require.NoError(t, db.Create(prod).Error)

	_, err := s.AddItem(3, &AddItemRequest{ProductID: prod.ID, Quantity: 2})
	require.NoError(t, err)

	_, err = s.AddItem(3, &AddItemRequest{ProductID: prod.ID, Quantity: 2})
	var invErr *InsufficientInventoryError
	require.ErrorAs(t, err, &invErr, "merged quantity above stock is rejected")
	assert.Equal(t, 3, invErr.Available)

	summary, err := s.GetSummary(3)
	require.NoError(t, err)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, 2, summary.Items[0].Quantity, "failed add leaves the line untouched")
}

func TestApplyCoupon_CachesDiscountOnCart(t *testing.T) {
	db := openTestDB(t)
	s := integrationService(db)

	prod := &catalog.Product{SKU: "BAG-01", Name: "Bag", Slug: "bag", Price: 8000, IsActive: true, Quantity: 10}
	require.NoError(t, db.Create(prod).Error)
	require.NoError(t, db.Create(&Coupon{Code: "SAVE10", Type: "PERCENTAGE", Value: 10, IsActive: true}).Error)

	_, err := s.AddItem(4, &AddItemRequest{ProductID: prod.ID, Quantity: 1})
	require.NoError(t, err)

	summary, err := s.ApplyCoupon(4, "save10")
	require.NoError(t, err)
	assert.Equal(t, int64(800), summary.Totals.Discount)

	var c Cart
	require.NoError(t, db.Where("user_id = ?", 4).First(&c).Error)
	assert.Equal(t, int64(800), c.DiscountAmount, "discount is cached on the cart row")
}
