package cart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/pricing"
)

func TestCouponValidate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	tests := []struct {
		name     string
		coupon   Coupon
		subtotal int64
		wantErr  error
	}{
		{
			name:     "valid",
			coupon:   Coupon{IsActive: true},
			subtotal: 5000,
		},
		{
			name:     "inactive",
			coupon:   Coupon{IsActive: false},
			subtotal: 5000,
			wantErr:  ErrCouponInactive,
		},
		{
			name:     "expired",
			coupon:   Coupon{IsActive: true, ExpiresAt: &yesterday},
			subtotal: 5000,
			wantErr:  ErrCouponExpired,
		},
		{
			name:     "not yet expired",
			coupon:   Coupon{IsActive: true, ExpiresAt: &tomorrow},
			subtotal: 5000,
		},
		{
			name:     "usage limit reached",
			coupon:   Coupon{IsActive: true, UsageLimit: 10, UsedCount: 10},
			subtotal: 5000,
			wantErr:  ErrCouponUsageLimit,
		},
		{
			name:     "under usage limit",
			coupon:   Coupon{IsActive: true, UsageLimit: 10, UsedCount: 9},
			subtotal: 5000,
		},
		{
			name:     "inactive reported before expiry",
			coupon:   Coupon{IsActive: false, ExpiresAt: &yesterday},
			subtotal: 5000,
			wantErr:  ErrCouponInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coupon.Validate(now, tt.subtotal)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCouponValidate_MinimumOrder(t *testing.T) {
	coupon := Coupon{IsActive: true, MinOrderAmount: 5000}

	err := coupon.Validate(time.Now().UTC(), 4999)
	var minErr *MinimumOrderError
	assert.ErrorAs(t, err, &minErr)
	assert.Equal(t, int64(5000), minErr.Required)
	assert.Equal(t, int64(4999), minErr.Subtotal)

	assert.NoError(t, coupon.Validate(time.Now().UTC(), 5000))
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SAVE10", NormalizeCode("  save10 "))
	assert.Equal(t, "SAVE10", NormalizeCode("SAVE10"))
}

func TestCouponToSpec(t *testing.T) {
	coupon := Coupon{
		Code:              "SAVE10",
		Type:              pricing.CouponTypePercentage,
		Value:             10,
		MaxDiscountAmount: 2000,
	}

	spec := coupon.ToSpec()
	assert.Equal(t, "SAVE10", spec.Code)
	assert.Equal(t, pricing.CouponTypePercentage, spec.Type)
	assert.Equal(t, int64(10), spec.Value)
	assert.Equal(t, int64(2000), spec.MaxDiscount)
}

func TestLines_PrefersCurrentCatalogPrice(t *testing.T) {
	variantID := uint(7)
	items := []CartItem{
		{
			ProductID: 1,
			Quantity:  2,
			Price:     900, // stale snapshot
			Product:   &catalog.Product{ID: 1, Price: 1000},
		},
		{
			ProductID:        2,
			ProductVariantID: &variantID,
			Quantity:         1,
			Price:            500,
			Product:          &catalog.Product{ID: 2, Price: 500},
			Variant:          &catalog.ProductVariant{ID: 7, Price: 750},
		},
		{
			ProductID: 3,
			Quantity:  4,
			Price:     250, // product not loaded, snapshot wins
		},
	}

	lines := Lines(items)
	assert.Equal(t, int64(1000), lines[0].UnitPrice)
	assert.Equal(t, int64(750), lines[1].UnitPrice, "variant price overrides product price")
	assert.Equal(t, int64(250), lines[2].UnitPrice)
	assert.Equal(t, 1, lines[1].Quantity)
	assert.Equal(t, &variantID, lines[1].VariantID)
}
