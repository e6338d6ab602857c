package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/pricing"
)

func summarizeService() *Service {
	return &Service{
		engine: pricing.Engine{
			TaxRateBps:            1000,
			ShippingFlatRate:      1000,
			FreeShippingThreshold: 10000,
		},
	}
}

func TestSummarize_UsesCachedDiscount(t *testing.T) {
	// The cached amount deliberately disagrees with what the coupon would
	// compute live; reads must report the cache so concurrent summaries
	// during checkout all see the same discount.
	c := &Cart{
		ID:     1,
		UserID: 42,
		Items: []CartItem{
			{ProductID: 1, Quantity: 2, Price: 4000, Product: &catalog.Product{ID: 1, Price: 4000}},
		},
		Coupon:         &Coupon{Code: "SAVE10", Type: pricing.CouponTypePercentage, Value: 10},
		DiscountAmount: 500,
	}

	summary := summarizeService().summarize(c)
	assert.Equal(t, "SAVE10", summary.CouponCode)
	assert.Equal(t, int64(8000), summary.Totals.Subtotal)
	assert.Equal(t, int64(500), summary.Totals.Discount, "cached discount wins over live computation")
	assert.Equal(t, summary.Totals.Subtotal+summary.Totals.Tax+summary.Totals.Shipping-int64(500), summary.Totals.Total)
}

func TestSummarize_StableAcrossReads(t *testing.T) {
	c := &Cart{
		ID:     1,
		UserID: 42,
		Items: []CartItem{
			{ProductID: 1, Quantity: 3, Price: 2000, Product: &catalog.Product{ID: 1, Price: 2000}},
		},
		Coupon:         &Coupon{Code: "SAVE10", Type: pricing.CouponTypePercentage, Value: 10},
		DiscountAmount: 600,
	}

	s := summarizeService()
	first := s.summarize(c)
	second := s.summarize(c)
	assert.Equal(t, first.Totals, second.Totals)
}

func TestSummarize_NoCouponIgnoresStaleCache(t *testing.T) {
	// A leftover DiscountAmount without an attached coupon must not
	// discount anything.
	c := &Cart{
		ID:     1,
		UserID: 42,
		Items: []CartItem{
			{ProductID: 1, Quantity: 1, Price: 5000, Product: &catalog.Product{ID: 1, Price: 5000}},
		},
		DiscountAmount: 999,
	}

	summary := summarizeService().summarize(c)
	assert.Empty(t, summary.CouponCode)
	assert.Zero(t, summary.Totals.Discount)
}

func TestSummarize_EmptyCart(t *testing.T) {
	summary := summarizeService().summarize(&Cart{ID: 1, UserID: 42})
	assert.NotNil(t, summary.Items)
	assert.Empty(t, summary.Items)
	assert.Zero(t, summary.Totals.Subtotal)
}
