package pricing

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine() Engine {
	return Engine{
		TaxRateBps:            1000,
		ShippingFlatRate:      1000,
		FreeShippingThreshold: 10000,
	}
}

func TestPrice_SingleItemFreeShipping(t *testing.T) {
	// one item, unit price 5000, qty 2, no coupon, 10% tax
	result := testEngine().Price([]LineItem{
		{ProductID: 1, Quantity: 2, UnitPrice: 5000},
	}, nil)

	assert.Equal(t, int64(10000), result.Subtotal)
	assert.Equal(t, int64(0), result.Discount)
	assert.Equal(t, int64(1000), result.Tax)
	assert.Equal(t, int64(0), result.Shipping, "subtotal at threshold ships free")
	assert.Equal(t, int64(11000), result.Total)
	assert.Equal(t, 2, result.ItemCount)
}

func TestPrice_BelowThresholdPaysFlatRate(t *testing.T) {
	result := testEngine().Price([]LineItem{
		{ProductID: 1, Quantity: 1, UnitPrice: 9999},
	}, nil)

	assert.Equal(t, int64(1000), result.Shipping)
	assert.Equal(t, result.Subtotal+result.Tax+result.Shipping-result.Discount, result.Total)
}

func TestPrice_PercentageCoupon(t *testing.T) {
	// SAVE10: 10% off a subtotal of 8000 -> discount 800
	coupon := &CouponSpec{Code: "SAVE10", Type: CouponTypePercentage, Value: 10}
	result := testEngine().Price([]LineItem{
		{ProductID: 1, Quantity: 4, UnitPrice: 2000},
	}, coupon)

	assert.Equal(t, int64(8000), result.Subtotal)
	assert.Equal(t, int64(800), result.Discount)
	assert.Equal(t, int64(720), result.Tax, "tax applies after discount")
	assert.Equal(t, int64(1000), result.Shipping)
	assert.Equal(t, int64(8920), result.Total)
}

func TestPrice_CouponIdempotent(t *testing.T) {
	coupon := &CouponSpec{Code: "SAVE10", Type: CouponTypePercentage, Value: 10}
	items := []LineItem{{ProductID: 1, Quantity: 4, UnitPrice: 2000}}

	first := testEngine().Price(items, coupon)
	second := testEngine().Price(items, coupon)
	assert.Equal(t, first, second)
}

func TestPrice_Discounts(t *testing.T) {
	tests := []struct {
		name     string
		subtotal int64
		coupon   *CouponSpec
		want     int64
	}{
		{
			name:     "percentage capped by max discount",
			subtotal: 50000,
			coupon:   &CouponSpec{Type: CouponTypePercentage, Value: 20, MaxDiscount: 5000},
			want:     5000,
		},
		{
			name:     "percentage uncapped",
			subtotal: 50000,
			coupon:   &CouponSpec{Type: CouponTypePercentage, Value: 20},
			want:     10000,
		},
		{
			name:     "fixed amount",
			subtotal: 10000,
			coupon:   &CouponSpec{Type: CouponTypeFixed, Value: 1500},
			want:     1500,
		},
		{
			name:     "fixed clamped to subtotal",
			subtotal: 1000,
			coupon:   &CouponSpec{Type: CouponTypeFixed, Value: 5000},
			want:     1000,
		},
		{
			name:     "unknown type ignored",
			subtotal: 10000,
			coupon:   &CouponSpec{Type: CouponType("BOGO"), Value: 50},
			want:     0,
		},
		{
			name:     "negative value ignored",
			subtotal: 10000,
			coupon:   &CouponSpec{Type: CouponTypeFixed, Value: -500},
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := testEngine().Price([]LineItem{
				{ProductID: 1, Quantity: 1, UnitPrice: tt.subtotal},
			}, tt.coupon)
			assert.Equal(t, tt.want, result.Discount)
			assert.GreaterOrEqual(t, result.Total, int64(0))
		})
	}
}

func TestPriceWithDiscount(t *testing.T) {
	items := []LineItem{{ProductID: 1, Quantity: 1, UnitPrice: 8000}}

	tests := []struct {
		name         string
		discount     int64
		wantDiscount int64
	}{
		{"cached discount applied verbatim", 800, 800},
		{"negative discount treated as zero", -100, 0},
		{"discount above subtotal clamped", 20000, 8000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := testEngine().PriceWithDiscount(items, tt.discount)
			assert.Equal(t, int64(8000), result.Subtotal)
			assert.Equal(t, tt.wantDiscount, result.Discount)
			assert.Equal(t, result.Subtotal+result.Tax+result.Shipping-result.Discount, result.Total)
			assert.GreaterOrEqual(t, result.Total, int64(0))
			assert.False(t, result.Clamped)
		})
	}
}

func TestPriceWithDiscount_MatchesCouponPricing(t *testing.T) {
	// Re-pricing from a cached discount must agree with pricing from the
	// coupon that produced it.
	items := []LineItem{{ProductID: 1, Quantity: 4, UnitPrice: 2000}}
	coupon := &CouponSpec{Code: "SAVE10", Type: CouponTypePercentage, Value: 10}

	live := testEngine().Price(items, coupon)
	cached := testEngine().PriceWithDiscount(items, live.Discount)
	assert.Equal(t, live, cached)
}

func TestPrice_EmptyCart(t *testing.T) {
	result := testEngine().Price(nil, nil)
	assert.Equal(t, Result{Shipping: 1000, Total: 1000}, result)
}

func TestPrice_TaxRoundsHalfUp(t *testing.T) {
	tests := []struct {
		name    string
		rateBps int64
		taxable int64
		want    int64
	}{
		{"exact", 1000, 10000, 1000},
		{"rounds up at half", 1000, 5, 1},      // 0.5 -> 1
		{"rounds down below half", 1000, 4, 0}, // 0.4 -> 0
		{"odd rate", 1550, 999, 155},           // 154.845 -> 155
		{"zero rate", 0, 10000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Engine{TaxRateBps: tt.rateBps, FreeShippingThreshold: 1}
			result := e.Price([]LineItem{{ProductID: 1, Quantity: 1, UnitPrice: tt.taxable}}, nil)
			assert.Equal(t, tt.want, result.Tax)
		})
	}
}

func TestPrice_RandomizedInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	engine := testEngine()

	for i := 0; i < 1000; i++ {
		items := make([]LineItem, rng.Intn(6))
		var wantSubtotal int64
		for j := range items {
			items[j] = LineItem{
				ProductID: uint(j + 1),
				Quantity:  rng.Intn(10) + 1,
				UnitPrice: int64(rng.Intn(100000)),
			}
			wantSubtotal += items[j].UnitPrice * int64(items[j].Quantity)
		}

		var coupon *CouponSpec
		switch rng.Intn(3) {
		case 1:
			coupon = &CouponSpec{Type: CouponTypePercentage, Value: int64(rng.Intn(101)), MaxDiscount: int64(rng.Intn(5000))}
		case 2:
			coupon = &CouponSpec{Type: CouponTypeFixed, Value: int64(rng.Intn(200000))}
		}

		result := engine.Price(items, coupon)
		require.Equal(t, wantSubtotal, result.Subtotal)
		require.LessOrEqual(t, result.Discount, result.Subtotal)
		require.GreaterOrEqual(t, result.Discount, int64(0))
		require.Equal(t, result.Subtotal+result.Tax+result.Shipping-result.Discount, result.Total)
		require.GreaterOrEqual(t, result.Total, int64(0))
		require.False(t, result.Clamped, "discount never exceeds subtotal, so the total cannot go negative")
	}
}
