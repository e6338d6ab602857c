package order

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"github.com/your-org/storefront-backend/internal/domain/payment"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusNew, StatusPending},
		{StatusNew, StatusPaid},
		{StatusNew, StatusCancelled},
		{StatusPending, StatusPaid},
		{StatusPending, StatusCancelled},
		{StatusPaid, StatusFulfilled},
		{StatusPaid, StatusCancelled},
	}
	for _, tt := range allowed {
		assert.True(t, CanTransition(tt.from, tt.to), "%s -> %s should be allowed", tt.from, tt.to)
	}

	denied := []struct{ from, to Status }{
		{StatusPaid, StatusPending},
		{StatusPaid, StatusNew},
		{StatusPending, StatusFulfilled},
		{StatusFulfilled, StatusCancelled},
		{StatusFulfilled, StatusPaid},
		{StatusCancelled, StatusPending},
		{StatusCancelled, StatusPaid},
		{StatusNew, StatusFulfilled},
	}
	for _, tt := range denied {
		assert.False(t, CanTransition(tt.from, tt.to), "%s -> %s should be denied", tt.from, tt.to)
	}
}

func TestStatusIsTerminal(t *testing.T) {
	assert.True(t, StatusFulfilled.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusNew.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusPaid.IsTerminal())
}

func TestNewOrderNumber(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^ORD-20250601-[0-9A-F]{8}$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		number := NewOrderNumber(now)
		assert.Regexp(t, pattern, number)
		assert.False(t, seen[number], "order number %s repeated", number)
		seen[number] = true
	}
}

func TestOrderCanBeCancelled(t *testing.T) {
	assert.True(t, (&Order{Status: StatusNew}).CanBeCancelled())
	assert.True(t, (&Order{Status: StatusPending}).CanBeCancelled())
	assert.True(t, (&Order{Status: StatusPaid}).CanBeCancelled())
	assert.False(t, (&Order{Status: StatusFulfilled}).CanBeCancelled())
	assert.False(t, (&Order{Status: StatusCancelled}).CanBeCancelled())
}

func TestAddressIsZero(t *testing.T) {
	assert.True(t, Address{}.IsZero())
	assert.False(t, Address{City: "Nouakchott"}.IsZero())
}

func TestSnapshotItems(t *testing.T) {
	variantID := uint(9)
	items := []cart.CartItem{
		{
			ProductID: 1,
			Quantity:  2,
			Price:     4500, // stale snapshot, catalog price wins
			Product:   &catalog.Product{ID: 1, SKU: "TEE-01", Name: "Tee", Price: 5000, Weight: 0.2},
		},
		{
			ProductID:        2,
			ProductVariantID: &variantID,
			Quantity:         1,
			Price:            3000,
			Product:          &catalog.Product{ID: 2, SKU: "MUG-01", Name: "Mug", Price: 3000, Weight: 0.4},
			Variant:          &catalog.ProductVariant{ID: 9, SKU: "MUG-01-L", Price: 3500, Weight: 1.1},
		},
		{
			ProductID: 3,
			Quantity:  1,
			Price:     1000, // product not loaded, snapshot wins
		},
	}

	snapshot := snapshotItems(items)
	require.Len(t, snapshot, 3)

	assert.Equal(t, "TEE-01", snapshot[0].SKU)
	assert.Equal(t, "Tee", snapshot[0].Name)
	assert.Equal(t, int64(5000), snapshot[0].Price)
	assert.Equal(t, int64(10000), snapshot[0].TotalPrice)
	assert.Equal(t, 0.2, snapshot[0].Weight)

	assert.Equal(t, "MUG-01-L", snapshot[1].SKU, "variant SKU wins")
	assert.Equal(t, int64(3500), snapshot[1].Price, "variant price wins")
	assert.Equal(t, int64(3500), snapshot[1].TotalPrice)
	assert.Equal(t, &variantID, snapshot[1].ProductVariantID)
	assert.Equal(t, 1.1, snapshot[1].Weight, "variant weight wins")

	assert.Equal(t, int64(1000), snapshot[2].Price)
	assert.Zero(t, snapshot[2].Weight, "unknown weight stays zero for the carrier default")
}

func TestInvalidTransitionError(t *testing.T) {
	err := &InvalidTransitionError{From: StatusFulfilled, To: StatusCancelled}
	assert.Contains(t, err.Error(), "FULFILLED")
	assert.Contains(t, err.Error(), "CANCELLED")
}

func TestOrderNumberFromIntent(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	withNumber := orderNumberFromIntent(&payment.WebhookIntent{
		Metadata: map[string]string{"orderNumber": "ORD-20250601-AAAA1111"},
	}, now)
	assert.Equal(t, "ORD-20250601-AAAA1111", withNumber)

	generated := orderNumberFromIntent(&payment.WebhookIntent{}, now)
	assert.Regexp(t, `^ORD-20250601-[0-9A-F]{8}$`, generated)
}
