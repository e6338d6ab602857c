package shipping

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/storefront-backend/internal/config"
)

func testCarrier() *LocalCarrier {
	return NewLocalCarrier(nil, config.ShippingConfig{
		DefaultCarrier:     "local",
		ExpressLocalities:  []string{"nouakchott"},
		BaseCost:           5000,
		PerKgSurcharge:     1000,
		IncludedWeightKg:   2.0,
		DefaultItemWeight:  0.5,
		CapitalDiscountPct: 20,
	})
}

func TestLocalCarrier_Quote(t *testing.T) {
	tests := []struct {
		name        string
		req         QuoteRequest
		wantMethods []string
		wantCosts   []int64
		wantDays    []int
	}{
		{
			name: "capital gets discount and express",
			req: QuoteRequest{
				City:    "Nouakchott",
				Parcels: []Parcel{{Quantity: 2}}, // 1 kg at default weight
			},
			wantMethods: []string{MethodStandard, MethodExpress},
			wantCosts:   []int64{4000, 6000},
			wantDays:    []int{3, 1},
		},
		{
			name: "remote port pays surcharge, no express",
			req: QuoteRequest{
				City:    "Nouadhibou",
				Parcels: []Parcel{{Weight: 1.0, Quantity: 1}},
			},
			wantMethods: []string{MethodStandard},
			wantCosts:   []int64{6000},
			wantDays:    []int{3},
		},
		{
			name: "other city pays base cost",
			req: QuoteRequest{
				City:    "Kiffa",
				Parcels: []Parcel{{Weight: 2.0, Quantity: 1}},
			},
			wantMethods: []string{MethodStandard},
			wantCosts:   []int64{5000},
			wantDays:    []int{3},
		},
		{
			name: "weight above included adds per started kg",
			req: QuoteRequest{
				City:    "Kiffa",
				Parcels: []Parcel{{Weight: 3.5, Quantity: 1}}, // 1.5 kg extra -> 2 kg billed
			},
			wantMethods: []string{MethodStandard},
			wantCosts:   []int64{7000},
			wantDays:    []int{3},
		},
		{
			name: "quantity multiplies weight",
			req: QuoteRequest{
				City:    "Kiffa",
				Parcels: []Parcel{{Weight: 1.0, Quantity: 4}}, // 4 kg -> 2 extra
			},
			wantMethods: []string{MethodStandard},
			wantCosts:   []int64{7000},
			wantDays:    []int{3},
		},
		{
			name: "city matching is case insensitive",
			req: QuoteRequest{
				City:    "  NOUAKCHOTT ",
				Parcels: []Parcel{{Weight: 0.5, Quantity: 1}},
			},
			wantMethods: []string{MethodStandard, MethodExpress},
			wantCosts:   []int64{4000, 6000},
			wantDays:    []int{3, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quotes, err := testCarrier().Quote(&tt.req)
			require.NoError(t, err)
			require.Len(t, quotes, len(tt.wantMethods))

			for i, q := range quotes {
				assert.Equal(t, "local", q.Carrier)
				assert.Equal(t, tt.wantMethods[i], q.Method)
				assert.Equal(t, tt.wantCosts[i], q.Cost)
				assert.Equal(t, tt.wantDays[i], q.EstimatedDays)
			}
		})
	}
}

func TestLocalCarrier_QuoteEmptyParcels(t *testing.T) {
	quotes, err := testCarrier().Quote(&QuoteRequest{City: "Kiffa"})
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, int64(5000), quotes[0].Cost)
}

func TestNewTrackingID(t *testing.T) {
	pattern := regexp.MustCompile(`^LC\d{8}[0-9A-F]{4}$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := newTrackingID()
		assert.Regexp(t, pattern, id)
		assert.False(t, seen[id], "tracking id %s repeated", id)
		seen[id] = true
	}
}
