// internal/domain/shipping/local.go
package shipping

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/your-org/storefront-backend/internal/config"
)

// LocalCarrier is the in-country delivery carrier. Pricing is weight and
// destination based: a base cost covers the included weight, each started
// kg above it adds a surcharge, the capital gets a discount and remote
// ports a surcharge. Express delivery exists only for the configured
// express localities.
type LocalCarrier struct {
	db     *gorm.DB
	config config.ShippingConfig
}

const (
	localCarrierName     = "local"
	remoteLocality       = "nouadhibou"
	remoteSurchargePct   = 20
	expressMarkupPct     = 50
	standardDeliveryDays = 3
	expressDeliveryDays  = 1
)

// NewLocalCarrier creates the local carrier backed by postgres
func NewLocalCarrier(db *gorm.DB, cfg config.ShippingConfig) *LocalCarrier {
	return &LocalCarrier{db: db, config: cfg}
}

// Name returns the registry key
func (c *LocalCarrier) Name() string {
	return localCarrierName
}

// Quote prices the available delivery methods for a destination
func (c *LocalCarrier) Quote(req *QuoteRequest) ([]Quote, error) {
	standard := c.baseCost(req)
	city := normalizeCity(req.City)

	quotes := []Quote{{
		Carrier:       localCarrierName,
		Method:        MethodStandard,
		Cost:          standard,
		EstimatedDays: standardDeliveryDays,
		Description:   "Standard delivery",
	}}

	if c.isExpressLocality(city) {
		quotes = append(quotes, Quote{
			Carrier:       localCarrierName,
			Method:        MethodExpress,
			Cost:          standard * (100 + expressMarkupPct) / 100,
			EstimatedDays: expressDeliveryDays,
			Description:   "Express delivery",
		})
	}

	return quotes, nil
}

// CreateShipment prices the chosen method, assigns a tracking id and
// persists the shipment in PREP state.
func (c *LocalCarrier) CreateShipment(orderID uint, method string, req *QuoteRequest) (*Shipment, error) {
	quotes, err := c.Quote(req)
	if err != nil {
		return nil, err
	}

	var chosen *Quote
	for i := range quotes {
		if quotes[i].Method == method {
			chosen = &quotes[i]
			break
		}
	}
	if chosen == nil {
		return nil, ErrNoQuoteAvailable
	}

	shipment := &Shipment{
		OrderID:    orderID,
		Carrier:    localCarrierName,
		TrackingID: newTrackingID(),
		Method:     chosen.Method,
		Status:     ShipmentStatusPrep,
		Cost:       chosen.Cost,
		City:       req.City,
	}
	if err := c.db.Create(shipment).Error; err != nil {
		return nil, fmt.Errorf("failed to create shipment: %w", err)
	}
	return shipment, nil
}

// Track looks up a shipment by tracking id
func (c *LocalCarrier) Track(trackingID string) (*Shipment, error) {
	var shipment Shipment
	err := c.db.Where("tracking_id = ? AND carrier = ?", trackingID, localCarrierName).
		First(&shipment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShipmentNotFound
		}
		return nil, fmt.Errorf("failed to look up shipment: %w", err)
	}
	return &shipment, nil
}

// baseCost computes the standard cost for the request's weight and city
func (c *LocalCarrier) baseCost(req *QuoteRequest) int64 {
	cost := c.config.BaseCost

	extra := c.totalWeight(req.Parcels) - c.config.IncludedWeightKg
	if extra > 0 {
		cost += int64(math.Ceil(extra)) * c.config.PerKgSurcharge
	}

	switch normalizeCity(req.City) {
	case "nouakchott":
		cost = cost * int64(100-c.config.CapitalDiscountPct) / 100
	case remoteLocality:
		cost = cost * (100 + remoteSurchargePct) / 100
	}

	return cost
}

func (c *LocalCarrier) totalWeight(parcels []Parcel) float64 {
	var total float64
	for _, p := range parcels {
		weight := p.Weight
		if weight <= 0 {
			weight = c.config.DefaultItemWeight
		}
		qty := p.Quantity
		if qty < 1 {
			qty = 1
		}
		total += weight * float64(qty)
	}
	return total
}

func (c *LocalCarrier) isExpressLocality(city string) bool {
	for _, locality := range c.config.ExpressLocalities {
		if normalizeCity(locality) == city {
			return true
		}
	}
	return false
}

func normalizeCity(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// newTrackingID returns ids like LC84521907A3F0
func newTrackingID() string {
	digits := uuid.New().ID() % 100000000
	suffix := strings.ToUpper(uuid.NewString()[:4])
	return fmt.Sprintf("LC%08d%s", digits, suffix)
}
