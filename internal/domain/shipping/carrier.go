// internal/domain/shipping/carrier.go
package shipping

import "errors"

var (
	// ErrUnsupportedCarrier is returned for a carrier outside the registry
	ErrUnsupportedCarrier = errors.New("unsupported shipping carrier")

	// ErrShipmentNotFound is returned when a tracking id has no shipment
	ErrShipmentNotFound = errors.New("shipment not found")

	// ErrNoQuoteAvailable is returned when no method serves the destination
	ErrNoQuoteAvailable = errors.New("no shipping quote available for destination")
)

// Shipping methods offered by carriers
const (
	MethodStandard = "standard"
	MethodExpress  = "express"
)

// Parcel is one shippable cart or order line
type Parcel struct {
	Weight   float64 `json:"weight"` // kg per unit, 0 = use carrier default
	Quantity int     `json:"quantity"`
}

// QuoteRequest describes a prospective delivery
type QuoteRequest struct {
	City    string   `json:"city" binding:"required"`
	Parcels []Parcel `json:"parcels"`
}

// Quote is one priced delivery option
type Quote struct {
	Carrier       string `json:"carrier"`
	Method        string `json:"method"`
	Cost          int64  `json:"cost"` // minor units
	EstimatedDays int    `json:"estimated_days"`
	Description   string `json:"description"`
}

// Carrier is the interface every shipping carrier implements
type Carrier interface {
	Name() string
	Quote(req *QuoteRequest) ([]Quote, error)
	CreateShipment(orderID uint, method string, req *QuoteRequest) (*Shipment, error)
	Track(trackingID string) (*Shipment, error)
}

// Registry resolves carriers by name. The set is closed at startup.
type Registry struct {
	carriers map[string]Carrier
}

// NewRegistry builds a registry over the given carriers
func NewRegistry(carriers ...Carrier) *Registry {
	r := &Registry{carriers: make(map[string]Carrier, len(carriers))}
	for _, c := range carriers {
		r.carriers[c.Name()] = c
	}
	return r
}

// Resolve returns the carrier registered under name
func (r *Registry) Resolve(name string) (Carrier, error) {
	c, ok := r.carriers[name]
	if !ok {
		return nil, ErrUnsupportedCarrier
	}
	return c, nil
}
