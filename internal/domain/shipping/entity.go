// internal/domain/shipping/entity.go
package shipping

import (
	"time"

	"gorm.io/gorm"
)

// ShipmentStatus enumerates shipment lifecycle states
type ShipmentStatus string

const (
	ShipmentStatusPrep      ShipmentStatus = "PREP"
	ShipmentStatusInTransit ShipmentStatus = "IN_TRANSIT"
	ShipmentStatusDelivered ShipmentStatus = "DELIVERED"
	ShipmentStatusFailed    ShipmentStatus = "FAILED"
)

// Shipment is a durable record of a carrier shipment, keyed by tracking
// id so lookups survive restarts and multiple instances.
type Shipment struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	OrderID     uint           `gorm:"not null;index" json:"order_id"`
	Carrier     string         `gorm:"not null;size:50" json:"carrier"`
	TrackingID  string         `gorm:"uniqueIndex;not null;size:50" json:"tracking_id"`
	Method      string         `gorm:"not null;size:20" json:"method"`
	Status      ShipmentStatus `gorm:"not null;size:20;default:'PREP'" json:"status"`
	Cost        int64          `gorm:"not null" json:"cost"` // minor units
	City        string         `gorm:"size:100" json:"city"`
	ShippedAt   *time.Time     `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time     `json:"delivered_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (Shipment) TableName() string {
	return "shipments"
}
