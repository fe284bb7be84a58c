package models

import "time"

type ShipmentStatus string

const (
	ShipmentStatusPending   ShipmentStatus = "pending"
	ShipmentStatusInTransit ShipmentStatus = "in_transit"
	ShipmentStatusDelivered ShipmentStatus = "delivered"
	ShipmentStatusDelayed   ShipmentStatus = "delayed"
	ShipmentStatusCancelled ShipmentStatus = "cancelled"
	ShipmentStatusReturned  ShipmentStatus = "returned"
)

// Shipment is one physical dispatch against an order. An order can
// accumulate several shipment records over its life.
type Shipment struct {
	ID             uint `gorm:"primaryKey"`
	OrderID        uint `gorm:"index;not null"`
	Order          Order
	Status         ShipmentStatus `gorm:"size:20;index;not null"`
	Courier        string         `gorm:"size:100"`
	TrackingNumber string         `gorm:"size:100"`
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
