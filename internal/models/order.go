package models

import "time"

type OrderStatus string

const (
	OrderStatusDraft               OrderStatus = "draft"
	OrderStatusPending             OrderStatus = "pending" // legacy, kept for old rows; no transition produces it
	OrderStatusPendingApproval     OrderStatus = "pending_approval"
	OrderStatusApproved            OrderStatus = "approved"
	OrderStatusSentToSupplier      OrderStatus = "sent_to_supplier"
	OrderStatusConfirmedBySupplier OrderStatus = "confirmed_by_supplier"
	OrderStatusProcessing          OrderStatus = "processing"
	OrderStatusShipped             OrderStatus = "shipped"
	OrderStatusDelivered           OrderStatus = "delivered"
	OrderStatusCancelled           OrderStatus = "cancelled"
	OrderStatusRejected            OrderStatus = "rejected"
)

// IsTerminal reports whether no further transition may leave the status.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusRejected || s == OrderStatusDelivered
}

// Order is a procurement request from a warehouse to a supplier.
// WarehouseID and SupplierID are fixed at creation and never change.
type Order struct {
	ID               uint `gorm:"primaryKey"`
	WarehouseID      uint `gorm:"index;not null"`
	Warehouse        Warehouse
	SupplierID       uint `gorm:"index;not null"`
	Supplier         Supplier
	CreatedByUserID  uint        `gorm:"not null"`
	CreatedByUser    User        `gorm:"foreignKey:CreatedByUserID"`
	Status           OrderStatus `gorm:"size:30;index;not null"`
	ApprovedAt       *time.Time
	ApprovedByUserID *uint
	ShippedAt        *time.Time
	DeliveredAt      *time.Time
	TrackingNumber   string `gorm:"size:100"`
	Notes            string `gorm:"size:2000"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TotalAmount is the sum of line totals across all items.
func (o *Order) TotalAmount() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.LineTotal()
	}
	return total
}

// OrderItem is a line of an order. UnitPrice is captured from the product at
// the time the line is added and is not re-priced later.
type OrderItem struct {
	ID        uint `gorm:"primaryKey"`
	OrderID   uint `gorm:"index;not null"`
	ProductID uint `gorm:"index;not null"`
	Product   Product
	Quantity  int     `gorm:"not null"`
	UnitPrice float64 `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (i *OrderItem) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}
