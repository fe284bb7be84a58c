package models

import "time"

type InvoiceStatus string

const (
	InvoiceStatusUnpaid        InvoiceStatus = "unpaid"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceStatusPaid          InvoiceStatus = "paid"
)

// Invoice is issued once per delivered order. Uniqueness is enforced by an
// existence check at issue time, not by a database constraint.
type Invoice struct {
	ID            uint `gorm:"primaryKey"`
	OrderID       uint `gorm:"index;not null"`
	Order         Order
	SupplierID    uint          `gorm:"index;not null"`
	Amount        float64       `gorm:"not null"`
	Status        InvoiceStatus `gorm:"size:20;not null"`
	IssuedAt      time.Time
	DueDate       *time.Time
	PaidAt        *time.Time
	PaymentMethod string `gorm:"size:50"`
	Notes         string `gorm:"size:500"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
