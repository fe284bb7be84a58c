package models

import "time"

type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodMobileWallet PaymentMethod = "mobile_wallet"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusAuthorized PaymentStatus = "authorized"
	PaymentStatusCaptured   PaymentStatus = "captured"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

// Payment is a gateway stub: it records amount and method and walks a
// sandbox status lifecycle. No real gateway integration.
type Payment struct {
	ID              uint `gorm:"primaryKey"`
	OrderID         uint `gorm:"index;not null"`
	Order           Order
	Amount          float64       `gorm:"not null"`
	Currency        string        `gorm:"size:3;default:USD"`
	Method          PaymentMethod `gorm:"size:20;not null"`
	Status          PaymentStatus `gorm:"size:20;not null"`
	Gateway         string        `gorm:"size:50"`
	TransactionID   string        `gorm:"size:100"`
	CreatedByUserID *uint
	Notes           string `gorm:"size:1000"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
