package invoice

import (
	"errors"
	"time"

	"supplychain-backend/internal/models"

	"gorm.io/gorm"
)

// EnsureInvoice issues the invoice for a delivered order exactly once.
// Idempotent: the existing invoice is returned untouched on repeat calls.
// Reachable from two delivery paths, so the existence check matters.
// The order must be loaded with its items.
func EnsureInvoice(tx *gorm.DB, order *models.Order) (*models.Invoice, bool, error) {
	var existing models.Invoice
	err := tx.Where("order_id = ?", order.ID).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	now := time.Now().UTC()
	due := now.AddDate(0, 0, 30)
	inv := models.Invoice{
		OrderID:    order.ID,
		SupplierID: order.SupplierID,
		Amount:     order.TotalAmount(),
		Status:     models.InvoiceStatusUnpaid,
		IssuedAt:   now,
		DueDate:    &due,
	}
	if err := tx.Create(&inv).Error; err != nil {
		return nil, false, err
	}
	return &inv, true, nil
}
