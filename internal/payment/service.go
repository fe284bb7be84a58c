package payment

import (
	"errors"
	"fmt"

	"supplychain-backend/internal/apperr"
	"supplychain-backend/internal/auth"
	"supplychain-backend/internal/models"
	"supplychain-backend/internal/order"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sandbox gateway: payments walk pending -> authorized -> captured (or
// failed/cancelled) without talking to any real processor. Settlement
// touches payment status only; the paid note on the order is its own
// operation.

var validMethods = map[models.PaymentMethod]bool{
	models.PaymentMethodCard:         true,
	models.PaymentMethodBankTransfer: true,
	models.PaymentMethodCash:         true,
	models.PaymentMethodMobileWallet: true,
}

// Start opens a pending payment for the full outstanding amount of the
// order.
func Start(db *gorm.DB, actor auth.Actor, orderID uint, method models.PaymentMethod) (*models.Payment, error) {
	if !validMethods[method] {
		return nil, apperr.ValidationFailed(fmt.Sprintf("Unknown payment method %q", method))
	}

	o, err := order.Get(db, actor, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.HasRole(models.RoleWarehouseStaff) || !actor.OwnsWarehouse(o.WarehouseID) {
		return nil, apperr.Forbidden("Only the ordering warehouse can pay")
	}
	if o.Status == models.OrderStatusCancelled || o.Status == models.OrderStatusRejected {
		return nil, apperr.PreconditionFailed(fmt.Sprintf("Order %d is %s, payments are closed", o.ID, o.Status))
	}

	userID := actor.UserID
	p := models.Payment{
		OrderID:         o.ID,
		Amount:          o.TotalAmount(),
		Method:          method,
		Status:          models.PaymentStatusPending,
		Gateway:         "sandbox",
		TransactionID:   uuid.NewString(),
		CreatedByUserID: &userID,
	}
	if err := db.Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func load(tx *gorm.DB, paymentID uint) (*models.Payment, error) {
	var p models.Payment
	err := tx.Preload("Order").Preload("Order.Items").First(&p, "id = ?", paymentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(fmt.Sprintf("Payment %d not found", paymentID))
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Capture settles a pending payment.
func Capture(db *gorm.DB, actor auth.Actor, paymentID uint) (*models.Payment, error) {
	var out *models.Payment
	err := db.Transaction(func(tx *gorm.DB) error {
		p, err := settle(tx, actor, paymentID, models.PaymentStatusCaptured)
		if err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Fail marks a pending payment as declined by the sandbox gateway.
func Fail(db *gorm.DB, actor auth.Actor, paymentID uint) (*models.Payment, error) {
	var out *models.Payment
	err := db.Transaction(func(tx *gorm.DB) error {
		p, err := settle(tx, actor, paymentID, models.PaymentStatusFailed)
		if err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Cancel voids a pending payment before settlement.
func Cancel(db *gorm.DB, actor auth.Actor, paymentID uint) (*models.Payment, error) {
	var out *models.Payment
	err := db.Transaction(func(tx *gorm.DB) error {
		p, err := settle(tx, actor, paymentID, models.PaymentStatusCancelled)
		if err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// settle moves a payment out of pending into a final status with a
// guarded update.
func settle(tx *gorm.DB, actor auth.Actor, paymentID uint, next models.PaymentStatus) (*models.Payment, error) {
	p, err := load(tx, paymentID)
	if err != nil {
		return nil, err
	}
	if !actor.HasRole(models.RoleAdmin) &&
		(!actor.HasRole(models.RoleWarehouseStaff) || !actor.OwnsWarehouse(p.Order.WarehouseID)) {
		return nil, apperr.Forbidden("Payment belongs to another warehouse")
	}
	if p.Status != models.PaymentStatusPending && p.Status != models.PaymentStatusAuthorized {
		return nil, apperr.PreconditionFailed(fmt.Sprintf("Payment %d is already %s", p.ID, p.Status))
	}

	res := tx.Model(&models.Payment{}).
		Where("id = ? AND status = ?", p.ID, p.Status).
		Update("status", next)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.ConcurrencyConflict(fmt.Sprintf("Payment %d changed concurrently, retry", p.ID))
	}
	p.Status = next
	return p, nil
}
