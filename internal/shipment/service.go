package shipment

import (
	"errors"
	"fmt"
	"time"

	"supplychain-backend/internal/apperr"
	"supplychain-backend/internal/auth"
	"supplychain-backend/internal/invoice"
	"supplychain-backend/internal/models"
	"supplychain-backend/internal/stock"
	"supplychain-backend/internal/task"

	"gorm.io/gorm"
)

// Supplier-side shipment records can only be opened while the order is in
// one of these states.
var creatableOrderStatuses = map[models.OrderStatus]bool{
	models.OrderStatusApproved:            true,
	models.OrderStatusSentToSupplier:      true,
	models.OrderStatusConfirmedBySupplier: true,
	models.OrderStatusProcessing:          true,
}

func loadShipment(tx *gorm.DB, shipmentID uint) (*models.Shipment, error) {
	var s models.Shipment
	err := tx.Preload("Order").Preload("Order.Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.id ASC")
	}).First(&s, "id = ?", shipmentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(fmt.Sprintf("Shipment %d not found", shipmentID))
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateInput is what a supplier provides when dispatching goods.
type CreateInput struct {
	OrderID        uint
	Courier        string
	TrackingNumber string
	InTransit      bool
}

// Create opens a shipment record for one of the supplier's orders. When
// the shipment is created already in transit the order moves to shipped.
func Create(db *gorm.DB, actor auth.Actor, in CreateInput) (*models.Shipment, error) {
	if !actor.HasRole(models.RoleSupplier) || actor.SupplierID == nil {
		return nil, apperr.Forbidden("Only suppliers can create shipments")
	}

	var out *models.Shipment
	err := db.Transaction(func(tx *gorm.DB) error {
		var o models.Order
		err := tx.First(&o, "id = ?", in.OrderID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(fmt.Sprintf("Order %d not found", in.OrderID))
		}
		if err != nil {
			return err
		}
		if !actor.OwnsSupplier(o.SupplierID) {
			return apperr.Forbidden("Order belongs to another supplier")
		}
		if !creatableOrderStatuses[o.Status] {
			return apperr.PreconditionFailed(
				fmt.Sprintf("Order %d is %s, shipments cannot be created", o.ID, o.Status),
				apperr.WithDetail("status", o.Status),
			)
		}

		s := models.Shipment{
			OrderID:        o.ID,
			Status:         models.ShipmentStatusPending,
			Courier:        in.Courier,
			TrackingNumber: in.TrackingNumber,
		}
		if in.InTransit {
			now := time.Now().UTC()
			s.Status = models.ShipmentStatusInTransit
			s.ShippedAt = &now
			if err := markOrderShipped(tx, &o, now, in.TrackingNumber); err != nil {
				return err
			}
		}
		if err := tx.Create(&s).Error; err != nil {
			return err
		}
		out = &s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateInput carries the editable shipment fields. Nil means unchanged.
type UpdateInput struct {
	Courier        *string
	TrackingNumber *string
}

// Update edits courier details on a shipment that has not reached a
// terminal status.
func Update(db *gorm.DB, actor auth.Actor, shipmentID uint, in UpdateInput) (*models.Shipment, error) {
	var out *models.Shipment
	err := db.Transaction(func(tx *gorm.DB) error {
		s, err := loadShipment(tx, shipmentID)
		if err != nil {
			return err
		}
		if !actor.HasRole(models.RoleSupplier) || !actor.OwnsSupplier(s.Order.SupplierID) {
			return apperr.Forbidden("Shipment belongs to another supplier")
		}
		if s.Status == models.ShipmentStatusDelivered || s.Status == models.ShipmentStatusCancelled {
			return apperr.PreconditionFailed(fmt.Sprintf("Shipment %d is %s and can no longer be edited", s.ID, s.Status))
		}

		updates := map[string]interface{}{}
		if in.Courier != nil {
			updates["courier"] = *in.Courier
			s.Courier = *in.Courier
		}
		if in.TrackingNumber != nil {
			updates["tracking_number"] = *in.TrackingNumber
			s.TrackingNumber = *in.TrackingNumber
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.Shipment{}).Where("id = ?", s.ID).Updates(updates).Error; err != nil {
				return err
			}
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkShipped puts a shipment in transit. Calling it on a shipment that
// is already in transit is a no-op success.
func MarkShipped(db *gorm.DB, actor auth.Actor, shipmentID uint) (*models.Shipment, error) {
	var out *models.Shipment
	err := db.Transaction(func(tx *gorm.DB) error {
		s, err := loadShipment(tx, shipmentID)
		if err != nil {
			return err
		}
		if !actor.HasRole(models.RoleSupplier) || !actor.OwnsSupplier(s.Order.SupplierID) {
			return apperr.Forbidden("Shipment belongs to another supplier")
		}
		if s.Status == models.ShipmentStatusInTransit {
			out = s
			return nil
		}
		if s.Status == models.ShipmentStatusDelivered || s.Status == models.ShipmentStatusCancelled {
			return apperr.PreconditionFailed(fmt.Sprintf("Shipment %d is already %s", s.ID, s.Status))
		}

		now := time.Now().UTC()
		res := tx.Model(&models.Shipment{}).
			Where("id = ? AND status = ?", s.ID, s.Status).
			Updates(map[string]interface{}{"status": models.ShipmentStatusInTransit, "shipped_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ConcurrencyConflict(fmt.Sprintf("Shipment %d changed concurrently, retry", s.ID))
		}
		s.Status = models.ShipmentStatusInTransit
		s.ShippedAt = &now

		if err := markOrderShipped(tx, &s.Order, now, s.TrackingNumber); err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// markOrderShipped reflects a dispatch onto the order. Orders already
// shipped or delivered are left alone.
func markOrderShipped(tx *gorm.DB, o *models.Order, now time.Time, trackingNumber string) error {
	if o.Status == models.OrderStatusShipped || o.Status == models.OrderStatusDelivered {
		return nil
	}
	if o.Status.IsTerminal() {
		return apperr.PreconditionFailed(fmt.Sprintf("Order %d is already %s", o.ID, o.Status))
	}
	updates := map[string]interface{}{
		"status":     models.OrderStatusShipped,
		"shipped_at": now,
	}
	if trackingNumber != "" {
		updates["tracking_number"] = trackingNumber
	}
	res := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", o.ID, o.Status).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ConcurrencyConflict(fmt.Sprintf("Order %d changed concurrently, retry", o.ID))
	}
	o.Status = models.OrderStatusShipped
	return nil
}

// MarkDelivered receives the shipment into the warehouse: every order
// line increments on-hand inventory, gets a receipt row in the
// transaction log and a putaway task, the order becomes delivered and an
// invoice is issued if one does not exist yet. Re-delivering an already
// delivered shipment is a no-op success with none of the side effects.
func MarkDelivered(db *gorm.DB, actor auth.Actor, shipmentID uint) (*models.Shipment, error) {
	var out *models.Shipment
	err := db.Transaction(func(tx *gorm.DB) error {
		s, err := loadShipment(tx, shipmentID)
		if err != nil {
			return err
		}
		o := &s.Order
		if !actor.HasRole(models.RoleWarehouseStaff) || !actor.OwnsWarehouse(o.WarehouseID) {
			return apperr.Forbidden("Only the receiving warehouse can mark a shipment delivered")
		}
		if s.Status == models.ShipmentStatusDelivered {
			out = s
			return nil
		}
		if s.Status == models.ShipmentStatusCancelled {
			return apperr.PreconditionFailed(fmt.Sprintf("Shipment %d is cancelled", s.ID))
		}

		userID := actor.UserID
		for _, item := range o.Items {
			inv, err := stock.ReceiveWarehouseStock(tx, o.WarehouseID, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			refID := s.ID
			if err := stock.LogTransaction(tx, stock.LogOptions{
				WarehouseID:       o.WarehouseID,
				ProductID:         item.ProductID,
				Quantity:          item.Quantity,
				Type:              models.TransactionReceipt,
				ReferenceType:     "shipment",
				ReferenceID:       &refID,
				PerformedByUserID: &userID,
				Notes:             fmt.Sprintf("Received via shipment %d for order %d", s.ID, o.ID),
			}); err != nil {
				return err
			}
			if err := task.CreatePutaway(tx, o.WarehouseID, item.ProductID, item.Quantity, inv.Bin); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		res := tx.Model(&models.Shipment{}).
			Where("id = ? AND status = ?", s.ID, s.Status).
			Updates(map[string]interface{}{"status": models.ShipmentStatusDelivered, "delivered_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ConcurrencyConflict(fmt.Sprintf("Shipment %d changed concurrently, retry", s.ID))
		}
		s.Status = models.ShipmentStatusDelivered
		s.DeliveredAt = &now

		if o.Status != models.OrderStatusDelivered {
			res := tx.Model(&models.Order{}).
				Where("id = ? AND status = ?", o.ID, o.Status).
				Updates(map[string]interface{}{"status": models.OrderStatusDelivered, "delivered_at": now})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return apperr.ConcurrencyConflict(fmt.Sprintf("Order %d changed concurrently, retry", o.ID))
			}
			o.Status = models.OrderStatusDelivered
		}

		if _, _, err := invoice.EnsureInvoice(tx, o); err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkDelayed flags an in-transit or pending shipment without touching
// the order.
func MarkDelayed(db *gorm.DB, actor auth.Actor, shipmentID uint) (*models.Shipment, error) {
	return setStatus(db, actor, shipmentID, models.ShipmentStatusDelayed,
		[]models.ShipmentStatus{models.ShipmentStatusPending, models.ShipmentStatusInTransit})
}

// Cancel closes a shipment that never reached the warehouse.
func Cancel(db *gorm.DB, actor auth.Actor, shipmentID uint) (*models.Shipment, error) {
	return setStatus(db, actor, shipmentID, models.ShipmentStatusCancelled,
		[]models.ShipmentStatus{models.ShipmentStatusPending, models.ShipmentStatusInTransit, models.ShipmentStatusDelayed})
}

func setStatus(db *gorm.DB, actor auth.Actor, shipmentID uint, next models.ShipmentStatus, from []models.ShipmentStatus) (*models.Shipment, error) {
	var out *models.Shipment
	err := db.Transaction(func(tx *gorm.DB) error {
		s, err := loadShipment(tx, shipmentID)
		if err != nil {
			return err
		}
		if !actor.HasRole(models.RoleSupplier) || !actor.OwnsSupplier(s.Order.SupplierID) {
			return apperr.Forbidden("Shipment belongs to another supplier")
		}
		allowed := false
		for _, f := range from {
			if s.Status == f {
				allowed = true
				break
			}
		}
		if !allowed {
			return apperr.PreconditionFailed(fmt.Sprintf("Shipment %d is %s, cannot become %s", s.ID, s.Status, next))
		}

		res := tx.Model(&models.Shipment{}).
			Where("id = ? AND status = ?", s.ID, s.Status).
			Update("status", next)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ConcurrencyConflict(fmt.Sprintf("Shipment %d changed concurrently, retry", s.ID))
		}
		s.Status = next
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
