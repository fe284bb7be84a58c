package order

import (
	"errors"
	"fmt"
	"time"

	"supplychain-backend/internal/apperr"
	"supplychain-backend/internal/auth"
	"supplychain-backend/internal/models"
	"supplychain-backend/internal/stock"

	"gorm.io/gorm"
)

// Transition names, used as keys into the guard table.
const (
	TransitionSubmit                  = "submit"
	TransitionApprove                 = "approve"
	TransitionReject                  = "reject"
	TransitionSendToSupplier          = "send_to_supplier"
	TransitionSupplierConfirm         = "supplier_confirm"
	TransitionSupplierStartProcessing = "supplier_start_processing"
	TransitionProcess                 = "process"
	TransitionShip                    = "ship"
)

// transitionSources is the state machine: which statuses each transition
// may leave from. A transition attempted from any other status fails with
// PreconditionFailed; there is no other path between statuses.
var transitionSources = map[string][]models.OrderStatus{
	TransitionSubmit:                  {models.OrderStatusDraft},
	TransitionApprove:                 {models.OrderStatusPendingApproval},
	TransitionReject:                  {models.OrderStatusPendingApproval},
	TransitionSendToSupplier:          {models.OrderStatusApproved},
	TransitionSupplierConfirm:         {models.OrderStatusSentToSupplier},
	TransitionSupplierStartProcessing: {models.OrderStatusConfirmedBySupplier},
	TransitionProcess:                 {models.OrderStatusApproved},
	TransitionShip:                    {models.OrderStatusProcessing},
}

func ensureStatus(o *models.Order, transition string) error {
	sources, ok := transitionSources[transition]
	if !ok {
		return apperr.Internal(fmt.Sprintf("unknown transition %q", transition))
	}
	for _, s := range sources {
		if o.Status == s {
			return nil
		}
	}
	return apperr.PreconditionFailed(
		fmt.Sprintf("Order %d is %s, cannot %s", o.ID, o.Status, transition),
		apperr.WithDetail("status", o.Status),
	)
}

// loadOrder fetches an order with its items in stored sequence.
func loadOrder(tx *gorm.DB, orderID uint) (*models.Order, error) {
	var o models.Order
	err := tx.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.id ASC")
	}).First(&o, "id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(fmt.Sprintf("Order %d not found", orderID))
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// setStatus performs the guarded status write. A zero-row update after a
// successful precondition read means another writer raced us.
func setStatus(tx *gorm.DB, o *models.Order, next models.OrderStatus, extra map[string]interface{}) error {
	updates := map[string]interface{}{"status": next, "updated_at": time.Now().UTC()}
	for k, v := range extra {
		updates[k] = v
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
	o.Status = next
	return nil
}

func requireWarehouseOwner(actor auth.Actor, o *models.Order) error {
	if !actor.HasRole(models.RoleWarehouseStaff) || !actor.OwnsWarehouse(o.WarehouseID) {
		return apperr.Forbidden("Order belongs to another warehouse")
	}
	return nil
}

func requireSupplierOwner(actor auth.Actor, o *models.Order) error {
	if !actor.HasRole(models.RoleSupplier) || !actor.OwnsSupplier(o.SupplierID) {
		return apperr.Forbidden("Order belongs to another supplier")
	}
	return nil
}

// CreateDraftInput captures the fields a warehouse user supplies when
// opening a new order. An optional initial line can be included.
type CreateDraftInput struct {
	SupplierID      uint
	Notes           string
	InitialProduct  uint
	InitialQuantity int
}

// CreateDraft opens a draft order for the actor's warehouse.
func CreateDraft(db *gorm.DB, actor auth.Actor, in CreateDraftInput) (*models.Order, error) {
	if !actor.HasRole(models.RoleWarehouseStaff) || actor.WarehouseID == nil {
		return nil, apperr.Forbidden("Your account is not linked to a warehouse")
	}
	if in.SupplierID == 0 {
		return nil, apperr.ValidationFailed("Supplier is required")
	}

	var out *models.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		var supplier models.Supplier
		if err := tx.First(&supplier, "id = ?", in.SupplierID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound(fmt.Sprintf("Supplier %d not found", in.SupplierID))
			}
			return err
		}

		o := models.Order{
			WarehouseID:     *actor.WarehouseID,
			SupplierID:      in.SupplierID,
			CreatedByUserID: actor.UserID,
			Status:          models.OrderStatusDraft,
			Notes:           in.Notes,
		}

		if in.InitialProduct > 0 {
			if in.InitialQuantity <= 0 {
				return apperr.ValidationFailed("Quantity must be greater than zero")
			}
			var product models.Product
			err := tx.First(&product, "id = ? AND supplier_id = ?", in.InitialProduct, in.SupplierID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ValidationFailed("Selected product does not belong to the chosen supplier")
			}
			if err != nil {
				return err
			}
			if err := checkRemainingStock(&product, 0, in.InitialQuantity); err != nil {
				return err
			}
			o.Items = append(o.Items, models.OrderItem{
				ProductID: product.ID,
				Quantity:  in.InitialQuantity,
				UnitPrice: product.Price,
			})
		}

		if err := tx.Create(&o).Error; err != nil {
			return err
		}
		out = &o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return Get(db, actor, out.ID)
}

// Get loads one order, enforcing the read scoping rules: warehouse staff
// see only their warehouse, suppliers only their own non-draft orders.
func Get(db *gorm.DB, actor auth.Actor, orderID uint) (*models.Order, error) {
	var o models.Order
	err := db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.id ASC")
	}).Preload("Items.Product").Preload("Supplier").Preload("Warehouse").
		First(&o, "id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(fmt.Sprintf("Order %d not found", orderID))
	}
	if err != nil {
		return nil, err
	}

	if actor.HasRole(models.RoleWarehouseStaff) && !actor.OwnsWarehouse(o.WarehouseID) {
		return nil, apperr.Forbidden("Order belongs to another warehouse")
	}
	if actor.HasRole(models.RoleSupplier) {
		if !actor.OwnsSupplier(o.SupplierID) {
			return nil, apperr.Forbidden("Order belongs to another supplier")
		}
		if o.Status == models.OrderStatusDraft {
			return nil, apperr.Forbidden("Draft orders are not visible to suppliers")
		}
	}
	return &o, nil
}

// Submit moves a draft with at least one line into pending approval.
func Submit(db *gorm.DB, actor auth.Actor, orderID uint) (*models.Order, error) {
	return transition(db, actor, orderID, func(tx *gorm.DB, o *models.Order) error {
		if err := requireWarehouseOwner(actor, o); err != nil {
			return err
		}
		if err := ensureStatus(o, TransitionSubmit); err != nil {
			return err
		}
		if len(o.Items) == 0 {
			return apperr.ValidationFailed("Cannot submit an empty order")
		}
		// TODO: notify admins that an order awaits approval
		return setStatus(tx, o, models.OrderStatusPendingApproval, nil)
	})
}

// Approve records the approving admin and timestamp.
func Approve(db *gorm.DB, actor auth.Actor, orderID uint, notes string) (*models.Order, error) {
	return transition(db, actor, orderID, func(tx *gorm.DB, o *models.Order) error {
		if !actor.HasRole(models.RoleAdmin) {
			return apperr.Forbidden("Only admins can approve orders")
		}
		if err := ensureStatus(o, TransitionApprove); err != nil {
			return err
		}
		now := time.Now().UTC()
		extra := map[string]interface{}{
			"approved_at":         now,
			"approved_by_user_id": actor.UserID,
		}
		if notes != "" {
			extra["notes"] = notes
		}
		return setStatus(tx, o, models.OrderStatusApproved, extra)
	})
}

// Reject is terminal; the reason is stored on the order.
func Reject(db *gorm.DB, actor auth.Actor, orderID uint, reason string) (*models.Order, error) {
	return transition(db, actor, orderID, func(tx *gorm.DB, o *models.Order) error {
		if !actor.HasRole(models.RoleAdmin) {
			return apperr.Forbidden("Only admins can reject orders")
		}
		if err := ensureStatus(o, TransitionReject); err != nil {
			return err
		}
		extra := map[string]interface{}{}
		if reason != "" {
			extra["notes"] = reason
		}
		return setStatus(tx, o, models.OrderStatusRejected, extra)
	})
}

func SendToSupplier(db *gorm.DB, actor auth.Actor, orderID uint) (*models.Order, error) {
	return transition(db, actor, orderID, func(tx *gorm.DB, o *models.Order) error {
		if !actor.HasRole(models.RoleAdmin) {
			return apperr.Forbidden("Only admins can send orders to the supplier")
		}
		if err := ensureStatus(o, TransitionSendToSupplier); err != nil {
			return err
		}
		// TODO: notify the supplier
		return setStatus(tx, o, models.OrderStatusSentToSupplier, nil)
	})
}

// SupplierConfirm commits the supplier to the order, consuming supplier
// product stock for every line. Any line that cannot be covered aborts
// the whole confirmation; no stock changes and the status stays put.
func SupplierConfirm(db *gorm.DB, actor auth.Actor, orderID uint) (*models.Order, error) {
	return transition(db, actor, orderID, func(tx *gorm.DB, o *models.Order) error {
		if err := requireSupplierOwner(actor, o); err != nil {
			return err
		}
		if err := ensureStatus(o, TransitionSupplierConfirm); err != nil {
			return err
		}

		for _, item := range o.Items {
			var product models.Product
			err := tx.First(&product, "id = ? AND supplier_id = ?", item.ProductID, o.SupplierID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound(fmt.Sprintf("Product %d not found for this supplier", item.ProductID))
			}
			if err != nil {
				return err
			}
			if err := stock.ReserveSupplierStock(tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		return setStatus(tx, o, models.OrderStatusConfirmedBySupplier, nil)
	})
}

func SupplierStartProcessing(db *gorm.DB, actor auth.Actor, orderID uint) (*models.Order, error) {
	return transition(db, actor, orderID, func(tx *gorm.DB, o *models.Order) error {
		if err := requireSupplierOwner(actor, o); err != nil {
			return err
		}
		if err := ensureStatus(o, TransitionSupplierStartProcessing); err != nil {
			return err
		}
		return setStatus(tx, o, models.OrderStatusProcessing, nil)
	})
}

// Process is the warehouse-side path into processing, bypassing supplier
// confirmation (and therefore its stock reservation).
func Process(db *gorm.DB, actor auth.Actor, orderID uint) (*models.Order, error) {
	return transition(db, actor, orderID, func(tx *gorm.DB, o *models.Order) error {
		if err := requireWarehouseOwner(actor, o); err != nil {
			return err
		}
		if err := ensureStatus(o, TransitionProcess); err != nil {
			return err
		}
		return setStatus(tx, o, models.OrderStatusProcessing, nil)
	})
}

// Ship releases warehouse on-hand stock for every line, opens an
// in-transit shipment record and marks the order shipped. All-or-nothing
// like SupplierConfirm.
func Ship(db *gorm.DB, actor auth.Actor, orderID uint, trackingNumber string) (*models.Order, error) {
	return transition(db, actor, orderID, func(tx *gorm.DB, o *models.Order) error {
		warehouseOwner := actor.HasRole(models.RoleWarehouseStaff) && actor.OwnsWarehouse(o.WarehouseID)
		if !actor.HasRole(models.RoleAdmin) && !warehouseOwner {
			return apperr.Forbidden("Only admins or the order's warehouse staff can ship")
		}
		if err := ensureStatus(o, TransitionShip); err != nil {
			return err
		}

		for _, item := range o.Items {
			if err := stock.ReleaseWarehouseStock(tx, o.WarehouseID, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		shipment := models.Shipment{
			OrderID:        o.ID,
			Status:         models.ShipmentStatusInTransit,
			ShippedAt:      &now,
			TrackingNumber: trackingNumber,
		}
		if err := tx.Create(&shipment).Error; err != nil {
			return err
		}

		return setStatus(tx, o, models.OrderStatusShipped, map[string]interface{}{
			"shipped_at":      now,
			"tracking_number": trackingNumber,
		})
	})
}

// Cancel is terminal. Suppliers may cancel their own orders at any point
// before a terminal status; warehouse staff only while the order is still
// a draft or pending approval.
func Cancel(db *gorm.DB, actor auth.Actor, orderID uint) (*models.Order, error) {
	return transition(db, actor, orderID, func(tx *gorm.DB, o *models.Order) error {
		switch {
		case actor.HasRole(models.RoleSupplier):
			if !actor.OwnsSupplier(o.SupplierID) {
				return apperr.Forbidden("Order belongs to another supplier")
			}
		case actor.HasRole(models.RoleWarehouseStaff):
			if !actor.OwnsWarehouse(o.WarehouseID) {
				return apperr.Forbidden("Order belongs to another warehouse")
			}
			if o.Status != models.OrderStatusDraft && o.Status != models.OrderStatusPendingApproval {
				return apperr.PreconditionFailed("Warehouse staff can only cancel draft or pending approval orders")
			}
		default:
			return apperr.Forbidden("You are not allowed to cancel this order")
		}

		if o.Status.IsTerminal() {
			return apperr.PreconditionFailed(fmt.Sprintf("Order %d is already %s", o.ID, o.Status))
		}
		return setStatus(tx, o, models.OrderStatusCancelled, nil)
	})
}

// Pay appends a payment note to the order. It never changes the status;
// the Payment entity has its own sandbox lifecycle.
func Pay(db *gorm.DB, actor auth.Actor, orderID uint, method string) (*models.Order, error) {
	return transition(db, actor, orderID, func(tx *gorm.DB, o *models.Order) error {
		if err := requireWarehouseOwner(actor, o); err != nil {
			return err
		}
		if o.Status == models.OrderStatusCancelled || o.Status == models.OrderStatusRejected || o.Status == models.OrderStatusDelivered {
			return apperr.PreconditionFailed("Cannot take payment for orders that are cancelled, rejected, or delivered")
		}

		if method == "" {
			method = "Unknown"
		}
		return appendPaidNote(tx, o, method)
	})
}

// appendPaidNote stamps the paid line onto the order. Guarded on the
// status read with the preconditions so a transition committing in
// between cannot end up carrying a paid note it never allowed.
func appendPaidNote(tx *gorm.DB, o *models.Order, method string) error {
	stamp := time.Now().UTC().Format("2006-01-02 15:04:05Z")
	line := fmt.Sprintf("[PAID %s] Method=%s; Amount=%.2f", stamp, method, o.TotalAmount())
	notes := line
	if o.Notes != "" {
		notes = o.Notes + "\n" + line
	}

	res := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", o.ID, o.Status).
		Updates(map[string]interface{}{"notes": notes, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ConcurrencyConflict(fmt.Sprintf("Order %d changed concurrently, retry", o.ID))
	}
	o.Notes = notes
	return nil
}

// Delete hard-removes an order with its items and shipment records.
// Administrative escape hatch, not part of the normal lifecycle.
func Delete(db *gorm.DB, actor auth.Actor, orderID uint) error {
	if !actor.HasRole(models.RoleAdmin) {
		return apperr.Forbidden("Only admins can delete orders")
	}
	return db.Transaction(func(tx *gorm.DB) error {
		o, err := loadOrder(tx, orderID)
		if err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", o.ID).Delete(&models.Shipment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", o.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, o.ID).Error
	})
}

// transition wraps a lifecycle step in one transaction: load the order
// with items, run the step, and reload the final state for the caller.
func transition(db *gorm.DB, actor auth.Actor, orderID uint, fn func(tx *gorm.DB, o *models.Order) error) (*models.Order, error) {
	err := db.Transaction(func(tx *gorm.DB) error {
		o, err := loadOrder(tx, orderID)
		if err != nil {
			return err
		}
		return fn(tx, o)
	})
	if err != nil {
		return nil, err
	}
	return Get(db, actor, orderID)
}
