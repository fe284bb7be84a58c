package order

import (
	"errors"
	"fmt"

	"supplychain-backend/internal/apperr"
	"supplychain-backend/internal/auth"
	"supplychain-backend/internal/models"

	"gorm.io/gorm"
)

// Item edits are only allowed before an admin has acted on the order.
func itemsEditable(o *models.Order) error {
	if o.Status == models.OrderStatusDraft || o.Status == models.OrderStatusPendingApproval {
		return nil
	}
	return apperr.PreconditionFailed(
		fmt.Sprintf("Order %d is %s, items can no longer be edited", o.ID, o.Status),
		apperr.WithDetail("status", o.Status),
	)
}

func checkRemainingStock(product *models.Product, alreadyInOrder, requested int) error {
	remaining := product.StockQuantity - alreadyInOrder
	if remaining <= 0 {
		return apperr.InsufficientStock(
			fmt.Sprintf("Out of stock. Supplier has 0 more of %s available", product.Name),
			apperr.WithDetail("product_id", product.ID),
			apperr.WithDetail("deficit", requested),
		)
	}
	if requested > remaining {
		return apperr.InsufficientStock(
			fmt.Sprintf("Cannot add %d of %s. Only %d more available", requested, product.Name, remaining),
			apperr.WithDetail("product_id", product.ID),
			apperr.WithDetail("deficit", requested-remaining),
		)
	}
	return nil
}

// AddItem appends quantity of a product to the order, merging into an
// existing line when one exists. The unit price is captured from the
// product at the time of the add and never re-read afterwards.
func AddItem(db *gorm.DB, actor auth.Actor, orderID, productID uint, quantity int) (*models.Order, error) {
	if quantity <= 0 {
		return nil, apperr.ValidationFailed("Quantity must be greater than zero")
	}
	return transition(db, actor, orderID, func(tx *gorm.DB, o *models.Order) error {
		if err := requireWarehouseOwner(actor, o); err != nil {
			return err
		}
		if err := itemsEditable(o); err != nil {
			return err
		}

		var product models.Product
		err := tx.First(&product, "id = ?", productID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(fmt.Sprintf("Product %d not found", productID))
		}
		if err != nil {
			return err
		}
		if product.SupplierID != o.SupplierID {
			return apperr.ValidationFailed("Selected product does not belong to the order's supplier")
		}

		var existing *models.OrderItem
		for i := range o.Items {
			if o.Items[i].ProductID == productID {
				existing = &o.Items[i]
				break
			}
		}

		already := 0
		if existing != nil {
			already = existing.Quantity
		}
		if err := checkRemainingStock(&product, already, quantity); err != nil {
			return err
		}

		if existing != nil {
			return tx.Model(existing).Update("quantity", existing.Quantity+quantity).Error
		}
		item := models.OrderItem{
			OrderID:   o.ID,
			ProductID: productID,
			Quantity:  quantity,
			UnitPrice: product.Price,
		}
		return tx.Create(&item).Error
	})
}

// UpdateItemQuantity applies a signed delta to an existing line. A result
// of zero or less removes the line. Increases are validated against the
// supplier's remaining stock; decreases always succeed.
func UpdateItemQuantity(db *gorm.DB, actor auth.Actor, orderID, productID uint, delta int) (*models.Order, error) {
	return transition(db, actor, orderID, func(tx *gorm.DB, o *models.Order) error {
		if err := requireWarehouseOwner(actor, o); err != nil {
			return err
		}
		if err := itemsEditable(o); err != nil {
			return err
		}

		var existing *models.OrderItem
		for i := range o.Items {
			if o.Items[i].ProductID == productID {
				existing = &o.Items[i]
				break
			}
		}
		if existing == nil {
			return apperr.NotFound(fmt.Sprintf("Order %d has no line for product %d", o.ID, productID))
		}

		newQuantity := existing.Quantity + delta
		if newQuantity <= 0 {
			return tx.Delete(&models.OrderItem{}, existing.ID).Error
		}

		if delta > 0 {
			var product models.Product
			if err := tx.First(&product, "id = ?", productID).Error; err != nil {
				return err
			}
			if err := checkRemainingStock(&product, existing.Quantity, delta); err != nil {
				return err
			}
		}
		return tx.Model(existing).Update("quantity", newQuantity).Error
	})
}

// RemoveItem deletes a line outright, without any stock considerations.
func RemoveItem(db *gorm.DB, actor auth.Actor, orderID, productID uint) (*models.Order, error) {
	return transition(db, actor, orderID, func(tx *gorm.DB, o *models.Order) error {
		if err := requireWarehouseOwner(actor, o); err != nil {
			return err
		}
		if err := itemsEditable(o); err != nil {
			return err
		}
		for i := range o.Items {
			if o.Items[i].ProductID == productID {
				return tx.Delete(&models.OrderItem{}, o.Items[i].ID).Error
			}
		}
		return apperr.NotFound(fmt.Sprintf("Order %d has no line for product %d", o.ID, productID))
	})
}
