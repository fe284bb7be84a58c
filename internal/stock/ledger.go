package stock

import (
	"errors"
	"fmt"

	"supplychain-backend/internal/apperr"
	"supplychain-backend/internal/models"

	"gorm.io/gorm"
)

// The ledger owns the two stock counters: supplier product stock
// (Product.StockQuantity) and warehouse on-hand inventory
// (Inventory.QuantityOnHand). Every mutation runs inside the caller's
// transaction and uses a guarded UPDATE so a concurrent writer surfaces
// as a conflict instead of a silent overwrite. Only order lifecycle
// transitions call these functions.

// ReserveSupplierStock decrements a product's supplier stock by qty.
// Fails with InsufficientStock (product + deficit attached) when the
// counter cannot cover the decrement.
func ReserveSupplierStock(tx *gorm.DB, productID uint, qty int) error {
	if qty <= 0 {
		return apperr.ValidationFailed("Quantity must be greater than zero")
	}

	var product models.Product
	if err := tx.First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(fmt.Sprintf("Product %d not found", productID))
		}
		return err
	}

	if product.StockQuantity < qty {
		return apperr.InsufficientStock(
			fmt.Sprintf("Insufficient stock for product '%s'. Available: %d, needed: %d", product.Name, product.StockQuantity, qty),
			apperr.WithDetail("product_id", product.ID),
			apperr.WithDetail("deficit", qty-product.StockQuantity),
		)
	}

	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ConcurrencyConflict(fmt.Sprintf("Stock for product '%s' changed concurrently, retry", product.Name))
	}
	return nil
}

// ReleaseWarehouseStock decrements on-hand inventory for a warehouse and
// product. A missing inventory row counts as zero on hand.
func ReleaseWarehouseStock(tx *gorm.DB, warehouseID, productID uint, qty int) error {
	if qty <= 0 {
		return apperr.ValidationFailed("Quantity must be greater than zero")
	}

	var inv models.Inventory
	err := tx.Preload("Product").
		Where("warehouse_id = ? AND product_id = ?", warehouseID, productID).
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		var product models.Product
		name := fmt.Sprintf("#%d", productID)
		if tx.First(&product, "id = ?", productID).Error == nil {
			name = product.Name
		}
		return apperr.InsufficientStock(
			fmt.Sprintf("Insufficient inventory for product '%s'. Available: 0, needed: %d", name, qty),
			apperr.WithDetail("product_id", productID),
			apperr.WithDetail("deficit", qty),
		)
	}
	if err != nil {
		return err
	}

	if inv.QuantityOnHand < qty {
		return apperr.InsufficientStock(
			fmt.Sprintf("Insufficient inventory for product '%s'. Available: %d, needed: %d", inv.Product.Name, inv.QuantityOnHand, qty),
			apperr.WithDetail("product_id", productID),
			apperr.WithDetail("deficit", qty-inv.QuantityOnHand),
		)
	}

	res := tx.Model(&models.Inventory{}).
		Where("id = ? AND quantity_on_hand >= ?", inv.ID, qty).
		Update("quantity_on_hand", gorm.Expr("quantity_on_hand - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ConcurrencyConflict(fmt.Sprintf("Inventory for product '%s' changed concurrently, retry", inv.Product.Name))
	}
	return nil
}

// ReceiveWarehouseStock increments on-hand inventory, creating the row
// with ReorderLevel 0 when the warehouse has never stocked the product.
// Returns the inventory row so callers can reuse its bin assignment.
func ReceiveWarehouseStock(tx *gorm.DB, warehouseID, productID uint, qty int) (*models.Inventory, error) {
	if qty <= 0 {
		return nil, apperr.ValidationFailed("Quantity must be greater than zero")
	}

	var inv models.Inventory
	err := tx.Where("warehouse_id = ? AND product_id = ?", warehouseID, productID).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		inv = models.Inventory{
			WarehouseID:    warehouseID,
			ProductID:      productID,
			QuantityOnHand: qty,
			ReorderLevel:   0,
		}
		if err := tx.Create(&inv).Error; err != nil {
			return nil, err
		}
		return &inv, nil
	}
	if err != nil {
		return nil, err
	}

	res := tx.Model(&models.Inventory{}).
		Where("id = ?", inv.ID).
		Update("quantity_on_hand", gorm.Expr("quantity_on_hand + ?", qty))
	if res.Error != nil {
		return nil, res.Error
	}
	inv.QuantityOnHand += qty
	return &inv, nil
}

type LogOptions struct {
	WarehouseID       uint
	ProductID         uint
	Quantity          int // signed: positive receipt, negative issue
	Type              models.InventoryTransactionType
	ReferenceType     string
	ReferenceID       *uint
	PerformedByUserID *uint
	Notes             string
}

// LogTransaction appends one immutable row to the inventory transaction log.
func LogTransaction(tx *gorm.DB, opts LogOptions) error {
	row := models.InventoryTransaction{
		WarehouseID:       opts.WarehouseID,
		ProductID:         opts.ProductID,
		Quantity:          opts.Quantity,
		Type:              opts.Type,
		ReferenceType:     opts.ReferenceType,
		ReferenceID:       opts.ReferenceID,
		PerformedByUserID: opts.PerformedByUserID,
		Notes:             opts.Notes,
	}
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("could not append inventory transaction: %w", err)
	}
	return nil
}
