package models

import "time"

// Inventory is the on-hand stock of one product in one warehouse.
// QuantityOnHand never goes below zero; the ledger enforces it.
type Inventory struct {
	ID              uint `gorm:"primaryKey"`
	WarehouseID     uint `gorm:"uniqueIndex:idx_inventories_warehouse_product;not null"`
	Warehouse       Warehouse
	ProductID       uint `gorm:"uniqueIndex:idx_inventories_warehouse_product;not null"`
	Product         Product
	QuantityOnHand  int    `gorm:"not null;default:0"`
	DamagedQuantity int    `gorm:"not null;default:0"`
	ReorderLevel    int    `gorm:"not null;default:0"`
	Aisle           string `gorm:"size:50"`
	Shelf           string `gorm:"size:50"`
	Bin             string `gorm:"size:50"`
	ExpiryDate      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AvailableQuantity is on-hand minus damaged, floored at zero.
func (i *Inventory) AvailableQuantity() int {
	avail := i.QuantityOnHand - i.DamagedQuantity
	if avail < 0 {
		return 0
	}
	return avail
}

func (i *Inventory) NeedsReorder() bool {
	return i.AvailableQuantity() <= i.ReorderLevel
}

type InventoryTransactionType string

const (
	TransactionReceipt     InventoryTransactionType = "receipt"
	TransactionIssue       InventoryTransactionType = "issue"
	TransactionAdjustment  InventoryTransactionType = "adjustment"
	TransactionTransferIn  InventoryTransactionType = "transfer_in"
	TransactionTransferOut InventoryTransactionType = "transfer_out"
)

// InventoryTransaction is an append-only audit row for every stock movement.
// Rows are never updated or deleted.
type InventoryTransaction struct {
	ID                uint `gorm:"primaryKey"`
	WarehouseID       uint `gorm:"index;not null"`
	ProductID         uint `gorm:"index;not null"`
	Product           Product
	Quantity          int                      `gorm:"not null"` // positive for receipt, negative for issue
	Type              InventoryTransactionType `gorm:"size:20;index;not null"`
	ReferenceType     string                   `gorm:"size:30"` // "shipment", "order", "manual"
	ReferenceID       *uint
	PerformedByUserID *uint
	Notes             string    `gorm:"size:500"`
	CreatedAt         time.Time `gorm:"index"`
}
