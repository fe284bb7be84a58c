package stock

import (
	"fmt"
	"strings"
	"testing"

	"supplychain-backend/internal/apperr"
	"supplychain-backend/internal/database"
	"supplychain-backend/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, stock int) models.Product {
	t.Helper()
	supplier := models.Supplier{CompanyName: "Acme Goods"}
	if err := db.Create(&supplier).Error; err != nil {
		t.Fatalf("seed supplier: %v", err)
	}
	p := models.Product{SupplierID: supplier.ID, Name: "Widget", Price: 2, StockQuantity: stock, IsActive: true}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func TestReserveSupplierStock(t *testing.T) {
	db := newTestDB(t)
	p := seedProduct(t, db, 10)

	if err := ReserveSupplierStock(db, p.ID, 4); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	var reloaded models.Product
	if err := db.First(&reloaded, p.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.StockQuantity != 6 {
		t.Fatalf("stock = %d, want 6", reloaded.StockQuantity)
	}

	err := ReserveSupplierStock(db, p.ID, 7)
	appErr := apperr.From(err)
	if appErr.Kind() != apperr.KindInsufficientStock {
		t.Fatalf("err = %v, want insufficient stock", err)
	}
	if got := appErr.Details()["deficit"]; got != 1 {
		t.Fatalf("deficit = %v, want 1", got)
	}

	if err := ReserveSupplierStock(db, 999, 1); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	if err := ReserveSupplierStock(db, p.ID, 0); !apperr.IsKind(err, apperr.KindValidationFailed) {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestReleaseWarehouseStock(t *testing.T) {
	db := newTestDB(t)
	p := seedProduct(t, db, 0)
	warehouse := models.Warehouse{Name: "Central", Location: "Dock 4"}
	if err := db.Create(&warehouse).Error; err != nil {
		t.Fatalf("seed warehouse: %v", err)
	}

	// No inventory row yet: treated as zero on hand.
	err := ReleaseWarehouseStock(db, warehouse.ID, p.ID, 3)
	appErr := apperr.From(err)
	if appErr.Kind() != apperr.KindInsufficientStock {
		t.Fatalf("err = %v, want insufficient stock", err)
	}
	if got := appErr.Details()["deficit"]; got != 3 {
		t.Fatalf("deficit = %v, want 3", got)
	}

	inv := models.Inventory{WarehouseID: warehouse.ID, ProductID: p.ID, QuantityOnHand: 5}
	if err := db.Create(&inv).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
	if err := ReleaseWarehouseStock(db, warehouse.ID, p.ID, 5); err != nil {
		t.Fatalf("release: %v", err)
	}
	var reloaded models.Inventory
	if err := db.First(&reloaded, inv.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.QuantityOnHand != 0 {
		t.Fatalf("on hand = %d, want 0", reloaded.QuantityOnHand)
	}

	if err := ReleaseWarehouseStock(db, warehouse.ID, p.ID, 1); !apperr.IsKind(err, apperr.KindInsufficientStock) {
		t.Fatalf("err = %v, want insufficient stock at zero", err)
	}
}

func TestReceiveWarehouseStock(t *testing.T) {
	db := newTestDB(t)
	p := seedProduct(t, db, 0)
	warehouse := models.Warehouse{Name: "Central", Location: "Dock 4"}
	if err := db.Create(&warehouse).Error; err != nil {
		t.Fatalf("seed warehouse: %v", err)
	}

	inv, err := ReceiveWarehouseStock(db, warehouse.ID, p.ID, 7)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if inv.QuantityOnHand != 7 || inv.ReorderLevel != 0 {
		t.Fatalf("created row = %+v, want on hand 7 / reorder 0", inv)
	}

	inv, err = ReceiveWarehouseStock(db, warehouse.ID, p.ID, 3)
	if err != nil {
		t.Fatalf("receive again: %v", err)
	}
	if inv.QuantityOnHand != 10 {
		t.Fatalf("on hand = %d, want 10", inv.QuantityOnHand)
	}

	var count int64
	db.Model(&models.Inventory{}).Where("warehouse_id = ? AND product_id = ?", warehouse.ID, p.ID).Count(&count)
	if count != 1 {
		t.Fatalf("inventory rows = %d, want 1", count)
	}
}

func TestLogTransaction(t *testing.T) {
	db := newTestDB(t)
	p := seedProduct(t, db, 0)
	warehouse := models.Warehouse{Name: "Central", Location: "Dock 4"}
	if err := db.Create(&warehouse).Error; err != nil {
		t.Fatalf("seed warehouse: %v", err)
	}

	ref := uint(42)
	err := LogTransaction(db, LogOptions{
		WarehouseID:   warehouse.ID,
		ProductID:     p.ID,
		Quantity:      7,
		Type:          models.TransactionReceipt,
		ReferenceType: "shipment",
		ReferenceID:   &ref,
	})
	if err != nil {
		t.Fatalf("log: %v", err)
	}

	var row models.InventoryTransaction
	if err := db.First(&row).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if row.Quantity != 7 || row.Type != models.TransactionReceipt || row.ReferenceID == nil || *row.ReferenceID != 42 {
		t.Fatalf("row = %+v", row)
	}
}
