package invoice

import (
	"fmt"
	"strings"
	"testing"

	"supplychain-backend/internal/database"
	"supplychain-backend/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func seedOrder(t *testing.T) (*gorm.DB, *models.Order) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	warehouse := models.Warehouse{Name: "Central", Location: "Dock 4"}
	supplier := models.Supplier{CompanyName: "Acme Goods"}
	if err := db.Create(&warehouse).Error; err != nil {
		t.Fatalf("seed warehouse: %v", err)
	}
	if err := db.Create(&supplier).Error; err != nil {
		t.Fatalf("seed supplier: %v", err)
	}
	product := models.Product{SupplierID: supplier.ID, Name: "Widget", Price: 2.5, StockQuantity: 10, IsActive: true}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	o := models.Order{
		WarehouseID:     warehouse.ID,
		SupplierID:      supplier.ID,
		CreatedByUserID: 1,
		Status:          models.OrderStatusDelivered,
		Items: []models.OrderItem{
			{ProductID: product.ID, Quantity: 4, UnitPrice: product.Price},
		},
	}
	if err := db.Create(&o).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return db, &o
}

func TestEnsureInvoiceIssuesOnce(t *testing.T) {
	db, o := seedOrder(t)

	inv, created, err := EnsureInvoice(db, o)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if !created {
		t.Fatal("created = false on first call")
	}
	if inv.Amount != 10 || inv.Status != models.InvoiceStatusUnpaid {
		t.Fatalf("invoice = %+v, want unpaid amount 10", inv)
	}
	if inv.SupplierID != o.SupplierID {
		t.Fatalf("supplier = %d, want %d", inv.SupplierID, o.SupplierID)
	}
	if inv.DueDate == nil || !inv.DueDate.After(inv.IssuedAt) {
		t.Fatalf("due date = %v, want after issue", inv.DueDate)
	}

	again, created, err := EnsureInvoice(db, o)
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if created {
		t.Fatal("created = true on repeat call")
	}
	if again.ID != inv.ID {
		t.Fatalf("repeat returned invoice %d, want %d", again.ID, inv.ID)
	}

	var count int64
	db.Model(&models.Invoice{}).Where("order_id = ?", o.ID).Count(&count)
	if count != 1 {
		t.Fatalf("invoices = %d, want 1", count)
	}
}
