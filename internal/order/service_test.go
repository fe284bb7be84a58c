package order

import (
	"fmt"
	"strings"
	"testing"

	"supplychain-backend/internal/apperr"
	"supplychain-backend/internal/auth"
	"supplychain-backend/internal/database"
	"supplychain-backend/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	db        *gorm.DB
	warehouse models.Warehouse
	supplier  models.Supplier
	productA  models.Product // stock 10
	productB  models.Product // stock 3
	staff     auth.Actor
	vendor    auth.Actor
	admin     auth.Actor
}

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

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	f := &fixture{db: db}
	f.warehouse = models.Warehouse{Name: "Central", Location: "Dock 4"}
	if err := db.Create(&f.warehouse).Error; err != nil {
		t.Fatalf("seed warehouse: %v", err)
	}
	f.supplier = models.Supplier{CompanyName: "Acme Goods"}
	if err := db.Create(&f.supplier).Error; err != nil {
		t.Fatalf("seed supplier: %v", err)
	}
	f.productA = models.Product{SupplierID: f.supplier.ID, Name: "Widget", SKU: "WID-1", Price: 4.50, StockQuantity: 10, IsActive: true}
	f.productB = models.Product{SupplierID: f.supplier.ID, Name: "Gadget", SKU: "GAD-1", Price: 12.00, StockQuantity: 3, IsActive: true}
	if err := db.Create(&f.productA).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if err := db.Create(&f.productB).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	f.staff = auth.Actor{UserID: 1, Role: models.RoleWarehouseStaff, WarehouseID: &f.warehouse.ID}
	f.vendor = auth.Actor{UserID: 2, Role: models.RoleSupplier, SupplierID: &f.supplier.ID}
	f.admin = auth.Actor{UserID: 3, Role: models.RoleAdmin}
	return f
}

// draftWithItems creates a draft holding qtyA of productA and, when
// qtyB > 0, qtyB of productB.
func (f *fixture) draftWithItems(t *testing.T, qtyA, qtyB int) *models.Order {
	t.Helper()
	o, err := CreateDraft(f.db, f.staff, CreateDraftInput{SupplierID: f.supplier.ID})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if qtyA > 0 {
		if o, err = AddItem(f.db, f.staff, o.ID, f.productA.ID, qtyA); err != nil {
			t.Fatalf("add item A: %v", err)
		}
	}
	if qtyB > 0 {
		if o, err = AddItem(f.db, f.staff, o.ID, f.productB.ID, qtyB); err != nil {
			t.Fatalf("add item B: %v", err)
		}
	}
	return o
}

// advance runs the order to sent_to_supplier.
func (f *fixture) sentToSupplier(t *testing.T, qtyA, qtyB int) *models.Order {
	t.Helper()
	o := f.draftWithItems(t, qtyA, qtyB)
	var err error
	if o, err = Submit(f.db, f.staff, o.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if o, err = Approve(f.db, f.admin, o.ID, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if o, err = SendToSupplier(f.db, f.admin, o.ID); err != nil {
		t.Fatalf("send: %v", err)
	}
	return o
}

func (f *fixture) productStock(t *testing.T, productID uint) int {
	t.Helper()
	var p models.Product
	if err := f.db.First(&p, "id = ?", productID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return p.StockQuantity
}

func (f *fixture) seedInventory(t *testing.T, productID uint, qty int) {
	t.Helper()
	inv := models.Inventory{WarehouseID: f.warehouse.ID, ProductID: productID, QuantityOnHand: qty}
	if err := f.db.Create(&inv).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
}

func TestLifecycleHappyPath(t *testing.T) {
	f := newFixture(t)
	o := f.sentToSupplier(t, 5, 0)

	o, err := SupplierConfirm(f.db, f.vendor, o.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if o.Status != models.OrderStatusConfirmedBySupplier {
		t.Fatalf("status = %s, want confirmed_by_supplier", o.Status)
	}
	if got := f.productStock(t, f.productA.ID); got != 5 {
		t.Fatalf("supplier stock = %d, want 5", got)
	}

	if o, err = SupplierStartProcessing(f.db, f.vendor, o.ID); err != nil {
		t.Fatalf("start processing: %v", err)
	}
	if o.Status != models.OrderStatusProcessing {
		t.Fatalf("status = %s, want processing", o.Status)
	}

	f.seedInventory(t, f.productA.ID, 20)
	if o, err = Ship(f.db, f.staff, o.ID, "TRK-1"); err != nil {
		t.Fatalf("ship: %v", err)
	}
	if o.Status != models.OrderStatusShipped {
		t.Fatalf("status = %s, want shipped", o.Status)
	}
	if o.ShippedAt == nil {
		t.Fatal("ShippedAt not set")
	}

	var inv models.Inventory
	if err := f.db.First(&inv, "warehouse_id = ? AND product_id = ?", f.warehouse.ID, f.productA.ID).Error; err != nil {
		t.Fatalf("reload inventory: %v", err)
	}
	if inv.QuantityOnHand != 15 {
		t.Fatalf("on hand = %d, want 15", inv.QuantityOnHand)
	}

	var shipments []models.Shipment
	if err := f.db.Where("order_id = ?", o.ID).Find(&shipments).Error; err != nil {
		t.Fatalf("load shipments: %v", err)
	}
	if len(shipments) != 1 || shipments[0].Status != models.ShipmentStatusInTransit {
		t.Fatalf("shipments = %+v, want one in transit", shipments)
	}
}

func TestSubmitEmptyOrderRejected(t *testing.T) {
	f := newFixture(t)
	o := f.draftWithItems(t, 0, 0)

	_, err := Submit(f.db, f.staff, o.ID)
	if !apperr.IsKind(err, apperr.KindValidationFailed) {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestSupplierConfirmAbortsOnInsufficientStock(t *testing.T) {
	f := newFixture(t)
	// Product B only has 3 in supplier stock; add items via direct insert
	// to bypass the editor's remaining-stock check and test confirmation
	// against stale availability.
	o := f.sentToSupplier(t, 2, 3)
	if err := f.db.Model(&models.OrderItem{}).
		Where("order_id = ? AND product_id = ?", o.ID, f.productB.ID).
		Update("quantity", 5).Error; err != nil {
		t.Fatalf("inflate item: %v", err)
	}

	_, err := SupplierConfirm(f.db, f.vendor, o.ID)
	if !apperr.IsKind(err, apperr.KindInsufficientStock) {
		t.Fatalf("err = %v, want insufficient stock", err)
	}

	// The whole confirmation rolled back: product A untouched even though
	// it was processed before the failing line.
	if got := f.productStock(t, f.productA.ID); got != 10 {
		t.Fatalf("product A stock = %d, want 10", got)
	}
	if got := f.productStock(t, f.productB.ID); got != 3 {
		t.Fatalf("product B stock = %d, want 3", got)
	}
	reloaded, err := Get(f.db, f.staff, o.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != models.OrderStatusSentToSupplier {
		t.Fatalf("status = %s, want sent_to_supplier", reloaded.Status)
	}
}

func TestSupplierConfirmDeficitDetail(t *testing.T) {
	f := newFixture(t)
	o := f.sentToSupplier(t, 0, 3)
	if err := f.db.Model(&models.OrderItem{}).
		Where("order_id = ?", o.ID).
		Update("quantity", 5).Error; err != nil {
		t.Fatalf("inflate item: %v", err)
	}

	_, err := SupplierConfirm(f.db, f.vendor, o.ID)
	appErr := apperr.From(err)
	if appErr.Kind() != apperr.KindInsufficientStock {
		t.Fatalf("kind = %v, want insufficient stock", appErr.Kind())
	}
	if got := appErr.Details()["deficit"]; got != 2 {
		t.Fatalf("deficit = %v, want 2", got)
	}
}

func TestShipFailsWithoutInventory(t *testing.T) {
	f := newFixture(t)
	o := f.sentToSupplier(t, 5, 0)
	var err error
	if o, err = SupplierConfirm(f.db, f.vendor, o.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if o, err = SupplierStartProcessing(f.db, f.vendor, o.ID); err != nil {
		t.Fatalf("start processing: %v", err)
	}

	_, err = Ship(f.db, f.staff, o.ID, "TRK-2")
	if !apperr.IsKind(err, apperr.KindInsufficientStock) {
		t.Fatalf("err = %v, want insufficient stock", err)
	}

	reloaded, _ := Get(f.db, f.staff, o.ID)
	if reloaded.Status != models.OrderStatusProcessing {
		t.Fatalf("status = %s, want processing", reloaded.Status)
	}
	var count int64
	f.db.Model(&models.Shipment{}).Where("order_id = ?", o.ID).Count(&count)
	if count != 0 {
		t.Fatalf("shipment rows = %d, want 0", count)
	}
}

func TestProcessSkipsSupplierConfirmation(t *testing.T) {
	f := newFixture(t)
	o := f.draftWithItems(t, 4, 0)
	var err error
	if o, err = Submit(f.db, f.staff, o.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if o, err = Approve(f.db, f.admin, o.ID, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if o, err = Process(f.db, f.staff, o.ID); err != nil {
		t.Fatalf("process: %v", err)
	}
	if o.Status != models.OrderStatusProcessing {
		t.Fatalf("status = %s, want processing", o.Status)
	}
	// The supplier counter is only touched by supplier confirmation.
	if got := f.productStock(t, f.productA.ID); got != 10 {
		t.Fatalf("supplier stock = %d, want 10", got)
	}
}

func TestApproveRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	o := f.draftWithItems(t, 2, 0)
	var err error
	if o, err = Submit(f.db, f.staff, o.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, err = Approve(f.db, f.staff, o.ID, "")
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}
}

func TestApproveRecordsApprover(t *testing.T) {
	f := newFixture(t)
	o := f.draftWithItems(t, 2, 0)
	var err error
	if o, err = Submit(f.db, f.staff, o.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if o, err = Approve(f.db, f.admin, o.ID, "rush this one"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if o.ApprovedAt == nil {
		t.Fatal("ApprovedAt not set")
	}
	if o.ApprovedByUserID == nil || *o.ApprovedByUserID != f.admin.UserID {
		t.Fatalf("ApprovedByUserID = %v, want %d", o.ApprovedByUserID, f.admin.UserID)
	}
	if o.Notes != "rush this one" {
		t.Fatalf("notes = %q", o.Notes)
	}
}

func TestRejectIsTerminal(t *testing.T) {
	f := newFixture(t)
	o := f.draftWithItems(t, 2, 0)
	var err error
	if o, err = Submit(f.db, f.staff, o.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if o, err = Reject(f.db, f.admin, o.ID, "over budget"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if o.Status != models.OrderStatusRejected {
		t.Fatalf("status = %s, want rejected", o.Status)
	}

	_, err = SendToSupplier(f.db, f.admin, o.ID)
	if !apperr.IsKind(err, apperr.KindPreconditionFailed) {
		t.Fatalf("err = %v, want precondition failure", err)
	}
	_, err = Cancel(f.db, f.vendor, o.ID)
	if !apperr.IsKind(err, apperr.KindPreconditionFailed) {
		t.Fatalf("cancel err = %v, want precondition failure", err)
	}
}

func TestCancelRules(t *testing.T) {
	f := newFixture(t)

	t.Run("staff cancels own draft", func(t *testing.T) {
		o := f.draftWithItems(t, 1, 0)
		o, err := Cancel(f.db, f.staff, o.ID)
		if err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if o.Status != models.OrderStatusCancelled {
			t.Fatalf("status = %s, want cancelled", o.Status)
		}
	})

	t.Run("staff cannot cancel after approval", func(t *testing.T) {
		o := f.draftWithItems(t, 1, 0)
		var err error
		if o, err = Submit(f.db, f.staff, o.ID); err != nil {
			t.Fatalf("submit: %v", err)
		}
		if o, err = Approve(f.db, f.admin, o.ID, ""); err != nil {
			t.Fatalf("approve: %v", err)
		}
		_, err = Cancel(f.db, f.staff, o.ID)
		if !apperr.IsKind(err, apperr.KindPreconditionFailed) {
			t.Fatalf("err = %v, want precondition failure", err)
		}
	})

	t.Run("supplier cancels mid flight", func(t *testing.T) {
		o := f.sentToSupplier(t, 1, 0)
		o, err := Cancel(f.db, f.vendor, o.ID)
		if err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if o.Status != models.OrderStatusCancelled {
			t.Fatalf("status = %s, want cancelled", o.Status)
		}
	})
}

func TestPayAppendsNoteWithoutStatusChange(t *testing.T) {
	f := newFixture(t)
	o := f.sentToSupplier(t, 2, 0)

	o, err := Pay(f.db, f.staff, o.ID, "card")
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if o.Status != models.OrderStatusSentToSupplier {
		t.Fatalf("status = %s, want sent_to_supplier", o.Status)
	}
	if !strings.Contains(o.Notes, "[PAID ") || !strings.Contains(o.Notes, "Method=card") {
		t.Fatalf("notes = %q, want paid stamp", o.Notes)
	}
	if !strings.Contains(o.Notes, fmt.Sprintf("Amount=%.2f", o.TotalAmount())) {
		t.Fatalf("notes = %q, want amount %.2f", o.Notes, o.TotalAmount())
	}
}

func TestSupplierCannotSeeForeignOrDraftOrders(t *testing.T) {
	f := newFixture(t)
	o := f.draftWithItems(t, 1, 0)

	if _, err := Get(f.db, f.vendor, o.ID); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("draft visible to supplier: %v", err)
	}

	otherSupplier := models.Supplier{CompanyName: "Other Co"}
	if err := f.db.Create(&otherSupplier).Error; err != nil {
		t.Fatalf("seed supplier: %v", err)
	}
	stranger := auth.Actor{UserID: 9, Role: models.RoleSupplier, SupplierID: &otherSupplier.ID}
	o = f.sentToSupplier(t, 1, 0)
	if _, err := Get(f.db, stranger, o.ID); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("foreign order visible: %v", err)
	}
	if _, err := SupplierConfirm(f.db, stranger, o.ID); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("foreign confirm allowed: %v", err)
	}
}

func TestDeleteOrderRemovesChildren(t *testing.T) {
	f := newFixture(t)
	o := f.draftWithItems(t, 2, 1)

	if _, err := Submit(f.db, f.staff, o.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := Delete(f.db, f.staff, o.ID); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("staff delete allowed: %v", err)
	}
	if err := Delete(f.db, f.admin, o.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var items int64
	f.db.Model(&models.OrderItem{}).Where("order_id = ?", o.ID).Count(&items)
	if items != 0 {
		t.Fatalf("order items left = %d", items)
	}
}
