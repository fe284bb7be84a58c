package payment

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
	order     models.Order
	staff     auth.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	f := &fixture{db: db}
	f.warehouse = models.Warehouse{Name: "Central", Location: "Dock 4"}
	if err := db.Create(&f.warehouse).Error; err != nil {
		t.Fatalf("seed warehouse: %v", err)
	}
	f.supplier = models.Supplier{CompanyName: "Acme Goods"}
	if err := db.Create(&f.supplier).Error; err != nil {
		t.Fatalf("seed supplier: %v", err)
	}
	product := models.Product{SupplierID: f.supplier.ID, Name: "Widget", Price: 3, StockQuantity: 50, IsActive: true}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	f.order = models.Order{
		WarehouseID:     f.warehouse.ID,
		SupplierID:      f.supplier.ID,
		CreatedByUserID: 1,
		Status:          models.OrderStatusProcessing,
		Items: []models.OrderItem{
			{ProductID: product.ID, Quantity: 4, UnitPrice: product.Price},
		},
	}
	if err := db.Create(&f.order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	f.staff = auth.Actor{UserID: 1, Role: models.RoleWarehouseStaff, WarehouseID: &f.warehouse.ID}
	return f
}

func TestStartPayment(t *testing.T) {
	f := newFixture(t)

	p, err := Start(f.db, f.staff, f.order.ID, models.PaymentMethodCard)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if p.Status != models.PaymentStatusPending {
		t.Fatalf("status = %s, want pending", p.Status)
	}
	if p.Amount != 12 {
		t.Fatalf("amount = %v, want 12", p.Amount)
	}
	if p.Gateway != "sandbox" || p.TransactionID == "" {
		t.Fatalf("payment = %+v, want sandbox gateway with transaction id", p)
	}

	if _, err := Start(f.db, f.staff, f.order.ID, models.PaymentMethod("bitcoin")); !apperr.IsKind(err, apperr.KindValidationFailed) {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestCaptureMutatesPaymentOnly(t *testing.T) {
	f := newFixture(t)
	p, err := Start(f.db, f.staff, f.order.ID, models.PaymentMethodBankTransfer)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	p, err = Capture(f.db, f.staff, p.ID)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if p.Status != models.PaymentStatusCaptured {
		t.Fatalf("status = %s, want captured", p.Status)
	}

	var o models.Order
	if err := f.db.First(&o, f.order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if o.Status != models.OrderStatusProcessing || o.Notes != "" {
		t.Fatalf("order = %+v, settlement must not touch it", o)
	}
}

func TestAdminCanCapture(t *testing.T) {
	f := newFixture(t)
	p, err := Start(f.db, f.staff, f.order.ID, models.PaymentMethodCard)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	admin := auth.Actor{UserID: 99, Role: models.RoleAdmin}
	p, err = Capture(f.db, admin, p.ID)
	if err != nil {
		t.Fatalf("admin capture: %v", err)
	}
	if p.Status != models.PaymentStatusCaptured {
		t.Fatalf("status = %s, want captured", p.Status)
	}
}

func TestCaptureAfterDelivery(t *testing.T) {
	f := newFixture(t)
	p, err := Start(f.db, f.staff, f.order.ID, models.PaymentMethodCard)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// The goods arrive before the payment settles.
	if err := f.db.Model(&models.Order{}).Where("id = ?", f.order.ID).
		Update("status", models.OrderStatusDelivered).Error; err != nil {
		t.Fatalf("deliver order: %v", err)
	}

	p, err = Capture(f.db, f.staff, p.ID)
	if err != nil {
		t.Fatalf("capture after delivery: %v", err)
	}
	if p.Status != models.PaymentStatusCaptured {
		t.Fatalf("status = %s, want captured", p.Status)
	}
}

func TestSettleOnlyOnce(t *testing.T) {
	f := newFixture(t)
	p, err := Start(f.db, f.staff, f.order.ID, models.PaymentMethodCash)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := Fail(f.db, f.staff, p.ID); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if _, err := Capture(f.db, f.staff, p.ID); !apperr.IsKind(err, apperr.KindPreconditionFailed) {
		t.Fatalf("capture after fail: err = %v, want precondition failure", err)
	}
	if _, err := Cancel(f.db, f.staff, p.ID); !apperr.IsKind(err, apperr.KindPreconditionFailed) {
		t.Fatalf("cancel after fail: err = %v, want precondition failure", err)
	}
}
