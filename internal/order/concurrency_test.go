package order

import (
	"testing"

	"supplychain-backend/internal/apperr"
	"supplychain-backend/internal/models"

	"gorm.io/gorm"
)

// Simulates a writer slipping in between the precondition read and the
// status write: the guarded update must refuse to clobber it.
func TestSetStatusDetectsConcurrentWriter(t *testing.T) {
	f := newFixture(t)
	o := f.draftWithItems(t, 1, 0)

	stale, err := loadOrder(f.db, o.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// Another writer cancels the order after our read.
	if err := f.db.Model(&models.Order{}).Where("id = ?", o.ID).
		Update("status", models.OrderStatusCancelled).Error; err != nil {
		t.Fatalf("concurrent write: %v", err)
	}

	err = f.db.Transaction(func(tx *gorm.DB) error {
		return setStatus(tx, stale, models.OrderStatusPendingApproval, nil)
	})
	if !apperr.IsKind(err, apperr.KindConcurrencyConflict) {
		t.Fatalf("err = %v, want concurrency conflict", err)
	}

	reloaded, _ := Get(f.db, f.staff, o.ID)
	if reloaded.Status != models.OrderStatusCancelled {
		t.Fatalf("status = %s, the concurrent write must win", reloaded.Status)
	}
}

// A cancel committing between Pay's precondition read and the notes
// write must not end up with a paid stamp on the cancelled order.
func TestPaidNoteGuardedAgainstConcurrentCancel(t *testing.T) {
	f := newFixture(t)
	o := f.sentToSupplier(t, 2, 0)

	stale, err := loadOrder(f.db, o.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := f.db.Model(&models.Order{}).Where("id = ?", o.ID).
		Update("status", models.OrderStatusCancelled).Error; err != nil {
		t.Fatalf("concurrent cancel: %v", err)
	}

	err = f.db.Transaction(func(tx *gorm.DB) error {
		return appendPaidNote(tx, stale, "card")
	})
	if !apperr.IsKind(err, apperr.KindConcurrencyConflict) {
		t.Fatalf("err = %v, want concurrency conflict", err)
	}

	var reloaded models.Order
	if err := f.db.First(&reloaded, o.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Notes != "" {
		t.Fatalf("notes = %q, cancelled order must stay unstamped", reloaded.Notes)
	}
}

func TestReserveGuardedAgainstConcurrentDecrement(t *testing.T) {
	f := newFixture(t)
	o := f.sentToSupplier(t, 8, 0)

	// Supplier stock drains between the order being sent and confirmed.
	if err := f.db.Model(&models.Product{}).Where("id = ?", f.productA.ID).
		Update("stock_quantity", 4).Error; err != nil {
		t.Fatalf("drain stock: %v", err)
	}

	_, err := SupplierConfirm(f.db, f.vendor, o.ID)
	if !apperr.IsKind(err, apperr.KindInsufficientStock) {
		t.Fatalf("err = %v, want insufficient stock", err)
	}
	if got := f.productStock(t, f.productA.ID); got != 4 {
		t.Fatalf("stock = %d, want 4 untouched", got)
	}
}
