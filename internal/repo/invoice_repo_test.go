package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-invoice-backend/internal/domain"
)

func newRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("invoice_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func seedCustomer(t *testing.T, db *gorm.DB, id, name, email string) {
	t.Helper()
	c := domain.Customer{ID: id, Name: name, Email: email}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("seed customer %s: %v", id, err)
	}
}

func seedInvoice(t *testing.T, db *gorm.DB, id, customerID string, amount int64, status, date string) {
	t.Helper()
	inv := domain.Invoice{ID: id, CustomerID: customerID, Amount: amount, Status: status, Date: date}
	if err := db.Create(&inv).Error; err != nil {
		t.Fatalf("seed invoice %s: %v", id, err)
	}
}

func TestCreateInvoice_Error_NoTable(t *testing.T) {
	db := newRepoDB(t /* no migrations */)
	inv, err := CreateInvoice(context.Background(), db, "c1", 1000, domain.StatusPending, "2026-08-31")
	if err == nil || inv != nil {
		t.Fatalf("expected error creating without table, got inv=%v err=%v", inv, err)
	}
}

func TestCreateInvoice_Success_PersistsAndSetsFields(t *testing.T) {
	db := newRepoDB(t, &domain.Customer{}, &domain.Invoice{})
	seedCustomer(t, db, "c1", "Acme Corp", "billing@acme.test")

	inv, err := CreateInvoice(context.Background(), db, "c1", 1550, domain.StatusPending, "2026-08-31")
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if inv.ID == "" || inv.CustomerID != "c1" || inv.Amount != 1550 || inv.Status != "pending" {
		t.Fatalf("unexpected Invoice fields: %+v", inv)
	}
	if inv.Date != "2026-08-31" {
		t.Fatalf("unexpected date: %q", inv.Date)
	}
	// round-trip
	var got domain.Invoice
	if err := db.First(&got, "id = ?", inv.ID).Error; err != nil {
		t.Fatalf("load created invoice: %v", err)
	}
	if got.Amount != 1550 || got.Status != "pending" || got.Date != "2026-08-31" {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestUpdateInvoice_MutatesOnlyAllowedColumns(t *testing.T) {
	db := newRepoDB(t, &domain.Customer{}, &domain.Invoice{})
	seedCustomer(t, db, "c1", "Acme Corp", "billing@acme.test")
	seedCustomer(t, db, "c2", "Globex", "ap@globex.test")
	seedInvoice(t, db, "i1", "c1", 1000, domain.StatusPending, "2026-01-15")

	if err := UpdateInvoice(context.Background(), db, "i1", "c2", 4999, domain.StatusPaid); err != nil {
		t.Fatalf("UpdateInvoice: %v", err)
	}

	var got domain.Invoice
	if err := db.First(&got, "id = ?", "i1").Error; err != nil {
		t.Fatalf("load updated: %v", err)
	}
	if got.CustomerID != "c2" || got.Amount != 4999 || got.Status != "paid" {
		t.Fatalf("update did not apply: %+v", got)
	}
	// id and date stay untouched
	if got.ID != "i1" || got.Date != "2026-01-15" {
		t.Fatalf("id/date must be immutable: %+v", got)
	}
}

func TestUpdateInvoice_NotFound(t *testing.T) {
	db := newRepoDB(t, &domain.Customer{}, &domain.Invoice{})
	err := UpdateInvoice(context.Background(), db, "missing", "c1", 100, domain.StatusPaid)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteInvoice_RemovesExactlyOneRow(t *testing.T) {
	db := newRepoDB(t, &domain.Customer{}, &domain.Invoice{})
	seedCustomer(t, db, "c1", "Acme Corp", "billing@acme.test")
	seedInvoice(t, db, "i1", "c1", 1000, domain.StatusPending, "2026-01-15")
	seedInvoice(t, db, "i2", "c1", 2000, domain.StatusPaid, "2026-01-16")

	if err := DeleteInvoice(context.Background(), db, "i1"); err != nil {
		t.Fatalf("DeleteInvoice: %v", err)
	}

	var n int64
	if err := db.Model(&domain.Invoice{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected exactly 1 remaining invoice, got %d", n)
	}
	var rest domain.Invoice
	if err := db.First(&rest).Error; err != nil || rest.ID != "i2" {
		t.Fatalf("wrong row deleted: %+v err=%v", rest, err)
	}
	// Hard delete: the row must be gone even with Unscoped.
	var all []domain.Invoice
	if err := db.Unscoped().Find(&all).Error; err != nil {
		t.Fatalf("unscoped find: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected hard delete, found %d rows unscoped", len(all))
	}
}

func TestDeleteInvoice_NotFound(t *testing.T) {
	db := newRepoDB(t, &domain.Customer{}, &domain.Invoice{})
	if err := DeleteInvoice(context.Background(), db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetInvoice_FoundAndNotFound(t *testing.T) {
	db := newRepoDB(t, &domain.Customer{}, &domain.Invoice{})

	if _, err := GetInvoice(context.Background(), db, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing invoice, got %v", err)
	}

	seedCustomer(t, db, "c1", "Acme Corp", "billing@acme.test")
	seedInvoice(t, db, "i1", "c1", 1000, domain.StatusPending, "2026-01-15")
	got, err := GetInvoice(context.Background(), db, "i1")
	if err != nil {
		t.Fatalf("GetInvoice: %v", err)
	}
	if got.ID != "i1" || got.Amount != 1000 {
		t.Fatalf("unexpected invoice: %+v", got)
	}
}

func TestListInvoicesPage_FilterAndOrder(t *testing.T) {
	db := newRepoDB(t, &domain.Customer{}, &domain.Invoice{})
	seedCustomer(t, db, "c1", "Acme Corp", "billing@acme.test")
	seedCustomer(t, db, "c2", "Globex", "ap@globex.test")
	seedInvoice(t, db, "i1", "c1", 1000, domain.StatusPending, "2026-01-10")
	seedInvoice(t, db, "i2", "c1", 2000, domain.StatusPaid, "2026-01-12")
	seedInvoice(t, db, "i3", "c2", 3000, domain.StatusPending, "2026-01-11")

	// Term matching the customer name hits only Acme's invoices.
	list, err := ListInvoicesPage(context.Background(), db, "acme", 0, 10)
	if err != nil {
		t.Fatalf("ListInvoicesPage: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 invoices for acme, got %d", len(list))
	}
	// Ordered by date descending: i2 (01-12) before i1 (01-10).
	if list[0].ID != "i2" || list[1].ID != "i1" {
		t.Fatalf("unexpected order: %#v", list)
	}

	// Status term.
	list, err = ListInvoicesPage(context.Background(), db, "paid", 0, 10)
	if err != nil {
		t.Fatalf("ListInvoicesPage(paid): %v", err)
	}
	if len(list) != 1 || list[0].ID != "i2" {
		t.Fatalf("expected only i2 for 'paid', got %#v", list)
	}

	// Blank term returns everything, newest date first.
	list, err = ListInvoicesPage(context.Background(), db, "", 0, 10)
	if err != nil {
		t.Fatalf("ListInvoicesPage(all): %v", err)
	}
	if len(list) != 3 || list[0].ID != "i2" || list[1].ID != "i3" || list[2].ID != "i1" {
		t.Fatalf("unexpected full listing: %#v", list)
	}
}

func TestListInvoicesPage_Pagination(t *testing.T) {
	db := newRepoDB(t, &domain.Customer{}, &domain.Invoice{})
	seedCustomer(t, db, "c1", "Acme Corp", "billing@acme.test")
	for i := 1; i <= 5; i++ {
		seedInvoice(t, db, fmt.Sprintf("i%d", i), "c1", int64(i*100), domain.StatusPending,
			fmt.Sprintf("2026-03-%02d", i))
	}

	// Offset 1, limit 2 over date-desc order (i5..i1) => i4, i3.
	page, err := ListInvoicesPage(context.Background(), db, "", 1, 2)
	if err != nil {
		t.Fatalf("ListInvoicesPage: %v", err)
	}
	if len(page) != 2 || page[0].ID != "i4" || page[1].ID != "i3" {
		t.Fatalf("unexpected page slice: %+v", page)
	}
}

func TestCountInvoices_WithAndWithoutTerm(t *testing.T) {
	db := newRepoDB(t, &domain.Customer{}, &domain.Invoice{})
	seedCustomer(t, db, "c1", "Acme Corp", "billing@acme.test")
	seedCustomer(t, db, "c2", "Globex", "ap@globex.test")
	seedInvoice(t, db, "i1", "c1", 1000, domain.StatusPending, "2026-01-10")
	seedInvoice(t, db, "i2", "c2", 2000, domain.StatusPaid, "2026-01-11")

	total, err := CountInvoices(context.Background(), db, "")
	if err != nil || total != 2 {
		t.Fatalf("CountInvoices all: total=%d err=%v", total, err)
	}
	total, err = CountInvoices(context.Background(), db, "globex")
	if err != nil || total != 1 {
		t.Fatalf("CountInvoices globex: total=%d err=%v", total, err)
	}
}

func TestCountInvoices_Error_NoTable(t *testing.T) {
	db := newRepoDB(t /* no migrations */)
	if _, err := CountInvoices(context.Background(), db, ""); err == nil {
		t.Fatalf("expected error when table missing")
	}
}
