// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Invoice
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When an invoice is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// This repository is designed to be wrapped by a higher-level service
// (see services.InvoiceService) which runs validation, cache invalidation,
// and redirect decisions around these calls.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-invoice-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateInvoice inserts a new invoice row. The invoice ID is a randomly
// generated UUID (string); amountCents and date are supplied by the caller,
// which is expected to have validated them already.
//
// On success, it returns the persisted Invoice. On failure, it returns a DB
// error (e.g. a foreign-key violation for an unknown customer).
func CreateInvoice(ctx context.Context, db *gorm.DB, customerID string, amountCents int64, status, date string) (*domain.Invoice, error) {
	inv := &domain.Invoice{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Amount:     amountCents,
		Status:     status,
		Date:       date,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(inv).Error; err != nil {
		return nil, err
	}
	return inv, nil
}

// UpdateInvoice changes the customer reference, amount, and status of the
// invoice identified by id. The id and date columns are never touched: the
// identifier is immutable and the issue date is fixed at creation time.
//
// If no row matches id, it returns ErrNotFound. On DB error, the raw error
// is returned.
func UpdateInvoice(ctx context.Context, db *gorm.DB, id, customerID string, amountCents int64, status string) error {
	res := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"customer_id": customerID,
			"amount":      amountCents,
			"status":      status,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteInvoice removes the invoice row matching id. Deletion is hard: the
// Invoice model carries no soft-delete marker, so the row is gone afterwards.
//
// If no row matches id, it returns ErrNotFound. On DB error, the raw error
// is returned.
func DeleteInvoice(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Invoice{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetInvoice fetches a single invoice by ID, e.g. to populate the edit form.
// If the record does not exist, it returns ErrNotFound.
func GetInvoice(ctx context.Context, db *gorm.DB, id string) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&inv).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// invoiceSearchScope narrows an invoice query to rows matching the free-text
// search term. The term is matched against the customer name and email and
// the invoice amount, status, and date, mirroring what the dashboard search
// box covers. A blank term leaves the query unfiltered.
func invoiceSearchScope(q *gorm.DB, term string) *gorm.DB {
	if term == "" {
		return q
	}
	like := "%" + term + "%"
	return q.
		Joins("JOIN customers ON customers.id = invoices.customer_id").
		Where(
			q.Session(&gorm.Session{NewDB: true}).
				Where("customers.name LIKE ?", like).
				Or("customers.email LIKE ?", like).
				Or("CAST(invoices.amount AS TEXT) LIKE ?", like).
				Or("invoices.status LIKE ?", like).
				Or("invoices.date LIKE ?", like),
		)
}

// CountInvoices returns the number of invoices matching the search term
// (all invoices when term is blank). On DB error, it returns the error.
func CountInvoices(ctx context.Context, db *gorm.DB, term string) (int64, error) {
	var total int64
	q := db.WithContext(ctx).Model(&domain.Invoice{})
	err := invoiceSearchScope(q, term).Count(&total).Error
	return total, err
}

// ListInvoicesPage returns a page of invoices matching the search term,
// ordered by issue date descending (most recent first). Use CountInvoices to
// obtain the total for pagination metadata.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListInvoicesPage(ctx context.Context, db *gorm.DB, term string, offset, limit int) ([]domain.Invoice, error) {
	var out []domain.Invoice
	q := db.WithContext(ctx).Model(&domain.Invoice{})
	err := invoiceSearchScope(q, term).
		Order("invoices.date DESC, invoices.created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
