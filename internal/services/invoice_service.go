// Package services – InvoiceService
//
// This file implements the InvoiceService, which runs the validated mutation
// pipeline for invoices: parse → validate → coerce → persist → invalidate →
// redirect. Each mutation validates the raw form input first, persists only
// on success, and converts every failure into a structured State instead of
// an error, so callers always receive a renderable result.
//
// The redirect that follows a successful create or update is modeled as a
// tagged Outcome rather than a non-local control transfer: handlers inspect
// Outcome.RedirectTo and issue the HTTP redirect themselves.
package services

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-invoice-backend/internal/cache"
	"github.com/tbourn/go-invoice-backend/internal/domain"
	"github.com/tbourn/go-invoice-backend/internal/forms"
)

// InvoiceRepo defines the repository contract required by InvoiceService.
// Implementations are responsible for persistence of invoice rows.
type InvoiceRepo interface {
	// CreateInvoice inserts a new invoice row with a generated UUID.
	CreateInvoice(ctx context.Context, db *gorm.DB, customerID string, amountCents int64, status, date string) (*domain.Invoice, error)

	// UpdateInvoice changes customer_id, amount, and status of one row.
	UpdateInvoice(ctx context.Context, db *gorm.DB, id, customerID string, amountCents int64, status string) error

	// DeleteInvoice removes the row matching id.
	DeleteInvoice(ctx context.Context, db *gorm.DB, id string) error

	// GetInvoice fetches one invoice by id.
	GetInvoice(ctx context.Context, db *gorm.DB, id string) (*domain.Invoice, error)

	// CountInvoices returns the number of invoices matching the search term.
	CountInvoices(ctx context.Context, db *gorm.DB, term string) (int64, error)

	// ListInvoicesPage returns a page of invoices matching the search term.
	ListInvoicesPage(ctx context.Context, db *gorm.DB, term string, offset, limit int) ([]domain.Invoice, error)

	// ListCustomers returns the customers selectable on the invoice form.
	ListCustomers(ctx context.Context, db *gorm.DB) ([]domain.Customer, error)
}

// State is the structured result a mutation reports when it does not
// redirect: field-keyed validation messages and/or a summary message.
// It is shaped for direct re-rendering of the invoice form.
type State struct {
	Errors  map[string][]string `json:"errors,omitempty"`
	Message string              `json:"message,omitempty"`
}

// Outcome is the tagged result of a mutation: either a redirect to
// RedirectTo (success path for create/update) or a State describing why the
// pipeline stopped. Exactly one of the two is meaningful.
type Outcome struct {
	RedirectTo string
	State      State
}

// Redirects reports whether the outcome transfers control to another view.
func (o Outcome) Redirects() bool { return o.RedirectTo != "" }

// InvoiceService provides the invoice mutation pipeline and the listing
// queries the dashboard reads. It owns the listing cache invalidation and
// the redirect target for successful mutations.
type InvoiceService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the invoice repository used by this service.
	Repo InvoiceRepo
	// Listing caches rendered listing payloads; successful mutations
	// invalidate ListingPath on it.
	Listing *cache.Store
	// ListingPath is the dashboard listing view: the cache namespace and the
	// redirect target after create/update.
	ListingPath string

	// Now supplies the server clock used to stamp issue dates.
	Now func() time.Time
}

// NewInvoiceService constructs an InvoiceService with the real clock.
func NewInvoiceService(db *gorm.DB, r InvoiceRepo, listing *cache.Store, listingPath string) *InvoiceService {
	return &InvoiceService{
		DB:          db,
		Repo:        r,
		Listing:     listing,
		ListingPath: listingPath,
		Now:         time.Now,
	}
}

// today returns the current day in ISO form (YYYY-MM-DD), in UTC.
func (s *InvoiceService) today() string {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return now().UTC().Format("2006-01-02")
}

// invalidateListing drops all cached renderings of the listing view.
// Fire-and-forget: there is nothing to consume from it.
func (s *InvoiceService) invalidateListing() {
	if s.Listing != nil {
		s.Listing.Invalidate(s.ListingPath)
	}
}

// Create runs the full mutation pipeline for a new invoice.
//
// prev is the previous form state threaded through by UI frameworks that
// re-render forms from action results; it is not consulted.
//
// Steps, each gating the next:
//  1. Validate {customerId, amount, status}. On failure, return the field
//     errors plus a summary message; nothing is persisted.
//  2. Coerce the amount to cents and stamp the issue date with today (UTC).
//  3. Insert the row with a generated UUID. On failure, log the cause and
//     return only the generic database-error message.
//  4. Invalidate the cached listing view, then redirect to it.
func (s *InvoiceService) Create(ctx context.Context, prev State, form url.Values) Outcome {
	_ = prev

	res := forms.ValidateInvoice(form)
	if !res.Success {
		return Outcome{State: State{
			Errors:  res.FieldErrors,
			Message: MsgCreateMissingFields,
		}}
	}

	inv, err := s.Repo.CreateInvoice(ctx, s.DB, res.Data.CustomerID, res.Data.AmountCents, res.Data.Status, s.today())
	if err != nil {
		log.Error().Err(err).Str("customer_id", res.Data.CustomerID).Msg("insert invoice failed")
		return Outcome{State: State{Message: MsgCreateDBError}}
	}

	log.Debug().Str("invoice_id", inv.ID).Int64("amount", inv.Amount).Msg("invoice created")
	s.invalidateListing()
	return Outcome{RedirectTo: s.ListingPath}
}

// Update runs the mutation pipeline against an existing invoice. Validation
// and coercion are identical to Create; the persistence step updates
// customer_id, amount, and status only — the id and issue date of the target
// row are immutable.
//
// prev is threaded through as in Create and not consulted.
func (s *InvoiceService) Update(ctx context.Context, id string, prev State, form url.Values) Outcome {
	_ = prev

	res := forms.ValidateInvoice(form)
	if !res.Success {
		return Outcome{State: State{
			Errors:  res.FieldErrors,
			Message: MsgUpdateMissingFields,
		}}
	}

	if err := s.Repo.UpdateInvoice(ctx, s.DB, id, res.Data.CustomerID, res.Data.AmountCents, res.Data.Status); err != nil {
		// A vanished row and a driver failure report the same coarse message;
		// the distinction lives only in the log.
		log.Error().Err(err).Str("invoice_id", id).Msg("update invoice failed")
		return Outcome{State: State{Message: MsgUpdateDBError}}
	}

	s.invalidateListing()
	return Outcome{RedirectTo: s.ListingPath}
}

// Delete removes the invoice row matching id. No input validation runs: the
// id comes from a row-bound control in the listing view. On failure it
// returns the generic database-error message; on success it invalidates the
// listing cache and confirms. Delete never redirects — it is invoked from
// the listing view itself.
func (s *InvoiceService) Delete(ctx context.Context, id string) State {
	if err := s.Repo.DeleteInvoice(ctx, s.DB, id); err != nil {
		log.Error().Err(err).Str("invoice_id", id).Msg("delete invoice failed")
		return State{Message: MsgDeleteDBError}
	}

	s.invalidateListing()
	return State{Message: MsgDeleted}
}

// Get fetches one invoice, e.g. to populate the edit form. It returns
// ErrInvoiceNotFound when the row does not exist.
func (s *InvoiceService) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	inv, err := s.Repo.GetInvoice(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return inv, nil
}

// ListPage returns a page of invoices matching the search term, with the
// total count for pagination metadata. It applies defaults for invalid
// page/pageSize values.
func (s *InvoiceService) ListPage(ctx context.Context, term string, page, pageSize int) ([]domain.Invoice, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountInvoices(ctx, s.DB, term)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Invoice{}, 0, nil
	}

	items, err := s.Repo.ListInvoicesPage(ctx, s.DB, term, offset, pageSize)
	return items, total, err
}

// Customers returns the customers selectable on the invoice form.
func (s *InvoiceService) Customers(ctx context.Context) ([]domain.Customer, error) {
	return s.Repo.ListCustomers(ctx, s.DB)
}
