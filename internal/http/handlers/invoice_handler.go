// Invoice HTTP handlers.
//
// This file exposes REST endpoints for invoice resources:
//   - POST   /invoices        (create, form-encoded)
//   - GET    /invoices        (list, searchable, paginated, ETag support)
//   - GET    /invoices/{id}   (fetch one, e.g. to populate the edit form)
//   - PUT    /invoices/{id}   (update, form-encoded)
//   - DELETE /invoices/{id}   (delete)
//   - GET    /customers       (customers selectable on the invoice form)
//
// Handlers are transport-thin: they parse input, call application services,
// and translate results into HTTP responses. Mutations return either a
// redirect (success) or the form State produced by the service pipeline, so
// clients can re-render the invoice form directly from the response body.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-invoice-backend/internal/cache"
	"github.com/tbourn/go-invoice-backend/internal/domain"
	"github.com/tbourn/go-invoice-backend/internal/http/middleware"
	"github.com/tbourn/go-invoice-backend/internal/repo"
	"github.com/tbourn/go-invoice-backend/internal/search"
	"github.com/tbourn/go-invoice-backend/internal/services"
	"github.com/tbourn/go-invoice-backend/internal/utils"
)

//
// Service contract (context-aware)
//

// InvoiceService defines the invoice operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type InvoiceService interface {
	// Create runs the validated mutation pipeline for a new invoice.
	Create(ctx context.Context, prev services.State, form url.Values) services.Outcome
	// Update runs the pipeline against an existing invoice.
	Update(ctx context.Context, id string, prev services.State, form url.Values) services.Outcome
	// Delete removes an invoice and reports the result as form State.
	Delete(ctx context.Context, id string) services.State
	// Get fetches one invoice by id.
	Get(ctx context.Context, id string) (*domain.Invoice, error)
	// ListPage returns a page of invoices matching term and the total count.
	ListPage(ctx context.Context, term string, page, pageSize int) ([]domain.Invoice, int64, error)
	// Customers returns the customers selectable on the invoice form.
	Customers(ctx context.Context) ([]domain.Customer, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for invoices and customers. It depends
// on an abstract service interface to keep transport concerns separate from
// business logic. Listing responses are cached in listing, keyed by the
// dashboard listing path plus the canonical query string, and dropped by the
// service whenever a mutation succeeds.
type Handlers struct {
	svc         InvoiceService
	listing     *cache.Store
	listingPath string

	// PageSize and MaxPageSize bound the page_size query param.
	PageSize    int
	MaxPageSize int
}

// New constructs a Handlers instance bound to the given service and listing
// cache. listingPath is the dashboard listing view used as the cache
// namespace; it matches the redirect target of successful mutations.
// Page-size bounds start at sensible defaults and can be overridden from
// configuration.
func New(svc InvoiceService, listing *cache.Store, listingPath string) *Handlers {
	return &Handlers{
		svc:         svc,
		listing:     listing,
		listingPath: listingPath,
		PageSize:    20,
		MaxPageSize: 100,
	}
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListInvoicesResponse wraps a page of invoices and pagination information.
type ListInvoicesResponse struct {
	Invoices   []domain.Invoice `json:"invoices"`
	Pagination Pagination       `json:"pagination"`
}

// ListCustomersResponse wraps the selectable customers.
type ListCustomersResponse struct {
	Customers []domain.Customer `json:"customers"`
}

//
// Helpers
//

// clampPageSize parses and bounds the page_size query param.
func (h *Handlers) clampPageSize(c *gin.Context) int {
	return utils.ClampInt(utils.AtoiDefault(c.Query("page_size"), h.PageSize), 1, h.MaxPageSize)
}

// mutationResult classifies an Outcome for the mutation metrics.
func mutationResult(out services.Outcome) string {
	switch {
	case out.Redirects():
		return "success"
	case len(out.State.Errors) > 0:
		return "validation_error"
	default:
		return "db_error"
	}
}

// writeOutcome translates a mutation Outcome into an HTTP response: a 303
// redirect to the listing view on success, 422 with the field errors on
// validation failure, or 500 with the summary message on a persistence
// failure. The non-redirect bodies are the State itself, shaped for direct
// re-rendering of the invoice form.
func (h *Handlers) writeOutcome(c *gin.Context, out services.Outcome) {
	if out.Redirects() {
		c.Redirect(http.StatusSeeOther, out.RedirectTo)
		return
	}
	if len(out.State.Errors) > 0 {
		ok(c, http.StatusUnprocessableEntity, out.State)
		return
	}
	ok(c, http.StatusInternalServerError, out.State)
}

// formValues parses the request body as form-encoded input. Gin's binding
// layer is bypassed on purpose: the service pipeline validates raw values and
// reports field-keyed errors, which binding tags cannot express.
func formValues(c *gin.Context) (url.Values, error) {
	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	return c.Request.PostForm, nil
}

//
// Handlers
//

// CreateInvoice creates a new invoice from form-encoded input. On success it
// redirects to the listing view; otherwise it returns the form State.
func (h *Handlers) CreateInvoice(c *gin.Context) {
	form, err := formValues(c)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid form body")
		return
	}

	out := h.svc.Create(c.Request.Context(), services.State{}, form)
	middleware.ObserveMutation("create", mutationResult(out))
	h.writeOutcome(c, out)
}

// UpdateInvoice updates an existing invoice from form-encoded input. The id
// and issue date of the target row are immutable; only customer, amount, and
// status change.
func (h *Handlers) UpdateInvoice(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invoice id must be a UUID")
		return
	}

	form, err := formValues(c)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid form body")
		return
	}

	out := h.svc.Update(c.Request.Context(), id, services.State{}, form)
	middleware.ObserveMutation("update", mutationResult(out))
	h.writeOutcome(c, out)
}

// DeleteInvoice removes an invoice. It always answers with form State: a
// confirmation message on success, the generic database-error message
// otherwise. No redirect is issued; deletion is triggered from the listing
// view itself.
func (h *Handlers) DeleteInvoice(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invoice id must be a UUID")
		return
	}

	st := h.svc.Delete(c.Request.Context(), id)
	if st.Message == services.MsgDeleted {
		middleware.ObserveMutation("delete", "success")
		ok(c, http.StatusOK, st)
		return
	}
	middleware.ObserveMutation("delete", "db_error")
	ok(c, http.StatusInternalServerError, st)
}

// GetInvoice fetches one invoice by id, e.g. to populate the edit form.
func (h *Handlers) GetInvoice(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invoice id must be a UUID")
		return
	}

	inv, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrInvoiceNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "invoice not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, inv)
}

// ListInvoices returns a page of invoices matching the optional search term.
//
// The search term comes from the "query" param and matches customer name,
// email, amount, status, and date. Responses carry a weak ETag derived from
// the invoice table version; matching If-None-Match requests get 304.
// Rendered pages are additionally cached per canonical query string and
// served from cache while the table version is unchanged.
func (h *Handlers) ListInvoices(c *gin.Context) {
	ctx := c.Request.Context()
	params := c.Request.URL.Query()

	term := search.TermFromValues(params)
	page := search.PageFromValues(params)
	pageSize := h.clampPageSize(c)

	// ETag pre-check (best effort).
	var etag string
	var db *gorm.DB
	if svc, isConcrete := h.svc.(*services.InvoiceService); isConcrete {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.InvoicesStats(ctx, db)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag = fmt.Sprintf(`W/"invoices:%d:%d"`, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	key := h.cacheKey(term, page, pageSize)
	if h.listing != nil && etag != "" {
		if ent, hit := h.listing.Get(key); hit && ent.ETag == etag {
			c.Data(http.StatusOK, "application/json; charset=utf-8", ent.Body)
			return
		}
	}

	items, total, err := h.svc.ListPage(ctx, term, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := utils.TotalPages(total, pageSize)
	resp := ListInvoicesResponse{
		Invoices: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	}

	if h.listing != nil && etag != "" {
		if body, merr := json.Marshal(resp); merr == nil {
			h.listing.Put(key, body, etag)
			c.Data(http.StatusOK, "application/json; charset=utf-8", body)
			return
		}
	}
	ok(c, http.StatusOK, resp)
}

// cacheKey builds the canonical listing-cache key for a query. Keys live
// under the dashboard listing path so a single Invalidate(listingPath) after
// a mutation drops every cached variant.
func (h *Handlers) cacheKey(term string, page, pageSize int) string {
	v := url.Values{}
	if term != "" {
		v.Set(search.ParamQuery, term)
	}
	v.Set(search.ParamPage, fmt.Sprintf("%d", page))
	v.Set("page_size", fmt.Sprintf("%d", pageSize))
	return h.listingPath + "?" + v.Encode()
}

// ListCustomers returns the customers selectable on the invoice form,
// ordered by name.
func (h *Handlers) ListCustomers(c *gin.Context) {
	customers, err := h.svc.Customers(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListCustomersResponse{Customers: customers})
}
