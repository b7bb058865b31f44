// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as correlation IDs, logging, panic recovery, metrics, CORS, security
// headers, and rate limiting.
//
// Design goals:
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/tbourn/go-invoice-backend/internal/cache"
	"github.com/tbourn/go-invoice-backend/internal/config"
	"github.com/tbourn/go-invoice-backend/internal/domain"
	"github.com/tbourn/go-invoice-backend/internal/http/handlers"
	"github.com/tbourn/go-invoice-backend/internal/http/middleware"
	"github.com/tbourn/go-invoice-backend/internal/repo"
	"github.com/tbourn/go-invoice-backend/internal/services"
)

// invoiceRepoShim adapts the repository free functions to the
// services.InvoiceRepo interface expected by the InvoiceService. This keeps
// services decoupled from the concrete repo package while reusing existing
// functions.
type invoiceRepoShim struct{}

// CreateInvoice proxies repo.CreateInvoice.
func (invoiceRepoShim) CreateInvoice(ctx context.Context, db *gorm.DB, customerID string, amountCents int64, status, date string) (*domain.Invoice, error) {
	return repo.CreateInvoice(ctx, db, customerID, amountCents, status, date)
}

// UpdateInvoice proxies repo.UpdateInvoice.
func (invoiceRepoShim) UpdateInvoice(ctx context.Context, db *gorm.DB, id, customerID string, amountCents int64, status string) error {
	return repo.UpdateInvoice(ctx, db, id, customerID, amountCents, status)
}

// DeleteInvoice proxies repo.DeleteInvoice.
func (invoiceRepoShim) DeleteInvoice(ctx context.Context, db *gorm.DB, id string) error {
	return repo.DeleteInvoice(ctx, db, id)
}

// GetInvoice proxies repo.GetInvoice.
func (invoiceRepoShim) GetInvoice(ctx context.Context, db *gorm.DB, id string) (*domain.Invoice, error) {
	return repo.GetInvoice(ctx, db, id)
}

// CountInvoices proxies repo.CountInvoices (pagination support).
func (invoiceRepoShim) CountInvoices(ctx context.Context, db *gorm.DB, term string) (int64, error) {
	return repo.CountInvoices(ctx, db, term)
}

// ListInvoicesPage proxies repo.ListInvoicesPage (pagination support).
func (invoiceRepoShim) ListInvoicesPage(ctx context.Context, db *gorm.DB, term string, offset, limit int) ([]domain.Invoice, error) {
	return repo.ListInvoicesPage(ctx, db, term, offset, limit)
}

// ListCustomers proxies repo.ListCustomers.
func (invoiceRepoShim) ListCustomers(ctx context.Context, db *gorm.DB) ([]domain.Customer, error) {
	return repo.ListCustomers(ctx, db)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures correlation IDs, structured logging, panic recovery,
// metrics, rate limiting, CORS and security headers, health and metrics
// endpoints, and then mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. RequestID: generate/propagate correlation id
//  2. Logger: structured request logs
//  3. Recovery: capture panics after logger
//  4. Body size limiter
//  5. Metrics
//  6. Rate limiter (per client IP)
//  7. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, listing *cache.Store, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 2) Structured request logging
	r.Use(middleware.Logger())

	// 3) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 4) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 5) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 6) Token-bucket rate limiter per client IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())
	r.Use(rl.Handler())

	// 7) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", "Location"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", "Location"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: service ← repo/db/cache
	invoiceSvc := services.NewInvoiceService(db, invoiceRepoShim{}, listing, cfg.ListingPath)
	h := handlers.New(invoiceSvc, listing, cfg.ListingPath)
	if cfg.PageSize > 0 {
		h.PageSize = cfg.PageSize
	}
	if cfg.MaxPageSize > 0 {
		h.MaxPageSize = cfg.MaxPageSize
	}

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Invoices
		api.POST("/invoices", h.CreateInvoice)
		api.GET("/invoices", h.ListInvoices)
		api.GET("/invoices/:id", h.GetInvoice)
		api.PUT("/invoices/:id", h.UpdateInvoice)
		api.DELETE("/invoices/:id", h.DeleteInvoice)

		// Customers
		api.GET("/customers", h.ListCustomers)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
