// Package handlers defines HTTP-layer error codes used across all API
// endpoints. These symbolic constants are mapped to HTTP responses via the
// fail() helper in this package and give clients a stable, machine-readable
// error taxonomy alongside the human-readable message.
//
// Conventions:
//   - Codes are lowercase, snake_case, and generic unless explicitly noted.
//   - Generic codes (bad_request, not_found, …) mirror HTTP status semantics.
//   - Domain-specific codes are reserved for business outcomes a status code
//     alone cannot convey.
package handlers

const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotFound    = "not_found"
	ErrCodeRateLimited = "too_many_requests"
	ErrCodeInternal    = "internal_error"

	// Domain-specific:
	ErrCodeListFailed       = "list_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
