// Package services defines the business logic for invoice mutations and
// listing. This file centralizes common service-level error values so that
// they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

var (
	// ErrInvoiceNotFound indicates that the requested invoice does not exist.
	ErrInvoiceNotFound = errors.New("invoice not found")
)

// Pipeline result messages. These are the exact user-visible strings the
// mutation pipeline reports; handlers and clients match on them verbatim.
const (
	MsgCreateMissingFields = "Missing Fields. Failed to Create Invoice"
	MsgUpdateMissingFields = "Missing Fields. Failed to Update Invoice"

	MsgCreateDBError = "Database Error: Failed to Create Invoice"
	MsgUpdateDBError = "Database Error: Failed to Update Invoice"
	MsgDeleteDBError = "Database Error: Failed to Delete Invoice"

	MsgDeleted = "Deleted Invoice"
)
