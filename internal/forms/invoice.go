// Package forms validates and coerces raw form input before it reaches the
// persistence layer. Each entity gets a declarative validator that maps
// untyped string values to a typed record or to field-keyed error messages.
//
// Validation is total: it never panics and has no side effects. Callers
// branch on Result.Success instead of handling errors.
package forms

import (
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tbourn/go-invoice-backend/internal/domain"
)

// Form field names as submitted by the invoice form.
const (
	FieldCustomerID = "customerId"
	FieldAmount     = "amount"
	FieldStatus     = "status"
)

// User-facing validation messages, keyed by field in Result.FieldErrors.
const (
	MsgCustomerRequired = "Please select a customer."
	MsgAmountPositive   = "Please enter an amount greater than $0."
	MsgStatusInvalid    = "Please select an invoice status."
)

// InvoiceInput is the typed, constrained record produced by a successful
// validation. Amount is already converted to integer cents.
type InvoiceInput struct {
	CustomerID  string
	AmountCents int64
	Status      string
}

// FieldErrors maps a form field name to one or more validation messages.
type FieldErrors map[string][]string

// Result is the tagged outcome of a validation run: either Success with a
// typed Data record, or a non-empty FieldErrors mapping.
type Result struct {
	Success     bool
	Data        InvoiceInput
	FieldErrors FieldErrors
}

// ValidateInvoice checks the customerId, amount, and status fields of a raw
// invoice form submission. The id and date fields are intentionally outside
// this subset; they are supplied by the caller's context (path parameter and
// server clock respectively).
//
// Rules:
//   - customerId: required, non-empty after trimming.
//   - amount: decimal in major currency units, strictly greater than zero.
//     The stored value is round(amount * 100) cents, computed exactly.
//   - status: exactly "pending" or "paid".
//
// All failing fields are reported together so the form can re-render every
// inline message at once.
func ValidateInvoice(values url.Values) Result {
	errs := FieldErrors{}

	customerID := strings.TrimSpace(values.Get(FieldCustomerID))
	if customerID == "" {
		errs.add(FieldCustomerID, MsgCustomerRequired)
	}

	cents, ok := coerceAmountCents(values.Get(FieldAmount))
	if !ok {
		errs.add(FieldAmount, MsgAmountPositive)
	}

	status := strings.TrimSpace(values.Get(FieldStatus))
	if !domain.ValidStatus(status) {
		errs.add(FieldStatus, MsgStatusInvalid)
	}

	if len(errs) > 0 {
		return Result{FieldErrors: errs}
	}
	return Result{
		Success: true,
		Data: InvoiceInput{
			CustomerID:  customerID,
			AmountCents: cents,
			Status:      status,
		},
	}
}

// add appends a message to the error list for field.
func (fe FieldErrors) add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// coerceAmountCents parses a major-unit amount string and converts it to
// integer cents, rounding to the nearest cent. It reports ok=false when the
// value is missing, not a number, or not strictly positive. Parsing uses
// decimal arithmetic so inputs like "49.99" convert to 4999 exactly.
func coerceAmountCents(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, false
	}
	if !d.IsPositive() {
		return 0, false
	}
	cents := d.Mul(decimal.NewFromInt(100)).Round(0)
	if !cents.IsPositive() {
		// Sub-cent inputs like "0.001" round to zero cents.
		return 0, false
	}
	return cents.IntPart(), true
}
