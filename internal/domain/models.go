// Package domain defines the persistence models for invoices and customers.
// These types are mapped with GORM and form the core data layer of the
// invoice dashboard backend.
package domain

import (
	"time"
)

// Invoice status values. No other value is ever persisted; the check
// constraint on Invoice.Status enforces this at the database level as well.
const (
	StatusPending = "pending"
	StatusPaid    = "paid"
)

// ValidStatus reports whether s is one of the two allowed invoice statuses.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusPaid
}

// Invoice represents a single billed amount owed by a customer.
//
// Fields:
//   - ID: stable UUID primary key (char(36)), assigned server-side on create
//     and immutable afterwards.
//   - CustomerID: identifier of the billed customer; indexed for listing.
//   - Amount: monetary value in integer cents. Input is accepted in major
//     currency units and converted exactly (e.g. "49.99" is stored as 4999).
//   - Status: "pending" or "paid" (enforced by DB constraint).
//   - Date: issue date in ISO-8601 form (YYYY-MM-DD), assigned at creation
//     time and never mutated by updates.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//
// Invoices are hard-deleted: the delete operation removes the row outright,
// so there is no soft-deletion marker on this model.
type Invoice struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	CustomerID string    `json:"customer_id" gorm:"type:char(36);not null;index:idx_customer_invoices"`
	Amount     int64     `json:"amount"      gorm:"not null"`
	Status     string    `json:"status"      gorm:"type:varchar(16);not null;check:status IN ('pending','paid')"`
	Date       string    `json:"date"        gorm:"type:varchar(10);not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Customer is the billed party. The FK keeps invoices consistent with
	// the customers table; customers themselves are managed elsewhere.
	Customer Customer `json:"-" gorm:"foreignKey:CustomerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Invoice.
func (Invoice) TableName() string { return "invoices" }

// Customer is the minimal customer entity referenced by invoices. It exists
// so that customerId selection on the invoice form resolves against real
// rows; customer lifecycle management is out of scope for this service.
type Customer struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name"      gorm:"type:varchar(255);not null"`
	Email     string    `json:"email"     gorm:"type:varchar(255);not null"`
	ImageURL  string    `json:"image_url" gorm:"type:varchar(512)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Customer.
func (Customer) TableName() string { return "customers" }
