// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Customer
// model, which backs the customer picker on the invoice form.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-invoice-backend/internal/domain"
)

// CreateCustomer inserts a new customer row. Used by seeding and tests; the
// invoice pipeline itself only reads customers.
func CreateCustomer(ctx context.Context, db *gorm.DB, name, email, imageURL string) (*domain.Customer, error) {
	c := &domain.Customer{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		ImageURL:  imageURL,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// ListCustomers returns all customers ordered by name ascending, for the
// invoice form's customer selection. On DB error, it returns the error.
func ListCustomers(ctx context.Context, db *gorm.DB) ([]domain.Customer, error) {
	var out []domain.Customer
	err := db.WithContext(ctx).
		Order("name asc").
		Find(&out).Error
	return out, err
}

// GetCustomer fetches a single customer by ID, or ErrNotFound if missing.
func GetCustomer(ctx context.Context, db *gorm.DB, id string) (*domain.Customer, error) {
	var c domain.Customer
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}
