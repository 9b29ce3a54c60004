package repository

// Package repository contains data access layer abstractions.
// Implementations can live in subpackages (e.g., postgres) inside this directory.

import (
	"context"
	"errors"

	"invoiceapi/internal/model"
)

// ErrDuplicate is returned when a unique constraint (username or email)
// would be violated.
var ErrDuplicate = errors.New("duplicate record")

// UserRepository defines data access for identities using SQL queries only.
// No business logic here — strictly persistence operations.
type UserRepository interface {
	// Create inserts a new user and returns the stored record with its
	// DB-assigned ID. A username/email collision yields ErrDuplicate.
	Create(ctx context.Context, user *model.User) (*model.User, error)

	// FindByEmail returns the user with the given email, or sql.ErrNoRows.
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// InvoiceRepository defines data access for ingestion records.
type InvoiceRepository interface {
	// Create inserts a new invoice record. The owner reference is required;
	// a fresh ID is assigned per record, so existing records are never
	// overwritten. Returns the stored record.
	Create(ctx context.Context, inv *model.Invoice) (*model.Invoice, error)

	// ListByOwner returns all invoices belonging to userID, most recent
	// first (upload_date DESC, id DESC for a stable tie-break). Records of
	// other owners are never included.
	ListByOwner(ctx context.Context, userID string) ([]model.Invoice, error)
}
