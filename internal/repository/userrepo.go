// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/pontofacil/internal/model"
)

// UserRepository provides access to accounts and bootstrap data.
type UserRepository interface {
	// Create inserts a new user; a taken email yields errs.ErrAlreadyExists.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByEmail loads a user by email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// ListEmployees returns employee accounts, newest first.
	ListEmployees(ctx context.Context, limit int) ([]model.User, error)
	// SetActive toggles an employee account and returns it.
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*model.User, error)
	// EnsureAdmin inserts u unless its email exists; reports whether it inserted.
	EnsureAdmin(ctx context.Context, u *model.User) (bool, error)
}
