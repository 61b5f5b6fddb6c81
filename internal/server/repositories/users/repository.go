// Package users provides the persisted user directory.
package users

import (
	"context"

	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/google/uuid"
)

// Repository is the user directory contract.
//
// Create returns common.ErrAlreadyExists when the email is taken. Lookups
// return common.ErrNotFound for absent users.
type Repository interface {
	Create(ctx context.Context, email, passwordHash string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Count(ctx context.Context) (int64, error)
}
