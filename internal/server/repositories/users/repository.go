// Package users stores Wordbook accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/wordbook/internal/server/models"
)

type Repository interface {
	// Create stores a new user and returns it with id and created_at set.
	// A duplicate email yields common.ErrorAlreadyExists.
	Create(ctx context.Context, email string, passwordHash []byte) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
