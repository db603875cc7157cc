// Package users declares the user repository contract and its PostgreSQL
// implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/bellwether/internal/server/models"
)

// Repository stores users and their credentials. Lookups return
// common.ErrorNotFound when no row matches.
type Repository interface {
	// Create inserts user and fills its ID and timestamps. A taken username
	// yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// LockUserByID reads the user and locks the row until the surrounding
	// transaction ends.
	LockUserByID(ctx context.Context, id string) (*models.User, error)

	// UpdateCredential replaces the stored hash and salt.
	UpdateCredential(ctx context.Context, id string, passwordHash string, salt string) error
}
