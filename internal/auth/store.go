package auth

import (
	"context"

	"github.com/emilythestrangee/ystore/backend/internal/models"
)

// UserStore persists accounts. CreateUser fails with apperr.ErrConflict on a
// duplicate email; lookups fail with apperr.ErrNotFound.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id string) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// SaveUser overwrites the mutable fields of an existing account.
	SaveUser(ctx context.Context, u *models.User) error
}
