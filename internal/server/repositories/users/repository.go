// Package users declares the repository contract for User identity records.
package users

import (
	"context"

	"github.com/shopapi/accountsvc/internal/server/models"
)

// Repository provides persistence for User rows. Lookups that find nothing
// return common.ErrNotFound.
type Repository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetAll(ctx context.Context) ([]*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*models.User, error)

	// GetByActiveResetToken matches both the reset token and an unexpired
	// reset_token_expires. An expired token behaves exactly like an unknown one.
	GetByActiveResetToken(ctx context.Context, token string) (*models.User, error)

	Update(ctx context.Context, user *models.User) error
	EmailExists(ctx context.Context, email string) (bool, error)
}
