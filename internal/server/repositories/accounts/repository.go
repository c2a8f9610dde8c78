// Package accounts declares the repository contract for UserAccount
// credential records.
package accounts

import (
	"context"

	"github.com/shopapi/accountsvc/internal/server/models"
)

// Repository provides persistence for UserAccount rows. Lookups that find
// nothing return common.ErrNotFound; inserting a duplicate username returns
// common.ErrValidation.
type Repository interface {
	Create(ctx context.Context, account *models.UserAccount) error
	GetByUsername(ctx context.Context, username string) (*models.UserAccount, error)
	GetByUserID(ctx context.Context, userID string) (*models.UserAccount, error)
	UpdatePassword(ctx context.Context, accountID, passwordHash, passwordSalt string) error
	UsernameExists(ctx context.Context, username string) (bool, error)
}
