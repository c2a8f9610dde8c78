// Package providers declares the repository contract for third-party
// identity links.
package providers

import (
	"context"

	"github.com/shopapi/accountsvc/internal/server/models"
)

// Repository provides persistence for AuthenticationProvider rows.
type Repository interface {
	Create(ctx context.Context, provider *models.AuthenticationProvider) error
	GetByID(ctx context.Context, id string) (*models.AuthenticationProvider, error)
}
