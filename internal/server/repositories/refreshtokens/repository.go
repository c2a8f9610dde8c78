// Package refreshtokens declares the repository contract for the
// refresh-token rows owned by a user.
package refreshtokens

import (
	"context"
	"time"

	"github.com/shopapi/accountsvc/internal/server/models"
)

// Repository manages refresh-token rows: creation, lookup by opaque token
// string, revocation (with the replaced-by pointer that forms the rotation
// chain) and pruning of stale inactive tokens.
type Repository interface {
	// Create stores a new refresh token row.
	Create(ctx context.Context, token *models.RefreshToken) error

	// FindByToken returns the row for the given token string, including its
	// revocation state. Absent tokens yield common.ErrNotFound.
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)

	// ListByUser returns all token rows owned by userID, oldest first.
	ListByUser(ctx context.Context, userID string) ([]*models.RefreshToken, error)

	// Revoke marks a token revoked at revokedAt from ip. replacedBy is empty
	// for an explicit logout and carries the successor token on rotation.
	Revoke(ctx context.Context, token string, revokedAt time.Time, ip, replacedBy string) error

	// DeleteStale removes the user's tokens that are no longer active and
	// were created before cutoff.
	DeleteStale(ctx context.Context, userID string, cutoff time.Time) error
}
