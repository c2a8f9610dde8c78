package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopapi/accountsvc/internal/common"
	"github.com/shopapi/accountsvc/internal/dbx"
	"github.com/shopapi/accountsvc/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new refresh token row.
func (r *PostgresRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (token, user_id, expires_at, created_at, created_by_ip)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query,
		token.Token, token.UserID, token.Expires, token.Created, token.CreatedByIP); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// FindByToken returns the full row for the given token string.
// If not found, it returns common.ErrNotFound.
func (r *PostgresRepository) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `
		SELECT token, user_id, expires_at, created_at, created_by_ip,
		       revoked_at, revoked_by_ip, replaced_by_token
		FROM refresh_tokens
		WHERE token = $1
	`
	return scanToken(r.db.QueryRowContext(ctx, query, token))
}

func scanToken(row *sql.Row) (*models.RefreshToken, error) {
	token := &models.RefreshToken{}
	var (
		revokedAt   sql.NullTime
		revokedByIP sql.NullString
		replacedBy  sql.NullString
	)
	err := row.Scan(&token.Token, &token.UserID, &token.Expires, &token.Created,
		&token.CreatedByIP, &revokedAt, &revokedByIP, &replacedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if revokedAt.Valid {
		token.Revoked = &revokedAt.Time
	}
	token.RevokedByIP = revokedByIP.String
	token.ReplacedByToken = replacedBy.String
	return token, nil
}

// ListByUser returns all token rows owned by userID, oldest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.RefreshToken, error) {
	query := `
		SELECT token, user_id, expires_at, created_at, created_by_ip,
		       revoked_at, revoked_by_ip, replaced_by_token
		FROM refresh_tokens
		WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.RefreshToken
	for rows.Next() {
		token := &models.RefreshToken{}
		var (
			revokedAt   sql.NullTime
			revokedByIP sql.NullString
			replacedBy  sql.NullString
		)
		if err := rows.Scan(&token.Token, &token.UserID, &token.Expires, &token.Created,
			&token.CreatedByIP, &revokedAt, &revokedByIP, &replacedBy); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if revokedAt.Valid {
			token.Revoked = &revokedAt.Time
		}
		token.RevokedByIP = revokedByIP.String
		token.ReplacedByToken = replacedBy.String
		result = append(result, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// Revoke marks the token revoked. Revoking an already-revoked or unknown
// token affects zero rows and returns common.ErrNotFound so callers can
// treat it as an invalid token.
func (r *PostgresRepository) Revoke(ctx context.Context, token string, revokedAt time.Time, ip, replacedBy string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = $2, revoked_by_ip = $3, replaced_by_token = NULLIF($4, '')
		WHERE token = $1 AND revoked_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, token, revokedAt, ip, replacedBy)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

// DeleteStale removes inactive tokens (revoked or expired) created before
// cutoff. Active tokens are never touched regardless of age.
func (r *PostgresRepository) DeleteStale(ctx context.Context, userID string, cutoff time.Time) error {
	query := `
		DELETE FROM refresh_tokens
		WHERE user_id = $1
		  AND (revoked_at IS NOT NULL OR expires_at <= now())
		  AND created_at <= $2
	`
	if _, err := r.db.ExecContext(ctx, query, userID, cutoff); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
