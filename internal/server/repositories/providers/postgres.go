package providers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shopapi/accountsvc/internal/common"
	"github.com/shopapi/accountsvc/internal/dbx"
	"github.com/shopapi/accountsvc/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts an identity link. The composite id is the primary key, so a
// racing first sign-in from the same external identity surfaces as a unique
// violation rather than a second link row.
func (r *PostgresRepository) Create(ctx context.Context, provider *models.AuthenticationProvider) error {
	query := `
		INSERT INTO auth_providers (id, provider_type, key_provided, user_id)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query,
		provider.ID, provider.ProviderType, provider.KeyProvided, provider.UserID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: provider link already exists", common.ErrValidation)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.AuthenticationProvider, error) {
	query := `
		SELECT id, provider_type, key_provided, user_id
		FROM auth_providers
		WHERE id = $1
	`
	provider := &models.AuthenticationProvider{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&provider.ID, &provider.ProviderType, &provider.KeyProvided, &provider.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return provider, nil
}
