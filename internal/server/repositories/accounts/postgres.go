package accounts

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

// Create inserts a credential record. A unique violation on username maps to
// common.ErrValidation: two registrations can race past the existence check,
// and the constraint is the backstop.
func (r *PostgresRepository) Create(ctx context.Context, account *models.UserAccount) error {
	query := `
		INSERT INTO user_accounts (id, user_id, username, password_hash, password_salt, created)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		account.ID, account.UserID, account.Username,
		account.PasswordHash, account.PasswordSalt, account.Created)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: that username is already taken", common.ErrValidation)
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.UserAccount, error) {
	query := `
		SELECT id, user_id, username, password_hash, password_salt, created
		FROM user_accounts
		WHERE username = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, username))
}

func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string) (*models.UserAccount, error) {
	query := `
		SELECT id, user_id, username, password_hash, password_salt, created
		FROM user_accounts
		WHERE user_id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, userID))
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.UserAccount, error) {
	account := &models.UserAccount{}
	err := row.Scan(&account.ID, &account.UserID, &account.Username,
		&account.PasswordHash, &account.PasswordSalt, &account.Created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return account, nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, accountID, passwordHash, passwordSalt string) error {
	query := `
		UPDATE user_accounts
		SET password_hash = $2, password_salt = $3
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, accountID, passwordHash, passwordSalt)
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

func (r *PostgresRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM user_accounts WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}
