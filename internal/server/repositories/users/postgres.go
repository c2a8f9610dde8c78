package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

const userColumns = `id, firstname, lastname, email, phone, image_url, birthday, role,
	 created, updated, verification_token, verified, reset_token, reset_token_expires, password_reset`

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var (
		email, phone, imageURL sql.NullString
		verificationToken      sql.NullString
		resetToken             sql.NullString
		firstname, lastname    sql.NullString
		birthday               sql.NullInt64
		updated, verified      sql.NullTime
		resetExpires, pwdReset sql.NullTime
	)
	err := row.Scan(&user.ID, &firstname, &lastname, &email, &phone, &imageURL, &birthday,
		&user.Role, &user.Created, &updated, &verificationToken, &verified,
		&resetToken, &resetExpires, &pwdReset)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	user.Firstname = firstname.String
	user.Lastname = lastname.String
	user.Email = email.String
	user.Phone = phone.String
	user.ImageURL = imageURL.String
	if birthday.Valid {
		user.Birthday = &birthday.Int64
	}
	user.VerificationToken = verificationToken.String
	user.ResetToken = resetToken.String
	if updated.Valid {
		user.Updated = &updated.Time
	}
	if verified.Valid {
		user.Verified = &verified.Time
	}
	if resetExpires.Valid {
		user.ResetTokenExpires = &resetExpires.Time
	}
	if pwdReset.Valid {
		user.PasswordReset = &pwdReset.Time
	}
	return user, nil
}

// nullIfEmpty maps "" to SQL NULL so cleared tokens really disappear.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, nullIfEmpty(user.Firstname), nullIfEmpty(user.Lastname),
		nullIfEmpty(user.Email), nullIfEmpty(user.Phone), nullIfEmpty(user.ImageURL),
		user.Birthday, user.Role, user.Created, user.Updated,
		nullIfEmpty(user.VerificationToken), user.Verified,
		nullIfEmpty(user.ResetToken), user.ResetTokenExpires, user.PasswordReset)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE verification_token = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, token))
}

func (r *PostgresRepository) GetByActiveResetToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE reset_token = $1 AND reset_token_expires > now()`
	return scanUser(r.db.QueryRowContext(ctx, query, token))
}

func (r *PostgresRepository) GetAll(ctx context.Context) ([]*models.User, error) {
	query := `SELECT id, firstname, lastname, email, phone, image_url, birthday, role, created, verified FROM users ORDER BY created`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		user := &models.User{}
		var (
			firstname, lastname    sql.NullString
			email, phone, imageURL sql.NullString
			birthday               sql.NullInt64
			verified               sql.NullTime
		)
		if err := rows.Scan(&user.ID, &firstname, &lastname, &email, &phone, &imageURL,
			&birthday, &user.Role, &user.Created, &verified); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		user.Firstname = firstname.String
		user.Lastname = lastname.String
		user.Email = email.String
		user.Phone = phone.String
		user.ImageURL = imageURL.String
		if birthday.Valid {
			user.Birthday = &birthday.Int64
		}
		if verified.Valid {
			user.Verified = &verified.Time
		}
		result = append(result, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET firstname = $2, lastname = $3, email = $4, phone = $5, image_url = $6,
		    birthday = $7, updated = $8, verification_token = $9, verified = $10,
		    reset_token = $11, reset_token_expires = $12, password_reset = $13
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		user.ID, nullIfEmpty(user.Firstname), nullIfEmpty(user.Lastname),
		nullIfEmpty(user.Email), nullIfEmpty(user.Phone), nullIfEmpty(user.ImageURL),
		user.Birthday, user.Updated, nullIfEmpty(user.VerificationToken), user.Verified,
		nullIfEmpty(user.ResetToken), user.ResetTokenExpires, user.PasswordReset)
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

func (r *PostgresRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}
