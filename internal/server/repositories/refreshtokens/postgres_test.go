package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/shopapi/accountsvc/internal/common"
	"github.com/shopapi/accountsvc/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func tokenColumns() []string {
	return []string{"token", "user_id", "expires_at", "created_at", "created_by_ip",
		"revoked_at", "revoked_by_ip", "replaced_by_token"}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+refresh_tokens\b.*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*$`

	now := time.Now().UTC()
	mock.ExpectExec(q).
		WithArgs("tok123", "u1", sqlmock.AnyArg(), sqlmock.AnyArg(), "10.0.0.1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.RefreshToken{
		Token:       "tok123",
		UserID:      "u1",
		Expires:     now.Add(7 * 24 * time.Hour),
		Created:     now,
		CreatedByIP: "10.0.0.1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+refresh_tokens`).
		WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &models.RefreshToken{Token: "tok123", UserID: "u1"})
	if err == nil {
		t.Fatalf("expected wrapped db error, got nil")
	}
}

func TestFindByToken_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Now().UTC().Add(-time.Hour)
	expires := time.Now().UTC().Add(10 * time.Minute)
	rows := sqlmock.NewRows(tokenColumns()).
		AddRow("tok123", "u1", expires, created, "10.0.0.1", nil, nil, nil)

	mock.ExpectQuery(`SELECT\s+token,\s*user_id,.*FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1`).
		WithArgs("tok123").
		WillReturnRows(rows)

	got, err := repo.FindByToken(context.Background(), "tok123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserID != "u1" || !got.Expires.Equal(expires) || got.Revoked != nil {
		t.Fatalf("unexpected row: %+v", got)
	}
	if !got.IsActive() {
		t.Fatalf("expected active token")
	}
}

func TestFindByToken_RevokedRow(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Now().UTC().Add(-time.Hour)
	revoked := time.Now().UTC().Add(-time.Minute)
	rows := sqlmock.NewRows(tokenColumns()).
		AddRow("tok123", "u1", created.Add(7*24*time.Hour), created, "10.0.0.1",
			revoked, "10.0.0.2", "tok456")

	mock.ExpectQuery(`FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1`).
		WithArgs("tok123").
		WillReturnRows(rows)

	got, err := repo.FindByToken(context.Background(), "tok123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Revoked == nil || got.RevokedByIP != "10.0.0.2" || got.ReplacedByToken != "tok456" {
		t.Fatalf("revocation fields not scanned: %+v", got)
	}
	if got.IsActive() {
		t.Fatalf("revoked token must not be active")
	}
}

func TestFindByToken_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+refresh_tokens`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByToken(context.Background(), "missing")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestListByUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Now().UTC().Add(-time.Hour)
	rows := sqlmock.NewRows(tokenColumns()).
		AddRow("tok1", "u1", created.Add(time.Hour), created, "10.0.0.1", nil, nil, nil).
		AddRow("tok2", "u1", created.Add(2*time.Hour), created, "10.0.0.1", nil, nil, nil)

	mock.ExpectQuery(`FROM\s+refresh_tokens\s+WHERE\s+user_id\s*=\s*\$1`).
		WithArgs("u1").
		WillReturnRows(rows)

	got, err := repo.ListByUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Token != "tok1" || got[1].Token != "tok2" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestRevoke_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*UPDATE\s+refresh_tokens\s+SET\s+revoked_at\s*=\s*\$2.*WHERE\s+token\s*=\s*\$1\s+AND\s+revoked_at\s+IS\s+NULL\s*$`
	now := time.Now().UTC()

	mock.ExpectExec(q).
		WithArgs("tok123", now, "10.0.0.2", "tok456").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Revoke(context.Background(), "tok123", now, "10.0.0.2", "tok456"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRevoke_AlreadyRevoked(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	// Zero rows affected: token is unknown or already revoked.
	mock.ExpectExec(`UPDATE\s+refresh_tokens`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Revoke(context.Background(), "tok123", time.Now(), "10.0.0.2", "")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestDeleteStale(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+user_id\s*=\s*\$1.*created_at\s*<=\s*\$2\s*$`
	cutoff := time.Now().UTC().Add(-48 * time.Hour)

	mock.ExpectExec(q).
		WithArgs("u1", cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	if err := repo.DeleteStale(context.Background(), "u1", cutoff); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
