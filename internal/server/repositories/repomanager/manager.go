package repomanager

import (
	"context"
	"database/sql"

	"github.com/shopapi/accountsvc/internal/dbx"
	"github.com/shopapi/accountsvc/internal/server/repositories/accounts"
	"github.com/shopapi/accountsvc/internal/server/repositories/providers"
	"github.com/shopapi/accountsvc/internal/server/repositories/refreshtokens"
	"github.com/shopapi/accountsvc/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so a service can run
// the same repository code against the pooled connection or inside a
// transaction handle.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Accounts(db dbx.DBTX) accounts.Repository
	Providers(db dbx.DBTX) providers.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
