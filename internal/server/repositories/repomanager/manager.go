package repomanager

import (
	"context"
	"database/sql"

	"github.com/avilks/passvault/internal/dbx"
	"github.com/avilks/passvault/internal/server/repositories/accounts"
	"github.com/avilks/passvault/internal/server/repositories/attachments"
	"github.com/avilks/passvault/internal/server/repositories/authenticators"
	"github.com/avilks/passvault/internal/server/repositories/credentials"
	"github.com/avilks/passvault/internal/server/repositories/services"
)

// RepositoryManager vends repositories bound to either the connection pool or
// a transaction handle, letting services compose atomic multi-step writes.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Services(db dbx.DBTX) services.Repository
	Credentials(db dbx.DBTX) credentials.Repository
	Authenticators(db dbx.DBTX) authenticators.Repository
	Attachments(db dbx.DBTX) attachments.Repository
}
