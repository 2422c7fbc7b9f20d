// Package repomanager wires the PostgreSQL repository implementations
// together and owns schema migrations (embedded, applied via goose).
package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/avilks/passvault/internal/dbx"
	"github.com/avilks/passvault/internal/server/migrations"
	"github.com/avilks/passvault/internal/server/repositories/accounts"
	"github.com/avilks/passvault/internal/server/repositories/attachments"
	"github.com/avilks/passvault/internal/server/repositories/authenticators"
	"github.com/avilks/passvault/internal/server/repositories/credentials"
	"github.com/avilks/passvault/internal/server/repositories/services"
)

type PostgresRepositoryManager struct{}

func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Services(db dbx.DBTX) services.Repository {
	return services.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Credentials(db dbx.DBTX) credentials.Repository {
	return credentials.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Authenticators(db dbx.DBTX) authenticators.Repository {
	return authenticators.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Attachments(db dbx.DBTX) attachments.Repository {
	return attachments.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing RunMigrations without a database.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations against db.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}
