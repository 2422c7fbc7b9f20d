package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avilks/passvault/internal/common"
	"github.com/avilks/passvault/internal/dbx"
	"github.com/avilks/passvault/internal/server/models"
)

const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the account with the role the caller elected. The partial
// unique index on role='owner' turns a lost owner race into ErrOwnerTaken;
// the email uniqueness constraint turns duplicates into ErrDuplicateEmail.
func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query :=
		`INSERT INTO accounts (name, email, password_hash, verification_token, public_key, role)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		account.Name, account.Email, account.PasswordHash,
		account.VerificationToken, account.PublicKey, string(account.Role)).Scan(&account.ID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			switch pgErr.ConstraintName {
			case "accounts_single_owner":
				return nil, ErrOwnerTaken
			case "accounts_email_key":
				return nil, common.ErrDuplicateEmail
			}
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query :=
		`SELECT id, name, email, password_hash, COALESCE(verification_token, ''), public_key, role
		 FROM accounts
		 WHERE email = $1
		 `

	return r.scanAccount(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query :=
		`SELECT id, name, email, password_hash, COALESCE(verification_token, ''), public_key, role
		 FROM accounts
		 WHERE id = $1
		 `

	return r.scanAccount(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) scanAccount(row *sql.Row) (*models.Account, error) {
	account := &models.Account{}
	var role string
	err := row.Scan(&account.ID, &account.Name, &account.Email,
		&account.PasswordHash, &account.VerificationToken, &account.PublicKey, &role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	account.Role = models.Role(role)
	return account, nil
}

func (r *PostgresRepository) OwnerExists(ctx context.Context) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM accounts WHERE role = 'owner')`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// ClearVerificationToken consumes a pending verification token. An unknown
// token yields ErrNotFound.
func (r *PostgresRepository) ClearVerificationToken(ctx context.Context, token string) error {
	query :=
		`UPDATE accounts SET verification_token = NULL
		 WHERE verification_token = $1
		 RETURNING id
		 `

	var id string
	if err := r.db.QueryRowContext(ctx, query, token).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
