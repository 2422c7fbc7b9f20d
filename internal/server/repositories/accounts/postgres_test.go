package accounts

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avilks/passvault/internal/common"
	"github.com/avilks/passvault/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func testAccount() *models.Account {
	return &models.Account{
		Name:              "Alice",
		Email:             "a@x.com",
		PasswordHash:      "$2a$10$hash",
		VerificationToken: "tok",
		PublicKey:         []byte("-----BEGIN PUBLIC KEY-----"),
		Role:              models.RoleOwner,
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO accounts`).
		WithArgs("Alice", "a@x.com", "$2a$10$hash", "tok", []byte("-----BEGIN PUBLIC KEY-----"), "owner").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("acc-1"))

	got, err := repo.Create(context.Background(), testAccount())
	require.NoError(t, err)
	assert.Equal(t, "acc-1", got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_OwnerRaceLost(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO accounts`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_single_owner"})

	_, err := repo.Create(context.Background(), testAccount())
	assert.ErrorIs(t, err, ErrOwnerTaken)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO accounts`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_email_key"})

	_, err := repo.Create(context.Background(), testAccount())
	assert.ErrorIs(t, err, common.ErrDuplicateEmail)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO accounts`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), testAccount())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrOwnerTaken)
	assert.Contains(t, err.Error(), "db error")
}

func accountRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "verification_token", "public_key", "role"}).
		AddRow("acc-1", "Alice", "a@x.com", "$2a$10$hash", "", []byte("pem"), "owner")
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM accounts\s+WHERE email = \$1`).
		WithArgs("a@x.com").
		WillReturnRows(accountRows())

	got, err := repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", got.ID)
	assert.Equal(t, models.RoleOwner, got.Role)
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM accounts\s+WHERE email = \$1`).
		WithArgs("nobody@x.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestOwnerExists(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.OwnerExists(context.Background())
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestClearVerificationToken(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE accounts SET verification_token = NULL`).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("acc-1"))

	require.NoError(t, repo.ClearVerificationToken(context.Background(), "tok"))
}

func TestClearVerificationToken_Unknown(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE accounts SET verification_token = NULL`).
		WithArgs("bad").
		WillReturnError(sql.ErrNoRows)

	err := repo.ClearVerificationToken(context.Background(), "bad")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
