package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
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

func TestCreateOrGet_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO services`).
		WithArgs("acc-1", "https://example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("svc-1"))

	got, err := repo.CreateOrGet(context.Background(), &models.Service{AccountID: "acc-1", URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "svc-1", got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrGet_SameURLReturnsSameID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	// The upsert returns the existing row's id on conflict, so repeated
	// inserts of the same account/url pair converge.
	mock.ExpectQuery(`INSERT INTO services`).
		WithArgs("acc-1", "https://example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("svc-1"))
	mock.ExpectQuery(`INSERT INTO services`).
		WithArgs("acc-1", "https://example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("svc-1"))

	first, err := repo.CreateOrGet(context.Background(), &models.Service{AccountID: "acc-1", URL: "https://example.com"})
	require.NoError(t, err)
	second, err := repo.CreateOrGet(context.Background(), &models.Service{AccountID: "acc-1", URL: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestCreateOrGet_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO services`).
		WillReturnError(errors.New("boom"))

	_, err := repo.CreateOrGet(context.Background(), &models.Service{AccountID: "acc-1", URL: "u"})
	assert.ErrorContains(t, err, "db error")
}

func TestGetByID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, account_id, url FROM services`).
		WithArgs("svc-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "url"}).
			AddRow("svc-1", "acc-1", "https://example.com"))

	got, err := repo.GetByID(context.Background(), "svc-1")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", got.AccountID)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, account_id, url FROM services`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListByAccount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, account_id, url FROM services`).
		WithArgs("acc-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "url"}).
			AddRow("svc-1", "acc-1", "https://a.example.com").
			AddRow("svc-2", "acc-1", "https://b.example.com"))

	got, err := repo.ListByAccount(context.Background(), "acc-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "https://a.example.com", got[0].URL)
}

func TestListByAccount_Empty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, account_id, url FROM services`).
		WithArgs("acc-2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "url"}))

	got, err := repo.ListByAccount(context.Background(), "acc-2")
	require.NoError(t, err)
	assert.Empty(t, got)
}
