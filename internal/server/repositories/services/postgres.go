package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avilks/passvault/internal/common"
	"github.com/avilks/passvault/internal/dbx"
	"github.com/avilks/passvault/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CreateOrGet(ctx context.Context, service *models.Service) (*models.Service, error) {
	query :=
		`INSERT INTO services (account_id, url)
		 VALUES ($1, $2)
		 ON CONFLICT (account_id, url) DO UPDATE SET url = EXCLUDED.url
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query, service.AccountID, service.URL).Scan(&service.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return service, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Service, error) {
	query :=
		`SELECT id, account_id, url FROM services
		 WHERE id = $1
		 `

	service := &models.Service{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&service.ID, &service.AccountID, &service.URL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return service, nil
}

func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.Service, error) {
	query :=
		`SELECT id, account_id, url FROM services
		 WHERE account_id = $1
		 ORDER BY url
		 `

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Service
	for rows.Next() {
		service := &models.Service{}
		if err := rows.Scan(&service.ID, &service.AccountID, &service.URL); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, service)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
