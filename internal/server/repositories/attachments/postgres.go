package attachments

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

func (r *PostgresRepository) Create(ctx context.Context, attachment *models.Attachment) (*models.Attachment, error) {
	query :=
		`INSERT INTO attachments (service_id, file_name, storage_key)
		 VALUES ($1, $2, $3)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		attachment.ServiceID, attachment.FileName, attachment.StorageKey).Scan(&attachment.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return attachment, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Attachment, error) {
	query :=
		`SELECT id, service_id, file_name, storage_key FROM attachments
		 WHERE id = $1
		 `

	a := &models.Attachment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.ServiceID, &a.FileName, &a.StorageKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) ListByService(ctx context.Context, serviceID string) ([]*models.Attachment, error) {
	query :=
		`SELECT id, service_id, file_name, storage_key FROM attachments
		 WHERE service_id = $1
		 ORDER BY created_at
		 `

	rows, err := r.db.QueryContext(ctx, query, serviceID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Attachment
	for rows.Next() {
		a := &models.Attachment{}
		if err := rows.Scan(&a.ID, &a.ServiceID, &a.FileName, &a.StorageKey); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
