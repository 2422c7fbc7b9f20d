package credentials

import (
	"context"
	"fmt"

	"github.com/avilks/passvault/internal/dbx"
	"github.com/avilks/passvault/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, credential *models.Credential) (*models.Credential, error) {
	query :=
		`INSERT INTO credentials (service_id, username, password_ciphertext, device_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		credential.ServiceID, credential.Username,
		credential.PasswordCiphertext, credential.DeviceID).Scan(&credential.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return credential, nil
}

func (r *PostgresRepository) ListByService(ctx context.Context, serviceID, deviceID string) ([]*models.Credential, error) {
	query :=
		`SELECT id, service_id, username, password_ciphertext, device_id FROM credentials
		 WHERE service_id = $1 AND ($2 = '' OR device_id = '' OR device_id = $2)
		 ORDER BY created_at
		 `

	rows, err := r.db.QueryContext(ctx, query, serviceID, deviceID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Credential
	for rows.Next() {
		c := &models.Credential{}
		if err := rows.Scan(&c.ID, &c.ServiceID, &c.Username, &c.PasswordCiphertext, &c.DeviceID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
