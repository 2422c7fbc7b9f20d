package authenticators

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

func (r *PostgresRepository) Create(ctx context.Context, authenticator *models.Authenticator) (*models.Authenticator, error) {
	query :=
		`INSERT INTO authenticators (service_id, name, secret_ciphertext, digits, period, algorithm, device_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		authenticator.ServiceID, authenticator.Name, authenticator.SecretCiphertext,
		authenticator.Digits, authenticator.Period, authenticator.Algorithm,
		authenticator.DeviceID).Scan(&authenticator.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return authenticator, nil
}

func (r *PostgresRepository) ListByService(ctx context.Context, serviceID, deviceID string) ([]*models.Authenticator, error) {
	query :=
		`SELECT id, service_id, name, secret_ciphertext, digits, period, algorithm, device_id FROM authenticators
		 WHERE service_id = $1 AND ($2 = '' OR device_id = '' OR device_id = $2)
		 ORDER BY created_at
		 `

	rows, err := r.db.QueryContext(ctx, query, serviceID, deviceID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Authenticator
	for rows.Next() {
		a := &models.Authenticator{}
		if err := rows.Scan(&a.ID, &a.ServiceID, &a.Name, &a.SecretCiphertext,
			&a.Digits, &a.Period, &a.Algorithm, &a.DeviceID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
