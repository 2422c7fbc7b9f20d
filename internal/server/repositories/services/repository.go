package services

import (
	"context"

	"github.com/avilks/passvault/internal/server/models"
)

type Repository interface {
	// CreateOrGet inserts a service for the account's URL or returns the
	// existing one; many credentials and authenticators reference a single
	// service row.
	CreateOrGet(ctx context.Context, service *models.Service) (*models.Service, error)
	GetByID(ctx context.Context, id string) (*models.Service, error)
	ListByAccount(ctx context.Context, accountID string) ([]*models.Service, error)
}
