package authenticators

import (
	"context"

	"github.com/avilks/passvault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, authenticator *models.Authenticator) (*models.Authenticator, error)
	// ListByService mirrors the credentials filter: a non-empty deviceID
	// restricts results to rows tagged with it or written untagged.
	ListByService(ctx context.Context, serviceID, deviceID string) ([]*models.Authenticator, error)
}
