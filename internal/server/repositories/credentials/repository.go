package credentials

import (
	"context"

	"github.com/avilks/passvault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, credential *models.Credential) (*models.Credential, error)
	// ListByService returns the service's credentials, filtered to deviceID
	// when it is non-empty. The filter matches rows written without a device
	// tag as well, so untagged entries stay visible everywhere.
	ListByService(ctx context.Context, serviceID, deviceID string) ([]*models.Credential, error)
}
