package attachments

import (
	"context"

	"github.com/avilks/passvault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, attachment *models.Attachment) (*models.Attachment, error)
	GetByID(ctx context.Context, id string) (*models.Attachment, error)
	ListByService(ctx context.Context, serviceID string) ([]*models.Attachment, error)
}
