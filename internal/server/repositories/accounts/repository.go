package accounts

import (
	"context"
	"errors"

	"github.com/avilks/passvault/internal/server/models"
)

// ErrOwnerTaken reports that the single-owner constraint rejected an insert:
// another registration already committed the owner role. Callers retry the
// insert once with the regular user role.
var ErrOwnerTaken = errors.New("owner role already taken")

type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	OwnerExists(ctx context.Context) (bool, error)
	ClearVerificationToken(ctx context.Context, token string) error
}
