package vaults

import (
	"context"
	"time"

	"github.com/dmitrijs2005/legacykeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, v *models.Vault) (*models.Vault, error)
	GetByID(ctx context.Context, id string) (*models.Vault, error)
	ListDueForWarning(ctx context.Context, now time.Time) ([]*models.Vault, error)
	ListByStatus(ctx context.Context, status models.VaultStatus) ([]*models.Vault, error)
	ListReleasedWithPending(ctx context.Context) ([]*models.Vault, error)
	TransitionStatus(ctx context.Context, id string, from, to models.VaultStatus, at time.Time) (bool, error)
	MarkWarning(ctx context.Context, id string, now time.Time) (bool, error)
	Touch(ctx context.Context, id string, at time.Time) (bool, error)
}
