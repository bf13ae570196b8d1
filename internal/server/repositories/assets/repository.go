package assets

import (
	"context"
	"time"

	"github.com/dmitrijs2005/legacykeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, a *models.EncryptedAsset) (*models.EncryptedAsset, error)
	Supersede(ctx context.Context, id, vaultID string, at time.Time) error
	ListCurrent(ctx context.Context, vaultID string) ([]*models.EncryptedAsset, error)
	GetByID(ctx context.Context, id string) (*models.EncryptedAsset, error)
}
