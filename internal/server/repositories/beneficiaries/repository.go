package beneficiaries

import (
	"context"
	"time"

	"github.com/dmitrijs2005/legacykeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, b *models.Beneficiary) (*models.Beneficiary, error)
	ListByVault(ctx context.Context, vaultID string) ([]*models.Beneficiary, error)
	ListPending(ctx context.Context, vaultID string) ([]*models.Beneficiary, error)
	MarkNotified(ctx context.Context, id, tokenHash string, expiresAt time.Time) (bool, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.Beneficiary, error)
	ConsumeToken(ctx context.Context, tokenHash string, at time.Time) (bool, error)
}
