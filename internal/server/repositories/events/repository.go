package events

import (
	"context"

	"github.com/dmitrijs2005/legacykeeper/internal/server/models"
)

type Repository interface {
	Append(ctx context.Context, e *models.DeadManSwitchEvent) (bool, error)
	Latest(ctx context.Context, vaultID string, t models.EventType) (*models.DeadManSwitchEvent, error)
	Exists(ctx context.Context, vaultID string, t models.EventType) (bool, error)
	ListByVault(ctx context.Context, vaultID string) ([]*models.DeadManSwitchEvent, error)
}
