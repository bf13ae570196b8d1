package shipments

import (
	"context"

	"github.com/dmitrijs2005/legacykeeper/internal/server/models"
)

type Repository interface {
	GetByBeneficiary(ctx context.Context, beneficiaryID string) (*models.Shipment, error)
	Create(ctx context.Context, s *models.Shipment) error
}
