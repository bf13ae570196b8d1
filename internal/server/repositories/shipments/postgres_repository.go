// Package shipments records physical deliveries so that a shipment is never
// ordered twice for the same beneficiary.
package shipments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/legacykeeper/internal/common"
	"github.com/dmitrijs2005/legacykeeper/internal/dbx"
	"github.com/dmitrijs2005/legacykeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByBeneficiary returns common.ErrorNotFound if no shipment exists.
func (r *PostgresRepository) GetByBeneficiary(ctx context.Context, beneficiaryID string) (*models.Shipment, error) {
	query := `SELECT id, beneficiary_id, vault_id, tracking_number, order_id, created_at
		FROM shipments WHERE beneficiary_id = $1`
	s := &models.Shipment{}
	err := r.db.QueryRowContext(ctx, query, beneficiaryID).
		Scan(&s.ID, &s.BeneficiaryID, &s.VaultID, &s.TrackingNumber, &s.OrderID, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.Shipment) error {
	query := `
		INSERT INTO shipments (beneficiary_id, vault_id, tracking_number, order_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, s.BeneficiaryID, s.VaultID, s.TrackingNumber, s.OrderID).
		Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
