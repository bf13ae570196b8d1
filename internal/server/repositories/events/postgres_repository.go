// Package events stores the append-only dead man's switch audit log.
package events

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

// Append writes an event. It reports false when a unique index rejected the
// row, which only happens for a second assets_released on the same vault.
func (r *PostgresRepository) Append(ctx context.Context, e *models.DeadManSwitchEvent) (bool, error) {
	query := `
		INSERT INTO dead_man_switch_events (vault_id, type, details, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, e.VaultID, e.Type, e.Details, e.CreatedAt).Scan(&e.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	return true, nil
}

// Latest returns the most recent event of the given type, or
// common.ErrorNotFound.
func (r *PostgresRepository) Latest(ctx context.Context, vaultID string, t models.EventType) (*models.DeadManSwitchEvent, error) {
	query := `SELECT id, vault_id, type, details, created_at FROM dead_man_switch_events
		WHERE vault_id = $1 AND type = $2 ORDER BY created_at DESC, id DESC LIMIT 1`
	e := &models.DeadManSwitchEvent{}
	err := r.db.QueryRowContext(ctx, query, vaultID, t).Scan(&e.ID, &e.VaultID, &e.Type, &e.Details, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, vaultID string, t models.EventType) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM dead_man_switch_events WHERE vault_id = $1 AND type = $2)`
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, vaultID, t).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) ListByVault(ctx context.Context, vaultID string) ([]*models.DeadManSwitchEvent, error) {
	query := `SELECT id, vault_id, type, details, created_at FROM dead_man_switch_events
		WHERE vault_id = $1 ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, vaultID)
	if err != nil {
		return nil, fmt.Errorf("failed to select events: %w", err)
	}
	defer rows.Close()

	var result []*models.DeadManSwitchEvent
	for rows.Next() {
		e := &models.DeadManSwitchEvent{}
		if err := rows.Scan(&e.ID, &e.VaultID, &e.Type, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
