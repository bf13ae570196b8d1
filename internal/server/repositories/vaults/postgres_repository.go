// Package vaults provides the PostgreSQL-backed vault repository.
package vaults

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/legacykeeper/internal/common"
	"github.com/dmitrijs2005/legacykeeper/internal/dbx"
	"github.com/dmitrijs2005/legacykeeper/internal/server/models"
)

const vaultColumns = `id, user_id, status, heartbeat_frequency_days, grace_period_days, last_seen_at,
	encryption_hint, language, owner_email, physical_delivery,
	recovery_ciphertext, recovery_salt, recovery_nonce, created_at, updated_at`

// PostgresRepository implements vault storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVault(s scanner) (*models.Vault, error) {
	v := &models.Vault{}
	err := s.Scan(&v.ID, &v.UserID, &v.Status, &v.HeartbeatFrequencyDays, &v.GracePeriodDays, &v.LastSeenAt,
		&v.EncryptionHint, &v.Language, &v.OwnerEmail, &v.PhysicalDelivery,
		&v.RecoveryCiphertext, &v.RecoverySalt, &v.RecoveryNonce, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Create inserts a vault and fills in the generated ID and timestamps.
func (r *PostgresRepository) Create(ctx context.Context, v *models.Vault) (*models.Vault, error) {
	query := `
		INSERT INTO vaults (user_id, status, heartbeat_frequency_days, grace_period_days, last_seen_at,
			encryption_hint, language, owner_email, physical_delivery,
			recovery_ciphertext, recovery_salt, recovery_nonce)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		v.UserID, v.Status, v.HeartbeatFrequencyDays, v.GracePeriodDays, v.LastSeenAt,
		v.EncryptionHint, v.Language, v.OwnerEmail, v.PhysicalDelivery,
		v.RecoveryCiphertext, v.RecoverySalt, v.RecoveryNonce,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

// GetByID returns common.ErrorNotFound when the vault does not exist.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Vault, error) {
	query := `SELECT ` + vaultColumns + ` FROM vaults WHERE id = $1`
	v, err := scanVault(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

// ListDueForWarning selects active vaults whose owner has been silent for at
// least one heartbeat period at now.
func (r *PostgresRepository) ListDueForWarning(ctx context.Context, now time.Time) ([]*models.Vault, error) {
	query := `SELECT ` + vaultColumns + ` FROM vaults
		WHERE status = 'active'
		  AND last_seen_at + make_interval(days => heartbeat_frequency_days) <= $1
		ORDER BY last_seen_at`
	return r.list(ctx, query, now)
}

// ListByStatus returns every vault in the given state.
func (r *PostgresRepository) ListByStatus(ctx context.Context, status models.VaultStatus) ([]*models.Vault, error) {
	query := `SELECT ` + vaultColumns + ` FROM vaults WHERE status = $1 ORDER BY updated_at`
	return r.list(ctx, query, status)
}

// ListReleasedWithPending returns released vaults that still have
// beneficiaries who were never notified, typically after a partial failure.
func (r *PostgresRepository) ListReleasedWithPending(ctx context.Context) ([]*models.Vault, error) {
	query := `SELECT ` + vaultColumns + ` FROM vaults v
		WHERE v.status = 'released'
		  AND EXISTS (SELECT 1 FROM beneficiaries b WHERE b.vault_id = v.id AND b.status = 'pending')
		ORDER BY v.updated_at`
	return r.list(ctx, query)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Vault, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select vaults: %w", err)
	}
	defer rows.Close()

	var result []*models.Vault
	for rows.Next() {
		v, err := scanVault(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// TransitionStatus moves a vault from one state to another. It reports
// false when the vault was not in the from state, which is how concurrent
// trigger runs detect that someone else already made the move.
func (r *PostgresRepository) TransitionStatus(ctx context.Context, id string, from, to models.VaultStatus, at time.Time) (bool, error) {
	query := `UPDATE vaults SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	return r.execOne(ctx, query, id, from, to, at)
}

// MarkWarning moves an active vault to warning only if its owner is still
// silent at now. A heartbeat recorded after the vault was listed makes it
// report false.
func (r *PostgresRepository) MarkWarning(ctx context.Context, id string, now time.Time) (bool, error) {
	query := `UPDATE vaults SET status = 'warning', updated_at = $2
		WHERE id = $1 AND status = 'active'
		  AND last_seen_at + make_interval(days => heartbeat_frequency_days) <= $2`
	return r.execOne(ctx, query, id, now)
}

// Touch records a heartbeat: last_seen_at moves to at and a warning is
// cancelled. Released vaults are left untouched and reported as false.
func (r *PostgresRepository) Touch(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `UPDATE vaults SET last_seen_at = $2, status = 'active', updated_at = $2
		WHERE id = $1 AND status <> 'released'`
	return r.execOne(ctx, query, id, at)
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("unexpected rows affected: %d", n)
	}
}
