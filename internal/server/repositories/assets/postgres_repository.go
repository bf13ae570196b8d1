// Package assets provides the PostgreSQL-backed repository for encrypted
// asset metadata. Ciphertext lives in object storage.
package assets

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

const assetColumns = `id, vault_id, storage_path, salt, nonce, checksum, size_bytes, category,
	format, chunk_size, superseded_at, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(s scanner) (*models.EncryptedAsset, error) {
	a := &models.EncryptedAsset{}
	err := s.Scan(&a.ID, &a.VaultID, &a.StoragePath, &a.Salt, &a.Nonce, &a.Checksum, &a.SizeBytes, &a.Category,
		&a.Format, &a.ChunkSize, &a.SupersededAt, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts a new immutable asset row.
func (r *PostgresRepository) Create(ctx context.Context, a *models.EncryptedAsset) (*models.EncryptedAsset, error) {
	query := `
		INSERT INTO encrypted_assets (vault_id, storage_path, salt, nonce, checksum, size_bytes, category, format, chunk_size)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		a.VaultID, a.StoragePath, a.Salt, a.Nonce, a.Checksum, a.SizeBytes, a.Category, a.Format, a.ChunkSize,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

// Supersede retires the current version of an asset. The row and its blob
// stay in place; only superseded_at is set.
func (r *PostgresRepository) Supersede(ctx context.Context, id, vaultID string, at time.Time) error {
	query := `UPDATE encrypted_assets SET superseded_at = $3
		WHERE id = $1 AND vault_id = $2 AND superseded_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, vaultID, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return common.ErrorNotFound
	}
	return nil
}

// ListCurrent returns the assets of a vault that have not been superseded.
func (r *PostgresRepository) ListCurrent(ctx context.Context, vaultID string) ([]*models.EncryptedAsset, error) {
	query := `SELECT ` + assetColumns + ` FROM encrypted_assets
		WHERE vault_id = $1 AND superseded_at IS NULL ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, vaultID)
	if err != nil {
		return nil, fmt.Errorf("failed to select assets: %w", err)
	}
	defer rows.Close()

	var result []*models.EncryptedAsset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.EncryptedAsset, error) {
	query := `SELECT ` + assetColumns + ` FROM encrypted_assets WHERE id = $1`
	a, err := scanAsset(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}
