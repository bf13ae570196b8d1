// Package pending is the client's durable queue of encrypted assets whose
// metadata has not yet been registered with the server.
//
// A row is enqueued as soon as a file is encrypted into the staging
// directory. The upload of the ciphertext and the registration of its
// metadata are tracked separately, so either can be retried after a crash
// or while the server is unreachable.
package pending

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/legacykeeper/internal/common"
	"github.com/dmitrijs2005/legacykeeper/internal/dbx"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSynced  Status = "synced"
	StatusFailed  Status = "failed"
)

// Asset is one locally encrypted blob and the metadata that will be
// registered for it.
type Asset struct {
	ID          string
	VaultID     string
	LocalPath   string
	StoragePath string
	Uploaded    bool
	Salt        []byte
	Nonce       []byte
	Checksum    string
	SizeBytes   int64
	Category    string
	Format      string
	ChunkSize   int
	Replaces    string
	Status      Status
	Attempts    int
	LastError   string
	RemoteID    string
	CreatedAt   time.Time
}

// Store is the PendingAssetStore contract used by the upload pipeline.
type Store interface {
	Enqueue(ctx context.Context, a *Asset) error
	Get(ctx context.Context, id string) (*Asset, error)
	ListPending(ctx context.Context) ([]*Asset, error)
	MarkUploaded(ctx context.Context, id, storagePath string) error
	MarkSynced(ctx context.Context, id, remoteID string) error
	MarkFailed(ctx context.Context, id string, cause error) error
}

const assetColumns = `id, vault_id, local_path, storage_path, uploaded, salt, nonce, checksum, size_bytes,
	category, format, chunk_size, replaces, status, attempts, last_error, remote_id, created_at`

type SQLiteStore struct {
	db dbx.DBTX
}

func NewSQLiteStore(db dbx.DBTX) *SQLiteStore {
	return &SQLiteStore{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(s scanner) (*Asset, error) {
	a := &Asset{}
	var createdAt int64
	err := s.Scan(&a.ID, &a.VaultID, &a.LocalPath, &a.StoragePath, &a.Uploaded, &a.Salt, &a.Nonce, &a.Checksum,
		&a.SizeBytes, &a.Category, &a.Format, &a.ChunkSize, &a.Replaces, &a.Status, &a.Attempts, &a.LastError,
		&a.RemoteID, &createdAt)
	if err != nil {
		return nil, err
	}
	a.CreatedAt = time.Unix(0, createdAt).UTC()
	return a, nil
}

// Enqueue inserts a new pending row. CreatedAt defaults to now.
func (r *SQLiteStore) Enqueue(ctx context.Context, a *Asset) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.Status = StatusPending

	query := `INSERT INTO pending_assets (` + assetColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.VaultID, a.LocalPath, a.StoragePath, a.Uploaded, a.Salt, a.Nonce, a.Checksum, a.SizeBytes,
		a.Category, a.Format, a.ChunkSize, a.Replaces, string(a.Status), a.Attempts, a.LastError, a.RemoteID,
		a.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to enqueue asset: %w", err)
	}
	return nil
}

func (r *SQLiteStore) Get(ctx context.Context, id string) (*Asset, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM pending_assets WHERE id=?`, id)

	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return a, nil
}

// ListPending returns every row not yet synced, oldest first. Failed rows
// are included so the reconciler retries them.
func (r *SQLiteStore) ListPending(ctx context.Context) ([]*Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM pending_assets
		WHERE status IN ('pending', 'failed') ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error selecting pending assets: %w", err)
	}
	defer rows.Close()

	var result []*Asset
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

func (r *SQLiteStore) MarkUploaded(ctx context.Context, id, storagePath string) error {
	return r.update(ctx, `UPDATE pending_assets SET uploaded=1, storage_path=? WHERE id=? AND status<>'synced'`,
		storagePath, id)
}

func (r *SQLiteStore) MarkSynced(ctx context.Context, id, remoteID string) error {
	return r.update(ctx, `UPDATE pending_assets SET status='synced', remote_id=?, last_error='' WHERE id=?`,
		remoteID, id)
}

// MarkFailed records cause and bumps the attempt counter. The row stays
// eligible for ListPending.
func (r *SQLiteStore) MarkFailed(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return r.update(ctx, `UPDATE pending_assets SET status='failed', attempts=attempts+1, last_error=?
		WHERE id=? AND status<>'synced'`, msg, id)
}

func (r *SQLiteStore) update(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update asset: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected != 1 {
		return common.ErrorNotFound
	}
	return nil
}
