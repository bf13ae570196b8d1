// Package beneficiaries provides the PostgreSQL-backed beneficiary repository,
// including the release-token bookkeeping.
package beneficiaries

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

const beneficiaryColumns = `id, vault_id, name, email, language,
	address_line1, address_line2, address_city, address_postal_code, address_country,
	status, COALESCE(release_token_hash, ''), release_token_expires_at, release_token_used_at, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBeneficiary(s scanner) (*models.Beneficiary, error) {
	b := &models.Beneficiary{}
	err := s.Scan(&b.ID, &b.VaultID, &b.Name, &b.Email, &b.Language,
		&b.Address.Line1, &b.Address.Line2, &b.Address.City, &b.Address.PostalCode, &b.Address.Country,
		&b.Status, &b.ReleaseTokenHash, &b.ReleaseTokenExpiresAt, &b.ReleaseTokenUsedAt, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *PostgresRepository) Create(ctx context.Context, b *models.Beneficiary) (*models.Beneficiary, error) {
	query := `
		INSERT INTO beneficiaries (vault_id, name, email, language,
			address_line1, address_line2, address_city, address_postal_code, address_country, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		b.VaultID, b.Name, b.Email, b.Language,
		b.Address.Line1, b.Address.Line2, b.Address.City, b.Address.PostalCode, b.Address.Country,
		b.Status,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) ListByVault(ctx context.Context, vaultID string) ([]*models.Beneficiary, error) {
	query := `SELECT ` + beneficiaryColumns + ` FROM beneficiaries WHERE vault_id = $1 ORDER BY created_at`
	return r.list(ctx, query, vaultID)
}

// ListPending returns beneficiaries that have not been notified yet.
func (r *PostgresRepository) ListPending(ctx context.Context, vaultID string) ([]*models.Beneficiary, error) {
	query := `SELECT ` + beneficiaryColumns + ` FROM beneficiaries
		WHERE vault_id = $1 AND status = 'pending' ORDER BY created_at`
	return r.list(ctx, query, vaultID)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Beneficiary, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select beneficiaries: %w", err)
	}
	defer rows.Close()

	var result []*models.Beneficiary
	for rows.Next() {
		b, err := scanBeneficiary(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkNotified stores the token hash and flips the beneficiary to notified.
// It reports false if the beneficiary was already notified, so a token is
// minted at most once per beneficiary.
func (r *PostgresRepository) MarkNotified(ctx context.Context, id, tokenHash string, expiresAt time.Time) (bool, error) {
	query := `UPDATE beneficiaries
		SET status = 'notified', release_token_hash = $2, release_token_expires_at = $3
		WHERE id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, id, tokenHash, expiresAt)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return oneRow(res)
}

func (r *PostgresRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.Beneficiary, error) {
	query := `SELECT ` + beneficiaryColumns + ` FROM beneficiaries WHERE release_token_hash = $1`
	b, err := scanBeneficiary(r.db.QueryRowContext(ctx, query, tokenHash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return b, nil
}

// ConsumeToken marks an unexpired, unused token as used at the given time.
func (r *PostgresRepository) ConsumeToken(ctx context.Context, tokenHash string, at time.Time) (bool, error) {
	query := `UPDATE beneficiaries SET release_token_used_at = $2
		WHERE release_token_hash = $1 AND release_token_used_at IS NULL AND release_token_expires_at > $2`
	res, err := r.db.ExecContext(ctx, query, tokenHash, at)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return oneRow(res)
}

func oneRow(res sql.Result) (bool, error) {
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
