package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/legacykeeper/internal/common"
	"github.com/dmitrijs2005/legacykeeper/internal/logging"
	"github.com/dmitrijs2005/legacykeeper/internal/server/auth"
	"github.com/dmitrijs2005/legacykeeper/internal/server/config"
	"github.com/dmitrijs2005/legacykeeper/internal/server/models"
	"github.com/dmitrijs2005/legacykeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/legacykeeper/internal/server/storage"
)

// VaultMetadata is what a beneficiary learns from a valid release token
// before consuming it.
type VaultMetadata struct {
	VaultID         string
	BeneficiaryID   string
	BeneficiaryName string
	EncryptionHint  string
	TokenExpiresAt  time.Time
	Assets          []*models.EncryptedAsset
}

// Grant is the short-lived credential returned when a token is consumed.
type Grant struct {
	Token     string
	VaultID   string
	ExpiresAt time.Time
}

// AssetDownload pairs asset metadata (salt, nonce, checksum, layout) with a
// presigned URL for the ciphertext.
type AssetDownload struct {
	Asset *models.EncryptedAsset
	URL   string
}

// RecoveryMaterial is the master password sealed under the recovery phrase.
type RecoveryMaterial struct {
	VaultID        string
	Ciphertext     []byte
	Salt           []byte
	Nonce          []byte
	EncryptionHint string
}

// UnlockService implements the beneficiary side of a released vault.
type UnlockService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	presigner     storage.Presigner
	log           logging.Logger
	jwtSecret     []byte
	grantValidity time.Duration
	now           func() time.Time
}

func NewUnlockService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, presigner storage.Presigner, log logging.Logger) *UnlockService {
	return &UnlockService{
		db:            db,
		repomanager:   m,
		presigner:     presigner,
		log:           log.With("module", "unlock"),
		jwtSecret:     []byte(cfg.SecretKey),
		grantValidity: cfg.GrantValidityDuration,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// lookup resolves a release token to its beneficiary and vault. Unknown,
// used, or not yet released tokens are ErrTokenInvalid; expired ones are
// ErrTokenExpired.
func (s *UnlockService) lookup(ctx context.Context, token string, now time.Time) (*models.Beneficiary, *models.Vault, error) {
	if token == "" {
		return nil, nil, common.ErrTokenInvalid
	}

	b, err := s.repomanager.Beneficiaries(s.db).GetByTokenHash(ctx, HashReleaseToken(token))
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil, common.ErrTokenInvalid
	}
	if err != nil {
		return nil, nil, err
	}

	if b.ReleaseTokenUsedAt != nil {
		return nil, nil, common.ErrTokenInvalid
	}
	if b.ReleaseTokenExpiresAt == nil || !now.Before(*b.ReleaseTokenExpiresAt) {
		return nil, nil, common.ErrTokenExpired
	}

	v, err := s.repomanager.Vaults(s.db).GetByID(ctx, b.VaultID)
	if err != nil {
		return nil, nil, err
	}
	// a heartbeat may have landed between minting and the vault transition
	if v.Status != models.VaultReleased {
		return nil, nil, common.ErrTokenInvalid
	}
	return b, v, nil
}

// Verify checks a release token without consuming it.
func (s *UnlockService) Verify(ctx context.Context, token string) (*VaultMetadata, error) {
	b, v, err := s.lookup(ctx, token, s.now())
	if err != nil {
		return nil, err
	}

	assets, err := s.repomanager.Assets(s.db).ListCurrent(ctx, v.ID)
	if err != nil {
		return nil, err
	}

	return &VaultMetadata{
		VaultID:         v.ID,
		BeneficiaryID:   b.ID,
		BeneficiaryName: b.Name,
		EncryptionHint:  v.EncryptionHint,
		TokenExpiresAt:  *b.ReleaseTokenExpiresAt,
		Assets:          assets,
	}, nil
}

// Consume marks the token used and returns a grant for the download calls.
// Of two concurrent calls with the same token exactly one succeeds.
func (s *UnlockService) Consume(ctx context.Context, token string) (*Grant, error) {
	now := s.now()

	b, v, err := s.lookup(ctx, token, now)
	if err != nil {
		return nil, err
	}

	ok, err := s.repomanager.Beneficiaries(s.db).ConsumeToken(ctx, HashReleaseToken(token), now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrTokenInvalid
	}

	signed, err := auth.GenerateToken(auth.PurposeReleaseGrant, v.ID, b.ID, s.jwtSecret, s.grantValidity, now)
	if err != nil {
		return nil, fmt.Errorf("issue grant: %w", err)
	}

	s.log.Info(ctx, "release token consumed", "vault_id", v.ID, "beneficiary_id", b.ID)
	return &Grant{Token: signed, VaultID: v.ID, ExpiresAt: now.Add(s.grantValidity)}, nil
}

// Authorize validates a grant and returns the vault id it covers.
func (s *UnlockService) Authorize(grant string) (string, error) {
	claims, err := auth.ParseToken(grant, auth.PurposeReleaseGrant, s.jwtSecret, s.now())
	if err != nil {
		return "", err
	}
	return claims.VaultID, nil
}

// AssetDownload returns metadata and a presigned GET URL for one asset of
// the granted vault. Assets of other vaults are reported as not found.
func (s *UnlockService) AssetDownload(ctx context.Context, grant, assetID string) (*AssetDownload, error) {
	vaultID, err := s.Authorize(grant)
	if err != nil {
		return nil, err
	}

	a, err := s.repomanager.Assets(s.db).GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if a.VaultID != vaultID {
		return nil, common.ErrorNotFound
	}

	url, err := s.presigner.PresignGet(ctx, a.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("presign download: %w", err)
	}
	return &AssetDownload{Asset: a, URL: url}, nil
}

// RecoveryMaterial returns the sealed master password of the granted vault.
func (s *UnlockService) RecoveryMaterial(ctx context.Context, grant string) (*RecoveryMaterial, error) {
	vaultID, err := s.Authorize(grant)
	if err != nil {
		return nil, err
	}

	v, err := s.repomanager.Vaults(s.db).GetByID(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	return &RecoveryMaterial{
		VaultID:        v.ID,
		Ciphertext:     v.RecoveryCiphertext,
		Salt:           v.RecoverySalt,
		Nonce:          v.RecoveryNonce,
		EncryptionHint: v.EncryptionHint,
	}, nil
}
