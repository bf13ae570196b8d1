package services

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/legacykeeper/internal/common"
	"github.com/dmitrijs2005/legacykeeper/internal/cryptox"
	"github.com/dmitrijs2005/legacykeeper/internal/dbx"
	"github.com/dmitrijs2005/legacykeeper/internal/logging"
	"github.com/dmitrijs2005/legacykeeper/internal/pathx"
	"github.com/dmitrijs2005/legacykeeper/internal/server/auth"
	"github.com/dmitrijs2005/legacykeeper/internal/server/config"
	"github.com/dmitrijs2005/legacykeeper/internal/server/models"
	"github.com/dmitrijs2005/legacykeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/legacykeeper/internal/server/storage"
)

// CreateVaultInput is everything the owner submits when finishing setup.
// The recovery fields hold the master password sealed under the recovery
// phrase; the server cannot open them.
type CreateVaultInput struct {
	UserID                 string
	OwnerEmail             string
	Language               string
	EncryptionHint         string
	HeartbeatFrequencyDays int
	GracePeriodDays        int
	PhysicalDelivery       bool
	RecoveryCiphertext     []byte
	RecoverySalt           []byte
	RecoveryNonce          []byte
	Beneficiaries          []BeneficiaryInput
}

type BeneficiaryInput struct {
	Name     string
	Email    string
	Language string
	Address  models.Address
}

// UploadTarget is where a client should PUT a new ciphertext.
type UploadTarget struct {
	StoragePath string
	URL         string
}

// VaultService covers the owner side: setup, heartbeats and asset
// registration.
type VaultService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	presigner   storage.Presigner
	log         logging.Logger
	jwtSecret   []byte
	now         func() time.Time
}

func NewVaultService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, presigner storage.Presigner, log logging.Logger) *VaultService {
	return &VaultService{
		db:          db,
		repomanager: m,
		presigner:   presigner,
		log:         log.With("module", "vault"),
		jwtSecret:   []byte(cfg.SecretKey),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (in *CreateVaultInput) validate() error {
	switch {
	case in.UserID == "" || !strings.Contains(in.OwnerEmail, "@"):
		return fmt.Errorf("owner identity: %w", common.ErrInvalidInput)
	case in.HeartbeatFrequencyDays <= 0 || in.GracePeriodDays <= 0:
		return fmt.Errorf("heartbeat and grace period must be positive: %w", common.ErrInvalidInput)
	case len(in.RecoveryCiphertext) <= cryptox.TagSize,
		len(in.RecoverySalt) != cryptox.SaltSize,
		len(in.RecoveryNonce) != cryptox.NonceSize:
		return fmt.Errorf("recovery backup: %w", common.ErrInvalidInput)
	case len(in.Beneficiaries) == 0:
		return fmt.Errorf("at least one beneficiary is required: %w", common.ErrInvalidInput)
	}
	for i, b := range in.Beneficiaries {
		if b.Name == "" || !strings.Contains(b.Email, "@") {
			return fmt.Errorf("beneficiary %d: %w", i, common.ErrInvalidInput)
		}
	}
	return nil
}

// CreateVault stores the vault and its beneficiaries in one transaction.
// The owner counts as seen at creation time.
func (s *VaultService) CreateVault(ctx context.Context, in CreateVaultInput) (*models.Vault, []*models.Beneficiary, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}
	now := s.now()

	var vault *models.Vault
	var bens []*models.Beneficiary
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		v, err := s.repomanager.Vaults(tx).Create(ctx, &models.Vault{
			UserID:                 in.UserID,
			Status:                 models.VaultActive,
			HeartbeatFrequencyDays: in.HeartbeatFrequencyDays,
			GracePeriodDays:        in.GracePeriodDays,
			LastSeenAt:             now,
			EncryptionHint:         in.EncryptionHint,
			Language:               in.Language,
			OwnerEmail:             in.OwnerEmail,
			PhysicalDelivery:       in.PhysicalDelivery,
			RecoveryCiphertext:     in.RecoveryCiphertext,
			RecoverySalt:           in.RecoverySalt,
			RecoveryNonce:          in.RecoveryNonce,
		})
		if err != nil {
			return err
		}
		vault = v

		repo := s.repomanager.Beneficiaries(tx)
		for _, b := range in.Beneficiaries {
			created, err := repo.Create(ctx, &models.Beneficiary{
				VaultID:  v.ID,
				Name:     b.Name,
				Email:    b.Email,
				Language: b.Language,
				Address:  b.Address,
				Status:   models.BeneficiaryPending,
			})
			if err != nil {
				return err
			}
			bens = append(bens, created)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("error creating vault: %w", err)
	}

	s.log.Info(ctx, "vault created", "vault_id", vault.ID, "beneficiaries", len(bens))
	return vault, bens, nil
}

// ConfirmHeartbeat records that the owner is alive. A warning is
// cancelled; a released vault stays released and yields ErrVaultReleased.
func (s *VaultService) ConfirmHeartbeat(ctx context.Context, vaultID string) error {
	now := s.now()

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		touched, err := s.repomanager.Vaults(tx).Touch(ctx, vaultID, now)
		if err != nil {
			return err
		}
		if !touched {
			if _, err := s.repomanager.Vaults(tx).GetByID(ctx, vaultID); err != nil {
				return err
			}
			return common.ErrVaultReleased
		}
		_, err = s.repomanager.Events(tx).Append(ctx, &models.DeadManSwitchEvent{
			VaultID:   vaultID,
			Type:      models.EventHeartbeat,
			CreatedAt: now,
		})
		return err
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "heartbeat confirmed", "vault_id", vaultID)
	return nil
}

// ConfirmHeartbeatLink handles the one-click link from a warning email.
func (s *VaultService) ConfirmHeartbeatLink(ctx context.Context, token string) (string, error) {
	claims, err := auth.ParseToken(token, auth.PurposeHeartbeatLink, s.jwtSecret, s.now())
	if err != nil {
		return "", err
	}
	if err := s.ConfirmHeartbeat(ctx, claims.VaultID); err != nil {
		return "", err
	}
	return claims.VaultID, nil
}

func (s *VaultService) openVault(ctx context.Context, vaultID string) (*models.Vault, error) {
	v, err := s.repomanager.Vaults(s.db).GetByID(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	if v.Status == models.VaultReleased {
		return nil, common.ErrVaultReleased
	}
	return v, nil
}

// RequestUpload allocates a fresh opaque storage path and presigns a PUT
// for it.
func (s *VaultService) RequestUpload(ctx context.Context, vaultID string) (*UploadTarget, error) {
	if _, err := s.openVault(ctx, vaultID); err != nil {
		return nil, err
	}

	path := pathx.NewStoragePath()
	url, err := s.presigner.PresignPut(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}
	return &UploadTarget{StoragePath: path, URL: url}, nil
}

func validateAsset(a *models.EncryptedAsset) error {
	if len(a.Salt) != cryptox.SaltSize || len(a.Nonce) != cryptox.NonceSize {
		return fmt.Errorf("salt or nonce length: %w", common.ErrInvalidInput)
	}
	if b, err := hex.DecodeString(a.Checksum); err != nil || len(b) != 32 {
		return fmt.Errorf("checksum must be hex sha-256: %w", common.ErrInvalidInput)
	}
	if a.SizeBytes < cryptox.TagSize {
		return fmt.Errorf("size: %w", common.ErrInvalidInput)
	}
	switch cryptox.Format(a.Format) {
	case cryptox.FormatWhole:
		if a.ChunkSize != 0 {
			return fmt.Errorf("chunk size on whole-buffer asset: %w", common.ErrInvalidInput)
		}
	case cryptox.FormatSegmented:
		if a.ChunkSize <= 0 {
			return fmt.Errorf("segmented asset without chunk size: %w", common.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("format %q: %w", a.Format, common.ErrInvalidInput)
	}
	return nil
}

// RegisterAsset records the metadata of an uploaded ciphertext. When
// replaces names a current asset of the same vault, that asset is
// superseded in the same transaction; assets are never edited in place.
func (s *VaultService) RegisterAsset(ctx context.Context, a *models.EncryptedAsset, replaces string) (*models.EncryptedAsset, error) {
	v, err := s.openVault(ctx, a.VaultID)
	if err != nil {
		return nil, err
	}
	if err := validateAsset(a); err != nil {
		return nil, err
	}

	bens, err := s.repomanager.Beneficiaries(s.db).ListByVault(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	identifying := []string{v.ID, v.UserID, v.OwnerEmail, localPart(v.OwnerEmail)}
	for _, b := range bens {
		identifying = append(identifying, b.Name, b.Email, localPart(b.Email))
	}
	if err := pathx.Validate(a.StoragePath, identifying...); err != nil {
		return nil, err
	}

	now := s.now()
	var created *models.EncryptedAsset
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Assets(tx)
		if replaces != "" {
			if err := repo.Supersede(ctx, replaces, v.ID, now); err != nil {
				return fmt.Errorf("supersede %s: %w", replaces, err)
			}
		}
		created, err = repo.Create(ctx, a)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "asset registered", "vault_id", v.ID, "asset_id", created.ID, "replaces", replaces)
	return created, nil
}

// ListAssets returns the current (not superseded) assets of a vault.
func (s *VaultService) ListAssets(ctx context.Context, vaultID string) ([]*models.EncryptedAsset, error) {
	if _, err := s.repomanager.Vaults(s.db).GetByID(ctx, vaultID); err != nil {
		return nil, err
	}
	return s.repomanager.Assets(s.db).ListCurrent(ctx, vaultID)
}

func localPart(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return ""
}
