package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/legacykeeper/internal/common"
	"github.com/dmitrijs2005/legacykeeper/internal/logging"
	"github.com/dmitrijs2005/legacykeeper/internal/server/config"
	"github.com/dmitrijs2005/legacykeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var unlockNow = time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)

type unlockFixture struct {
	store     *memStore
	presigner *fakePresigner
	svc       *UnlockService
	vault     *models.Vault
	ben       *models.Beneficiary
}

const unlockToken = "3f1c0a"

func newUnlockFixture(t *testing.T) *unlockFixture {
	t.Helper()
	f := &unlockFixture{store: newMemStore(), presigner: &fakePresigner{}}
	cfg := &config.Config{SecretKey: "k", GrantValidityDuration: time.Hour}
	f.svc = NewUnlockService(newTxDB(t), &memRepoManager{s: f.store}, cfg, f.presigner, logging.Discard())
	f.svc.now = func() time.Time { return unlockNow }

	f.vault = f.store.addVault(models.Vault{
		Status:             models.VaultReleased,
		EncryptionHint:     "the usual one",
		RecoveryCiphertext: []byte("sealed"),
		RecoverySalt:       []byte("salt"),
		RecoveryNonce:      []byte("nonce"),
	})
	exp := unlockNow.Add(24 * time.Hour)
	f.ben = f.store.addBeneficiary(models.Beneficiary{
		VaultID:               f.vault.ID,
		Name:                  "Anna",
		Email:                 "anna@example.com",
		Status:                models.BeneficiaryNotified,
		ReleaseTokenHash:      HashReleaseToken(unlockToken),
		ReleaseTokenExpiresAt: &exp,
	})
	return f
}

func (f *unlockFixture) addAsset(vaultID string) *models.EncryptedAsset {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	a := &models.EncryptedAsset{ID: f.store.nextID("a"), VaultID: vaultID, StoragePath: "assets/x/" + vaultID, Format: "aead-v1"}
	f.store.assets[a.ID] = a
	return a
}

func TestVerify(t *testing.T) {
	f := newUnlockFixture(t)
	a := f.addAsset(f.vault.ID)
	f.addAsset("other-vault")

	md, err := f.svc.Verify(context.Background(), unlockToken)
	require.NoError(t, err)
	assert.Equal(t, f.vault.ID, md.VaultID)
	assert.Equal(t, f.ben.ID, md.BeneficiaryID)
	assert.Equal(t, "Anna", md.BeneficiaryName)
	assert.Equal(t, "the usual one", md.EncryptionHint)
	require.Len(t, md.Assets, 1)
	assert.Equal(t, a.ID, md.Assets[0].ID)

	// verification does not spend the token
	assert.Nil(t, f.store.beneficiary(f.ben.ID).ReleaseTokenUsedAt)
	_, err = f.svc.Verify(context.Background(), unlockToken)
	assert.NoError(t, err)
}

func TestVerify_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *unlockFixture)
		token string
		want  error
	}{
		{"empty token", func(*unlockFixture) {}, "", common.ErrTokenInvalid},
		{"unknown token", func(*unlockFixture) {}, "nope", common.ErrTokenInvalid},
		{"used token", func(f *unlockFixture) {
			used := unlockNow.Add(-time.Minute)
			f.store.bens[f.ben.ID].ReleaseTokenUsedAt = &used
		}, unlockToken, common.ErrTokenInvalid},
		{"expired token", func(f *unlockFixture) {
			exp := unlockNow
			f.store.bens[f.ben.ID].ReleaseTokenExpiresAt = &exp
		}, unlockToken, common.ErrTokenExpired},
		{"vault not released", func(f *unlockFixture) {
			f.store.vaults[f.vault.ID].Status = models.VaultActive
		}, unlockToken, common.ErrTokenInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newUnlockFixture(t)
			tt.setup(f)
			_, err := f.svc.Verify(context.Background(), tt.token)
			assert.ErrorIs(t, err, tt.want)
			_, err = f.svc.Consume(context.Background(), tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestConsume_SingleUse(t *testing.T) {
	f := newUnlockFixture(t)

	grant, err := f.svc.Consume(context.Background(), unlockToken)
	require.NoError(t, err)
	assert.Equal(t, f.vault.ID, grant.VaultID)
	assert.Equal(t, unlockNow.Add(time.Hour), grant.ExpiresAt)

	vaultID, err := f.svc.Authorize(grant.Token)
	require.NoError(t, err)
	assert.Equal(t, f.vault.ID, vaultID)

	used := f.store.beneficiary(f.ben.ID).ReleaseTokenUsedAt
	require.NotNil(t, used)
	assert.Equal(t, unlockNow, *used)

	_, err = f.svc.Consume(context.Background(), unlockToken)
	assert.ErrorIs(t, err, common.ErrTokenInvalid)
	_, err = f.svc.Verify(context.Background(), unlockToken)
	assert.ErrorIs(t, err, common.ErrTokenInvalid)
}

func TestConsume_Concurrent(t *testing.T) {
	f := newUnlockFixture(t)

	var ok, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Consume(context.Background(), unlockToken)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, common.ErrTokenInvalid):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(7), rejected.Load())
}

func TestAuthorize_Rejects(t *testing.T) {
	f := newUnlockFixture(t)

	_, err := f.svc.Authorize("not-a-jwt")
	assert.ErrorIs(t, err, common.ErrTokenInvalid)

	grant, err := f.svc.Consume(context.Background(), unlockToken)
	require.NoError(t, err)

	f.svc.now = func() time.Time { return unlockNow.Add(2 * time.Hour) }
	_, err = f.svc.Authorize(grant.Token)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestAssetDownload(t *testing.T) {
	f := newUnlockFixture(t)
	mine := f.addAsset(f.vault.ID)
	foreign := f.addAsset("other-vault")

	grant, err := f.svc.Consume(context.Background(), unlockToken)
	require.NoError(t, err)

	dl, err := f.svc.AssetDownload(context.Background(), grant.Token, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, dl.Asset.ID)
	assert.Equal(t, "https://s3.example/get/"+mine.StoragePath, dl.URL)

	_, err = f.svc.AssetDownload(context.Background(), grant.Token, foreign.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = f.svc.AssetDownload(context.Background(), grant.Token, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = f.svc.AssetDownload(context.Background(), "bogus", mine.ID)
	assert.ErrorIs(t, err, common.ErrTokenInvalid)

	f.presigner.getErr = errors.New("s3 unavailable")
	_, err = f.svc.AssetDownload(context.Background(), grant.Token, mine.ID)
	assert.ErrorContains(t, err, "s3 unavailable")
}

func TestRecoveryMaterial(t *testing.T) {
	f := newUnlockFixture(t)

	grant, err := f.svc.Consume(context.Background(), unlockToken)
	require.NoError(t, err)

	rm, err := f.svc.RecoveryMaterial(context.Background(), grant.Token)
	require.NoError(t, err)
	assert.Equal(t, []byte("sealed"), rm.Ciphertext)
	assert.Equal(t, []byte("salt"), rm.Salt)
	assert.Equal(t, []byte("nonce"), rm.Nonce)
	assert.Equal(t, "the usual one", rm.EncryptionHint)

	_, err = f.svc.RecoveryMaterial(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrTokenInvalid)
}
