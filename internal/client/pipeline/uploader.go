// Package pipeline encrypts local files into the staging directory, pushes
// the ciphertext to object storage and registers its metadata with the
// server.
//
// Encryption and remote registration are decoupled through pending.Store:
// once a file is staged and enqueued, the upload and the registration can be
// retried by the Reconciler at any later time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/legacykeeper/internal/client/pending"
	"github.com/dmitrijs2005/legacykeeper/internal/cryptox"
	"github.com/dmitrijs2005/legacykeeper/internal/logging"
	"github.com/dmitrijs2005/legacykeeper/internal/netx"
	"github.com/dmitrijs2005/legacykeeper/internal/rpc"
	"github.com/google/uuid"
)

type remote interface {
	RequestUpload(ctx context.Context, vaultID string) (storagePath, url string, err error)
	RegisterAsset(ctx context.Context, asset rpc.Asset, replaces string) (*rpc.Asset, error)
}

// PutFunc sends a ciphertext body to a presigned URL.
type PutFunc func(ctx context.Context, url string, body io.Reader, size int64) error

type Uploader struct {
	api        remote
	store      pending.Store
	stagingDir string
	put        PutFunc
	logger     logging.Logger
}

func NewUploader(api remote, store pending.Store, stagingDir string, l logging.Logger) *Uploader {
	return &Uploader{
		api:        api,
		store:      store,
		stagingDir: stagingDir,
		put: func(ctx context.Context, url string, body io.Reader, size int64) error {
			return netx.UploadToPresignedURL(ctx, nil, url, body, size)
		},
		logger: l.With("module", "uploader"),
	}
}

// UploadInput names a plaintext file and the vault it goes into. Replaces
// is the id of an asset this one supersedes.
type UploadInput struct {
	VaultID    string
	Path       string
	Password   string
	Category   string
	Replaces   string
	OnProgress func(cryptox.Progress)
}

// Stage encrypts the file with the segmented format into the staging
// directory and enqueues it. Nothing leaves the machine.
func (u *Uploader) Stage(ctx context.Context, in UploadInput) (*pending.Asset, error) {
	if in.VaultID == "" || in.Path == "" {
		return nil, errors.New("vault id and file path are required")
	}

	src, err := os.Open(in.Path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	fi, err := src.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}

	id := uuid.NewString()
	local := filepath.Join(u.stagingDir, id+".enc")

	dst, err := os.OpenFile(local, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create staged file: %w", err)
	}

	res, err := cryptox.EncryptStream(ctx, src, dst, in.Password, cryptox.StreamOptions{
		ChunkSize:  cryptox.UploadChunkSize,
		Total:      fi.Size(),
		OnProgress: in.OnProgress,
	})
	if cerr := dst.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(local)
		return nil, fmt.Errorf("encrypt: %w", err)
	}

	a := &pending.Asset{
		ID:        id,
		VaultID:   in.VaultID,
		LocalPath: local,
		Salt:      res.Salt,
		Nonce:     res.Nonce,
		Checksum:  res.Checksum,
		SizeBytes: res.CipherSize,
		Category:  in.Category,
		Format:    string(res.Format),
		ChunkSize: res.ChunkSize,
		Replaces:  in.Replaces,
	}
	if err := u.store.Enqueue(ctx, a); err != nil {
		_ = os.Remove(local)
		return nil, err
	}

	u.logger.Info(ctx, "asset staged", "id", a.ID, "vault_id", a.VaultID, "size", a.SizeBytes)
	return a, nil
}

// Upload stages the file and immediately tries to sync it. A failed sync is
// recorded on the queued row and is not returned as an error: the asset is
// safe locally and the Reconciler will retry it.
func (u *Uploader) Upload(ctx context.Context, in UploadInput) (*pending.Asset, error) {
	a, err := u.Stage(ctx, in)
	if err != nil {
		return nil, err
	}

	if err := u.Sync(ctx, a); err != nil {
		u.logger.Warn(ctx, "sync deferred", "id", a.ID, "error", err)
		if merr := u.store.MarkFailed(ctx, a.ID, err); merr != nil {
			u.logger.Error(ctx, "mark failed", "id", a.ID, "error", merr)
		}
		a.Status = pending.StatusFailed
		a.Attempts++
		a.LastError = err.Error()
	}
	return a, nil
}

// Sync pushes one queued asset: upload the ciphertext if that has not
// happened yet, register the metadata, mark the row synced and drop the
// staged file.
func (u *Uploader) Sync(ctx context.Context, a *pending.Asset) error {
	if !a.Uploaded {
		path, url, err := u.api.RequestUpload(ctx, a.VaultID)
		if err != nil {
			return fmt.Errorf("request upload: %w", err)
		}

		if err := u.putFile(ctx, url, a.LocalPath); err != nil {
			return err
		}

		if err := u.store.MarkUploaded(ctx, a.ID, path); err != nil {
			return err
		}
		a.Uploaded = true
		a.StoragePath = path
	}

	registered, err := u.api.RegisterAsset(ctx, toRPC(a), a.Replaces)
	if err != nil {
		return fmt.Errorf("register asset: %w", err)
	}

	if err := u.store.MarkSynced(ctx, a.ID, registered.ID); err != nil {
		return err
	}
	a.Status = pending.StatusSynced
	a.RemoteID = registered.ID

	if err := os.Remove(a.LocalPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		u.logger.Warn(ctx, "staged file not removed", "path", a.LocalPath, "error", err)
	}

	u.logger.Info(ctx, "asset synced", "id", a.ID, "asset_id", registered.ID)
	return nil
}

func (u *Uploader) putFile(ctx context.Context, url, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open staged file: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return err
	}

	if err := u.put(ctx, url, f, fi.Size()); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	return nil
}

func toRPC(a *pending.Asset) rpc.Asset {
	return rpc.Asset{
		VaultID:     a.VaultID,
		StoragePath: a.StoragePath,
		Salt:        a.Salt,
		Nonce:       a.Nonce,
		Checksum:    a.Checksum,
		SizeBytes:   a.SizeBytes,
		Category:    a.Category,
		Format:      a.Format,
		ChunkSize:   a.ChunkSize,
	}
}
