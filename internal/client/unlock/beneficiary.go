// Package unlock is the beneficiary side of a released vault: spend the
// release token, recover the owner's password from whatever the
// beneficiary holds, then fetch, verify and decrypt each asset.
package unlock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/legacykeeper/internal/common"
	"github.com/dmitrijs2005/legacykeeper/internal/cryptox"
	"github.com/dmitrijs2005/legacykeeper/internal/filex"
	"github.com/dmitrijs2005/legacykeeper/internal/integrity"
	"github.com/dmitrijs2005/legacykeeper/internal/logging"
	"github.com/dmitrijs2005/legacykeeper/internal/netx"
	"github.com/dmitrijs2005/legacykeeper/internal/recovery"
	"github.com/dmitrijs2005/legacykeeper/internal/rpc"
)

type remote interface {
	VerifyReleaseToken(ctx context.Context, token string) (*rpc.VerifyReleaseTokenResponse, error)
	ConsumeReleaseToken(ctx context.Context, token string) (*rpc.ConsumeReleaseTokenResponse, error)
	GetAssetDownload(ctx context.Context, assetID string) (*rpc.Asset, string, error)
	GetRecoveryMaterial(ctx context.Context) (*rpc.GetRecoveryMaterialResponse, error)
}

// FetchFunc opens a presigned download URL.
type FetchFunc func(ctx context.Context, url string) (io.ReadCloser, error)

type Beneficiary struct {
	api    remote
	fetch  FetchFunc
	logger logging.Logger
}

func NewBeneficiary(api remote, l logging.Logger) *Beneficiary {
	return &Beneficiary{
		api: api,
		fetch: func(ctx context.Context, url string) (io.ReadCloser, error) {
			return netx.DownloadFromPresignedURL(ctx, nil, url)
		},
		logger: l.With("module", "unlock"),
	}
}

// Secret is what the beneficiary can present. The first non-empty source
// wins: Password, then Mnemonic, then QRPayload, then the two fragments.
type Secret struct {
	Password  string
	Mnemonic  string
	QRPayload []byte
	FragmentA string
	FragmentB string
}

// MergeError carries every fragment problem so the caller can point at the
// sheet that needs re-checking.
type MergeError struct {
	Errors []recovery.FragmentError
}

func (e *MergeError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Error())
	}
	return strings.Join(msgs, "; ")
}

func (e *MergeError) Unwrap() error { return common.ErrInvalidMnemonic }

// Preview checks the token without spending it.
func (b *Beneficiary) Preview(ctx context.Context, token string) (*rpc.VerifyReleaseTokenResponse, error) {
	return b.api.VerifyReleaseToken(ctx, token)
}

// Open spends the token. The client keeps the returned grant for the calls
// made by Password and Download.
func (b *Beneficiary) Open(ctx context.Context, token string) (*rpc.ConsumeReleaseTokenResponse, error) {
	grant, err := b.api.ConsumeReleaseToken(ctx, token)
	if err != nil {
		return nil, err
	}
	b.logger.Info(ctx, "release token consumed", "vault_id", grant.VaultID)
	return grant, nil
}

// mnemonic resolves s to a recovery phrase. A password-only secret has no
// phrase and yields "".
func (s Secret) mnemonic() (string, error) {
	switch {
	case s.Mnemonic != "":
		m := recovery.Normalize(s.Mnemonic)
		if err := recovery.ValidateMnemonic(m); err != nil {
			return "", err
		}
		return m, nil
	case len(s.QRPayload) > 0:
		p, err := recovery.ParseQRPayload(s.QRPayload)
		if err != nil {
			return "", err
		}
		return p.Mnemonic, nil
	case s.FragmentA != "" || s.FragmentB != "":
		res := recovery.MergeFragments(s.FragmentA, s.FragmentB)
		if !res.Valid {
			return "", &MergeError{Errors: res.Errors}
		}
		return res.Mnemonic, nil
	}
	return "", fmt.Errorf("no password, phrase or fragments given: %w", common.ErrInvalidInput)
}

// Password returns the vault password, unwrapping the server-held backup
// with the recovery phrase when the beneficiary does not know it directly.
func (b *Beneficiary) Password(ctx context.Context, s Secret) (string, error) {
	if s.Password != "" {
		return s.Password, nil
	}

	mnemonic, err := s.mnemonic()
	if err != nil {
		return "", err
	}

	m, err := b.api.GetRecoveryMaterial(ctx)
	if err != nil {
		return "", fmt.Errorf("recovery material: %w", err)
	}

	return recovery.Recover(mnemonic, m.Ciphertext, m.Salt, m.Nonce)
}

// Download fetches one asset into spool, verifies its checksum and only then
// decrypts it into w. Nothing is written to w on a checksum mismatch.
func (b *Beneficiary) Download(ctx context.Context, assetID, password string, spool io.ReadWriteSeeker, w io.Writer) (*rpc.Asset, error) {
	asset, url, err := b.api.GetAssetDownload(ctx, assetID)
	if err != nil {
		return nil, err
	}

	m := integrity.Material{
		Checksum:  asset.Checksum,
		Salt:      asset.Salt,
		Nonce:     asset.Nonce,
		Format:    cryptox.Format(asset.Format),
		ChunkSize: asset.ChunkSize,
		Size:      asset.SizeBytes,
	}
	fetch := func(ctx context.Context) (io.ReadCloser, error) { return b.fetch(ctx, url) }

	if err := integrity.VerifyAndDecryptStream(ctx, fetch, m, password, spool, w); err != nil {
		return asset, err
	}
	return asset, nil
}

// Result is the outcome of saving one asset.
type Result struct {
	AssetID string
	Path    string
	Err     error
}

// FileName is the local name an asset is saved under. Original file names
// are never sent to the server, so the id and category are all there is.
func FileName(a rpc.Asset) string {
	if a.Category == "" {
		return a.ID + ".bin"
	}
	return a.Category + "-" + a.ID + ".bin"
}

// SaveAll downloads every asset into outDir. A failing asset is reported in
// its Result and does not stop the others. Each file appears only once it
// has been fully verified and decrypted.
func (b *Beneficiary) SaveAll(ctx context.Context, assets []rpc.Asset, password, outDir string) ([]Result, error) {
	dir, err := filex.EnsureDir(outDir)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(assets))
	for _, a := range assets {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}

		path := filepath.Join(dir, FileName(a))
		err := b.saveOne(ctx, a.ID, password, dir, path)
		if err != nil {
			b.logger.Warn(ctx, "asset not saved", "asset_id", a.ID, "error", err)
			path = ""
		}
		results = append(results, Result{AssetID: a.ID, Path: path, Err: err})
	}
	return results, nil
}

func (b *Beneficiary) saveOne(ctx context.Context, assetID, password, dir, path string) error {
	spool, err := os.CreateTemp(dir, ".spool-*")
	if err != nil {
		return fmt.Errorf("create spool: %w", err)
	}
	defer func() {
		_ = spool.Close()
		_ = os.Remove(spool.Name())
	}()

	return filex.WriteAtomic(path, func(f *os.File) error {
		_, err := b.Download(ctx, assetID, password, spool, f)
		return err
	})
}

// Failed reports whether any result carries an error.
func Failed(results []Result) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// IsWrongSecret tells a bad password or phrase apart from transport and
// integrity failures.
func IsWrongSecret(err error) bool {
	return errors.Is(err, common.ErrDecryption) || errors.Is(err, common.ErrInvalidMnemonic)
}
