// Package integrity re-checks downloaded ciphertext against the checksum
// recorded at encryption time, before any decryption is attempted.
package integrity

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/legacykeeper/internal/checksum"
	"github.com/dmitrijs2005/legacykeeper/internal/common"
	"github.com/dmitrijs2005/legacykeeper/internal/cryptox"
)

// Verify hashes everything in r and compares the digest with expected.
// It returns the number of bytes read.
func Verify(r io.Reader, expected string) (int64, error) {
	got, n, err := checksum.SumReader(r)
	if err != nil {
		return n, fmt.Errorf("hash ciphertext: %w", err)
	}
	if !checksum.Equal(got, expected) {
		return n, fmt.Errorf("expected %s, got %s: %w", expected, got, common.ErrIntegrity)
	}
	return n, nil
}

// Fetcher opens the ciphertext stream for an asset.
type Fetcher func(ctx context.Context) (io.ReadCloser, error)

// Material is the companion data needed to open one ciphertext.
type Material struct {
	Checksum  string
	Salt      []byte
	Nonce     []byte
	Format    cryptox.Format
	ChunkSize int
	// Size is the ciphertext length recorded when the asset was sealed.
	Size int64
}

// checkSize rejects a ciphertext whose digest matched but whose length
// differs from the recorded one.
func checkSize(got int64, m Material) error {
	if got != m.Size {
		return fmt.Errorf("expected %d bytes, got %d: %w", m.Size, got, common.ErrIntegrity)
	}
	return nil
}

// VerifyAndDecrypt downloads the ciphertext, checks its digest and only then
// hands it to the cipher. A digest mismatch never reaches cryptox.
func VerifyAndDecrypt(ctx context.Context, fetch Fetcher, m Material, password string) ([]byte, error) {
	rc, err := fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch ciphertext: %w", err)
	}
	defer rc.Close()

	var buf bytes.Buffer
	n, err := Verify(io.TeeReader(rc, &buf), m.Checksum)
	if err != nil {
		return nil, err
	}
	if err := checkSize(n, m); err != nil {
		return nil, err
	}

	if m.Format == cryptox.FormatSegmented {
		return cryptox.DecryptBuffer(buf.Bytes(), m.Salt, m.Nonce, password, m.ChunkSize, m.Size)
	}
	return cryptox.Decrypt(buf.Bytes(), m.Salt, m.Nonce, password)
}

// VerifyAndDecryptStream is VerifyAndDecrypt for payloads too large to hold
// in memory. The ciphertext is copied into spool while it is hashed; once
// the digest matches, spool is rewound and decrypted into w.
func VerifyAndDecryptStream(ctx context.Context, fetch Fetcher, m Material, password string, spool io.ReadWriteSeeker, w io.Writer) error {
	rc, err := fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch ciphertext: %w", err)
	}
	defer rc.Close()

	n, err := Verify(io.TeeReader(rc, spool), m.Checksum)
	if err != nil {
		return err
	}
	if err := checkSize(n, m); err != nil {
		return err
	}
	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind spool: %w", err)
	}

	if m.Format == cryptox.FormatSegmented {
		return cryptox.DecryptStream(ctx, spool, w, password, m.Salt, m.Nonce, cryptox.StreamOptions{ChunkSize: m.ChunkSize, Total: m.Size})
	}

	ct, err := io.ReadAll(spool)
	if err != nil {
		return fmt.Errorf("read spool: %w", err)
	}
	pt, err := cryptox.Decrypt(ct, m.Salt, m.Nonce, password)
	if err != nil {
		return err
	}
	_, err = w.Write(pt)
	return err
}
