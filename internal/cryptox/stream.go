package cryptox

import (
	"context"
	"crypto/cipher"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/legacykeeper/internal/checksum"
	"github.com/dmitrijs2005/legacykeeper/internal/common"
)

// Progress is reported after every processed chunk.
type Progress struct {
	Loaded     int64
	Total      int64
	Percentage int
}

// StreamOptions configures EncryptStream and DecryptStream.
type StreamOptions struct {
	// ChunkSize is the plaintext segment size; UploadChunkSize when zero.
	ChunkSize int
	// Total is the expected input size. EncryptStream uses it only for
	// Percentage. DecryptStream requires it: the ciphertext must be exactly
	// Total bytes long.
	Total int64
	// OnProgress, if set, is called synchronously after each chunk.
	OnProgress func(Progress)
}

func (o StreamOptions) chunkSize() int {
	if o.ChunkSize <= 0 {
		return UploadChunkSize
	}
	return o.ChunkSize
}

func (o StreamOptions) report(loaded int64) {
	if o.OnProgress == nil {
		return
	}
	p := Progress{Loaded: loaded, Total: o.Total}
	if o.Total > 0 {
		p.Percentage = int(min(loaded*100/o.Total, 100))
	}
	o.OnProgress(p)
}

// StreamResult describes a ciphertext written by EncryptStream.
type StreamResult struct {
	Salt       []byte
	Nonce      []byte
	Checksum   string
	PlainSize  int64
	CipherSize int64
	ChunkSize  int
	Format     Format
}

// EncryptStream reads r in ChunkSize pieces, seals each piece and writes the
// concatenated ciphertext to w. Only one chunk is held in memory at a time.
func EncryptStream(ctx context.Context, r io.Reader, w io.Writer, password string, opts StreamOptions) (*StreamResult, error) {
	salt, err := NewSalt()
	if err != nil {
		return nil, err
	}
	nonce, err := NewNonce()
	if err != nil {
		return nil, err
	}
	aead, err := deriveAEAD(password, salt)
	if err != nil {
		return nil, err
	}

	res, err := sealStream(ctx, aead, nonce, r, w, opts)
	if err != nil {
		return nil, err
	}
	res.Salt = salt
	res.Nonce = nonce
	return res, nil
}

func sealStream(ctx context.Context, aead cipher.AEAD, nonce []byte, r io.Reader, w io.Writer, opts StreamOptions) (*StreamResult, error) {
	size := opts.chunkSize()
	buf := make([]byte, size)
	out := make([]byte, 0, size+TagSize)

	sum := checksum.NewWriter()
	dst := io.MultiWriter(w, sum)

	var loaded int64
	for first := true; ; first = false {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, readErr := io.ReadFull(r, buf)
		last := errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF)
		if readErr != nil && !last {
			return nil, fmt.Errorf("read chunk: %w", readErr)
		}
		if n == 0 && !first {
			break
		}

		out = aead.Seal(out[:0], nonce, buf[:n], nil)
		if _, err := dst.Write(out); err != nil {
			return nil, fmt.Errorf("write chunk: %w", err)
		}

		loaded += int64(n)
		opts.report(loaded)

		if last {
			break
		}
	}

	return &StreamResult{
		Nonce:      nonce,
		Checksum:   sum.Hex(),
		PlainSize:  loaded,
		CipherSize: sum.Size(),
		ChunkSize:  size,
		Format:     FormatSegmented,
	}, nil
}

// DecryptStream reverses EncryptStream. Plaintext is written to w chunk by
// chunk; when an error is returned the caller must discard whatever w
// received. Progress counts consumed ciphertext bytes and opts.Total must be
// the ciphertext length recorded at encryption time.
func DecryptStream(ctx context.Context, r io.Reader, w io.Writer, password string, salt, nonce []byte, opts StreamOptions) error {
	if opts.Total <= 0 {
		return fmt.Errorf("expected ciphertext size: %w", common.ErrInvalidInput)
	}
	if len(nonce) != NonceSize {
		return fmt.Errorf("nonce must be %d bytes: %w", NonceSize, common.ErrInvalidInput)
	}
	aead, err := deriveAEAD(password, salt)
	if err != nil {
		return err
	}
	return openStream(ctx, aead, nonce, r, w, opts)
}

func openStream(ctx context.Context, aead cipher.AEAD, nonce []byte, r io.Reader, w io.Writer, opts StreamOptions) error {
	segment := opts.chunkSize() + TagSize
	buf := make([]byte, segment)
	out := make([]byte, 0, segment)

	var loaded int64
	for first := true; ; first = false {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := io.ReadFull(r, buf)
		last := errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF)
		if readErr != nil && !last {
			return fmt.Errorf("read chunk: %w", readErr)
		}
		if n == 0 {
			if first || loaded != opts.Total {
				return common.ErrDecryption
			}
			return nil
		}
		if n < TagSize || loaded+int64(n) > opts.Total {
			return common.ErrDecryption
		}

		var err error
		out, err = aead.Open(out[:0], nonce, buf[:n], nil)
		if err != nil {
			return common.ErrDecryption
		}
		if _, err := w.Write(out); err != nil {
			return fmt.Errorf("write chunk: %w", err)
		}

		loaded += int64(n)
		opts.report(loaded)

		if last {
			if loaded != opts.Total {
				return common.ErrDecryption
			}
			return nil
		}
	}
}
