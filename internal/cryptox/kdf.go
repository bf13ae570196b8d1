// Package cryptox implements password-based key derivation and the
// authenticated encryption used for every asset and for the recovery kit.
//
// Keys are derived with PBKDF2-HMAC-SHA256 and data is sealed with
// AES-256-GCM. Two ciphertext layouts exist:
//
//   - FormatWhole: a single GCM call over the whole payload.
//   - FormatSegmented: the payload is cut into fixed-size chunks and each
//     chunk is sealed separately with the same key and nonce. Chunk
//     ciphertexts are concatenated in order; each carries its own tag.
//
// The segmented layout reuses one nonce for all chunks of a file. That is a
// fixed property of existing ciphertexts and must not be changed: chunk
// boundaries on decryption are exactly ChunkSize+TagSize bytes.
package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"unicode/utf8"

	"github.com/dmitrijs2005/legacykeeper/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// KDFIterations is the fixed PBKDF2 work factor.
	KDFIterations = 100000
	// KeySize is the derived AES-256 key length.
	KeySize = 32
	// SaltSize is the length of the random per-encryption salt.
	SaltSize = 16
	// NonceSize is the GCM nonce length (96 bits).
	NonceSize = 12
	// TagSize is the GCM authentication tag appended to every sealed chunk.
	TagSize = 16
)

// DeriveKey turns a password or recovery phrase into a 256-bit key.
// The result depends only on (password, salt).
func DeriveKey(password string, salt []byte) ([]byte, error) {
	if password == "" || !utf8.ValidString(password) {
		return nil, fmt.Errorf("password: %w", common.ErrInvalidInput)
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("salt must be %d bytes: %w", SaltSize, common.ErrInvalidInput)
	}
	return pbkdf2.Key([]byte(password), salt, KDFIterations, KeySize, sha256.New), nil
}

// NewSalt returns SaltSize random bytes.
func NewSalt() ([]byte, error) {
	return randomBytes(SaltSize)
}

// NewNonce returns NonceSize random bytes.
func NewNonce() ([]byte, error) {
	return randomBytes(NonceSize)
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("random source: %w", err)
	}
	return b, nil
}
