package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/dmitrijs2005/legacykeeper/internal/checksum"
	"github.com/dmitrijs2005/legacykeeper/internal/common"
)

// Format identifies the ciphertext layout of an asset.
type Format string

const (
	FormatWhole     Format = "aead-v1"
	FormatSegmented Format = "segmented-v1"
)

const (
	// MemoryChunkSize is the segment size for in-memory encryption of large buffers.
	MemoryChunkSize = 1 << 20
	// UploadChunkSize is the segment size for the upload-coupled file path.
	UploadChunkSize = 5 << 20
	// LargeFileThreshold is the payload size from which the segmented layout is used.
	LargeFileThreshold = 50 << 20
)

// Sealed is the output of a whole-buffer encryption. Salt and Nonce are
// stored next to the ciphertext, never inside it.
type Sealed struct {
	Ciphertext []byte
	Salt       []byte
	Nonce      []byte
}

// Payload is a sealed buffer together with the layout needed to open it.
type Payload struct {
	Sealed
	Format    Format
	ChunkSize int
	Checksum  string
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func deriveAEAD(password string, salt []byte) (cipher.AEAD, error) {
	key, err := DeriveKey(password, salt)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)
	return newGCM(key)
}

// Encrypt seals plaintext under a key derived from password with a fresh
// salt and nonce.
func Encrypt(plaintext []byte, password string) (*Sealed, error) {
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
	return &Sealed{
		Ciphertext: aead.Seal(nil, nonce, plaintext, nil),
		Salt:       salt,
		Nonce:      nonce,
	}, nil
}

// Decrypt opens a whole-buffer ciphertext. Any authentication failure
// yields common.ErrDecryption and no plaintext.
func Decrypt(ciphertext, salt, nonce []byte, password string) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("nonce must be %d bytes: %w", NonceSize, common.ErrInvalidInput)
	}
	aead, err := deriveAEAD(password, salt)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < TagSize {
		return nil, common.ErrDecryption
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, common.ErrDecryption
	}
	return plaintext, nil
}

// EncryptBuffer picks the layout by size: payloads below LargeFileThreshold
// are sealed whole, larger ones in MemoryChunkSize segments. The checksum
// covers the complete ciphertext.
func EncryptBuffer(plaintext []byte, password string) (*Payload, error) {
	if len(plaintext) < LargeFileThreshold {
		s, err := Encrypt(plaintext, password)
		if err != nil {
			return nil, err
		}
		return &Payload{Sealed: *s, Format: FormatWhole, Checksum: checksum.Sum(s.Ciphertext)}, nil
	}

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
	ct := sealSegments(aead, nonce, plaintext, MemoryChunkSize)
	return &Payload{
		Sealed:    Sealed{Ciphertext: ct, Salt: salt, Nonce: nonce},
		Format:    FormatSegmented,
		ChunkSize: MemoryChunkSize,
		Checksum:  checksum.Sum(ct),
	}, nil
}

// DecryptBuffer opens a ciphertext produced by EncryptBuffer or
// EncryptStream. size is the ciphertext length recorded at encryption time;
// a buffer of any other length fails with common.ErrDecryption, so a
// segmented ciphertext cut at a chunk boundary is not mistaken for a shorter
// plaintext. When chunkSize is zero the layout is inferred from the
// ciphertext length: anything longer than LargeFileThreshold+TagSize can
// only be segmented with MemoryChunkSize chunks.
func DecryptBuffer(ciphertext, salt, nonce []byte, password string, chunkSize int, size int64) ([]byte, error) {
	if int64(len(ciphertext)) != size {
		return nil, common.ErrDecryption
	}
	if chunkSize == 0 {
		if len(ciphertext) <= LargeFileThreshold+TagSize {
			return Decrypt(ciphertext, salt, nonce, password)
		}
		chunkSize = MemoryChunkSize
	}
	if chunkSize < 0 {
		return nil, fmt.Errorf("chunk size: %w", common.ErrInvalidInput)
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("nonce must be %d bytes: %w", NonceSize, common.ErrInvalidInput)
	}
	aead, err := deriveAEAD(password, salt)
	if err != nil {
		return nil, err
	}
	return openSegments(aead, nonce, ciphertext, chunkSize)
}

// SealedSize is the ciphertext length produced for plainSize bytes of
// plaintext. A zero chunkSize means the whole layout.
func SealedSize(plainSize int64, chunkSize int) int64 {
	if chunkSize <= 0 {
		return plainSize + TagSize
	}
	chunks := (plainSize + int64(chunkSize) - 1) / int64(chunkSize)
	if chunks == 0 {
		chunks = 1
	}
	return plainSize + chunks*TagSize
}

// sealSegments seals plaintext chunk by chunk under one key and nonce.
// An empty plaintext still produces one (empty) sealed chunk.
func sealSegments(aead cipher.AEAD, nonce, plaintext []byte, chunkSize int) []byte {
	chunks := (len(plaintext) + chunkSize - 1) / chunkSize
	if chunks == 0 {
		chunks = 1
	}
	out := make([]byte, 0, len(plaintext)+chunks*TagSize)
	for off := 0; ; off += chunkSize {
		end := min(off+chunkSize, len(plaintext))
		out = aead.Seal(out, nonce, plaintext[off:end], nil)
		if end == len(plaintext) {
			return out
		}
	}
}

func openSegments(aead cipher.AEAD, nonce, ciphertext []byte, chunkSize int) ([]byte, error) {
	if len(ciphertext) < TagSize {
		return nil, common.ErrDecryption
	}
	segment := chunkSize + TagSize
	out := make([]byte, 0, len(ciphertext))
	for off := 0; off < len(ciphertext); off += segment {
		end := min(off+segment, len(ciphertext))
		if end-off < TagSize {
			return nil, common.ErrDecryption
		}
		var err error
		out, err = aead.Open(out, nonce, ciphertext[off:end], nil)
		if err != nil {
			return nil, common.ErrDecryption
		}
	}
	return out, nil
}
