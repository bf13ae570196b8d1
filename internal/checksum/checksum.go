// Package checksum computes the content-addressed integrity hashes stored
// next to every ciphertext blob. Hashes are lowercase hex SHA-256.
package checksum

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"hash"
	"io"
	"strings"
)

// Sum returns the hex SHA-256 of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SumReader hashes everything readable from r and returns the digest
// together with the number of bytes consumed.
func SumReader(r io.Reader) (string, int64, error) {
	w := NewWriter()
	n, err := io.Copy(w, r)
	if err != nil {
		return "", n, err
	}
	return w.Hex(), n, nil
}

// Writer is an io.Writer that hashes whatever passes through it, meant to
// sit inside an io.MultiWriter next to the real destination.
type Writer struct {
	h hash.Hash
	n int64
}

// NewWriter returns an empty hashing writer.
func NewWriter() *Writer {
	return &Writer{h: sha256.New()}
}

func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.h.Write(p)
	w.n += int64(n)
	return n, err
}

// Hex returns the digest of the bytes written so far.
func (w *Writer) Hex() string {
	return hex.EncodeToString(w.h.Sum(nil))
}

// Size returns the number of bytes written so far.
func (w *Writer) Size() int64 {
	return w.n
}

// Equal compares two hex digests in constant time, ignoring case.
func Equal(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
