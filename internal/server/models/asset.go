package models

import "time"

// EncryptedAsset describes one ciphertext blob in object storage. Rows are
// never updated in place; a new version supersedes the old one.
type EncryptedAsset struct {
	ID           string
	VaultID      string
	StoragePath  string
	Salt         []byte
	Nonce        []byte
	Checksum     string
	SizeBytes    int64
	Category     string
	Format       string
	ChunkSize    int
	SupersededAt *time.Time
	CreatedAt    time.Time
}
