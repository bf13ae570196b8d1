// Package models defines server-side data models persisted in the database.
// None of them carries plaintext or an unwrapped master password.
package models

import "time"

// VaultStatus is the dead man's switch lifecycle state.
type VaultStatus string

const (
	VaultActive   VaultStatus = "active"
	VaultWarning  VaultStatus = "warning"
	VaultReleased VaultStatus = "released"
)

// Vault is one user's set of encrypted assets plus the switch settings.
type Vault struct {
	ID                     string
	UserID                 string
	Status                 VaultStatus
	HeartbeatFrequencyDays int
	GracePeriodDays        int
	LastSeenAt             time.Time
	EncryptionHint         string
	Language               string
	OwnerEmail             string
	PhysicalDelivery       bool

	// Master password wrapped under the recovery phrase.
	RecoveryCiphertext []byte
	RecoverySalt       []byte
	RecoveryNonce      []byte

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HeartbeatDue reports whether the owner has been silent for a full
// heartbeat period at now.
func (v *Vault) HeartbeatDue(now time.Time) bool {
	deadline := v.LastSeenAt.Add(time.Duration(v.HeartbeatFrequencyDays) * 24 * time.Hour)
	return !now.Before(deadline)
}

// GraceExpired reports whether the grace period that started with the
// warning at warnedAt is over at now.
func (v *Vault) GraceExpired(warnedAt, now time.Time) bool {
	deadline := warnedAt.Add(time.Duration(v.GracePeriodDays) * 24 * time.Hour)
	return !now.Before(deadline)
}
