// Package common defines shared constants and sentinel errors used across
// client and server layers of legacykeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Input validation, always checked before any crypto is attempted.
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidMnemonic = errors.New("invalid recovery phrase")

	// Cryptographic failures.
	ErrDecryption = errors.New("wrong password or corrupted data")
	ErrIntegrity  = errors.New("checksum mismatch")

	// Storage identifiers that could reveal who owns a blob.
	ErrInvalidStoragePath = errors.New("invalid storage path")

	// Release token lifecycle errors.
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Idempotency short-circuit, logged as a skip rather than a failure.
	ErrAlreadyProcessed = errors.New("already processed")

	// Vault lifecycle errors.
	ErrVaultReleased = errors.New("vault already released")
)
