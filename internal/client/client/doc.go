// Package client is the vaultctl side of the LegacyKeeper gRPC API.
//
// GRPCClient owns the connection, applies a per-call timeout, attaches the
// release grant obtained from ConsumeReleaseToken to every later call and
// maps gRPC status codes back to the sentinel errors of package common.
//
// Common conditions can be matched with errors.Is: ErrUnavailable,
// ErrUnauthorized, common.ErrTokenExpired, common.ErrTokenInvalid,
// common.ErrorNotFound, common.ErrInvalidInput, common.ErrVaultReleased.
package client
