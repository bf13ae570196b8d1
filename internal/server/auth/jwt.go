// Package auth issues and checks the two HMAC-signed tokens the server hands
// out: the release grant a beneficiary receives after consuming a release
// token, and the one-click heartbeat link carried in warning emails.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/legacykeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Purpose separates grant tokens from heartbeat links so one can never be
// replayed as the other.
type Purpose string

const (
	PurposeReleaseGrant  Purpose = "release_grant"
	PurposeHeartbeatLink Purpose = "heartbeat_link"
)

// Claims carries the vault and, for grants, the beneficiary the token was
// issued to.
type Claims struct {
	jwt.RegisteredClaims
	Purpose       Purpose `json:"purpose"`
	VaultID       string  `json:"vault_id"`
	BeneficiaryID string  `json:"beneficiary_id,omitempty"`
}

// GenerateToken signs a token valid from now until now+validity.
func GenerateToken(purpose Purpose, vaultID, beneficiaryID string, secretKey []byte, validity time.Duration, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		Purpose:       purpose,
		VaultID:       vaultID,
		BeneficiaryID: beneficiaryID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken validates signature, expiry (against now) and purpose.
// Expired tokens yield common.ErrTokenExpired, anything else that fails
// yields common.ErrTokenInvalid.
func ParseToken(tokenString string, purpose Purpose, secretKey []byte, now time.Time) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrTokenInvalid
	}

	if !token.Valid || claims.Purpose != purpose || claims.VaultID == "" {
		return nil, common.ErrTokenInvalid
	}

	return claims, nil
}
