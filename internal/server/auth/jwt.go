// Package auth implements session-token signing and password hashing for the
// vault server.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/avilks/passvault/internal/common"
)

// SessionValidityDuration is the fixed lifetime of a session token. Expiry is
// the only termination path: tokens are stateless and carry no revocation.
const SessionValidityDuration = 15 * time.Hour

// Claims are the signed session claims. Validity is purely a function of the
// signature and ExpiresAt; no server-side session store exists.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

// GenerateToken signs {id, name, email} with the process-wide secret.
func GenerateToken(accountID, name, email string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		AccountID: accountID,
		Name:      name,
		Email:     email,
	})

	return token.SignedString(secretKey)
}

// ParseToken verifies the signature and expiry and returns the claims.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
