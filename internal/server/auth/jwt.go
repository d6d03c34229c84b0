// Package auth implements the stateless bearer-token codec: HS256-signed
// JWTs carrying the subject email and an absolute expiry.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/appp2p/authvault/internal/common"
)

// Codec signs and verifies bearer tokens with a server-held HMAC secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec returns a Codec signing with secretKey and issuing tokens valid
// for ttl.
func NewCodec(secretKey []byte, ttl time.Duration) *Codec {
	return &Codec{secret: secretKey, ttl: ttl}
}

// ExpirationWindow returns the configured token lifetime. It is used both at
// issuance and to report the absolute expiry to the login caller.
func (c *Codec) ExpirationWindow() time.Duration {
	return c.ttl
}

// Issue produces a signed token for subjectEmail and returns it together
// with its absolute expiry time.
func (c *Codec) Issue(subjectEmail string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(c.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subjectEmail,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// Verify checks tokenString and returns the subject email on success.
//
// The structural shape (exactly two dot-delimited segment separators) is
// checked before any cryptographic work, so garbage input fails fast with
// common.ErrMalformedToken. Signature failures map to
// common.ErrInvalidSignature and expiry to common.ErrTokenExpired; a token
// whose expiry equals the current instant is already expired.
func (c *Codec) Verify(tokenString string) (string, error) {
	if strings.Count(tokenString, ".") != 2 {
		return "", common.ErrMalformedToken
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", common.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", common.ErrInvalidSignature
		default:
			return "", common.ErrMalformedToken
		}
	}
	if !token.Valid {
		return "", common.ErrInvalidSignature
	}

	// Strict window: exp == now counts as expired.
	if claims.ExpiresAt == nil || !time.Now().Before(claims.ExpiresAt.Time) {
		return "", common.ErrTokenExpired
	}

	return claims.Subject, nil
}
