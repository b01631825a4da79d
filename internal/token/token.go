// Package token implements stateless session credentials. A token is a
// signed claim of identity with a hard expiry; validity is computed purely
// from the signature and the clock, never from server-side state, so a
// token cannot be revoked before it expires.
package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissing is returned when no token was presented at all.
	ErrMissing = errors.New("missing token")

	// ErrInvalid is returned for malformed, tampered and expired tokens
	// alike. Callers get no further detail.
	ErrInvalid = errors.New("invalid token")
)

// Claims is the signed token payload. The user id is nested under a
// "user" object to stay wire-compatible with existing clients.
type Claims struct {
	User UserClaim `json:"user"`
	jwt.RegisteredClaims
}

// UserClaim carries the authenticated user's id.
type UserClaim struct {
	ID string `json:"id"`
}

// Issue signs a token for the given user id with the given lifetime.
func Issue(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		User: UserClaim{ID: userID},
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(secret)
}

// Verify checks the signature and expiry of a token string and returns the
// embedded user id. It does not consult any store; whether the user still
// exists is checked lazily by whichever operation loads the user record.
func Verify(tokenString string, secret []byte) (string, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return "", ErrMissing
	}

	claims := Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalid
		}
		return secret, nil
	})
	if err != nil || !tok.Valid {
		return "", ErrInvalid
	}
	if strings.TrimSpace(claims.User.ID) == "" {
		return "", ErrInvalid
	}
	return claims.User.ID, nil
}
