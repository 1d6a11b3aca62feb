package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned by [Inspect] for tokens that are not JWTs. Console
// access tokens are opaque to the client, so callers treat it as "nothing to
// show", not as a failure.
var ErrNotJWT = errors.New("token is not a JWT")

// TokenInfo is what can be read from an access token without its key.
type TokenInfo struct {
	Subject   string
	UserID    int64
	Role      string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token is past its expiry at now. A token
// without expiry never expires.
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// Inspect decodes tokenStr without verifying its signature. The result is
// informational only and must never gate access.
func Inspect(tokenStr string) (TokenInfo, error) {
	var claims AccessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &claims); err != nil {
		return TokenInfo{}, ErrNotJWT
	}

	info := TokenInfo{
		Subject: claims.Subject,
		UserID:  claims.UID,
		Role:    claims.Role,
		Issuer:  claims.Issuer,
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}
