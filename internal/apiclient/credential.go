package apiclient

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential is the bearer token attached to a single call. It is injected by the caller on
// every request and never read from ambient state.
type Credential struct {
	Token string
}

// Valid reports whether the credential carries a token.
func (c Credential) Valid() bool {
	return strings.TrimSpace(c.Token) != ""
}

// Expired reports whether the token is a JWT whose exp claim lies before now. Opaque tokens
// never expire from the dashboard's point of view; the API stays the verifier.
func (c Credential) Expired(now time.Time) bool {
	if !c.Valid() || strings.Count(c.Token, ".") != 2 {
		return false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.Token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.Time.After(now)
}
