package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultScheme is the Authorization scheme used when none is configured.
const DefaultScheme = "Bearer"

// HeaderBuilder attaches an Authorization header built from Source.
type HeaderBuilder struct {
	// Scheme precedes the token.
	// Default: "Bearer"
	Scheme string

	Source TokenSource

	// Now is the clock used for expiry checks.
	// Default: time.Now
	Now func() time.Time
}

// Apply sets "Authorization: <Scheme> <token>" on req. When the token is a
// JWT whose exp claim has passed, Apply returns ErrTokenExpired and leaves
// req untouched. Opaque tokens are sent as is.
func (b HeaderBuilder) Apply(ctx context.Context, req *http.Request) error {
	if b.Source == nil {
		return ErrMissingCredentials
	}
	token, err := b.Source.Token(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return ErrMissingCredentials
	}

	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	if exp, ok := ExpiresAt(token); ok && !exp.After(now()) {
		return fmt.Errorf("%w: exp %s", ErrTokenExpired, exp.UTC().Format(time.RFC3339))
	}

	scheme := b.Scheme
	if scheme == "" {
		scheme = DefaultScheme
	}
	req.Header.Set("Authorization", scheme+" "+token)
	return nil
}

// ExpiresAt reads the exp claim of a JWT without verifying its signature.
// ok is false for opaque tokens and for JWTs without exp.
func ExpiresAt(token string) (exp time.Time, ok bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	t, err := claims.GetExpirationTime()
	if err != nil || t == nil {
		return time.Time{}, false
	}
	return t.Time, true
}

// IsExpired reports whether err came from an expired token.
func IsExpired(err error) bool {
	return errors.Is(err, ErrTokenExpired)
}
