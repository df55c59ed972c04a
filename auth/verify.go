package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

// Verifier checks a bearer token presented by a caller.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: ErrMissingCredentials for an empty token, ErrInvalidCredentials
//   or ErrTokenExpired for a rejected one.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// StaticVerifier accepts exactly one shared secret.
type StaticVerifier struct {
	Secret  string
	Subject string
}

// Verify compares token with the secret in constant time.
func (s StaticVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrMissingCredentials
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.Secret)) != 1 {
		return nil, ErrInvalidCredentials
	}
	return &Identity{Subject: s.Subject}, nil
}

// BearerToken extracts the token following scheme from the Authorization
// header. The scheme match is case-insensitive.
func BearerToken(h http.Header, scheme string) (string, error) {
	if scheme == "" {
		scheme = DefaultScheme
	}
	v := h.Get("Authorization")
	if len(v) <= len(scheme)+1 || !strings.EqualFold(v[:len(scheme)], scheme) || v[len(scheme)] != ' ' {
		return "", ErrMissingCredentials
	}
	return strings.TrimSpace(v[len(scheme)+1:]), nil
}

// Middleware verifies the bearer token of each request and stores the
// resulting Identity in the request context. Rejected requests are passed
// to deny with the verification error.
func Middleware(v Verifier, deny func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r.Header, DefaultScheme)
			if err == nil {
				var id *Identity
				if id, err = v.Verify(r.Context(), token); err == nil {
					next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
					return
				}
			}
			deny(w, r, err)
		})
	}
}

var _ Verifier = StaticVerifier{}
