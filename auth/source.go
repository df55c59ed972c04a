package auth

import (
	"context"
	"net/http"
	"net/url"
)

// DefaultCookieName is the session cookie read when none is configured.
const DefaultCookieName = "session"

// TokenSource yields the raw token to present on an outgoing request.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: ErrMissingCredentials when no token is available.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context) (string, error)

// Token calls f.
func (f TokenSourceFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// StaticToken is a fixed token. The empty value has no credentials.
type StaticToken string

// Token returns the token.
func (s StaticToken) Token(context.Context) (string, error) {
	if s == "" {
		return "", ErrMissingCredentials
	}
	return string(s), nil
}

// CookieTokenSource reads a session token from a cookie jar.
type CookieTokenSource struct {
	Jar  http.CookieJar
	URL  *url.URL
	Name string
}

// Token returns the value of the named cookie for URL.
func (c CookieTokenSource) Token(context.Context) (string, error) {
	if c.Jar == nil || c.URL == nil {
		return "", ErrMissingCredentials
	}
	name := c.Name
	if name == "" {
		name = DefaultCookieName
	}
	for _, ck := range c.Jar.Cookies(c.URL) {
		if ck.Name == name && ck.Value != "" {
			return ck.Value, nil
		}
	}
	return "", ErrMissingCredentials
}

var (
	_ TokenSource = StaticToken("")
	_ TokenSource = CookieTokenSource{}
	_ TokenSource = TokenSourceFunc(nil)
)
