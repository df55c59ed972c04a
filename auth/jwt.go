package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig configures the JWT verifier.
type JWTConfig struct {
	// Issuer is the expected token issuer (iss claim).
	Issuer string

	// Audience is the expected token audience (aud claim).
	Audience string

	// SubjectClaim is the claim copied into Identity.Subject.
	// Default: "sub"
	SubjectClaim string
}

// KeyProvider retrieves signing keys for JWT validation.
type KeyProvider interface {
	// GetKey returns the key for the given key ID.
	GetKey(ctx context.Context, keyID string) (any, error)
}

// StaticKeyProvider provides a static HMAC signing key.
type StaticKeyProvider struct {
	key []byte
}

// NewStaticKeyProvider creates a static key provider.
func NewStaticKeyProvider(key []byte) *StaticKeyProvider {
	return &StaticKeyProvider{key: key}
}

// GetKey returns the static key.
func (p *StaticKeyProvider) GetKey(_ context.Context, _ string) (any, error) {
	if len(p.key) == 0 {
		return nil, ErrKeyNotFound
	}
	return p.key, nil
}

// JWTVerifier validates signed JWT bearer tokens.
type JWTVerifier struct {
	config JWTConfig
	keys   KeyProvider
}

// NewJWTVerifier creates a JWT verifier.
func NewJWTVerifier(config JWTConfig, keys KeyProvider) *JWTVerifier {
	if config.SubjectClaim == "" {
		config.SubjectClaim = "sub"
	}
	return &JWTVerifier{config: config, keys: keys}
}

// Verify checks the signature, expiry, issuer and audience of token.
func (v *JWTVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrMissingCredentials
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if v.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.config.Issuer))
	}
	if v.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.config.Audience))
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return v.keys.GetKey(ctx, kid)
	}, opts...)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, ErrTokenMalformed
	case errors.Is(err, ErrKeyNotFound):
		return nil, ErrKeyNotFound
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	case !parsed.Valid:
		return nil, ErrInvalidCredentials
	}

	id := &Identity{Claims: make(map[string]any, len(claims))}
	for k, val := range claims {
		id.Claims[k] = val
	}
	if sub, ok := claims[v.config.SubjectClaim].(string); ok {
		id.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time
	}
	return id, nil
}

// audiences normalizes the aud claim, which may be a string or a list.
func audiences(claims map[string]any) []string {
	switch v := claims["aud"].(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, a := range v {
			if s, ok := a.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// HasAudience reports whether id carries aud in its aud claim.
func (id *Identity) HasAudience(aud string) bool {
	return id != nil && slices.Contains(audiences(id.Claims), aud)
}

var (
	_ Verifier    = (*JWTVerifier)(nil)
	_ KeyProvider = (*StaticKeyProvider)(nil)
)
