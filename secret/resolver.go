package secret

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
)

const refPrefix = "secretref:"

// Resolver resolves environment and secret references in values.
type Resolver struct {
	providers map[string]Provider
	strict    bool
	lookup    LookupFunc
}

// NewResolver creates a resolver. In strict mode a provider returning an
// empty value is an error.
func NewResolver(strict bool, providers ...Provider) *Resolver {
	r := &Resolver{
		providers: make(map[string]Provider, len(providers)),
		strict:    strict,
		lookup:    os.LookupEnv,
	}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds or replaces a provider.
func (r *Resolver) Register(p Provider) {
	if p == nil {
		return
	}
	r.providers[p.Name()] = p
}

// ParseSecretRef parses a full reference of the form secretref:<provider>:<ref>.
func ParseSecretRef(value string) (provider, ref string, ok bool) {
	rest, found := strings.CutPrefix(value, refPrefix)
	if !found {
		return "", "", false
	}
	provider, ref, found = strings.Cut(rest, ":")
	if !found || provider == "" || ref == "" {
		return "", "", false
	}
	return provider, ref, true
}

// ResolveValue expands ${VAR} references then resolves secret references.
func (r *Resolver) ResolveValue(ctx context.Context, value string) (string, error) {
	expanded, err := expandWith(value, r.lookup)
	if err != nil {
		return "", err
	}
	if provider, ref, ok := ParseSecretRef(expanded); ok {
		return r.resolve(ctx, provider, ref)
	}
	return r.resolveInline(ctx, expanded)
}

// ResolveTree walks a decoded document and resolves every string leaf in
// place, descending into maps and slices. Errors name the offending path.
func (r *Resolver) ResolveTree(ctx context.Context, tree map[string]any) error {
	for k, v := range tree {
		resolved, err := r.resolveAny(ctx, k, v)
		if err != nil {
			return err
		}
		tree[k] = resolved
	}
	return nil
}

func (r *Resolver) resolveAny(ctx context.Context, path string, v any) (any, error) {
	switch val := v.(type) {
	case string:
		out, err := r.ResolveValue(ctx, val)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", path, err)
		}
		return out, nil
	case map[string]any:
		for k, child := range val {
			out, err := r.resolveAny(ctx, path+"."+k, child)
			if err != nil {
				return nil, err
			}
			val[k] = out
		}
		return val, nil
	case []any:
		for i, child := range val {
			out, err := r.resolveAny(ctx, fmt.Sprintf("%s[%d]", path, i), child)
			if err != nil {
				return nil, err
			}
			val[i] = out
		}
		return val, nil
	default:
		return v, nil
	}
}

func (r *Resolver) resolve(ctx context.Context, providerName, ref string) (string, error) {
	p, ok := r.providers[providerName]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, providerName)
	}
	v, err := p.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	if r.strict && v == "" {
		return "", fmt.Errorf("%w: %q", ErrEmptySecret, providerName)
	}
	return v, nil
}

var inlineRefPattern = regexp.MustCompile(`secretref:([^:\s]+):([^\s]+)`)

func (r *Resolver) resolveInline(ctx context.Context, value string) (string, error) {
	matches := inlineRefPattern.FindAllStringSubmatchIndex(value, -1)
	out := value
	// Replace from the end so earlier indexes stay valid.
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		resolved, err := r.resolve(ctx, out[m[2]:m[3]], out[m[4]:m[5]])
		if err != nil {
			return "", err
		}
		out = out[:m[0]] + resolved + out[m[1]:]
	}
	return out, nil
}
