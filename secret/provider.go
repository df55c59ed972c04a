package secret

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Provider resolves secrets by reference string.
//
// Implementations must be safe for concurrent use and must not log secret values.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
}

// EnvProvider resolves secretref:env:NAME from the environment.
type EnvProvider struct {
	Lookup LookupFunc
}

// Name returns "env".
func (EnvProvider) Name() string { return "env" }

// Resolve returns the variable's value or ErrNotFound.
func (p EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	lookup := p.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, ok := lookup(ref)
	if !ok {
		return "", fmt.Errorf("%w: env %q", ErrNotFound, ref)
	}
	return v, nil
}

// FileProvider resolves secretref:file:<name> by reading <Dir>/<name>, the
// layout used by mounted container secrets. Trailing newlines are trimmed.
type FileProvider struct {
	Dir string
}

// Name returns "file".
func (FileProvider) Name() string { return "file" }

// Resolve reads the secret file.
func (p FileProvider) Resolve(_ context.Context, ref string) (string, error) {
	name := filepath.Clean(ref)
	if filepath.IsAbs(name) || strings.HasPrefix(name, "..") {
		return "", fmt.Errorf("secret: file ref %q escapes %s", ref, p.Dir)
	}
	data, err := os.ReadFile(filepath.Join(p.Dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: file %q", ErrNotFound, ref)
		}
		return "", fmt.Errorf("secret: read %q: %w", ref, err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

var (
	_ Provider = EnvProvider{}
	_ Provider = FileProvider{}
)
