package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding an explicit config path.
const EnvConfigPath = "CACHESIGNAL_CONFIG"

// EnvSecretsDir names the directory used for secretref:file references.
const EnvSecretsDir = "CACHESIGNAL_SECRETS_DIR"

// DefaultFileNames are searched, in order, in each directory.
var DefaultFileNames = []string{
	"cachesignal.config.json",
	"cachesignal.config.yaml",
	"cachesignal.config.yml",
	".cachesignalrc",
	".cachesignalrc.json",
	".cachesignalrc.yaml",
}

// Discovered is the raw result of one discovery.
type Discovered struct {
	// Values is the decoded document; empty when no source was found.
	Values map[string]any

	// Source is the file the values came from, or "".
	Source string

	// Raw is the undecoded source content.
	Raw []byte
}

// Discoverer finds configuration overrides.
//
// Contract:
// - Concurrency: Discover may be called from any goroutine, never concurrently by one Store.
// - Errors: a missing source is not an error; return an empty Discovered.
type Discoverer interface {
	Discover(ctx context.Context) (Discovered, error)
}

// DiscovererFunc adapts a function to Discoverer.
type DiscovererFunc func(ctx context.Context) (Discovered, error)

// Discover calls f.
func (f DiscovererFunc) Discover(ctx context.Context) (Discovered, error) {
	return f(ctx)
}

// FileDiscoverer resolves a config file by conventional name, walking from
// Dir up to the filesystem root. The EnvConfigPath variable, when set, wins.
type FileDiscoverer struct {
	// Dir is the starting directory. Default: the working directory.
	Dir string

	// Names overrides DefaultFileNames.
	Names []string

	// Getenv overrides os.Getenv.
	Getenv func(string) string
}

// Discover implements Discoverer.
func (d FileDiscoverer) Discover(ctx context.Context) (Discovered, error) {
	getenv := d.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if explicit := getenv(EnvConfigPath); explicit != "" {
		return readFile(explicit)
	}

	path, err := d.find(ctx)
	if err != nil || path == "" {
		return Discovered{Values: map[string]any{}}, err
	}
	return readFile(path)
}

// find returns the first matching file, or "" when none exists.
func (d FileDiscoverer) find(ctx context.Context) (string, error) {
	dir := d.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("config: working directory: %w", err)
		}
		dir = wd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	names := d.Names
	if len(names) == 0 {
		names = DefaultFileNames
	}

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			info, err := os.Stat(candidate)
			if err == nil && !info.IsDir() {
				return candidate, nil
			}
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("config: stat %s: %w", candidate, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func readFile(path string) (Discovered, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Discovered{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	values, err := Parse(path, raw)
	if err != nil {
		// Keep the source so a watcher can pick up the fix.
		return Discovered{Source: path, Raw: raw}, err
	}
	return Discovered{Values: values, Source: path, Raw: raw}, nil
}

// Parse decodes raw by the extension of name. Files without an extension
// are read as YAML, which also accepts JSON documents.
func Parse(name string, raw []byte) (map[string]any, error) {
	values := map[string]any{}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return values, nil
	}

	var err error
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		err = json.Unmarshal(raw, &values)
	case ".yaml", ".yml", "":
		err = yaml.Unmarshal(raw, &values)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", name, err)
	}
	return values, nil
}
