package config

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/cachesignal/observe"
	"github.com/jonwraymond/cachesignal/secret"
)

// Store owns the effective configuration.
//
// Contract:
// - Concurrency: all methods are safe for concurrent use.
// - Loading: at most one discovery runs per load generation; concurrent
//   cold callers share its result.
// - Errors: discovery failures never escape; they are logged, recorded in
//   LastError and replaced by defaults.
type Store struct {
	discoverer Discoverer
	logger     observe.Logger
	defaults   Config
	resolver   *secret.Resolver

	loads  singleflight.Group
	warmed atomic.Bool

	mu      sync.RWMutex
	gen     uint64
	current *Config
	source  string
	rawSum  uint64
	lastErr error
}

// Option configures a Store.
type Option func(*Store)

// WithDiscoverer replaces the default FileDiscoverer.
func WithDiscoverer(d Discoverer) Option {
	return func(s *Store) {
		if d != nil {
			s.discoverer = d
		}
	}
}

// WithLogger sets the logger used for discovery warnings.
func WithLogger(l observe.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaults replaces the built-in defaults.
func WithDefaults(c Config) Option {
	return func(s *Store) {
		s.defaults = c
	}
}

// WithResolver sets the resolver applied to discovered string values.
// Pass nil to disable resolution.
func WithResolver(r *secret.Resolver) Option {
	return func(s *Store) {
		s.resolver = r
	}
}

// New creates a Store. Nothing is read until the first access.
func New(opts ...Option) *Store {
	s := &Store{
		discoverer: FileDiscoverer{},
		logger:     observe.NopLogger(),
		defaults:   Default(),
		resolver:   defaultResolver(os.Getenv(EnvSecretsDir)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// defaultResolver resolves secretref:env refs, and secretref:file refs when
// dir is set.
func defaultResolver(dir string) *secret.Resolver {
	providers := []secret.Provider{secret.EnvProvider{}}
	if dir != "" {
		providers = append(providers, secret.FileProvider{Dir: dir})
	}
	return secret.NewResolver(true, providers...)
}

// Get returns the last loaded configuration, or the defaults when nothing
// has loaded yet. It never blocks. The first call starts a background load.
func (s *Store) Get() Config {
	if c, ok := s.snapshot(); ok {
		return c
	}
	if s.warmed.CompareAndSwap(false, true) {
		go s.GetAsync(context.Background())
	}
	return s.defaults
}

// GetAsync returns a configuration for which discovery has completed at
// least once. If ctx ends first the current snapshot is returned and the
// shared load keeps running for the remaining callers.
func (s *Store) GetAsync(ctx context.Context) Config {
	if c, ok := s.snapshot(); ok {
		return c
	}

	s.mu.RLock()
	gen := s.gen
	s.mu.RUnlock()

	ch := s.loads.DoChan("load-"+strconv.FormatUint(gen, 10), func() (any, error) {
		return s.load(context.WithoutCancel(ctx), gen), nil
	})
	select {
	case res := <-ch:
		return res.Val.(Config)
	case <-ctx.Done():
		if c, ok := s.snapshot(); ok {
			return c
		}
		return s.defaults
	}
}

// Reload drops the cached configuration, runs a fresh discovery and
// returns its result.
func (s *Store) Reload(ctx context.Context) Config {
	s.mu.Lock()
	s.gen++
	s.current = nil
	s.mu.Unlock()
	s.warmed.Store(true)
	return s.GetAsync(ctx)
}

// LastError returns the error from the most recent discovery, or nil.
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Source returns the file the current configuration was read from.
func (s *Store) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// Fingerprint hashes the canonical JSON form of the current configuration.
func (s *Store) Fingerprint() uint64 {
	data, err := json.Marshal(s.Get())
	if err != nil {
		return 0
	}
	return xxhash.Sum64(data)
}

func (s *Store) snapshot() (Config, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Config{}, false
	}
	return *s.current, true
}

// load runs one discovery and publishes it unless a Reload superseded gen.
func (s *Store) load(ctx context.Context, gen uint64) Config {
	d, err := s.discoverer.Discover(ctx)
	cfg := s.defaults
	if err == nil {
		cfg, err = s.build(ctx, d.Values)
	}
	if err != nil {
		s.logger.Warn(ctx, "config discovery failed, using defaults",
			observe.F("source", d.Source),
			observe.F("error", err),
		)
		cfg = s.defaults
	} else if d.Source != "" {
		s.logger.Debug(ctx, "config loaded", observe.F("source", d.Source))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return cfg
	}
	s.current = &cfg
	s.source = d.Source
	s.rawSum = xxhash.Sum64(d.Raw)
	s.lastErr = err
	return cfg
}

func (s *Store) build(ctx context.Context, values map[string]any) (Config, error) {
	if s.resolver != nil && len(values) > 0 {
		if err := s.resolver.ResolveTree(ctx, values); err != nil {
			return Config{}, err
		}
	}
	base, err := toMap(s.defaults)
	if err != nil {
		return Config{}, err
	}
	cfg, err := fromMap(Merge(base, values))
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// changed reports whether raw differs from the content last loaded.
func (s *Store) changed(raw []byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return xxhash.Sum64(raw) != s.rawSum
}
