package config

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/cachesignal/health"
	"github.com/jonwraymond/cachesignal/observe"
)

// stubDiscoverer returns whatever values are set and counts calls.
type stubDiscoverer struct {
	mu      sync.Mutex
	values  map[string]any
	err     error
	gate    chan struct{}
	calls   atomic.Int32
	started chan struct{}
}

func (d *stubDiscoverer) set(values map[string]any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.values = values
}

func (d *stubDiscoverer) Discover(ctx context.Context) (Discovered, error) {
	d.calls.Add(1)
	if d.started != nil {
		select {
		case d.started <- struct{}{}:
		default:
		}
	}
	if d.gate != nil {
		<-d.gate
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return Discovered{}, d.err
	}
	values := make(map[string]any, len(d.values))
	for k, v := range d.values {
		values[k] = v
	}
	return Discovered{Values: values, Source: "stub"}, nil
}

func TestStore_GetBeforeLoadReturnsDefaults(t *testing.T) {
	d := &stubDiscoverer{gate: make(chan struct{})}
	s := New(WithDiscoverer(d))

	got := s.Get()
	if got != Default() {
		t.Errorf("Get() = %+v, want defaults", got)
	}
	close(d.gate)
}

func TestStore_GetAsyncMergesDiscovered(t *testing.T) {
	d := &stubDiscoverer{values: map[string]any{
		"defaultAuth": true,
		"debug":       map[string]any{"logCacheStatus": true},
	}}
	s := New(WithDiscoverer(d))

	got := s.GetAsync(context.Background())
	if !got.DefaultAuth {
		t.Error("DefaultAuth should be true")
	}
	if !got.Debug.LogCacheStatus {
		t.Error("Debug.LogCacheStatus should be true")
	}
	if !got.Debug.WarnOnEmptyTags {
		t.Error("Debug.WarnOnEmptyTags default should survive the nested merge")
	}
	if got.SessionCookie != "session" {
		t.Errorf("SessionCookie = %q, want session", got.SessionCookie)
	}
	if s.Source() != "stub" {
		t.Errorf("Source() = %q", s.Source())
	}
}

func TestStore_ConcurrentColdLoadsShareOneDiscovery(t *testing.T) {
	d := &stubDiscoverer{
		values:  map[string]any{"authScheme": "Token"},
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	s := New(WithDiscoverer(d))

	const callers = 8
	results := make([]Config, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.GetAsync(context.Background())
		}()
	}

	<-d.started
	time.Sleep(20 * time.Millisecond)
	close(d.gate)
	wg.Wait()

	if n := d.calls.Load(); n != 1 {
		t.Errorf("discovery ran %d times, want 1", n)
	}
	for i, r := range results {
		if r != results[0] {
			t.Errorf("result %d = %+v differs from %+v", i, r, results[0])
		}
		if r.AuthScheme != "Token" {
			t.Errorf("result %d AuthScheme = %q", i, r.AuthScheme)
		}
	}
}

func TestStore_GetAsyncHonorsContext(t *testing.T) {
	d := &stubDiscoverer{gate: make(chan struct{})}
	s := New(WithDiscoverer(d))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	got := s.GetAsync(ctx)
	if got != Default() {
		t.Errorf("expected defaults on timeout, got %+v", got)
	}
	close(d.gate)

	got = s.GetAsync(context.Background())
	if n := d.calls.Load(); n != 1 {
		t.Errorf("discovery ran %d times, want 1", n)
	}
	if got != Default() {
		t.Errorf("GetAsync() = %+v", got)
	}
}

func TestStore_ReloadPicksUpNewValues(t *testing.T) {
	d := &stubDiscoverer{values: map[string]any{"revalidateProfile": "hours"}}
	s := New(WithDiscoverer(d))

	if got := s.GetAsync(context.Background()).RevalidateProfile; got != "hours" {
		t.Fatalf("RevalidateProfile = %q, want hours", got)
	}

	d.set(map[string]any{"revalidateProfile": "days"})
	if got := s.GetAsync(context.Background()).RevalidateProfile; got != "hours" {
		t.Errorf("GetAsync() reloaded without Reload: %q", got)
	}

	if got := s.Reload(context.Background()).RevalidateProfile; got != "days" {
		t.Errorf("Reload() RevalidateProfile = %q, want days", got)
	}
	if got := s.GetAsync(context.Background()).RevalidateProfile; got != "days" {
		t.Errorf("GetAsync() after Reload = %q, want days", got)
	}
	if n := d.calls.Load(); n != 2 {
		t.Errorf("discovery ran %d times, want 2", n)
	}
}

func TestStore_DiscoveryFailureFallsBack(t *testing.T) {
	var buf bytes.Buffer
	d := &stubDiscoverer{err: errors.New("disk on fire")}
	s := New(WithDiscoverer(d), WithLogger(observe.NewLoggerWithWriter("warn", &buf)))

	got := s.GetAsync(context.Background())
	if got != Default() {
		t.Errorf("expected defaults, got %+v", got)
	}
	if s.LastError() == nil {
		t.Error("LastError() should report the failure")
	}
	if !strings.Contains(buf.String(), "config discovery failed") {
		t.Errorf("expected warning, got %q", buf.String())
	}

	d.mu.Lock()
	d.err = nil
	d.mu.Unlock()
	s.Reload(context.Background())
	if err := s.LastError(); err != nil {
		t.Errorf("LastError() after recovery = %v", err)
	}
}

func TestStore_InvalidValuesFallBack(t *testing.T) {
	d := &stubDiscoverer{values: map[string]any{"revalidateStrategy": "purge"}}
	s := New(WithDiscoverer(d))

	got := s.GetAsync(context.Background())
	if got.RevalidateStrategy != "" {
		t.Errorf("RevalidateStrategy = %q, want default", got.RevalidateStrategy)
	}
	if !errors.Is(s.LastError(), ErrInvalidConfig) {
		t.Errorf("LastError() = %v, want ErrInvalidConfig", s.LastError())
	}
}

func TestStore_ResolvesSecrets(t *testing.T) {
	t.Setenv("CACHESIGNAL_TEST_HOOK_TOKEN", "s3cret")
	d := &stubDiscoverer{values: map[string]any{
		"webhook": map[string]any{
			"url":   "https://hooks.example.com",
			"token": "${CACHESIGNAL_TEST_HOOK_TOKEN}",
		},
	}}
	s := New(WithDiscoverer(d))

	got := s.GetAsync(context.Background())
	if got.Webhook.Token != "s3cret" {
		t.Errorf("Webhook.Token = %q, want s3cret", got.Webhook.Token)
	}
	if got.Webhook.URL != "https://hooks.example.com" {
		t.Errorf("Webhook.URL = %q", got.Webhook.URL)
	}
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := New(WithDiscoverer(&stubDiscoverer{}))
	s.GetAsync(context.Background())

	c := s.Get()
	c.SessionCookie = "mutated"
	c.Debug.LogCacheStatus = true

	if got := s.Get(); got.SessionCookie != "session" || got.Debug.LogCacheStatus {
		t.Errorf("store changed through a returned value: %+v", got)
	}
}

func TestStore_WithDefaults(t *testing.T) {
	defaults := Default()
	defaults.AuthScheme = "Token"
	s := New(WithDiscoverer(&stubDiscoverer{}), WithDefaults(defaults))

	if got := s.GetAsync(context.Background()).AuthScheme; got != "Token" {
		t.Errorf("AuthScheme = %q, want Token", got)
	}
}

func TestStore_Fingerprint(t *testing.T) {
	d := &stubDiscoverer{values: map[string]any{"logLevel": "warn"}}
	a := New(WithDiscoverer(d))
	b := New(WithDiscoverer(d))
	a.GetAsync(context.Background())
	b.GetAsync(context.Background())

	if a.Fingerprint() != b.Fingerprint() {
		t.Error("equal configs should share a fingerprint")
	}

	d.set(map[string]any{"logLevel": "debug"})
	before := a.Fingerprint()
	a.Reload(context.Background())
	if a.Fingerprint() == before {
		t.Error("fingerprint should change with content")
	}
}

func TestStore_Watch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cachesignal.config.json")
	writeFile(t, path, `{"sessionCookie":"first"}`)

	s := New(WithDiscoverer(FileDiscoverer{Dir: dir, Getenv: noEnv}))
	if got := s.GetAsync(context.Background()).SessionCookie; got != "first" {
		t.Fatalf("SessionCookie = %q, want first", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(path, []byte(`{"sessionCookie":"second"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for s.Get().SessionCookie != "second" {
		if time.Now().After(deadline) {
			t.Fatalf("SessionCookie = %q after change, want second", s.Get().SessionCookie)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() = %v", err)
	}
}

func TestStore_WatchRecoversFromMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cachesignal.config.json")
	writeFile(t, path, `{"sessionCookie":`)

	s := New(WithDiscoverer(FileDiscoverer{Dir: dir, Getenv: noEnv}))
	s.GetAsync(context.Background())
	if s.LastError() == nil {
		t.Fatal("expected a parse error")
	}
	if s.Source() != path {
		t.Fatalf("Source() = %q, want %q", s.Source(), path)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx) }()
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(path, []byte(`{"sessionCookie":"fixed"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for s.Get().SessionCookie != "fixed" {
		if time.Now().After(deadline) {
			t.Fatalf("SessionCookie = %q after fix, want fixed", s.Get().SessionCookie)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err := s.LastError(); err != nil {
		t.Errorf("LastError() = %v after fix", err)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() = %v", err)
	}
}

func TestStore_WatchWithoutSource(t *testing.T) {
	empty := New(WithDiscoverer(DiscovererFunc(func(context.Context) (Discovered, error) {
		return Discovered{}, nil
	})))
	if err := empty.Watch(context.Background()); !errors.Is(err, ErrNoSource) {
		t.Errorf("Watch() = %v, want ErrNoSource", err)
	}
}

func TestStore_HealthChecker(t *testing.T) {
	ok := New(WithDiscoverer(&stubDiscoverer{}))
	if r := ok.HealthChecker().Check(context.Background()); r.Status != health.StatusHealthy {
		t.Errorf("healthy store: %s", r.Status)
	}

	broken := New(WithDiscoverer(&stubDiscoverer{err: errors.New("bad yaml")}))
	r := broken.HealthChecker().Check(context.Background())
	if r.Status != health.StatusDegraded || r.Error == nil {
		t.Errorf("broken store: %s / %v", r.Status, r.Error)
	}
}

func TestStore_ResolvesFileSecrets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "hook"), "from-file\n")
	t.Setenv(EnvSecretsDir, dir)

	d := &stubDiscoverer{values: map[string]any{
		"webhook": map[string]any{"token": "secretref:file:hook"},
	}}
	s := New(WithDiscoverer(d))

	if got := s.GetAsync(context.Background()).Webhook.Token; got != "from-file" {
		t.Errorf("Webhook.Token = %q, want from-file", got)
	}
}
