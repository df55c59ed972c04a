package revalidate

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/cachesignal/config"
	"github.com/jonwraymond/cachesignal/health"
	"github.com/jonwraymond/cachesignal/observe"
	"github.com/jonwraymond/cachesignal/resilience"
	"github.com/jonwraymond/cachesignal/tags"
)

// Options are the per-call settings.
type Options struct {
	// Strategy overrides the configured strategy.
	Strategy Strategy

	// Profile overrides the configured profile for the primary strategy.
	Profile string

	// URL identifies the mutation in logs.
	URL string
}

// Report describes what one Invalidate call did.
type Report struct {
	// Skipped explains why nothing ran; empty when tags were processed.
	Skipped string

	Strategy    Strategy
	Profile     string
	Invalidated []string
	Failed      []string
	Unknown     []string
}

// Skip reasons.
const (
	SkipNever       = "never"
	SkipUnavailable = "unavailable"
	SkipEmpty       = "empty"
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithConfig reads strategy, profile and debug flags from store.
func WithConfig(store *config.Store) Option {
	return func(d *Dispatcher) { d.config = store }
}

// WithLogger sets the logger.
func WithLogger(l observe.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observe.Metrics) Option {
	return func(d *Dispatcher) {
		if m != nil {
			d.metrics = m
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(t observe.Tracer) Option {
	return func(d *Dispatcher) {
		if t != nil {
			d.tracer = t
		}
	}
}

// WithTagStore expands group names and drops unknown tags.
func WithTagStore(s *tags.Store) Option {
	return func(d *Dispatcher) { d.tags = s }
}

// WithRetry retries each failing tag.
func WithRetry(r *resilience.Retry) Option {
	return WithExecutor(resilience.NewExecutor(resilience.WithRetry(r)))
}

// WithExecutor runs each tag's call through e, replacing WithRetry.
func WithExecutor(e *resilience.Executor) Option {
	return func(d *Dispatcher) { d.exec = e }
}

// Dispatcher applies invalidations through an Invalidator.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Probing: the Invalidator is probed at most once per Dispatcher; the
//   outcome never changes afterwards. The probe ignores the cancellation of
//   the caller that started it.
// - Errors: Invalidate never fails; per-tag errors land in the Report,
//   the log and the metrics.
type Dispatcher struct {
	inv     Invalidator
	config  *config.Store
	logger  observe.Logger
	metrics observe.Metrics
	tracer  observe.Tracer
	tags    *tags.Store
	exec    *resilience.Executor

	probes     singleflight.Group
	mu         sync.RWMutex
	capability Capability
}

// NewDispatcher creates a Dispatcher. A nil Invalidator is never available.
func NewDispatcher(inv Invalidator, opts ...Option) *Dispatcher {
	if inv == nil {
		inv = Noop()
	}
	d := &Dispatcher{
		inv:     inv,
		logger:  observe.NopLogger(),
		metrics: observe.NopMetrics(),
		tracer:  observe.NopTracer(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Capability returns the memoized probe result, probing first if needed.
// The probe outlives the caller that started it, so a caller whose context
// ends early gets CapabilityUnknown without affecting the others.
func (d *Dispatcher) Capability(ctx context.Context) Capability {
	d.mu.RLock()
	c := d.capability
	d.mu.RUnlock()
	if c != CapabilityUnknown {
		return c
	}
	if ctx.Err() != nil {
		return CapabilityUnknown
	}

	ch := d.probes.DoChan("probe", func() (any, error) {
		d.mu.RLock()
		c := d.capability
		d.mu.RUnlock()
		if c != CapabilityUnknown {
			return c, nil
		}

		pctx := context.WithoutCancel(ctx)
		c = d.probe(pctx)
		d.mu.Lock()
		d.capability = c
		d.mu.Unlock()
		d.logger.Debug(pctx, "revalidation capability probed", observe.F("capability", c.String()))
		return c, nil
	})
	select {
	case res := <-ch:
		return res.Val.(Capability)
	case <-ctx.Done():
		return CapabilityUnknown
	}
}

func (d *Dispatcher) probe(ctx context.Context) (c Capability) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn(ctx, "revalidation probe panicked", observe.F("panic", fmt.Sprint(r)))
			c = CapabilityUnavailable
		}
	}()
	if p, ok := d.inv.(Prober); ok && !p.Available(ctx) {
		return CapabilityUnavailable
	}
	return CapabilityAvailable
}

// Invalidate invalidates the tags chosen by sel. Each distinct tag is
// invalidated once, at its first position in the selector; repeats and
// group members already seen are skipped.
func (d *Dispatcher) Invalidate(ctx context.Context, sel Selector, opts Options) Report {
	ctx, span := d.tracer.Start(ctx, "revalidate.invalidate",
		attribute.String("revalidate.url", opts.URL),
	)
	defer d.tracer.End(span, nil)

	if sel.IsNever() {
		d.logger.Debug(ctx, "revalidation disabled for request", observe.F("url", opts.URL))
		return Report{Skipped: SkipNever}
	}
	if d.Capability(ctx) != CapabilityAvailable {
		d.logger.Debug(ctx, "revalidation unavailable, skipping", observe.F("url", opts.URL))
		return Report{Skipped: SkipUnavailable}
	}

	cfg := d.settings(ctx)
	if sel.IsEmpty() {
		if cfg.Debug.WarnOnEmptyTags {
			d.logger.Warn(ctx, "mutation without revalidation tags", observe.F("url", opts.URL))
		}
		return Report{Skipped: SkipEmpty}
	}

	report := Report{
		Strategy: d.strategy(opts, cfg),
		Profile:  profile(opts, cfg),
	}
	list, unknown := d.resolve(sel.List())
	report.Unknown = unknown
	if len(unknown) > 0 && cfg.Debug.WarnOnUnknownTags {
		d.logger.Warn(ctx, "unknown revalidation tags dropped",
			observe.F("tags", unknown),
			observe.F("url", opts.URL),
		)
	}
	span.SetAttributes(
		attribute.String("revalidate.strategy", report.Strategy.String()),
		attribute.Int("revalidate.tags", len(list)),
	)
	if len(list) == 0 {
		report.Skipped = SkipEmpty
		return report
	}

	for _, tag := range list {
		fields := []observe.Field{
			observe.F("tag", tag),
			observe.F("strategy", report.Strategy.String()),
		}
		if report.Strategy == StrategyPrimary {
			fields = append(fields, observe.F("profile", report.Profile))
		}
		d.logger.Info(ctx, "revalidating tag", fields...)

		err := d.apply(ctx, tag, report.Strategy, report.Profile)
		d.metrics.RecordInvalidation(ctx, tag, report.Strategy.String(), err)
		if err != nil {
			d.logger.Error(ctx, "revalidation failed",
				observe.F("tag", tag),
				observe.F("strategy", report.Strategy.String()),
				observe.F("error", err),
			)
			report.Failed = append(report.Failed, tag)
			continue
		}
		report.Invalidated = append(report.Invalidated, tag)
	}
	return report
}

// HealthChecker reports Degraded while invalidation is unavailable.
func (d *Dispatcher) HealthChecker() health.Checker {
	return health.NewCheckerFunc("revalidate", func(ctx context.Context) health.Result {
		c := d.Capability(ctx)
		details := map[string]any{"capability": c.String()}
		if c != CapabilityAvailable {
			return health.Degraded("cache invalidation unavailable").WithDetails(details)
		}
		return health.Healthy("cache invalidation available").WithDetails(details)
	})
}

func (d *Dispatcher) settings(ctx context.Context) config.Config {
	if d.config == nil {
		return config.Default()
	}
	return d.config.GetAsync(ctx)
}

func (d *Dispatcher) strategy(opts Options, cfg config.Config) Strategy {
	if opts.Strategy != StrategyDefault {
		return opts.Strategy
	}
	if s, err := ParseStrategy(cfg.RevalidateStrategy); err == nil && s != StrategyDefault {
		return s
	}
	return StrategyPrimary
}

func profile(opts Options, cfg config.Config) string {
	switch {
	case opts.Profile != "":
		return opts.Profile
	case cfg.RevalidateProfile != "":
		return cfg.RevalidateProfile
	default:
		return DefaultProfile
	}
}

// resolve dedupes names in input order. With a tag store attached, groups
// expand in place to their members and unknown names are split out.
func (d *Dispatcher) resolve(names []string) (list, unknown []string) {
	seen := make(map[string]bool, len(names))
	add := func(tag string) {
		if tag != "" && !seen[tag] {
			seen[tag] = true
			list = append(list, tag)
		}
	}
	if d.tags == nil {
		for _, n := range names {
			add(n)
		}
		return list, nil
	}

	v := d.tags.ValidateTagsAndGroups(names)
	for _, n := range v.Valid {
		for _, member := range d.tags.TagsByGroup(n) {
			add(member)
		}
		if d.tags.HasTag(n) {
			add(n)
		}
	}
	return list, v.Invalid
}

func (d *Dispatcher) apply(ctx context.Context, tag string, s Strategy, profile string) error {
	op := func(ctx context.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = resilience.Permanent(fmt.Errorf("%w: %v", ErrPanic, r))
			}
		}()
		if s == StrategySecondary {
			return d.inv.UpdateTag(ctx, tag)
		}
		return d.inv.RevalidateTag(ctx, tag, profile)
	}
	if d.exec == nil {
		return op(ctx)
	}
	return d.exec.Execute(ctx, op)
}
