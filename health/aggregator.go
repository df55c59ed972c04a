package health

import (
	"context"
	"slices"
	"sync"
	"time"
)

// AggregatorConfig configures an Aggregator.
type AggregatorConfig struct {
	// Timeout bounds each individual check.
	// Default: 5 seconds
	Timeout time.Duration
}

// NamedResult pairs a result with the name it was registered under.
type NamedResult struct {
	Name   string
	Result Result
}

// Aggregator runs checkers sequentially in registration order.
type Aggregator struct {
	config   AggregatorConfig
	mu       sync.RWMutex
	checkers map[string]Checker
	order    []string
}

// NewAggregator creates an Aggregator.
func NewAggregator(config ...AggregatorConfig) *Aggregator {
	cfg := AggregatorConfig{}
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Aggregator{
		config:   cfg,
		checkers: make(map[string]Checker),
	}
}

// Register adds checker under name. Registering a name again replaces the
// checker but keeps its position.
func (a *Aggregator) Register(name string, checker Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.checkers[name]; !exists {
		a.order = append(a.order, name)
	}
	a.checkers[name] = checker
}

// Unregister removes the checker registered under name.
func (a *Aggregator) Unregister(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.checkers, name)
	a.order = slices.DeleteFunc(a.order, func(n string) bool { return n == name })
}

// CheckerNames returns the registered names in order.
func (a *Aggregator) CheckerNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.order)
}

// Check runs the checker registered under name.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	checker, ok := a.checkers[name]
	a.mu.RUnlock()

	if !ok {
		return Result{}, ErrCheckerNotFound
	}
	return a.run(ctx, checker), nil
}

// CheckAll runs every checker one after another.
func (a *Aggregator) CheckAll(ctx context.Context) []NamedResult {
	a.mu.RLock()
	names := slices.Clone(a.order)
	checkers := make([]Checker, len(names))
	for i, name := range names {
		checkers[i] = a.checkers[name]
	}
	a.mu.RUnlock()

	results := make([]NamedResult, len(names))
	for i, name := range names {
		results[i] = NamedResult{Name: name, Result: a.run(ctx, checkers[i])}
	}
	return results
}

// Overall returns the worst status in results, or Healthy when empty.
func Overall(results []NamedResult) Status {
	status := StatusHealthy
	for _, r := range results {
		status = Worst(status, r.Result.Status)
	}
	return status
}

func (a *Aggregator) run(ctx context.Context, checker Checker) Result {
	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	start := time.Now()
	done := make(chan Result, 1)
	go func() {
		done <- checker.Check(ctx)
	}()

	var result Result
	select {
	case result = <-done:
	case <-ctx.Done():
		result = Unhealthy("check timed out", ErrCheckTimeout)
	}
	if result.Duration == 0 {
		result.Duration = time.Since(start)
	}
	if result.Timestamp.IsZero() {
		result.Timestamp = start
	}
	return result
}

// Checker exposes the aggregate as a single Checker named "aggregate".
func (a *Aggregator) Checker() Checker {
	return NewCheckerFunc("aggregate", func(ctx context.Context) Result {
		results := a.CheckAll(ctx)
		details := make(map[string]any, len(results))
		for _, r := range results {
			details[r.Name] = r.Result.Status.String()
		}
		status := Overall(results)
		return Result{
			Status:    status,
			Message:   status.String(),
			Details:   details,
			Timestamp: time.Now(),
		}
	})
}
