package resilience

import (
	"context"
	"errors"
	"time"
)

// Executor composes Retry, CircuitBreaker and Timeout around one call.
//
// Contract:
// - Concurrency: safe for concurrent use when its stages are.
// - Order: retry is outermost; each attempt passes the breaker, then runs
//   under the timeout. An open circuit is permanent for the current call.
// - Zero value: an Executor with no stages runs op once.
type Executor struct {
	retry   *Retry
	breaker *CircuitBreaker
	timeout *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates an Executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithRetry retries failed attempts.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) { e.retry = r }
}

// WithCircuitBreaker guards every attempt with cb.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) { e.breaker = cb }
}

// WithTimeout bounds every attempt to d.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.timeout = NewTimeout(TimeoutConfig{Timeout: d}) }
}

// WithTimeoutConfig bounds every attempt with t.
func WithTimeoutConfig(t *Timeout) ExecutorOption {
	return func(e *Executor) { e.timeout = t }
}

// Execute runs op through the configured stages.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	attempt := op

	if e.timeout != nil {
		inner := attempt
		attempt = func(ctx context.Context) error {
			return e.timeout.Execute(ctx, inner)
		}
	}

	if e.breaker != nil {
		inner := attempt
		attempt = func(ctx context.Context) error {
			err := e.breaker.Execute(ctx, inner)
			if errors.Is(err, ErrCircuitOpen) {
				return Permanent(err)
			}
			return err
		}
	}

	if e.retry != nil {
		return e.retry.Execute(ctx, attempt)
	}
	return attempt(ctx)
}

// Breaker returns the circuit breaker stage, or nil.
func (e *Executor) Breaker() *CircuitBreaker {
	return e.breaker
}
