package resilience

import (
	"context"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed lets calls through.
	StateClosed State = iota
	// StateOpen rejects calls with ErrCircuitOpen.
	StateOpen
	// StateHalfOpen lets a single probe call through.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the circuit.
	// Default: 5
	MaxFailures int

	// ResetTimeout is how long the circuit stays open before a probe.
	// Default: 30s
	ResetTimeout time.Duration

	// OnStateChange is called after every transition, outside the lock.
	OnStateChange func(from, to State)

	// IsFailure reports whether err counts against the circuit.
	// Default: any non-nil error.
	IsFailure func(err error) bool
}

// CircuitBreaker stops calling a dependency after repeated failures.
type CircuitBreaker struct {
	config CircuitBreakerConfig
	now    func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool
}

// NewCircuitBreaker creates a closed circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}
	return &CircuitBreaker{config: config, now: time.Now}
}

// Execute runs op unless the circuit is open.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}
	err := op(ctx)
	cb.record(cb.config.IsFailure(err))
	return err
}

// State returns the current state, moving open to half-open once the reset
// timeout has passed.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	from, to := cb.refreshLocked()
	state := cb.state
	cb.mu.Unlock()
	cb.notify(from, to)
	return state
}

// Reset closes the circuit and clears the failure count.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	from := cb.state
	cb.state = StateClosed
	cb.failures = 0
	cb.probing = false
	cb.mu.Unlock()
	cb.notify(from, StateClosed)
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	from, to := cb.refreshLocked()
	var err error
	switch cb.state {
	case StateOpen:
		err = ErrCircuitOpen
	case StateHalfOpen:
		if cb.probing {
			err = ErrCircuitOpen
		} else {
			cb.probing = true
		}
	}
	cb.mu.Unlock()
	cb.notify(from, to)
	return err
}

func (cb *CircuitBreaker) record(failed bool) {
	cb.mu.Lock()
	from := cb.state
	switch {
	case cb.state == StateHalfOpen && failed:
		cb.state = StateOpen
		cb.openedAt = cb.now()
	case cb.state == StateHalfOpen:
		cb.state = StateClosed
		cb.failures = 0
	case failed:
		cb.failures++
		if cb.failures >= cb.config.MaxFailures {
			cb.state = StateOpen
			cb.openedAt = cb.now()
		}
	default:
		cb.failures = 0
	}
	cb.probing = false
	to := cb.state
	cb.mu.Unlock()
	cb.notify(from, to)
}

// refreshLocked applies the open -> half-open timeout. Caller holds mu.
func (cb *CircuitBreaker) refreshLocked() (from, to State) {
	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.config.ResetTimeout {
		cb.state = StateHalfOpen
		cb.probing = false
		return StateOpen, StateHalfOpen
	}
	return cb.state, cb.state
}

func (cb *CircuitBreaker) notify(from, to State) {
	if from != to && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(from, to)
	}
}
