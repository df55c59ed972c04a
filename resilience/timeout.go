package resilience

import (
	"context"
	"errors"
	"time"
)

// TimeoutConfig configures the timeout stage.
type TimeoutConfig struct {
	// Timeout bounds one call.
	// Default: 10s
	Timeout time.Duration
}

// Timeout bounds how long a single call may run.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout creates a timeout stage with defaults applied.
func NewTimeout(config TimeoutConfig) *Timeout {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &Timeout{config: config}
}

// Execute runs op under a deadline. When the deadline passes first it
// returns ErrTimeout without waiting for op, whose context is cancelled.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ctx.Err()
	}
}

// Config returns the timeout configuration.
func (t *Timeout) Config() TimeoutConfig {
	return t.config
}
