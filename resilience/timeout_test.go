package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewTimeout_Default(t *testing.T) {
	if d := NewTimeout(TimeoutConfig{}).Config().Timeout; d != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", d)
	}
}

func TestTimeout_Execute(t *testing.T) {
	testErr := errors.New("backend down")
	tm := NewTimeout(TimeoutConfig{Timeout: 20 * time.Millisecond})

	tests := []struct {
		name string
		op   func(context.Context) error
		want error
	}{
		{name: "success", op: func(context.Context) error { return nil }},
		{name: "error passes through", op: func(context.Context) error { return testErr }, want: testErr},
		{name: "slow call times out", op: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}, want: ErrTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tm.Execute(context.Background(), tt.op); !errors.Is(err, tt.want) {
				t.Errorf("Execute() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTimeout_ParentCancelIsNotTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewTimeout(TimeoutConfig{Timeout: time.Second}).Execute(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() = %v, want context.Canceled", err)
	}
}
