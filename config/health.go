package config

import (
	"context"

	"github.com/jonwraymond/cachesignal/health"
)

// HealthChecker reports Degraded while the store runs on defaults because
// its last discovery failed.
func (s *Store) HealthChecker() health.Checker {
	return health.NewCheckerFunc("config", func(ctx context.Context) health.Result {
		s.GetAsync(ctx)
		details := map[string]any{"source": s.Source()}
		if err := s.LastError(); err != nil {
			r := health.Degraded("config discovery failed, using defaults").WithDetails(details)
			r.Error = err
			return r
		}
		return health.Healthy("config loaded").WithDetails(details)
	})
}
