// Package health reports whether the cache signalling components can do
// their job.
//
// A Checker reports one component: the config store reports whether its
// last discovery succeeded, the revalidation dispatcher reports whether an
// invalidation primitive is available, and the remote client reports
// whether its webhook answers. An Aggregator runs its checkers one after
// another in registration order; the worst status wins. Handler serves the
// aggregate as JSON.
//
//	agg := health.NewAggregator()
//	agg.Register("config", store.HealthChecker())
//	agg.Register("revalidate", dispatcher.HealthChecker())
//	http.Handle("/healthz", health.Handler(agg))
//
// Degraded is not a failure: a client without invalidation support keeps
// serving reads, so Handler answers 200 for it and 503 only for Unhealthy.
package health
