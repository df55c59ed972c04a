// Package resilience provides the retry, circuit breaker and timeout
// primitives used around invalidation calls.
//
// Retry re-runs an operation with exponential backoff until it succeeds, the
// attempt budget is spent, the context ends, or the error is marked
// permanent. CircuitBreaker stops calling a failing endpoint until a reset
// timeout has passed. Timeout bounds a single attempt. Executor composes
// them, retry outermost:
//
//	exec := resilience.NewExecutor(
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 3})),
//	    resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{})),
//	    resilience.WithTimeout(10*time.Second),
//	)
//
//	err := exec.Execute(ctx, callWebhook)
package resilience
