// Package resilience provides the execution guards used by the check engine,
// the healer and the recovery runner.
//
// # Patterns
//
//   - Within: races an operation against a deadline and converts panics
//     into errors. The engine uses it for per-check timeouts.
//
//   - Retry: re-runs a failed operation with exponential, linear or
//     constant backoff, gated by a RetryIf predicate.
//
//   - Circuit Breaker: stops calling a fix that keeps failing. Breakers
//     hands out one breaker per name so each healer trips independently.
//
//   - Bulkhead: bounds concurrent operations, optionally blocking until a
//     slot frees up.
//
// # Usage
//
//	breakers := resilience.NewBreakers(resilience.CircuitBreakerConfig{
//	    MaxFailures:  3,
//	    ResetTimeout: 5 * time.Minute,
//	})
//
//	exec := resilience.NewExecutor(
//	    resilience.WithCircuitBreaker(breakers.Get("node-version")),
//	    resilience.WithTimeout(30*time.Second),
//	)
//
//	err := exec.Execute(ctx, func(ctx context.Context) error {
//	    return fix(ctx)
//	})
package resilience
