// Package resilience provides per-dependency protection for remote calls.
//
// Every downstream dependency is identified by name and owns a Policy that
// combines up to three guards:
//
//   - Circuit Breaker: stops calls to a dependency whose recent failure rate
//     crossed a threshold, then probes recovery through a half-open phase.
//
//   - Rate Limiter: bounds how fast calls are admitted to the dependency.
//
//   - Bulkhead: bounds how many calls to the dependency run at once.
//
// A Retry policy is also provided for callers that want to repeat failed
// attempts inside their own deadline.
//
// # Circuit breaker
//
// The breaker uses a two-step protocol so that the decision to call and the
// outcome of the call can happen on different goroutines:
//
//	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	    Name:                 "account",
//	    FailureRateThreshold: 0.5,
//	    WindowSize:           10,
//	    OpenDuration:         5 * time.Second,
//	})
//
//	permit, err := cb.Allow()
//	if err != nil {
//	    return fallback // resilience.ErrCircuitOpen
//	}
//	v, err := callAccount(ctx)
//	permit(err)
//
// Two engines implement the Breaker interface: the native sliding-window
// CircuitBreaker and a github.com/sony/gobreaker/v2 adapter (NewGoBreaker).
//
// # Registry
//
// A Registry holds one Policy per dependency name for the life of the
// process. Policies are registered at startup from configuration; unknown
// names get a default breaker on first use.
//
//	reg := resilience.NewRegistry()
//	_ = reg.Register(resilience.NewPolicy("account",
//	    resilience.WithBreaker(cb),
//	    resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 20})),
//	))
//
//	permit, err := reg.Get("account").Admit(ctx)
package resilience
