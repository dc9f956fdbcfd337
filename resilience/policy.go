package resilience

import (
	"context"
	"fmt"
	"time"
)

// Policy composes the resilience patterns guarding one dependency.
type Policy struct {
	name        string
	breaker     Breaker
	rateLimiter *RateLimiter
	bulkhead    *Bulkhead
	timeout     time.Duration
}

// PolicyOption configures a Policy.
type PolicyOption func(*Policy)

// NewPolicy creates a policy for the named dependency.
func NewPolicy(name string, opts ...PolicyOption) *Policy {
	p := &Policy{name: name}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithBreaker adds a circuit breaker to the policy.
func WithBreaker(b Breaker) PolicyOption {
	return func(p *Policy) {
		p.breaker = b
	}
}

// WithRateLimiter adds rate limiting to the policy.
func WithRateLimiter(rl *RateLimiter) PolicyOption {
	return func(p *Policy) {
		p.rateLimiter = rl
	}
}

// WithBulkhead adds bulkhead isolation to the policy.
func WithBulkhead(b *Bulkhead) PolicyOption {
	return func(p *Policy) {
		p.bulkhead = b
	}
}

// WithTimeout sets the default call timeout for the dependency.
func WithTimeout(timeout time.Duration) PolicyOption {
	return func(p *Policy) {
		p.timeout = timeout
	}
}

// Name returns the dependency name.
func (p *Policy) Name() string {
	return p.name
}

// Breaker returns the policy's breaker, or nil.
func (p *Policy) Breaker() Breaker {
	return p.breaker
}

// RateLimiter returns the policy's rate limiter, or nil.
func (p *Policy) RateLimiter() *RateLimiter {
	return p.rateLimiter
}

// Bulkhead returns the policy's bulkhead, or nil.
func (p *Policy) Bulkhead() *Bulkhead {
	return p.bulkhead
}

// Timeout returns the dependency's default call timeout (zero if unset).
func (p *Policy) Timeout() time.Duration {
	return p.timeout
}

// Admit decides whether a call to the dependency may be attempted.
//
// The circuit breaker is consulted first, so an open circuit rejects without
// spending a rate-limit token. A rate-limit rejection releases the breaker
// permit unrecorded. The returned Permit must be called exactly once with
// the call's outcome.
func (p *Policy) Admit(ctx context.Context) (Permit, error) {
	permit := Permit(noopPermit)
	if p.breaker != nil {
		var err error
		if permit, err = p.breaker.Allow(); err != nil {
			return nil, fmt.Errorf("%s: %w", p.name, err)
		}
	}

	if p.rateLimiter != nil {
		if err := p.rateLimiter.Admit(ctx); err != nil {
			permit(fmt.Errorf("%w: %w", ErrNotAttempted, err))
			return nil, fmt.Errorf("%s: %w", p.name, err)
		}
	}
	return permit, nil
}

// Enter acquires a bulkhead slot for the duration of one call. The returned
// release func must be called when the call returns.
func (p *Policy) Enter(ctx context.Context) (release func(), err error) {
	if p.bulkhead == nil {
		return func() {}, nil
	}
	if err := p.bulkhead.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", p.name, err)
	}
	return p.bulkhead.Release, nil
}

// Execute runs the operation through all configured patterns.
//
// The execution order is:
// 1. Circuit Breaker (if configured) - prevents cascading failures
// 2. Rate Limiter (if configured) - limits request rate
// 3. Bulkhead (if configured) - limits concurrency
// 4. Timeout (if configured) - limits execution time through ctx
func (p *Policy) Execute(ctx context.Context, op func(context.Context) error) error {
	permit, err := p.Admit(ctx)
	if err != nil {
		return err
	}

	release, err := p.Enter(ctx)
	if err != nil {
		permit(fmt.Errorf("%w: %w", ErrNotAttempted, err))
		return err
	}
	defer release()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	err = op(ctx)
	permit(err)
	return err
}
