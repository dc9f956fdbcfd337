package resilience

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Registry holds one Policy per dependency name for the life of the process.
type Registry struct {
	mu       sync.RWMutex
	policies map[string]*Policy
	factory  func(name string) *Policy
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithDefaultPolicy sets the factory used for names that were never
// registered. The default factory attaches a CircuitBreaker with default
// configuration.
func WithDefaultPolicy(factory func(name string) *Policy) RegistryOption {
	return func(r *Registry) {
		r.factory = factory
	}
}

// NewRegistry creates an empty dependency registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		policies: make(map[string]*Policy),
		factory: func(name string) *Policy {
			return NewPolicy(name, WithBreaker(NewCircuitBreaker(CircuitBreakerConfig{Name: name})))
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a policy. Registering a name twice is an error.
func (r *Registry) Register(p *Policy) error {
	if p == nil || strings.TrimSpace(p.name) == "" {
		return fmt.Errorf("resilience: invalid policy registration")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.policies[p.name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateDependency, p.name)
	}
	r.policies[p.name] = p
	return nil
}

// Get returns the policy for name, creating a default one on first use.
func (r *Registry) Get(name string) *Policy {
	r.mu.RLock()
	p, ok := r.policies[name]
	r.mu.RUnlock()
	if ok {
		return p
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.policies[name]; ok {
		return p
	}
	p = r.factory(name)
	r.policies[name] = p
	return p
}

// Lookup returns the policy for name without creating one.
func (r *Registry) Lookup(name string) (*Policy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.policies[name]
	return p, ok
}

// Names returns the registered dependency names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.policies))
	for name := range r.policies {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Reset closes the named dependency's breaker.
func (r *Registry) Reset(name string) error {
	p, ok := r.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDependency, name)
	}
	if p.breaker != nil {
		p.breaker.Reset()
	}
	return nil
}

// ResetAll closes every breaker.
func (r *Registry) ResetAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.policies {
		if p.breaker != nil {
			p.breaker.Reset()
		}
	}
}

// DependencySnapshot describes one dependency's protection state.
type DependencySnapshot struct {
	Name     string
	Breaker  *CircuitBreakerMetrics
	Bulkhead *BulkheadMetrics
	Tokens   *float64
	Timeout  time.Duration
}

// Snapshot returns the state of every dependency in name order.
func (r *Registry) Snapshot() []DependencySnapshot {
	names := r.Names()
	out := make([]DependencySnapshot, 0, len(names))

	for _, name := range names {
		p, ok := r.Lookup(name)
		if !ok {
			continue
		}
		s := DependencySnapshot{Name: name, Timeout: p.timeout}
		if p.breaker != nil {
			m := p.breaker.Metrics()
			s.Breaker = &m
		}
		if p.bulkhead != nil {
			m := p.bulkhead.Metrics()
			s.Bulkhead = &m
		}
		if p.rateLimiter != nil {
			tokens := p.rateLimiter.Tokens()
			s.Tokens = &tokens
		}
		out = append(out, s)
	}
	return out
}
