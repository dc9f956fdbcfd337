package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/maypok86/otter/v2"
	"github.com/maypok86/otter/v2/stats"
)

// MemoryCache is an in-process Cache backed by otter. Entries expire a
// fixed time after they are written; reads do not extend them.
type MemoryCache struct {
	config  Config
	cache   *otter.Cache[string, []byte]
	counter *stats.Counter
}

// Stats contains cache statistics.
type Stats struct {
	Entries   int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRatio returns Hits / (Hits + Misses), or 0 before any lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// neverExpire stands in for "no TTL" in otter's write-expiry calculator.
const neverExpire = 100 * 365 * 24 * time.Hour

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(config Config) (*MemoryCache, error) {
	config = config.withDefaults()

	ttl := config.EffectiveTTL(0)
	if ttl <= 0 {
		ttl = neverExpire
	}

	counter := stats.NewCounter()
	c, err := otter.New(&otter.Options[string, []byte]{
		MaximumSize:      config.Capacity,
		StatsRecorder:    counter,
		ExpiryCalculator: otter.ExpiryWriting[string, []byte](ttl),
	})
	if err != nil {
		return nil, fmt.Errorf("cache: build memory cache: %w", err)
	}

	return &MemoryCache{config: config, cache: c, counter: counter}, nil
}

// Config returns the effective configuration.
func (c *MemoryCache) Config() Config {
	return c.config
}

// Get retrieves a value from the cache. Returns (nil, false) on miss or expiry.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	return c.cache.GetIfPresent(key)
}

// Set stores a value for ttl, clamped to MaxTTL. A ttl of zero or less means
// the value is not cached.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	c.cache.Set(key, value)
	c.cache.SetExpiresAfter(key, c.config.EffectiveTTL(ttl))
	return nil
}

// Delete removes a value from the cache. Idempotent - no error on miss.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.cache.Invalidate(key)
	return nil
}

// Purge removes every entry.
func (c *MemoryCache) Purge() {
	c.cache.InvalidateAll()
}

// Stats returns a snapshot of cache statistics.
func (c *MemoryCache) Stats() Stats {
	snap := c.counter.Snapshot()
	return Stats{
		Entries:   c.cache.EstimatedSize(),
		Hits:      snap.Hits,
		Misses:    snap.Misses,
		Evictions: snap.Evictions,
	}
}

// Close stops the cache's background goroutines.
func (c *MemoryCache) Close() {
	c.cache.StopAllGoroutines()
}

var _ Cache = (*MemoryCache)(nil)
