package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/fanout/observe"
)

// LoaderConfig configures a Loader.
type LoaderConfig struct {
	// Codec encodes cached values.
	// Default: MsgpackCodec
	Codec Codec

	// TTL is how long loaded values are cached. Zero defers to the cache's
	// own default where it has one.
	// Default: 0
	TTL time.Duration

	// FetchTimeout bounds a shared fetch. The fetch runs detached from any
	// one caller's cancellation, so a caller giving up early does not fail
	// the others waiting on the same key.
	// Default: 5 seconds
	FetchTimeout time.Duration

	// Logger receives codec and store failures.
	// Default: nop
	Logger observe.Logger
}

// Loader is a read-through cache for values of type T. Concurrent misses for
// the same key share one fetch.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: fetch errors are returned and never cached. Cache and codec
//   failures are logged and fall through to fetch.
type Loader[T any] struct {
	cache        Cache
	codec        Codec
	ttl          time.Duration
	fetchTimeout time.Duration
	logger       observe.Logger
	group        singleflight.Group
}

// NewLoader creates a loader over c. It returns ErrNilCache if c is nil.
func NewLoader[T any](c Cache, config LoaderConfig) (*Loader[T], error) {
	if c == nil {
		return nil, ErrNilCache
	}
	if config.Codec == nil {
		config.Codec = MsgpackCodec{}
	}
	if config.Logger == nil {
		config.Logger = observe.NewNopLogger()
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = 5 * time.Second
	}
	if config.TTL <= 0 {
		if mc, ok := c.(*MemoryCache); ok {
			config.TTL = mc.Config().EffectiveTTL(0)
		}
	}

	return &Loader[T]{
		cache:        c,
		codec:        config.Codec,
		ttl:          config.TTL,
		fetchTimeout: config.FetchTimeout,
		logger:       config.Logger,
	}, nil
}

// Load returns the cached value for key, or calls fetch and caches its
// result. Every caller stops waiting when its own ctx ends; the shared
// fetch keeps running until FetchTimeout for the callers still waiting.
func (l *Loader[T]) Load(ctx context.Context, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := ValidateKey(key); err != nil {
		return zero, err
	}

	if v, ok := l.lookup(ctx, key); ok {
		return v, nil
	}

	ch := l.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.fetchTimeout)
		defer cancel()

		v, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		l.store(fetchCtx, key, v)
		return v, nil
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return zero, r.Err
		}
		v, _ := r.Val.(T)
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Invalidate drops the cached value for key.
func (l *Loader[T]) Invalidate(ctx context.Context, key string) error {
	l.group.Forget(key)
	return l.cache.Delete(ctx, key)
}

func (l *Loader[T]) lookup(ctx context.Context, key string) (T, bool) {
	var v T
	data, ok := l.cache.Get(ctx, key)
	if !ok {
		return v, false
	}
	if err := l.codec.Unmarshal(data, &v); err != nil {
		l.logger.Warn(ctx, "cache entry undecodable", observe.F("key", key), observe.F("error", err))
		_ = l.cache.Delete(ctx, key)
		var zero T
		return zero, false
	}
	return v, true
}

func (l *Loader[T]) store(ctx context.Context, key string, v T) {
	if l.ttl <= 0 {
		return
	}
	data, err := l.codec.Marshal(v)
	if err != nil {
		l.logger.Warn(ctx, "cache entry unencodable", observe.F("key", key), observe.F("error", err))
		return
	}
	if err := l.cache.Set(ctx, key, data, l.ttl); err != nil {
		l.logger.Warn(ctx, "cache store failed", observe.F("key", key), observe.F("error", err))
	}
}
