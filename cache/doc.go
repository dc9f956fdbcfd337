// Package cache provides read-through caching for downstream responses.
//
// MemoryCache is an otter-backed TTL cache of encoded values. Loader layers
// a typed read-through on top of any Cache: values are encoded with a Codec
// (MessagePack by default) and concurrent misses for one key are collapsed
// into a single fetch with singleflight. Fetch errors are never cached, so a
// failing dependency is retried on the next request and its circuit breaker
// sees every attempt.
package cache
