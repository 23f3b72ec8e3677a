// Package cache provides pluggable caching for discovery results, layouts,
// and export artifacts.
//
// Docker discovery is comparatively expensive (one daemon round-trip per
// container for stats), so the server caches topology snapshots with a short
// TTL and export artifacts keyed by content hash. Three backends implement
// the [Cache] interface:
//
//   - [FileCache]: directory-backed, for CLI usage
//   - [RedisCache]: Redis-backed, for server deployments
//   - [NullCache]: no-op, for tests and --no-cache
//
// Keys are produced by a [Keyer] so that all components agree on the key
// scheme and multi-tenant prefixing stays in one place.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by helpers that treat a missing entry as an
// error rather than a (nil, false) pair.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores opaque byte values with per-entry TTL.
//
// Get returns (data, true, nil) on a hit and (nil, false, nil) on a miss;
// the error return is reserved for backend failures. A TTL of 0 means the
// entry never expires. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
