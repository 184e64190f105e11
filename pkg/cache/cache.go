// Package cache provides artifact caching for LaneFlow conversions.
//
// Converting the same spec with the same options is fully deterministic, so
// rendered BPMN documents and layout JSON can be cached by content hash.
// Three backends are provided:
//
//   - FileCache: per-user on-disk cache for CLI usage
//   - RedisCache: shared cache for the HTTP service
//   - NullCache: disables caching (tests, --no-cache)
//
// Keys are derived with [Key] from the spec bytes and conversion options, so
// any change to either produces a distinct entry.
package cache

import (
	"context"
	"time"
)

// Cache is the storage interface shared by all backends.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return value reports whether the
	// key was present (a miss is not an error).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the backend.
	Close() error
}
