// Package cache stores finished layouts keyed by the content of their input.
//
// A layout is a pure function of the graph document and the layout options,
// so the [DefaultKeyer] derives keys from a BLAKE3 hash of both. Three
// backends implement [Cache]:
//
//   - [NullCache] never stores anything and disables caching
//   - [FileCache] keeps entries as files, used by the CLI
//   - [RedisCache] shares entries between API server instances
//
// All backends are safe for concurrent use.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key-value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A missing or expired entry is a miss,
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 keeps the entry forever.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry owned by the cache.
	Clear(ctx context.Context) error

	Close() error
}
