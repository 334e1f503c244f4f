// Package cache provides a small byte cache used to memoize expensive lookups
// across composition runs, such as image header probes.
//
// Three backends are available:
//   - [NullCache] stores nothing and always misses
//   - [FileCache] stores entries as files under a directory (CLI default)
//   - [RedisCache] stores entries in Redis so several workers can share them
//
// Keys are built with [Key], which hashes arbitrary parts under a readable
// prefix.
package cache

import (
	"context"
	"time"
)

// Cache is a key/value byte store with optional expiry.
type Cache interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
