// Package cache stores generated point clouds and rendered artifacts.
//
// Backends implement [Cache]: [FileCache] for the CLI, [RedisCache] for a
// shared server deployment and [NullCache] when caching is disabled. Keys
// come from a [Keyer] so callers never build key strings by hand.
package cache

import (
	"context"
	"time"
)

// Default time-to-live per entry kind. Clouds are fully determined by their
// seed, so they can live long.
const (
	TTLCloud    = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
