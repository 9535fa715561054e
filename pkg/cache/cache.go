// Package cache stores rendered artifacts between export runs. Rasterizing
// a component at print DPI is the slow path of an export, so renders are
// keyed by template identity and render settings and reused when neither
// changed.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-blob store with optional expiry.
type Cache interface {
	// Get returns the cached bytes and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}
