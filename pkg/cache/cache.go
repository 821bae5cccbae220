// Package cache stores analysis results and rendered artifacts between runs.
//
// The [Cache] interface is a plain byte store with per-entry TTLs. Three
// backends are provided:
//   - [FileCache]: one JSON file per entry under a directory, used by the CLI
//   - [RedisCache]: shared cache for the HTTP server and multiple instances
//   - [NullCache]: caching disabled
//
// Keys are built by a [Keyer] from content hashes, so changing a source file
// or an option produces a new key instead of invalidating old entries.
package cache

import (
	"context"
	"time"
)

// Default TTLs per entry kind.
const (
	// TTLSource applies to declarations extracted from source files.
	TTLSource = 24 * time.Hour
	// TTLArtifact applies to rendered DOT, SVG, PNG and PDF output.
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte store keyed by string.
//
// Get reports a miss with hit == false and a nil error; errors are reserved
// for backend failures. A zero ttl in Set means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry at once.
type Clearer interface {
	Clear(ctx context.Context) (int, error)
}
