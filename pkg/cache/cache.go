// Package cache stores derived results (parsed diagrams, rendered exports)
// keyed by a hash of their input.
//
// Three backends implement [Cache]:
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: a shared Redis instance, for teams running forge serve
//   - [NullCache]: caching disabled
//
// Keys come from a [Keyer] so every backend agrees on their layout. A
// [ScopedKeyer] prefixes keys per workspace when several workspaces share
// one backend.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A missing or expired entry is a miss,
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero keeps the entry until it is
	// deleted.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// Clearer is implemented by backends that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Default entry lifetimes.
const (
	// TTLParse keeps parse results for a week. Entries are keyed by content
	// hash, so they never go stale; the TTL only bounds disk use.
	TTLParse = 7 * 24 * time.Hour

	// TTLArtifact keeps rendered exports for a day.
	TTLArtifact = 24 * time.Hour
)

// Keyer builds cache keys.
type Keyer interface {
	// ParseKey is the key of the parse result of a document.
	ParseKey(language, contentHash string) string

	// ArtifactKey is the key of an export of diagram data in a format.
	ArtifactKey(dataHash, format string) string
}

// keyVersion is bumped when the layout of cached values changes.
const keyVersion = "v1"

// DefaultKeyer hashes the key components under a fixed prefix per kind.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ParseKey returns "parse:<sha256>".
func (DefaultKeyer) ParseKey(language, contentHash string) string {
	return hashKey("parse", keyVersion, language, contentHash)
}

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(dataHash, format string) string {
	return hashKey("artifact", keyVersion, dataHash, format)
}
