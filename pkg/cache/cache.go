// Package cache stores computed layouts so repeated layout queries for an
// unchanged chart skip the placement pass.
//
// Three backends implement [Cache]:
//
//   - [NullCache] never stores anything (caching disabled)
//   - [FileCache] keeps entries as JSON files for CLI usage
//   - [RedisCache] shares entries between server replicas
//
// Keys are content addressed: [Keyer.LayoutKey] hashes the chart together
// with the stage size, so any edit to the chart yields a new key and stale
// entries simply age out through their TTL.
package cache

import (
	"context"
	"time"
)

// Default TTLs per entry type.
const (
	// TTLLayout bounds how long a computed layout stays cached.
	TTLLayout = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry TTL.
// A TTL of zero or less stores the entry without expiry.
type Cache interface {
	// Get returns the cached data and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	// Clear removes all entries and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}

// LayoutKeyOpts are the inputs besides the chart that change a layout.
type LayoutKeyOpts struct {
	StageWidth  float64 `json:"w"`
	StageHeight float64 `json:"h"`
}

// Keyer generates cache keys.
type Keyer interface {
	// LayoutKey returns the key for the layout of a chart with the given
	// content hash.
	LayoutKey(chartHash string, opts LayoutKeyOpts) string
}

// DefaultKeyer generates unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey returns "layout:<sha256>" over the chart hash and options.
func (DefaultKeyer) LayoutKey(chartHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", chartHash, opts)
}
