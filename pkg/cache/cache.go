// Package cache provides byte-level caching for fetched viewport regions
// and decoded image assets.
//
// # Backends
//
//   - NullCache: no-op, for tests and cache-disabled runs
//   - FileCache: on-disk entries with TTL, for CLI usage
//   - RedisCache: shared cache for server deployments
//
// # Keys
//
// A Keyer turns domain identities (viewport regions, initial-load
// parameters, image references) into stable string keys. Keys embed a
// hash of their parameters so that any change in the request shape maps
// to a distinct entry.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values under string keys with optional TTL.
type Cache interface {
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// RegionKeyOpts captures the parameters of a viewport region fetch.
type RegionKeyOpts struct {
	MinX, MinY float64
	MaxX, MaxY float64
	MaxDepth   int
}

// InitialKeyOpts captures the parameters of an initial load.
type InitialKeyOpts struct {
	RootID      string
	Generations int
}

// ImageKeyOpts captures the parameters of a bucketed image decode.
type ImageKeyOpts struct {
	PhotoRef string
	BucketPx int
}

// Keyer generates cache keys for the engine's cacheable requests.
type Keyer interface {
	// RegionKey generates a key for a viewport region response.
	RegionKey(treeID string, opts RegionKeyOpts) string
	// InitialKey generates a key for an initial-load response.
	InitialKey(treeID string, opts InitialKeyOpts) string
	// ImageKey generates a key for a decoded image at a given bucket.
	ImageKey(treeID string, opts ImageKeyOpts) string
}

// DefaultKeyer is the standard key scheme: a type prefix, the tree id,
// and a hash of the request parameters.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// RegionKey generates a key for a viewport region response.
func (k *DefaultKeyer) RegionKey(treeID string, opts RegionKeyOpts) string {
	return hashKey("region:"+treeID, opts.MinX, opts.MinY, opts.MaxX, opts.MaxY, opts.MaxDepth)
}

// InitialKey generates a key for an initial-load response.
func (k *DefaultKeyer) InitialKey(treeID string, opts InitialKeyOpts) string {
	return hashKey("initial:"+treeID, opts.RootID, opts.Generations)
}

// ImageKey generates a key for a decoded image at a given bucket.
func (k *DefaultKeyer) ImageKey(treeID string, opts ImageKeyOpts) string {
	return hashKey("image:"+treeID, opts.PhotoRef, opts.BucketPx)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
