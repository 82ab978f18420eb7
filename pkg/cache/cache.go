// Package cache stores rendered boards keyed by their Graphviz source.
//
// Laying out a board is by far the most expensive step, and the same DOT
// source always produces the same SVG, so renders can be shared between
// runs (file cache) or between processes (Redis cache).
//
//	c, _ := cache.NewFileCache(dir)
//	g, _ := board.New(8, 8, contacts,
//	    board.WithRenderer(cache.WrapRenderer(c, 0, nodelink.RenderSVG)))
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is a byte store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	// Clear removes all entries and reports how many were removed.
	Clear(ctx context.Context) (int, error)
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// RenderKey returns the cache key for the SVG of a DOT document.
func RenderKey(dot string) string {
	return "svg:" + Hash([]byte(dot))
}
