// Package cache provides generic, thread-safe cache implementations used by
// the vocabulary registry and resolver.
//
// Two cache types are offered:
//   - SimpleCache: no eviction policy (stores items until cleared)
//   - LRUCache: least recently used eviction bounded by size
//
// All caches are thread-safe with built-in statistics (always enabled for
// observability) and optional Prometheus metrics via functional options.
package cache

import (
	"github.com/c360/semvocab/errors"
)

// Cache represents a generic cache interface that all implementations satisfy.
// The cache is parameterized by value type V for type safety.
type Cache[V any] interface {
	// Get retrieves a value by key. Returns the value and true if found,
	// zero value and false otherwise.
	Get(key string) (V, bool)

	// Set stores a value with the given key. Returns true if a new entry was
	// created, false if an existing entry was updated.
	Set(key string, value V) (bool, error)

	// Delete removes an entry by key. Returns true if the key existed.
	Delete(key string) (bool, error)

	// Clear removes all entries from the cache.
	Clear() error

	// Size returns the current number of entries in the cache.
	Size() int

	// Keys returns a slice of all keys currently in the cache.
	Keys() []string

	// Stats returns cache statistics. Never nil.
	Stats() *Statistics
}

// EvictCallback is called when an entry is evicted from the cache.
// It receives the key and value of the evicted entry.
type EvictCallback[V any] func(key string, value V)

// validateKey validates a cache key for basic requirements.
// Returns a classified error if the key is invalid.
func validateKey(key string) error {
	if key == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "cache", "validateKey", "key cannot be empty")
	}
	return nil
}
