package cache

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Option configures cache behavior using the functional options pattern.
type Option[V any] func(*cacheOptions[V])

// cacheOptions holds internal configuration for cache instances.
// Stats are always collected; Prometheus export is opt-in via WithMetrics().
type cacheOptions[V any] struct {
	// metricsReg is optional - if provided, cache stats are also exposed as
	// Prometheus metrics under the given cache name label.
	metricsReg  prometheus.Registerer
	metricsName string

	// evictCallback is called when items are evicted from the cache
	evictCallback EvictCallback[V]
}

// WithMetrics enables Prometheus metrics export for cache statistics.
// If reg is nil or name is empty, the option is ignored.
func WithMetrics[V any](reg prometheus.Registerer, name string) Option[V] {
	return func(opts *cacheOptions[V]) {
		if reg != nil && name != "" {
			opts.metricsReg = reg
			opts.metricsName = name
		}
	}
}

// WithEvictionCallback sets a callback invoked when items are evicted.
// The callback receives the key and value of the evicted entry.
func WithEvictionCallback[V any](callback EvictCallback[V]) Option[V] {
	return func(opts *cacheOptions[V]) {
		opts.evictCallback = callback
	}
}

// applyOptions applies functional options to create final cache configuration.
func applyOptions[V any](options ...Option[V]) *cacheOptions[V] {
	opts := &cacheOptions[V]{}

	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}

	return opts
}
