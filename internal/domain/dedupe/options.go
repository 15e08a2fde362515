// Package dedupe maps dataset fingerprints to analysis ids.
package dedupe

// Option applies a configuration option to the inMemoryDeduper.
type Option func(*inMemoryDeduper)

// WithMaxSize sets the maximum number of fingerprints to keep in memory.
// If maxSize > 0: bounded mode with LIFO eviction.
// If maxSize <= 0: unbounded mode (no eviction, no size limit).
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}
