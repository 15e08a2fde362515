// Package repository defines the analysis store interface and errors.
package repository

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithMaxAnalyses bounds the number of retained analyses; the oldest are
// evicted first. Zero or negative disables eviction.
func WithMaxAnalyses(n int) Option {
	return func(s *MemStore) {
		s.maxAnalyses = n
	}
}
