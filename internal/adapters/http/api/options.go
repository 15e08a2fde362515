// Package api declares HTTP contracts and route registration helpers.
package api

// Default API limits.
const (
	defaultMaxUploadBytes = 16 << 20 // 16MB, matching the original upload cap
	defaultMaxLimit       = 100
)

// Option applies a configuration option to the Server.
type Option func(*options)

type options struct {
	maxUploadBytes int64
	maxLimit       int
}

func defaultOptions() *options {
	return &options{
		maxUploadBytes: defaultMaxUploadBytes,
		maxLimit:       defaultMaxLimit,
	}
}

// WithMaxUploadBytes caps the accepted multipart upload size.
func WithMaxUploadBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxUploadBytes = n
		}
	}
}

// WithMaxLeaderboardLimit caps GET leaderboard ?limit.
func WithMaxLeaderboardLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxLimit = n
		}
	}
}
