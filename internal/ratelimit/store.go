// Package ratelimit implements sliding-window request counting with a
// pluggable store: an in-process map for single-instance deployments and a
// Redis adapter for multi-instance ones. The backend is selected once at
// startup and injected; business logic never touches a global map.
package ratelimit

import (
	"context"
	"time"
)

// Store counts requests per key within a sliding window. Implementations
// must make Incr atomic so concurrent checks for one identity never lose
// updates.
type Store interface {
	// Incr increments the counter for key, resetting it when the current
	// window has elapsed. Returns the post-increment count and the window
	// start time.
	Incr(ctx context.Context, key string, window time.Duration) (count int64, start time.Time, err error)
}
