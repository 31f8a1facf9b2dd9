// Package ratelimit provides fixed-window request counting keyed by an
// arbitrary string (typically a client IP). Two store implementations exist:
// an in-process map for single-instance deployments and a Redis-backed store
// for horizontally scaled ones.
package ratelimit

import (
	"context"
	"time"
)

// Limit describes a fixed-window quota.
type Limit struct {
	Window time.Duration
	Max    int
}

// Result reports the outcome of a quota check.
type Result struct {
	// Allowed is false once the key has exhausted its quota for the
	// current window.
	Allowed bool

	// RetryAfter is the remaining window time, rounded up to whole
	// seconds (minimum one second).
	RetryAfter time.Duration

	// Remaining is the number of requests left in the current window.
	Remaining int
}

// Store checks and records a request against a key's quota.
type Store interface {
	Check(ctx context.Context, key string, limit Limit) (Result, error)
}

// ceilSeconds rounds a duration up to whole seconds with a one second floor,
// so Retry-After headers never advertise zero.
func ceilSeconds(d time.Duration) time.Duration {
	secs := (d + time.Second - 1) / time.Second
	if secs < 1 {
		secs = 1
	}
	return secs * time.Second
}
