package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepThreshold is the bucket count past which Check opportunistically
// purges expired buckets.
const sweepThreshold = 10_000

type bucket struct {
	count   int
	resetAt time.Time
}

// MemoryStore is a mutex-guarded fixed-window counter map. State is
// process-local: across multiple instances the effective limit is
// max × instance count. Use RedisStore when that matters.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

// MemoryOption customizes a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock overrides the time source, used by tests to step through windows.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore creates an empty in-process store. It lives for the process
// lifetime and is never torn down.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Check implements Store. It never returns an error.
func (s *MemoryStore) Check(_ context.Context, key string, limit Limit) (Result, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		s.buckets[key] = &bucket{count: 1, resetAt: now.Add(limit.Window)}
		s.sweepLocked(now)
		return Result{
			Allowed:    true,
			RetryAfter: ceilSeconds(limit.Window),
			Remaining:  max(limit.Max-1, 0),
		}, nil
	}

	if b.count >= limit.Max {
		return Result{
			Allowed:    false,
			RetryAfter: ceilSeconds(b.resetAt.Sub(now)),
			Remaining:  0,
		}, nil
	}

	b.count++
	s.sweepLocked(now)
	return Result{
		Allowed:    true,
		RetryAfter: ceilSeconds(b.resetAt.Sub(now)),
		Remaining:  max(limit.Max-b.count, 0),
	}, nil
}

// sweepLocked drops expired buckets once the map grows past sweepThreshold.
// Caller holds s.mu.
func (s *MemoryStore) sweepLocked(now time.Time) {
	if len(s.buckets) <= sweepThreshold {
		return
	}
	for key, b := range s.buckets {
		if !now.Before(b.resetAt) {
			delete(s.buckets, key)
		}
	}
}

// Len reports the number of tracked keys, for tests and diagnostics.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}
