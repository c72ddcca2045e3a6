package ratelimit

import (
	"context"
	"time"
)

// Store counts submission attempts per key within a fixed window.
// Implement this to back the limiter with a different state store.
type Store interface {
	// Incr records one attempt for key and returns the total observed in
	// the current window. A new window starts when the previous one is
	// older than window.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// Limiter enforces a fixed-window quota on top of a Store. Fixed windows
// reset at window boundaries, so a burst straddling a boundary can admit
// up to twice the nominal quota.
type Limiter struct {
	store  Store
	max    int64
	window time.Duration
}

func New(store Store, max int, window time.Duration) *Limiter {
	return &Limiter{
		store:  store,
		max:    int64(max),
		window: window,
	}
}

// Allow reports whether the attempt identified by key fits within the
// current window quota. A store failure admits the request and returns
// the error for logging: an unavailable limiter must not take the form
// endpoints down with it.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		return true, err
	}
	return count <= l.max, nil
}
