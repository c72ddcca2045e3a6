package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Entries older than their window are dropped during the periodic sweep
// so the map stays bounded over the process lifetime.
const sweepInterval = 5 * time.Minute

type entry struct {
	count       int64
	windowStart time.Time
}

// MemoryStore is a process-local Store. State does not survive restarts
// and is not shared between instances; use RedisStore when more than one
// instance serves traffic.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]entry
	lastSweep time.Time
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:   make(map[string]entry),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now, window)

	e, ok := s.entries[key]
	if !ok || now.Sub(e.windowStart) > window {
		s.entries[key] = entry{count: 1, windowStart: now}
		return 1, nil
	}

	e.count++
	s.entries[key] = e
	return e.count, nil
}

// sweep drops expired entries. Caller must hold the mutex.
func (s *MemoryStore) sweep(now time.Time, window time.Duration) {
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	for key, e := range s.entries {
		if now.Sub(e.windowStart) > window {
			delete(s.entries, key)
		}
	}
	s.lastSweep = now
}
