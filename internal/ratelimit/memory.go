package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	maxEntries      = 10000
	cleanupInterval = time.Minute
	entryTTL        = 5 * time.Minute
)

type entry struct {
	timestamps []time.Time
	lastAccess time.Time
}

// MemoryLimiter keeps the window in process memory. Counts reset on restart.
type MemoryLimiter struct {
	mu          sync.Mutex
	window      time.Duration
	store       map[string]*entry
	lastCleanup time.Time
	now         func() time.Time
}

func NewMemoryLimiter(window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		window:      window,
		store:       make(map[string]*entry),
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

func (l *MemoryLimiter) cleanup(now time.Time) {
	if now.Sub(l.lastCleanup) < cleanupInterval {
		return
	}
	l.lastCleanup = now

	for key, e := range l.store {
		if now.Sub(e.lastAccess) > entryTTL {
			delete(l.store, key)
		}
	}

	if len(l.store) > maxEntries {
		drop := len(l.store) / 5
		for key := range l.store {
			if drop == 0 {
				break
			}
			delete(l.store, key)
			drop--
		}
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string, limit int) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.cleanup(now)

	e, ok := l.store[key]
	if !ok {
		e = &entry{}
		l.store[key] = e
	}
	e.lastAccess = now

	windowStart := now.Add(-l.window)
	kept := e.timestamps[:0]
	for _, ts := range e.timestamps {
		if ts.After(windowStart) {
			kept = append(kept, ts)
		}
	}
	e.timestamps = kept

	if len(e.timestamps) >= limit {
		return false, e.timestamps[0].Add(l.window)
	}

	e.timestamps = append(e.timestamps, now)
	return true, e.timestamps[0].Add(l.window)
}
