package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultCapacity bounds the number of identities tracked in memory.
const DefaultCapacity = 10000

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is a process-local fixed-window limiter with a bounded map.
// It only limits a single instance; use RedisLimiter when the API runs as
// several replicas.
type MemoryLimiter struct {
	cfg      Config
	capacity int

	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

// NewMemoryLimiter constructs an in-memory limiter tracking at most capacity identities.
func NewMemoryLimiter(cfg Config, capacity int) *MemoryLimiter {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryLimiter{
		cfg:      cfg.withDefaults(),
		capacity: capacity,
		windows:  make(map[string]*window),
		now:      time.Now,
	}
}

// Allow implements Limiter.
func (l *MemoryLimiter) Allow(_ context.Context, identity string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.windows[identity]
	if !ok || now.After(entry.resetAt) {
		if !ok && len(l.windows) >= l.capacity {
			l.makeRoomLocked(now)
		}
		l.windows[identity] = &window{count: 1, resetAt: now.Add(l.cfg.Window)}
		return true, nil
	}

	if entry.count >= l.cfg.Max {
		return false, nil
	}

	entry.count++
	return true, nil
}

// Len returns the number of tracked identities.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Sweep drops every window whose reset time has passed and returns how many were removed.
func (l *MemoryLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sweepLocked(l.now())
}

// Run sweeps expired windows every interval until ctx is cancelled.
func (l *MemoryLimiter) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = l.cfg.Window
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

func (l *MemoryLimiter) sweepLocked(now time.Time) int {
	removed := 0
	for key, entry := range l.windows {
		if now.After(entry.resetAt) {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// makeRoomLocked frees one slot, preferring expired windows and otherwise
// evicting the window closest to its reset.
func (l *MemoryLimiter) makeRoomLocked(now time.Time) {
	if l.sweepLocked(now) > 0 {
		return
	}

	var (
		oldestKey string
		oldestAt  time.Time
	)
	for key, entry := range l.windows {
		if oldestKey == "" || entry.resetAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.resetAt
		}
	}
	if oldestKey != "" {
		delete(l.windows, oldestKey)
	}
}
