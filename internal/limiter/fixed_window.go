package limiter

import (
	"sync"
	"time"
)

type entry struct {
	count    int
	resetAt  time.Time
	lastSeen time.Time
}

// FixedWindow counts requests per key within fixed time windows. The entry
// map is capped: when full, the least-recently-seen key is evicted, which
// bounds memory at the cost of occasionally under-counting an evicted key.
type FixedWindow struct {
	limit    int
	window   time.Duration
	capacity int

	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
}

func NewFixedWindow(limit int, window time.Duration, capacity int) *FixedWindow {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	if capacity <= 0 {
		capacity = 5000
	}

	return &FixedWindow{
		limit:    limit,
		window:   window,
		capacity: capacity,
		entries:  make(map[string]*entry),
		now:      time.Now,
	}
}

// Check admits or rejects one request for key. When rejected, resetAt tells
// the caller when the current window ends so it can back off.
func (l *FixedWindow) Check(key string) (allowed bool, resetAt time.Time) {
	now := l.now().UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, exists := l.entries[key]
	if !exists || !e.resetAt.After(now) {
		if !exists {
			l.evictLocked(now)
			e = &entry{}
			l.entries[key] = e
		}
		e.count = 1
		e.resetAt = now.Add(l.window)
		e.lastSeen = now
		return true, e.resetAt
	}

	e.lastSeen = now
	if e.count >= l.limit {
		return false, e.resetAt
	}

	e.count++
	return true, e.resetAt
}

// Len reports the number of tracked keys.
func (l *FixedWindow) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// evictLocked makes room for one more key. Entries whose window already
// elapsed carry no state and are dropped in bulk, which amortizes the scan
// across many inserts; only when every entry is live does it fall back to
// evicting the single least-recently-seen key.
func (l *FixedWindow) evictLocked(now time.Time) {
	if len(l.entries) < l.capacity {
		return
	}

	for key, e := range l.entries {
		if !e.resetAt.After(now) {
			delete(l.entries, key)
		}
	}
	if len(l.entries) < l.capacity {
		return
	}

	var oldestKey string
	var oldest time.Time
	for key, e := range l.entries {
		if oldestKey == "" || e.lastSeen.Before(oldest) {
			oldestKey = key
			oldest = e.lastSeen
		}
	}
	delete(l.entries, oldestKey)
}
