package domain

import (
	"sync"
	"time"
)

// ActivityEntry is a human-readable lifecycle event kept for observability.
// The activity log is not authoritative state; it can be lost and rebuilt
// without affecting correctness.
type ActivityEntry struct {
	ID           int64
	OrderID      string
	Type         string
	Message      string
	CustomerName string
	Timestamp    time.Time
}

// ActivityFeed is a bounded, most-recent-first ring of activity entries.
// Each actor keeps its own local feed; the durable copy lives in the store.
type ActivityFeed struct {
	mu      sync.RWMutex
	max     int
	entries []ActivityEntry
}

// NewActivityFeed creates a feed retaining at most max entries.
func NewActivityFeed(max int) *ActivityFeed {
	if max < 1 {
		max = 1
	}
	return &ActivityFeed{max: max}
}

// Add prepends an entry, dropping the oldest once the cap is reached.
func (f *ActivityFeed) Add(entry ActivityEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entries = append([]ActivityEntry{entry}, f.entries...)
	if len(f.entries) > f.max {
		f.entries = f.entries[:f.max]
	}
}

// Recent returns up to limit entries, newest first.
func (f *ActivityFeed) Recent(limit int) []ActivityEntry {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if limit <= 0 || limit > len(f.entries) {
		limit = len(f.entries)
	}

	out := make([]ActivityEntry, limit)
	copy(out, f.entries[:limit])
	return out
}

// Len returns the number of retained entries.
func (f *ActivityFeed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}
