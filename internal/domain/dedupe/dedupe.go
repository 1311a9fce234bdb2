// Package dedupe tracks rematch requests that are queued or running so an
// identical request is not enqueued twice.
package dedupe

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Tracker records pending keys.
type Tracker interface {
	// SeenAndRecord marks key as pending. It returns true if key was already
	// pending, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord releases key once its job finished or could not be queued.
	Unrecord(ctx context.Context, key string)

	// Size returns the number of pending keys.
	Size() int64
}

// Key builds the pending key for a rematch request.
func Key(gigID string, limit int, enhanced bool) string {
	return gigID + "|" + strconv.Itoa(limit) + "|" + strconv.FormatBool(enhanced)
}

// inMemoryTracker keeps pending keys in a map. Entries older than ttl are
// treated as abandoned and may be recorded again.
type inMemoryTracker struct {
	mu      sync.Mutex
	pending map[string]time.Time
	ttl     time.Duration
	now     func() time.Time
	size    atomic.Int64
}

// NewInMemoryTracker creates a tracker with configuration options.
func NewInMemoryTracker(opts ...Option) Tracker {
	d := &inMemoryTracker{
		pending: make(map[string]time.Time),
		ttl:     10 * time.Minute,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *inMemoryTracker) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if at, ok := d.pending[key]; ok {
		if d.ttl <= 0 || now.Sub(at) < d.ttl {
			return true
		}
		// abandoned entry, take it over without changing size
		d.pending[key] = now
		return false
	}

	d.pending[key] = now
	d.size.Add(1)
	return false
}

func (d *inMemoryTracker) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.pending[key]; ok {
		delete(d.pending, key)
		d.size.Add(-1)
	}
}

func (d *inMemoryTracker) Size() int64 {
	return d.size.Load()
}
