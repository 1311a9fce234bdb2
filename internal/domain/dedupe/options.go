package dedupe

import "time"

// Option applies a configuration option to the in-memory tracker.
type Option func(*inMemoryTracker)

// WithTTL sets how long a key stays pending before it is considered
// abandoned. A non-positive ttl keeps keys until Unrecord.
func WithTTL(ttl time.Duration) Option {
	return func(d *inMemoryTracker) {
		d.ttl = ttl
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(d *inMemoryTracker) {
		if now != nil {
			d.now = now
		}
	}
}
