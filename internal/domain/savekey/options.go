package savekey

// Option applies a configuration option to the tracker.
type Option func(*inMemoryTracker)

// WithPersisted seeds the tracker with the key of state already held by the
// backend, e.g. the state a session was opened from.
func WithPersisted(key string) Option {
	return func(t *inMemoryTracker) {
		t.last = key
	}
}
