package persist

import (
	"time"

	"github.com/okian/pelada/internal/adapters/schedule"
	"github.com/okian/pelada/internal/domain/savekey"
	"github.com/okian/pelada/pkg/logger"
)

// Option applies a configuration option to the Controller.
type Option func(*Controller)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDebounce sets the quiet window before a silent save.
func WithDebounce(window time.Duration) Option {
	return func(c *Controller) {
		if window > 0 {
			c.window = window
		}
	}
}

// WithClock overrides the debounce clock.
func WithClock(clock schedule.Clock) Option {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithTracker sets the last-persisted key tracker, typically seeded with the
// key of the state the session was opened from.
func WithTracker(t savekey.Tracker) Option {
	return func(c *Controller) {
		if t != nil {
			c.tracker = t
		}
	}
}

// WithSilentTimeout bounds a single silent write.
func WithSilentTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.silentTimeout = d
		}
	}
}
