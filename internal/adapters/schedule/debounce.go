// Package schedule provides a restartable, trailing-edge debounce timer.
package schedule

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/pelada/pkg/metrics"
)

const defaultWindow = time.Second

// Clock is the subset of clockwork used here. Production uses
// clockwork.NewRealClock(); tests use a FakeClock.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) clockwork.Timer
}

// Option applies a configuration option to the Debouncer.
type Option func(*Debouncer)

// WithClock overrides the clock.
func WithClock(c Clock) Option {
	return func(d *Debouncer) {
		if c != nil {
			d.clock = c
		}
	}
}

// Debouncer runs the most recently triggered function once the quiet window
// has elapsed without another trigger. At most one function is pending.
type Debouncer struct {
	clock  Clock
	window time.Duration

	mu    sync.Mutex
	gen   uint64
	timer clockwork.Timer
	stop  chan struct{}
	fn    func()
}

// NewDebouncer creates a debouncer with the given quiet window.
func NewDebouncer(window time.Duration, opts ...Option) *Debouncer {
	if window <= 0 {
		window = defaultWindow
	}
	d := &Debouncer{
		clock:  clockwork.NewRealClock(),
		window: window,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Trigger cancels any pending function and schedules fn after the window.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	if d.cancelLocked() {
		metrics.RecordDebounceReschedule()
	}
	d.gen++
	gen := d.gen
	t := d.clock.NewTimer(d.window)
	stop := make(chan struct{})
	d.timer, d.stop, d.fn = t, stop, fn
	d.mu.Unlock()

	go func() {
		select {
		case <-t.Chan():
			d.mu.Lock()
			if d.gen != gen {
				// Superseded between firing and acquiring the lock.
				d.mu.Unlock()
				return
			}
			d.timer, d.stop, d.fn = nil, nil, nil
			d.mu.Unlock()
			fn()
		case <-stop:
		}
	}()
}

// Cancel drops the pending function, reporting whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelLocked()
}

// Pending reports whether a function is waiting for its window to elapse.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Flush runs the pending function now, on the caller's goroutine.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	fn := d.fn
	d.cancelLocked()
	d.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// cancelLocked must be called with d.mu held.
func (d *Debouncer) cancelLocked() bool {
	if d.timer == nil {
		return false
	}
	stopAndDrainTimer(d.timer)
	close(d.stop)
	d.gen++
	d.timer, d.stop, d.fn = nil, nil, nil
	return true
}

func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
