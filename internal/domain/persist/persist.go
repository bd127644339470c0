// Package persist keeps the remote match result eventually consistent with
// local edits: debounced silent saves, skipped when nothing changed, and
// blocking manual and finalize commits that surface errors.
package persist

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/okian/pelada/internal/adapters/schedule"
	"github.com/okian/pelada/internal/domain/model"
	"github.com/okian/pelada/internal/domain/savekey"
	"github.com/okian/pelada/internal/domain/stats"
	"github.com/okian/pelada/internal/domain/types"
	"github.com/okian/pelada/pkg/logger"
	"github.com/okian/pelada/pkg/metrics"
)

const (
	defaultWindow        = time.Second
	defaultSilentTimeout = 10 * time.Second
)

// Writer sends a result payload to the backend. Implementations must be
// idempotent under repeated identical payloads.
type Writer interface {
	SaveResult(ctx context.Context, id model.MatchID, payload types.ResultPayload) error
}

// Snapshot is the state a save is computed from.
type Snapshot struct {
	Status model.Status
	Events []model.GoalEvent
}

// Key returns the save key of the snapshot.
func (s Snapshot) Key() string { return savekey.Compute(s.Status, s.Events) }

func (s Snapshot) clone() Snapshot {
	return Snapshot{Status: s.Status, Events: slices.Clone(s.Events)}
}

// Controller schedules and performs result writes for one match.
type Controller struct {
	match         *model.Match
	writer        Writer
	tracker       savekey.Tracker
	logger        logger.Logger
	window        time.Duration
	clock         schedule.Clock
	silentTimeout time.Duration
	debouncer     *schedule.Debouncer

	seqMu sync.Mutex
	seq   uint64

	// writeMu serializes writes; written is the sequence of the newest
	// snapshot that reached the backend.
	writeMu sync.Mutex
	written uint64
}

// New creates a controller for match m.
func New(m *model.Match, w Writer, opts ...Option) *Controller {
	c := &Controller{
		match:         m,
		writer:        w,
		logger:        logger.Get().Named("persist"),
		window:        defaultWindow,
		silentTimeout: defaultSilentTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tracker == nil {
		c.tracker = savekey.NewTracker()
	}
	var dopts []schedule.Option
	if c.clock != nil {
		dopts = append(dopts, schedule.WithClock(c.clock))
	}
	c.debouncer = schedule.NewDebouncer(c.window, dopts...)
	return c
}

func (c *Controller) next() uint64 {
	c.seqMu.Lock()
	defer c.seqMu.Unlock()
	c.seq++
	return c.seq
}

// Changed schedules a silent save of snap after the quiet window, replacing
// any save already pending.
func (c *Controller) Changed(snap Snapshot) {
	snap = snap.clone()
	seq := c.next()
	c.debouncer.Trigger(func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.silentTimeout)
		defer cancel()
		c.silent(ctx, seq, snap)
	})
}

// silent writes snap unless its key is already persisted or a newer snapshot
// was written. Failures are logged and swallowed.
func (c *Controller) silent(ctx context.Context, seq uint64, snap Snapshot) {
	err := c.write(ctx, metrics.SaveModeSilent, seq, snap)
	if err != nil && !errors.Is(err, errSkipped) {
		c.logger.Warn(ctx, "silent save failed",
			logger.String("match", string(c.match.ID)),
			logger.String("status", string(snap.Status)),
			logger.Int("events", len(snap.Events)),
			logger.Error(err),
		)
	}
}

// Commit writes snap now, regardless of whether its key was persisted.
// Errors wrap ErrWriteFailed and the writer's error.
func (c *Controller) Commit(ctx context.Context, snap Snapshot) error {
	return c.commit(ctx, metrics.SaveModeManual, snap)
}

// Finalize cancels any pending silent save and commits snap with status
// finished. It never waits for the debounce window. When the commit fails, a
// cancelled silent save of snap is scheduled again.
func (c *Controller) Finalize(ctx context.Context, snap Snapshot) error {
	pending := c.debouncer.Cancel()
	final := snap
	final.Status = model.StatusFinished
	if err := c.commit(ctx, metrics.SaveModeFinalize, final); err != nil {
		if pending {
			c.Changed(snap)
		}
		return err
	}
	return nil
}

func (c *Controller) commit(ctx context.Context, mode string, snap Snapshot) error {
	err := c.write(ctx, mode, c.next(), snap.clone())
	if err != nil {
		c.logger.Error(ctx, "result commit failed",
			logger.String("match", string(c.match.ID)),
			logger.String("mode", mode),
			logger.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

// Flush performs the pending silent save immediately.
func (c *Controller) Flush() bool { return c.debouncer.Flush() }

// Cancel drops the pending silent save.
func (c *Controller) Cancel() bool { return c.debouncer.Cancel() }

// Pending reports whether a silent save is scheduled.
func (c *Controller) Pending() bool { return c.debouncer.Pending() }

// Unsaved reports whether snap differs from the last persisted state.
func (c *Controller) Unsaved(snap Snapshot) bool {
	return !c.tracker.Persisted(snap.Key())
}

func (c *Controller) write(ctx context.Context, mode string, seq uint64, snap Snapshot) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	key := snap.Key()
	if mode == metrics.SaveModeSilent {
		// A newer snapshot already reached the backend, or nothing changed.
		if seq < c.written || c.tracker.Persisted(key) {
			metrics.RecordSave(mode, metrics.SaveResultSkipped)
			c.logger.Debug(ctx, "silent save skipped", logger.String("match", string(c.match.ID)))
			return errSkipped
		}
	}

	payload := stats.BuildPayload(c.match, snap.Status, snap.Events)
	start := time.Now()
	err := c.writer.SaveResult(ctx, c.match.ID, payload)
	metrics.RecordSaveLatency(mode, float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordSave(mode, metrics.SaveResultFailure)
		metrics.RecordErrorByComponent("persist", mode+"_write")
		return err
	}

	metrics.RecordSave(mode, metrics.SaveResultSuccess)
	c.tracker.Record(key)
	if seq > c.written {
		c.written = seq
	}
	c.logger.Debug(ctx, "result saved",
		logger.String("match", string(c.match.ID)),
		logger.String("mode", mode),
		logger.String("status", string(snap.Status)),
	)
	return nil
}
