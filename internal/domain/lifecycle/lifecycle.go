// Package lifecycle owns a match's status, transition legality and the
// lock that freezes a finished match.
//
//	not_started -> in_progress        (first goal, or operator)
//	in_progress -> finished           (finalize, confirmed)
//	finished    -> in_progress        (unlock, confirmed)
//	in_progress -> not_started        (reset, confirmed; clears the log)
//
// The operator status selector may jump to any state.
package lifecycle

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/pelada/internal/domain/model"
	"github.com/okian/pelada/internal/domain/scoring"
	"github.com/okian/pelada/pkg/logger"
	"github.com/okian/pelada/pkg/metrics"
)

// Derive computes the status implied by the data when no override exists.
func Derive(m *model.Match, events []model.GoalEvent) model.Status {
	official := m.OfficialScore
	if len(events) == 0 && (official == nil || official.Total() == 0) {
		return model.StatusNotStarted
	}
	if official == nil || scoring.Tally(m, events) != *official {
		return model.StatusInProgress
	}
	return model.StatusFinished
}

// Option applies a configuration option to the Machine.
type Option func(*Machine)

// WithLogger sets a custom logger for the machine.
func WithLogger(l logger.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// Machine is the status state machine of one match.
type Machine struct {
	mu      sync.Mutex
	matchID model.MatchID
	status  model.Status
	store   OverrideStore
	logger  logger.Logger
}

// New creates a machine starting at initial.
func New(matchID model.MatchID, initial model.Status, store OverrideStore, opts ...Option) *Machine {
	m := &Machine{
		matchID: matchID,
		status:  initial,
		store:   store,
		logger:  logger.Get().Named("lifecycle"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initial resolves the opening status: the stored override when present,
// otherwise the derived one.
func Initial(ctx context.Context, store OverrideStore, m *model.Match, events []model.GoalEvent) (model.Status, bool, error) {
	if store != nil {
		st, ok, err := store.Get(ctx, m.ID)
		if err != nil {
			return "", false, fmt.Errorf("read status override: %w", err)
		}
		if ok {
			return st, true, nil
		}
	}
	return Derive(m, events), false, nil
}

// Status returns the current status.
func (m *Machine) Status() model.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Guard rejects mutations while the match is locked.
func (m *Machine) Guard() error {
	if m.Status().Locked() {
		return ErrMatchLocked
	}
	return nil
}

// GoalAdded moves a not-started match into progress. It reports whether the
// status changed.
func (m *Machine) GoalAdded(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.status {
	case model.StatusFinished:
		return false, ErrMatchLocked
	case model.StatusNotStarted:
		m.transition(ctx, model.StatusInProgress, "goal_added")
		return true, nil
	}
	return false, nil
}

// Select applies an operator override, bypassing transition guards.
// It returns the previous status.
func (m *Machine) Select(ctx context.Context, to model.Status) (model.Status, error) {
	if _, err := model.ParseStatus(string(to)); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.status
	m.transition(ctx, to, "operator")
	return prev, nil
}

// ClearOverride drops the stored override and falls back to derived, the
// status implied by the data. It returns the previous status. Unlike other
// transitions a store failure is returned and the status is left unchanged.
func (m *Machine) ClearOverride(ctx context.Context, derived model.Status) (model.Status, error) {
	if _, err := model.ParseStatus(string(derived)); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store != nil {
		if err := m.store.Delete(ctx, m.matchID); err != nil {
			metrics.RecordErrorByComponent("lifecycle", "override_delete")
			return "", fmt.Errorf("clear status override: %w", err)
		}
	}
	prev := m.status
	m.status = derived
	metrics.RecordStatusTransition(string(prev), string(derived), "override_cleared")
	return prev, nil
}

// CheckFinalize validates a finalize request without applying it.
func (m *Machine) CheckFinalize(confirmed bool) error {
	if !confirmed {
		return fmt.Errorf("finalize: %w", ErrConfirmationRequired)
	}
	if m.Status() == model.StatusFinished {
		return fmt.Errorf("%w: match already finished", ErrInvalidTransition)
	}
	return nil
}

// Finalized locks the match after a successful commit.
func (m *Machine) Finalized(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transition(ctx, model.StatusFinished, "finalize")
}

// Unlock reopens a finished match for correction.
func (m *Machine) Unlock(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return fmt.Errorf("unlock: %w", ErrConfirmationRequired)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != model.StatusFinished {
		return fmt.Errorf("%w: unlock from %s", ErrInvalidTransition, m.status)
	}
	m.transition(ctx, model.StatusInProgress, "unlock")
	return nil
}

// Reset returns the match to not_started. The caller clears the log.
func (m *Machine) Reset(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return fmt.Errorf("reset: %w", ErrConfirmationRequired)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status == model.StatusFinished {
		return ErrMatchLocked
	}
	m.transition(ctx, model.StatusNotStarted, "reset")
	return nil
}

// transition must be called with m.mu held. Override write failures are
// logged; the in-memory status stays authoritative.
func (m *Machine) transition(ctx context.Context, to model.Status, trigger string) {
	from := m.status
	m.status = to
	metrics.RecordStatusTransition(string(from), string(to), trigger)
	if m.store == nil {
		return
	}
	if err := m.store.Put(ctx, m.matchID, to); err != nil {
		metrics.RecordErrorByComponent("lifecycle", "override_write")
		m.logger.Warn(ctx, "failed to store status override",
			logger.String("match", string(m.matchID)),
			logger.String("status", string(to)),
			logger.Error(err),
		)
	}
}
