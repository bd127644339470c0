// Package editor holds the editing session of one match: the working goal
// log, undo history, lifecycle and persistence, glued together.
package editor

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/okian/pelada/internal/domain/lifecycle"
	"github.com/okian/pelada/internal/domain/model"
	"github.com/okian/pelada/internal/domain/persist"
	"github.com/okian/pelada/internal/domain/reconstruct"
	"github.com/okian/pelada/internal/domain/roster"
	"github.com/okian/pelada/internal/domain/savekey"
	"github.com/okian/pelada/internal/domain/scoring"
	"github.com/okian/pelada/internal/domain/stats"
	"github.com/okian/pelada/pkg/logger"
	"github.com/okian/pelada/pkg/metrics"
)

type resolvedOverride struct {
	status model.Status
	ok     bool
}

// State is a read-only view of the session.
type State struct {
	MatchID      model.MatchID
	Home         model.Team
	Away         model.Team
	Status       model.Status
	Locked       bool
	Score        model.Score
	Events       []model.GoalEvent
	Rosters      roster.Rosters
	Stats        []stats.Line
	Placeholders int
	Warnings     []string
	Unsaved      bool
	SavePending  bool
	CanUndo      bool
}

// Session is the editing session of one match. All methods are safe for
// concurrent use; mutations are applied one at a time.
type Session struct {
	mu       sync.Mutex
	match    *model.Match
	rosters  roster.Rosters
	events   []model.GoalEvent
	history  [][]model.GoalEvent
	warnings []string
	seeded   int

	machine *lifecycle.Machine
	saver   *persist.Controller
	logger  logger.Logger
	nextID  func() string

	override    *resolvedOverride
	persistOpts []persist.Option
}

// Open builds the rosters, reconstructs the working log from the stored
// aggregates and resolves the opening status.
func Open(ctx context.Context, m *model.Match, store lifecycle.OverrideStore, w persist.Writer, opts ...Option) (*Session, error) {
	s := &Session{
		match:  m,
		logger: logger.Get().Named("editor"),
		nextID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.rosters = roster.Build(m)
	res := reconstruct.New(reconstruct.WithIDGenerator(s.nextID)).Reconstruct(m)
	s.events = res.Events
	s.seeded = res.Placeholders
	metrics.RecordPlaceholders(res.Placeholders)
	for _, d := range res.Excess {
		metrics.RecordReconstructExcess()
		s.logger.Warn(ctx, "stored aggregates exceed official score",
			logger.String("match", string(m.ID)),
			logger.String("team", string(d.Team)),
			logger.Int("reconstructed", d.Reconstructed),
			logger.Int("official", d.Official),
		)
		s.warnings = append(s.warnings, fmt.Sprintf(
			"team %s: stored goals (%d) exceed the official score (%d)", d.Team, d.Reconstructed, d.Official))
	}
	for id, n := range res.OrphanAssists {
		s.warnings = append(s.warnings, fmt.Sprintf("athlete %s: %d stored assist(s) have no goal to attach to", id, n))
	}
	slices.Sort(s.warnings)

	var (
		status model.Status
		err    error
	)
	if s.override != nil && s.override.ok {
		status = s.override.status
	} else if s.override != nil {
		status = lifecycle.Derive(m, s.events)
	} else if status, _, err = lifecycle.Initial(ctx, store, m, s.events); err != nil {
		return nil, err
	}

	s.machine = lifecycle.New(m.ID, status, store, lifecycle.WithLogger(s.logger.Named("lifecycle")))
	tracker := savekey.NewTracker(savekey.WithPersisted(savekey.Compute(status, s.events)))
	popts := append([]persist.Option{persist.WithTracker(tracker), persist.WithLogger(s.logger.Named("persist"))}, s.persistOpts...)
	s.saver = persist.New(m, w, popts...)

	s.logger.Info(ctx, "match opened",
		logger.String("match", string(m.ID)),
		logger.String("status", string(status)),
		logger.Int("events", len(s.events)),
		logger.Int("placeholders", res.Placeholders),
	)
	return s, nil
}

// MatchID returns the id of the edited match.
func (s *Session) MatchID() model.MatchID { return s.match.ID }

// AddGoal validates e and appends it to the log as a new goal. Adding a goal
// to a not-started match moves it into progress.
func (s *Session) AddGoal(ctx context.Context, e model.GoalEvent) (model.GoalEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.machine.Guard(); err != nil {
		return model.GoalEvent{}, err
	}
	if err := s.validate(e); err != nil {
		return model.GoalEvent{}, err
	}
	e.ID = s.nextID()
	e.Provenance = model.ProvenanceNew

	if _, err := s.machine.GoalAdded(ctx); err != nil {
		return model.GoalEvent{}, err
	}
	s.pushHistory()
	s.events = append(slices.Clip(s.events), e)
	metrics.RecordGoal(e.Scorer.Kind.String())
	s.changed()
	return e, nil
}

func (s *Session) validate(e model.GoalEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if !s.match.HasTeam(e.Team) {
		return fmt.Errorf("%w: %w: %s", model.ErrInvalidGoal, model.ErrUnknownTeam, e.Team)
	}
	if id, ok := e.Scorer.Athlete(); ok {
		if team, known := s.rosters.TeamOf(id); known && team != e.Team {
			return fmt.Errorf("%w: scorer %s plays for %s", model.ErrInvalidGoal, id, team)
		}
	}
	if id, ok := e.Assist.Athlete(); ok {
		if team, known := s.rosters.TeamOf(id); known && team != e.Team {
			return fmt.Errorf("%w: assist %s plays for %s", model.ErrInvalidGoal, id, team)
		}
	}
	return nil
}

// RemoveGoal drops the goal with the given id.
func (s *Session) RemoveGoal(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.machine.Guard(); err != nil {
		return err
	}
	i := slices.IndexFunc(s.events, func(e model.GoalEvent) bool { return e.ID == id })
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrGoalNotFound, id)
	}
	s.pushHistory()
	s.events = slices.Delete(slices.Clone(s.events), i, i+1)
	metrics.RecordGoalRemoved()
	s.logger.Debug(ctx, "goal removed", logger.String("match", string(s.match.ID)), logger.String("goal", id))
	s.changed()
	return nil
}

// Undo restores the log as it was before the last add or remove.
func (s *Session) Undo(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.machine.Guard(); err != nil {
		return err
	}
	if len(s.history) == 0 {
		return ErrNothingToUndo
	}
	last := len(s.history) - 1
	s.events = s.history[last]
	s.history = s.history[:last]
	s.logger.Debug(ctx, "undo", logger.String("match", string(s.match.ID)), logger.Int("events", len(s.events)))
	s.changed()
	return nil
}

// Reset clears the log and the undo history and returns the match to
// not_started. It requires confirmation.
func (s *Session) Reset(ctx context.Context, confirmed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.machine.Reset(ctx, confirmed); err != nil {
		return err
	}
	s.clear()
	s.changed()
	return nil
}

// SetStatus applies the operator's status selection. Selecting not_started
// clears the log.
func (s *Session) SetStatus(ctx context.Context, to model.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := s.machine.Select(ctx, to)
	if err != nil {
		return err
	}
	if to == model.StatusNotStarted {
		s.clear()
	}
	s.logger.Info(ctx, "status selected",
		logger.String("match", string(s.match.ID)),
		logger.String("from", string(prev)),
		logger.String("to", string(to)),
	)
	s.changed()
	return nil
}

// ClearStatusOverride drops the operator's status override. The status falls
// back to the one derived from the log and the official score.
func (s *Session) ClearStatusOverride(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	derived := lifecycle.Derive(s.match, s.events)
	prev, err := s.machine.ClearOverride(ctx, derived)
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "status override cleared",
		logger.String("match", string(s.match.ID)),
		logger.String("from", string(prev)),
		logger.String("to", string(derived)),
	)
	s.changed()
	return nil
}

// Finalize commits the result synchronously with status finished and locks
// the match. On failure the match stays unlocked.
func (s *Session) Finalize(ctx context.Context, confirmed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.machine.CheckFinalize(confirmed); err != nil {
		return err
	}
	if err := s.saver.Finalize(ctx, s.snapshot()); err != nil {
		return err
	}
	s.machine.Finalized(ctx)
	s.logger.Info(ctx, "match finalized",
		logger.String("match", string(s.match.ID)),
		logger.Int("home", scoring.TeamScore(s.match, s.events, s.match.Home.ID)),
		logger.Int("away", scoring.TeamScore(s.match, s.events, s.match.Away.ID)),
	)
	return nil
}

// Unlock reopens a finished match for correction. It requires confirmation.
func (s *Session) Unlock(ctx context.Context, confirmed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.machine.Unlock(ctx, confirmed); err != nil {
		return err
	}
	s.changed()
	return nil
}

// Save writes the current state now and reports any failure.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saver.Cancel()
	return s.saver.Commit(ctx, s.snapshot())
}

// Close ends the session. With save set it performs a blocking save and
// returns its error; otherwise a pending silent save is flushed.
func (s *Session) Close(ctx context.Context, save bool) error {
	if save {
		return s.Save(ctx)
	}
	s.saver.Flush()
	return nil
}

// State returns a view of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := s.machine.Status()
	snap := s.snapshot()
	return State{
		MatchID:      s.match.ID,
		Home:         s.match.Home,
		Away:         s.match.Away,
		Status:       status,
		Locked:       status.Locked(),
		Score:        scoring.Tally(s.match, s.events),
		Events:       slices.Clone(s.events),
		Rosters:      s.rosters,
		Stats:        stats.Derive(s.match, s.events),
		Placeholders: s.seeded,
		Warnings:     slices.Clone(s.warnings),
		Unsaved:      s.saver.Unsaved(snap),
		SavePending:  s.saver.Pending(),
		CanUndo:      len(s.history) > 0 && !status.Locked(),
	}
}

func (s *Session) snapshot() persist.Snapshot {
	return persist.Snapshot{Status: s.machine.Status(), Events: s.events}
}

// changed must be called with s.mu held.
func (s *Session) changed() {
	s.saver.Changed(s.snapshot())
}

// pushHistory must be called with s.mu held. The log is never mutated in
// place, so keeping the current slice is enough.
func (s *Session) pushHistory() {
	s.history = append(s.history, s.events)
}

func (s *Session) clear() {
	s.events = nil
	s.history = nil
}
