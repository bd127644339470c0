// Package service keeps the open editing sessions and wires them to the
// match source, the result writer and the status override store.
package service

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/pelada/internal/adapters/repository"
	"github.com/okian/pelada/internal/adapters/schedule"
	"github.com/okian/pelada/internal/domain/editor"
	"github.com/okian/pelada/internal/domain/lifecycle"
	"github.com/okian/pelada/internal/domain/model"
	"github.com/okian/pelada/internal/domain/persist"
	"github.com/okian/pelada/pkg/logger"
	"github.com/okian/pelada/pkg/metrics"
)

const defaultDebounce = time.Second

// Source reads a match with its presences.
type Source interface {
	FetchMatch(ctx context.Context, id model.MatchID) (*model.Match, error)
}

// Service holds one editing session per open match.
type Service struct {
	mu       sync.RWMutex
	sessions map[model.MatchID]*editor.Session

	source   Source
	writer   persist.Writer
	store    lifecycle.OverrideStore
	debounce time.Duration
	clock    schedule.Clock
	nextID   func() string

	started bool
	logger  logger.Logger
}

// New constructs a Service. Without WithOverrideStore overrides live in memory.
func New(opts ...Option) *Service {
	s := &Service{
		sessions: make(map[model.MatchID]*editor.Session),
		debounce: defaultDebounce,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewInMemoryStore()
	}
	return s
}

// Start checks the wiring and marks the service ready.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.source == nil || s.writer == nil {
		return ErrNotConfigured
	}

	s.started = true
	s.logger.Info(ctx, "match editor service started", logger.Duration("debounce", s.debounce))
	return nil
}

// Stop flushes pending silent saves of every open session, best effort, and
// closes the override store when it holds resources.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(ctx, "stopping match editor service...", logger.Int("sessions", len(s.sessions)))

	for id, sess := range s.sessions {
		if err := sess.Close(ctx, false); err != nil {
			s.logger.Warn(ctx, "flush on shutdown failed", logger.String("match", string(id)), logger.Error(err))
		}
		delete(s.sessions, id)
	}
	metrics.UpdateOpenSessions(0)

	if closer, ok := s.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn(ctx, "closing override store failed", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "match editor service stopped")
}

// Open returns the session of match id, opening it if needed. The match and
// its status override are read concurrently.
func (s *Service) Open(ctx context.Context, id model.MatchID) (*editor.Session, error) {
	s.mu.RLock()
	started := s.started
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}
	if ok {
		return sess, nil
	}

	var (
		m          *model.Match
		override   model.Status
		overridden bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		m, err = s.source.FetchMatch(gctx, id)
		if err != nil {
			return fmt.Errorf("fetch match %s: %w", id, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		override, overridden, err = s.store.Get(gctx, id)
		if err != nil {
			return fmt.Errorf("read status override %s: %w", id, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		metrics.RecordErrorByComponent("service", "open")
		return nil, err
	}

	popts := []persist.Option{persist.WithDebounce(s.debounce)}
	if s.clock != nil {
		popts = append(popts, persist.WithClock(s.clock))
	}
	eopts := []editor.Option{
		editor.WithLogger(s.logger.Named("editor")),
		editor.WithStatusOverride(override, overridden),
		editor.WithPersistOptions(popts...),
	}
	if s.nextID != nil {
		eopts = append(eopts, editor.WithIDGenerator(s.nextID))
	}
	sess, err := editor.Open(ctx, m, s.store, s.writer, eopts...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[id]; ok {
		// Opened concurrently; keep the first.
		return existing, nil
	}
	s.sessions[id] = sess
	metrics.UpdateOpenSessions(len(s.sessions))
	return sess, nil
}

// Session returns the open session of match id.
func (s *Service) Session(id model.MatchID) (*editor.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// Close ends the session of match id. With save set the state is written
// first and the session stays open when that write fails.
func (s *Service) Close(ctx context.Context, id model.MatchID, save bool) error {
	sess, err := s.Session(id)
	if err != nil {
		return err
	}
	if err := sess.Close(ctx, save); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	metrics.UpdateOpenSessions(len(s.sessions))
	s.logger.Info(ctx, "match closed", logger.String("match", string(id)), logger.Bool("saved", save))
	return nil
}

// OpenMatches lists the ids of open sessions in order.
func (s *Service) OpenMatches() []model.MatchID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]model.MatchID, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := 0
	for _, sess := range s.sessions {
		if sess.State().SavePending {
			pending++
		}
	}
	return map[string]interface{}{
		"started":      s.started,
		"openSessions": len(s.sessions),
		"pendingSaves": pending,
		"debounceMs":   s.debounce.Milliseconds(),
	}
}
