package service

import (
	"time"

	"github.com/okian/pelada/internal/adapters/schedule"
	"github.com/okian/pelada/internal/domain/lifecycle"
	"github.com/okian/pelada/internal/domain/persist"
	"github.com/okian/pelada/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSource sets where matches are read from.
func WithSource(src Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithWriter sets where results are written to.
func WithWriter(w persist.Writer) Option {
	return func(s *Service) {
		if w != nil {
			s.writer = w
		}
	}
}

// WithOverrideStore sets the status override store.
func WithOverrideStore(store lifecycle.OverrideStore) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDebounce sets the auto-save quiet window.
func WithDebounce(window time.Duration) Option {
	return func(s *Service) {
		if window > 0 {
			s.debounce = window
		}
	}
}

// WithClock sets the clock used by auto-save timers.
func WithClock(clock schedule.Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator overrides how goal ids are minted.
func WithIDGenerator(next func() string) Option {
	return func(s *Service) {
		if next != nil {
			s.nextID = next
		}
	}
}
