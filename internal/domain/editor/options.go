package editor

import (
	"github.com/okian/pelada/internal/domain/model"
	"github.com/okian/pelada/internal/domain/persist"
	"github.com/okian/pelada/pkg/logger"
)

// Option applies a configuration option to the Session.
type Option func(*Session)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIDGenerator overrides how goal ids are minted, for both reconstructed
// and new goals.
func WithIDGenerator(next func() string) Option {
	return func(s *Session) {
		if next != nil {
			s.nextID = next
		}
	}
}

// WithStatusOverride supplies an override already read from the store, so
// Open does not read it again.
func WithStatusOverride(status model.Status, ok bool) Option {
	return func(s *Session) {
		s.override = &resolvedOverride{status: status, ok: ok}
	}
}

// WithPersistOptions forwards options to the persistence controller.
func WithPersistOptions(opts ...persist.Option) Option {
	return func(s *Session) {
		s.persistOpts = append(s.persistOpts, opts...)
	}
}
