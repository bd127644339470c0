// Package repository provides the status override stores: an in-memory map
// and a SQLite database that survives restarts on the same device.
package repository

import (
	"context"
	"sync"

	"github.com/okian/pelada/internal/domain/lifecycle"
	"github.com/okian/pelada/internal/domain/model"
)

var (
	_ lifecycle.OverrideStore = (*InMemoryStore)(nil)
	_ lifecycle.OverrideStore = (*SQLiteStore)(nil)
)

// InMemoryStore keeps overrides for the lifetime of the process.
type InMemoryStore struct {
	mu   sync.RWMutex
	data map[model.MatchID]model.Status
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{data: make(map[model.MatchID]model.Status)}
}

func (s *InMemoryStore) Get(_ context.Context, id model.MatchID) (model.Status, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.data[id]
	return st, ok, nil
}

func (s *InMemoryStore) Put(_ context.Context, id model.MatchID, status model.Status) error {
	if _, err := model.ParseStatus(string(status)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = status
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id model.MatchID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// Len returns the number of stored overrides.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
