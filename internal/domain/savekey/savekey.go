// Package savekey derives content keys for editor state and remembers the
// key of the last state that reached the backend.
package savekey

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	"github.com/okian/pelada/internal/domain/model"
)

type keyedEvent struct {
	Team        model.TeamID `json:"t"`
	Scorer      string       `json:"s"`
	Assist      string       `json:"a"`
	OwnGoal     bool         `json:"o"`
	Minute      string       `json:"m"`
	Description string       `json:"d"`
}

type keyedState struct {
	Status model.Status `json:"st"`
	Events []keyedEvent `json:"ev"`
}

// Compute returns a deterministic key for status and the ordered events.
// Event ids and provenance are not part of the key.
func Compute(status model.Status, events []model.GoalEvent) string {
	st := keyedState{Status: status, Events: make([]keyedEvent, len(events))}
	for i, e := range events {
		st.Events[i] = keyedEvent{
			Team:        e.Team,
			Scorer:      e.Scorer.Kind.String() + ":" + string(e.Scorer.AthleteID),
			Assist:      e.Assist.Kind.String() + ":" + string(e.Assist.AthleteID),
			OwnGoal:     e.OwnGoal,
			Minute:      e.Minute,
			Description: e.Description,
		}
	}
	// Marshal of these plain structs cannot fail.
	b, _ := json.Marshal(st)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Tracker remembers the key of the last successfully persisted state.
type Tracker interface {
	// Persisted reports whether key equals the last recorded key.
	Persisted(key string) bool
	// Record marks key as persisted. Call only after a successful write.
	Record(key string)
}

type inMemoryTracker struct {
	mu   sync.RWMutex
	last string
}

// NewTracker creates a tracker.
func NewTracker(opts ...Option) Tracker {
	t := &inMemoryTracker{}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *inMemoryTracker) Persisted(key string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last != "" && t.last == key
}

func (t *inMemoryTracker) Record(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = key
}
