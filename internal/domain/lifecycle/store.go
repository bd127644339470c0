package lifecycle

import (
	"context"

	"github.com/okian/pelada/internal/domain/model"
)

// OverrideStore keeps explicit status overrides keyed by match id.
type OverrideStore interface {
	// Get returns the override for id; ok is false when none is stored.
	Get(ctx context.Context, id model.MatchID) (status model.Status, ok bool, err error)
	// Put records status as the override for id.
	Put(ctx context.Context, id model.MatchID, status model.Status) error
	// Delete drops any override for id.
	Delete(ctx context.Context, id model.MatchID) error
}
