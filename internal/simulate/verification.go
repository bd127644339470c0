package simulate

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/okian/pelada/internal/adapters/http/api"
	"github.com/okian/pelada/pkg/logger"
)

// tally is the client-side expectation of score and per-athlete credit.
type tally struct {
	home, away string
	score      map[string]int
	goals      map[string]int
	assists    map[string]int
}

func tallyFromState(st api.StateView) *tally {
	t := &tally{
		home:    st.Home.ID,
		away:    st.Away.ID,
		score:   map[string]int{st.Home.ID: st.Score.Home, st.Away.ID: st.Score.Away},
		goals:   make(map[string]int),
		assists: make(map[string]int),
	}
	for _, l := range st.Stats {
		if l.Goals > 0 {
			t.goals[l.AthleteID] = l.Goals
		}
		if l.Assists > 0 {
			t.assists[l.AthleteID] = l.Assists
		}
	}
	return t
}

// apply adds (delta 1) or reverts (delta -1) one goal. Own goals count for
// the opponent of the team that conceded them and credit no athlete.
func (t *tally) apply(g api.GoalRequest, delta int) {
	if g.OwnGoal {
		t.score[t.opponent(g.Team)] += delta
		return
	}
	t.score[g.Team] += delta
	if g.Scorer.Kind != "athlete" {
		return
	}
	bump(t.goals, g.Scorer.AthleteID, delta)
	if g.Assist != nil {
		bump(t.assists, g.Assist.AthleteID, delta)
	}
}

func (t *tally) opponent(team string) string {
	if team == t.home {
		return t.away
	}
	return t.home
}

func bump(m map[string]int, id string, delta int) {
	m[id] += delta
	if m[id] == 0 {
		delete(m, id)
	}
}

// verify compares the tally against the server's state and returns every
// difference joined into one ErrMismatch.
func (t *tally) verify(ctx context.Context, st api.StateView) error {
	var diffs []string
	if st.Score.Home != t.score[t.home] || st.Score.Away != t.score[t.away] {
		diffs = append(diffs, fmt.Sprintf("score %d-%d, expected %d-%d",
			st.Score.Home, st.Score.Away, t.score[t.home], t.score[t.away]))
	}

	got := tallyFromState(st)
	diffs = append(diffs, diffCounts("goals", got.goals, t.goals)...)
	diffs = append(diffs, diffCounts("assists", got.assists, t.assists)...)

	if len(diffs) > 0 {
		for _, d := range diffs {
			logger.Get().Warn(ctx, "verification difference", logger.String("detail", d))
		}
		return fmt.Errorf("%w: %s", ErrMismatch, strings.Join(diffs, "; "))
	}
	logger.Get().Info(ctx, "server state matches local tally",
		logger.Int("home", st.Score.Home),
		logger.Int("away", st.Score.Away))
	return nil
}

func diffCounts(label string, got, want map[string]int) []string {
	union := maps.Clone(want)
	maps.Copy(union, got)
	ids := slices.Sorted(maps.Keys(union))
	var out []string
	for _, id := range ids {
		if got[id] != want[id] {
			out = append(out, fmt.Sprintf("%s for %s: %d, expected %d", label, id, got[id], want[id]))
		}
	}
	return out
}
