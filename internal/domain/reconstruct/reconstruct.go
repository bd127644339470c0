// Package reconstruct rebuilds the initial goal-event log of a match from the
// aggregate goal/assist counters stored on its presences.
package reconstruct

import (
	"github.com/google/uuid"

	"github.com/okian/pelada/internal/domain/model"
	"github.com/okian/pelada/internal/domain/roster"
	"github.com/okian/pelada/internal/domain/scoring"
)

// Option applies a configuration option to the Reconstructor.
type Option func(*Reconstructor)

// WithIDGenerator overrides how event ids are minted.
func WithIDGenerator(next func() string) Option {
	return func(r *Reconstructor) {
		if next != nil {
			r.nextID = next
		}
	}
}

// Discrepancy reports a team whose stored aggregates explain more goals than
// its official score. The log is left as-is in that case.
type Discrepancy struct {
	Team          model.TeamID
	Reconstructed int
	Official      int
}

// Result is the reconstructed working log plus anything that did not fit.
type Result struct {
	Events       []model.GoalEvent
	Placeholders int
	Excess       []Discrepancy
	// OrphanAssists counts assist points that found no goal to attach to.
	OrphanAssists map[model.AthleteID]int
}

// Reconstructor converts presence aggregates into discrete goal events.
type Reconstructor struct {
	nextID func() string
}

// New creates a Reconstructor.
func New(opts ...Option) *Reconstructor {
	r := &Reconstructor{nextID: uuid.NewString}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconstruct builds the log for m. It is deterministic apart from event ids.
func (r *Reconstructor) Reconstruct(m *model.Match) Result {
	var (
		events  []model.GoalEvent
		byTeam  = make(map[model.TeamID][]int, 2)
		pools   = make(map[model.TeamID][]model.AthleteID, 2)
		orphans = make(map[model.AthleteID]int)
	)

	for _, p := range m.Presences {
		team, ok := roster.ResolveTeam(m, p)
		if !ok || p.Athlete.ID == "" {
			continue
		}
		for i := 0; i < p.Goals; i++ {
			byTeam[team] = append(byTeam[team], len(events))
			events = append(events, model.GoalEvent{
				ID:         r.nextID(),
				Team:       team,
				Scorer:     model.AthleteScorer(p.Athlete.ID),
				Assist:     model.NoAssist(),
				Provenance: model.ProvenanceExisting,
			})
		}
		for i := 0; i < p.Assists; i++ {
			pools[team] = append(pools[team], p.Athlete.ID)
		}
	}

	for _, team := range m.Teams() {
		for _, idx := range byTeam[team] {
			scorer, _ := events[idx].Scorer.Athlete()
			var assister model.AthleteID
			if assister, pools[team] = take(pools[team], scorer); assister != "" {
				events[idx].Assist = model.AthleteAssist(assister)
			}
		}
	}

	res := Result{OrphanAssists: orphans}
	tally := scoring.Tally(m, events)
	official := tally
	if m.OfficialScore != nil {
		official = *m.OfficialScore
	}
	for _, team := range m.Teams() {
		have, want := tally.For(m, team), official.For(m, team)
		if have > want {
			res.Excess = append(res.Excess, Discrepancy{Team: team, Reconstructed: have, Official: want})
			continue
		}
		for i := 0; i < want-have; i++ {
			e := model.GoalEvent{
				ID:         r.nextID(),
				Team:       team,
				Scorer:     model.UnknownScorer(),
				Assist:     model.NoAssist(),
				Provenance: model.ProvenancePlaceholder,
			}
			var assister model.AthleteID
			if assister, pools[team] = take(pools[team], ""); assister != "" {
				e.Assist = model.AthleteAssist(assister)
			}
			events = append(events, e)
			res.Placeholders++
		}
	}

	for _, pool := range pools {
		for _, id := range pool {
			orphans[id]++
		}
	}
	res.Events = events
	return res
}

// take pops the first pool entry that is not the scorer.
func take(pool []model.AthleteID, scorer model.AthleteID) (model.AthleteID, []model.AthleteID) {
	for i, id := range pool {
		if id == scorer {
			continue
		}
		rest := make([]model.AthleteID, 0, len(pool)-1)
		rest = append(rest, pool[:i]...)
		return id, append(rest, pool[i+1:]...)
	}
	return "", pool
}
