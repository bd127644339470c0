// Package stats folds the goal-event log back into per-athlete aggregate
// counters and builds the result payload written to the backend.
package stats

import (
	"github.com/okian/pelada/internal/domain/model"
	"github.com/okian/pelada/internal/domain/roster"
	"github.com/okian/pelada/internal/domain/scoring"
	"github.com/okian/pelada/internal/domain/types"
)

// Line is the derived aggregate of one athlete.
type Line struct {
	AthleteID model.AthleteID
	TeamID    model.TeamID
	Goals     int
	Assists   int
	Status    model.Participation
}

type counter struct {
	team    model.TeamID
	goals   int
	assists int
}

// fold counts per-athlete contributions. Own goals and unknown scorers never
// credit an athlete; the returned order is first appearance.
func fold(events []model.GoalEvent) (map[model.AthleteID]*counter, []model.AthleteID) {
	byAthlete := make(map[model.AthleteID]*counter)
	var order []model.AthleteID
	get := func(id model.AthleteID, team model.TeamID) *counter {
		c, ok := byAthlete[id]
		if !ok {
			c = &counter{team: team}
			byAthlete[id] = c
			order = append(order, id)
		}
		return c
	}
	for _, e := range events {
		if id, ok := e.Scorer.Athlete(); ok && !e.OwnGoal {
			get(id, e.Team).goals++
		}
		if id, ok := e.Assist.Athlete(); ok && !e.OwnGoal {
			get(id, e.Team).assists++
		}
	}
	return byAthlete, order
}

// Derive merges the counters folded from events into m's presence list by
// athlete id. Every presence is kept (with zeroed counters when it has no
// contribution) and contributors without a presence are appended as starters.
// A presence whose team cannot be resolved takes the team of the events that
// credited it, so a reopened match still finds the goal.
func Derive(m *model.Match, events []model.GoalEvent) []Line {
	byAthlete, order := fold(events)
	lines := make([]Line, 0, len(m.Presences)+len(order))
	merged := make(map[model.AthleteID]struct{}, len(m.Presences))

	for _, p := range m.Presences {
		id := p.Athlete.ID
		if id == "" {
			continue
		}
		if _, dup := merged[id]; dup {
			continue
		}
		merged[id] = struct{}{}
		team, resolved := roster.ResolveTeam(m, p)
		if !resolved {
			team = p.TeamID
		}
		line := Line{AthleteID: id, TeamID: team, Status: p.Status}
		if c, ok := byAthlete[id]; ok {
			// An unresolvable presence takes the team its credits were scored for.
			if !resolved {
				line.TeamID = c.team
			}
			line.Goals, line.Assists = c.goals, c.assists
			if line.Status == "" || line.Status == model.ParticipationAbsent {
				line.Status = model.ParticipationStarter
			}
		}
		if line.Status == "" {
			line.Status = model.ParticipationStarter
		}
		lines = append(lines, line)
	}

	for _, id := range order {
		if _, ok := merged[id]; ok {
			continue
		}
		c := byAthlete[id]
		lines = append(lines, Line{
			AthleteID: id,
			TeamID:    c.team,
			Goals:     c.goals,
			Assists:   c.assists,
			Status:    model.ParticipationStarter,
		})
	}
	return lines
}

// Presences turns derived lines back into presence records, carrying the
// athlete details of m where known.
func Presences(m *model.Match, lines []Line) []model.Presence {
	info := make(map[model.AthleteID]model.Athlete, len(m.Presences))
	for _, p := range m.Presences {
		if _, ok := info[p.Athlete.ID]; !ok {
			info[p.Athlete.ID] = p.Athlete
		}
	}
	out := make([]model.Presence, 0, len(lines))
	for _, l := range lines {
		a, ok := info[l.AthleteID]
		if !ok {
			a = model.Athlete{ID: l.AthleteID}
		}
		out = append(out, model.Presence{
			Athlete: a,
			TeamID:  l.TeamID,
			Goals:   l.Goals,
			Assists: l.Assists,
			Status:  l.Status,
		})
	}
	return out
}

// BuildPayload assembles the backend write for m in the given status.
// The official score is the live tally, or nil while the match has not started.
func BuildPayload(m *model.Match, status model.Status, events []model.GoalEvent) types.ResultPayload {
	lines := Derive(m, events)
	p := types.ResultPayload{Presences: make([]types.PresenceRecord, 0, len(lines))}
	if status != model.StatusNotStarted {
		s := scoring.Tally(m, events)
		p.OfficialScore = &types.ScorePair{Home: s.Home, Away: s.Away}
	}
	for _, l := range lines {
		p.Presences = append(p.Presences, types.PresenceRecord{
			AthleteID: string(l.AthleteID),
			TeamID:    string(l.TeamID),
			Goals:     l.Goals,
			Assists:   l.Assists,
			Status:    string(l.Status),
		})
	}
	return p
}
