// Package scoring computes live scores from the goal-event log.
package scoring

import (
	"github.com/okian/pelada/internal/domain/model"
)

// CreditedTeam returns the team whose score e counts toward: the event's team,
// or its opponent for own goals.
func CreditedTeam(m *model.Match, e model.GoalEvent) (model.TeamID, error) {
	if !m.HasTeam(e.Team) {
		return "", model.ErrUnknownTeam
	}
	if e.OwnGoal {
		return m.Opponent(e.Team)
	}
	return e.Team, nil
}

// TeamScore counts the events credited to team.
func TeamScore(m *model.Match, events []model.GoalEvent, team model.TeamID) int {
	n := 0
	for _, e := range events {
		if credited, err := CreditedTeam(m, e); err == nil && credited == team {
			n++
		}
	}
	return n
}

// Tally returns the live score of both teams. Events naming a team outside
// the match are ignored.
func Tally(m *model.Match, events []model.GoalEvent) model.Score {
	var s model.Score
	for _, e := range events {
		credited, err := CreditedTeam(m, e)
		if err != nil {
			continue
		}
		switch credited {
		case m.Home.ID:
			s.Home++
		case m.Away.ID:
			s.Away++
		}
	}
	return s
}
