package model

import (
	"fmt"
	"time"
)

// Identifiers.
type (
	MatchID   string
	TeamID    string
	AthleteID string
)

// Team describes one side of a match.
type Team struct {
	ID      TeamID
	Name    string
	LogoRef string
}

// Participation is an athlete's participation status in a match.
type Participation string

const (
	ParticipationAbsent     Participation = "absent"
	ParticipationStarter    Participation = "starter"
	ParticipationSubstitute Participation = "substitute"
)

// Athlete carries the display data used by scorer/assist pickers.
type Athlete struct {
	ID       AthleteID
	Name     string
	Nickname string
	PhotoRef string
	Position string
}

// Presence links an athlete to a match with aggregate counters.
// TeamID may be empty on legacy records; TeamName is then used to resolve it.
type Presence struct {
	Athlete  Athlete
	TeamID   TeamID
	TeamName string
	Goals    int
	Assists  int
	Status   Participation
}

// Score is an official score pair.
type Score struct {
	Home int
	Away int
}

// For returns the score of team within m.
func (s Score) For(m *Match, team TeamID) int {
	if team == m.Home.ID {
		return s.Home
	}
	if team == m.Away.ID {
		return s.Away
	}
	return 0
}

// Total returns the sum of both sides.
func (s Score) Total() int { return s.Home + s.Away }

// Match is the aggregate root of the editing session.
type Match struct {
	ID            MatchID
	Home          Team
	Away          Team
	OfficialScore *Score
	Date          time.Time
	Location      string
	Presences     []Presence
}

// HasTeam reports whether team plays in m.
func (m *Match) HasTeam(team TeamID) bool {
	return team != "" && (team == m.Home.ID || team == m.Away.ID)
}

// Teams returns the two team ids in home/away order.
func (m *Match) Teams() [2]TeamID { return [2]TeamID{m.Home.ID, m.Away.ID} }

// Opponent returns the other team of m.
func (m *Match) Opponent(team TeamID) (TeamID, error) {
	switch team {
	case m.Home.ID:
		return m.Away.ID, nil
	case m.Away.ID:
		return m.Home.ID, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownTeam, team)
	}
}
