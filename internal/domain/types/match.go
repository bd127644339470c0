package types

import "time"

// TeamRecord is a team as served by the backend.
type TeamRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo,omitempty"`
}

// AthleteRecord is the athlete part of a presence.
type AthleteRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Nickname string `json:"nickname,omitempty"`
	Photo    string `json:"photo,omitempty"`
	Position string `json:"position,omitempty"`
}

// MatchPresence is a presence as served by the backend. TeamID may be empty
// on legacy records, in which case TeamName identifies the team.
type MatchPresence struct {
	Athlete  AthleteRecord `json:"athlete"`
	TeamID   string        `json:"teamId,omitempty"`
	TeamName string        `json:"teamName,omitempty"`
	Goals    int           `json:"goals"`
	Assists  int           `json:"assists"`
	Status   string        `json:"status"`
}

// MatchRecord is the match document served by the backend.
type MatchRecord struct {
	ID            string          `json:"id"`
	Home          TeamRecord      `json:"home"`
	Away          TeamRecord      `json:"away"`
	OfficialScore *ScorePair      `json:"officialScore"`
	Date          time.Time       `json:"date"`
	Location      string          `json:"location,omitempty"`
	Presences     []MatchPresence `json:"presences"`
}

// StatusOverrideRecord is the body of the status override resource.
type StatusOverrideRecord struct {
	Status string `json:"status"`
}
