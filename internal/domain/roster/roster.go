// Package roster resolves which team each presence played for and builds
// the per-team pools used by scorer and assist pickers.
package roster

import (
	"strings"
	"unicode"

	"github.com/okian/pelada/internal/domain/model"
	"golang.org/x/text/unicode/norm"
)

// Entry is one eligible scorer/assister.
type Entry struct {
	AthleteID   model.AthleteID
	DisplayName string
	Nickname    string
	PhotoRef    string
	Position    string
}

// Rosters maps team ids to their de-duplicated pool, in presence order.
type Rosters map[model.TeamID][]Entry

// Contains reports whether athlete is in team's pool.
func (r Rosters) Contains(team model.TeamID, athlete model.AthleteID) bool {
	for _, e := range r[team] {
		if e.AthleteID == athlete {
			return true
		}
	}
	return false
}

// TeamOf returns the team whose pool contains athlete.
func (r Rosters) TeamOf(athlete model.AthleteID) (model.TeamID, bool) {
	for team, entries := range r {
		for _, e := range entries {
			if e.AthleteID == athlete {
				return team, true
			}
		}
	}
	return "", false
}

// ResolveTeam returns the team p played for: the direct team id when it names
// one of the match teams, otherwise a case and diacritic insensitive name match.
func ResolveTeam(m *model.Match, p model.Presence) (model.TeamID, bool) {
	if p.TeamID != "" {
		if m.HasTeam(p.TeamID) {
			return p.TeamID, true
		}
		return "", false
	}
	name := Normalize(p.TeamName)
	if name == "" {
		return "", false
	}
	switch name {
	case Normalize(m.Home.Name):
		return m.Home.ID, true
	case Normalize(m.Away.Name):
		return m.Away.ID, true
	}
	return "", false
}

// Build resolves every presence of m and returns both teams' pools.
// Presences that resolve to neither team are left out.
func Build(m *model.Match) Rosters {
	out := Rosters{
		m.Home.ID: {},
		m.Away.ID: {},
	}
	seen := make(map[model.TeamID]map[model.AthleteID]struct{}, 2)
	for _, p := range m.Presences {
		team, ok := ResolveTeam(m, p)
		if !ok || p.Athlete.ID == "" {
			continue
		}
		if seen[team] == nil {
			seen[team] = make(map[model.AthleteID]struct{})
		}
		if _, dup := seen[team][p.Athlete.ID]; dup {
			continue
		}
		seen[team][p.Athlete.ID] = struct{}{}
		out[team] = append(out[team], Entry{
			AthleteID:   p.Athlete.ID,
			DisplayName: displayName(p.Athlete),
			Nickname:    p.Athlete.Nickname,
			PhotoRef:    p.Athlete.PhotoRef,
			Position:    p.Athlete.Position,
		})
	}
	return out
}

func displayName(a model.Athlete) string {
	if n := strings.TrimSpace(a.Nickname); n != "" {
		return n
	}
	if n := strings.TrimSpace(a.Name); n != "" {
		return n
	}
	return string(a.ID)
}

// Normalize lowercases, strips diacritics and collapses whitespace.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if !unicode.Is(unicode.Mn, r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(strings.ToLower(b.String())), " ")
}
