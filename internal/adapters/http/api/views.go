package api

import (
	"fmt"
	"slices"

	"github.com/okian/pelada/internal/domain/editor"
	"github.com/okian/pelada/internal/domain/model"
)

// ScorerBody identifies who scored: kind is "athlete", "own_goal" or "unknown".
type ScorerBody struct {
	Kind      string `json:"kind"`
	AthleteID string `json:"athleteId,omitempty"`
}

// AssistBody names the assisting athlete. A null assist means no assist.
type AssistBody struct {
	AthleteID string `json:"athleteId"`
}

// GoalRequest mirrors the OpenAPI schema for POST /matches/{id}/goals.
type GoalRequest struct {
	Team        string      `json:"team"`
	Scorer      ScorerBody  `json:"scorer"`
	Assist      *AssistBody `json:"assist,omitempty"`
	OwnGoal     bool        `json:"ownGoal"`
	Minute      string      `json:"minute,omitempty"`
	Description string      `json:"description,omitempty"`
}

func (g GoalRequest) toEvent() (model.GoalEvent, error) {
	e := model.GoalEvent{
		Team:        model.TeamID(g.Team),
		OwnGoal:     g.OwnGoal,
		Minute:      g.Minute,
		Description: g.Description,
		Assist:      model.NoAssist(),
	}
	switch g.Scorer.Kind {
	case "athlete", "":
		if g.Scorer.AthleteID == "" {
			return e, fmt.Errorf("%w: scorer.athleteId is required", ErrBadRequest)
		}
		e.Scorer = model.AthleteScorer(model.AthleteID(g.Scorer.AthleteID))
	case "own_goal":
		e.Scorer = model.OwnGoalScorer()
		e.OwnGoal = true
	case "unknown":
		e.Scorer = model.UnknownScorer()
	default:
		return e, fmt.Errorf("%w: unknown scorer kind %q", ErrBadRequest, g.Scorer.Kind)
	}
	if g.Assist != nil && g.Assist.AthleteID != "" {
		e.Assist = model.AthleteAssist(model.AthleteID(g.Assist.AthleteID))
	}
	return e, nil
}

// ConfirmRequest is the body of confirmed actions.
type ConfirmRequest struct {
	Confirm bool `json:"confirm"`
}

// StatusRequest is the body of PUT /matches/{id}/status.
type StatusRequest struct {
	Status string `json:"status"`
}

// TeamView is one side of a match.
type TeamView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Logo string `json:"logo,omitempty"`
}

// ScoreView is the live score.
type ScoreView struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// GoalView is one goal of the working log.
type GoalView struct {
	ID          string      `json:"id"`
	Team        string      `json:"team"`
	Scorer      ScorerBody  `json:"scorer"`
	Assist      *AssistBody `json:"assist"`
	OwnGoal     bool        `json:"ownGoal"`
	Minute      string      `json:"minute,omitempty"`
	Description string      `json:"description,omitempty"`
	Provenance  string      `json:"provenance"`
}

// RosterEntryView is one eligible scorer or assister.
type RosterEntryView struct {
	AthleteID   string `json:"athleteId"`
	DisplayName string `json:"displayName"`
	Photo       string `json:"photo,omitempty"`
	Position    string `json:"position,omitempty"`
}

// StatLineView is one athlete's derived counters.
type StatLineView struct {
	AthleteID string `json:"athleteId"`
	TeamID    string `json:"teamId"`
	Goals     int    `json:"goals"`
	Assists   int    `json:"assists"`
	Status    string `json:"status"`
}

// StateView is the editing session as returned by every match endpoint.
type StateView struct {
	MatchID      string                       `json:"matchId"`
	Home         TeamView                     `json:"home"`
	Away         TeamView                     `json:"away"`
	Status       string                       `json:"status"`
	Locked       bool                         `json:"locked"`
	Score        ScoreView                    `json:"score"`
	Events       []GoalView                   `json:"events"`
	Rosters      map[string][]RosterEntryView `json:"rosters"`
	Stats        []StatLineView               `json:"stats"`
	Placeholders int                          `json:"placeholders"`
	Warnings     []string                     `json:"warnings"`
	Unsaved      bool                         `json:"unsaved"`
	SavePending  bool                         `json:"savePending"`
	CanUndo      bool                         `json:"canUndo"`
}

func goalView(e model.GoalEvent) GoalView {
	v := GoalView{
		ID:          e.ID,
		Team:        string(e.Team),
		Scorer:      ScorerBody{Kind: e.Scorer.Kind.String(), AthleteID: string(e.Scorer.AthleteID)},
		OwnGoal:     e.OwnGoal,
		Minute:      e.Minute,
		Description: e.Description,
		Provenance:  string(e.Provenance),
	}
	if id, ok := e.Assist.Athlete(); ok {
		v.Assist = &AssistBody{AthleteID: string(id)}
	}
	return v
}

func teamView(t model.Team) TeamView {
	return TeamView{ID: string(t.ID), Name: t.Name, Logo: t.LogoRef}
}

func stateView(st editor.State) StateView {
	v := StateView{
		MatchID:      string(st.MatchID),
		Home:         teamView(st.Home),
		Away:         teamView(st.Away),
		Status:       string(st.Status),
		Locked:       st.Locked,
		Score:        ScoreView{Home: st.Score.Home, Away: st.Score.Away},
		Events:       make([]GoalView, 0, len(st.Events)),
		Rosters:      make(map[string][]RosterEntryView, len(st.Rosters)),
		Stats:        make([]StatLineView, 0, len(st.Stats)),
		Placeholders: st.Placeholders,
		Warnings:     slices.Clone(st.Warnings),
		Unsaved:      st.Unsaved,
		SavePending:  st.SavePending,
		CanUndo:      st.CanUndo,
	}
	if v.Warnings == nil {
		v.Warnings = []string{}
	}
	for _, e := range st.Events {
		v.Events = append(v.Events, goalView(e))
	}
	for team, entries := range st.Rosters {
		list := make([]RosterEntryView, 0, len(entries))
		for _, en := range entries {
			list = append(list, RosterEntryView{
				AthleteID:   string(en.AthleteID),
				DisplayName: en.DisplayName,
				Photo:       en.PhotoRef,
				Position:    en.Position,
			})
		}
		v.Rosters[string(team)] = list
	}
	for _, l := range st.Stats {
		v.Stats = append(v.Stats, StatLineView{
			AthleteID: string(l.AthleteID),
			TeamID:    string(l.TeamID),
			Goals:     l.Goals,
			Assists:   l.Assists,
			Status:    string(l.Status),
		})
	}
	return v
}
