// Package model contains domain models passed between layers.
package model

import "fmt"

// ScorerKind tags who a goal is attributed to.
type ScorerKind int

const (
	// ScorerAthlete credits a real athlete.
	ScorerAthlete ScorerKind = iota + 1
	// ScorerOwnGoal marks a goal put into the team's own net.
	ScorerOwnGoal
	// ScorerUnknown marks a goal whose scorer was not recorded.
	ScorerUnknown
)

func (k ScorerKind) String() string {
	switch k {
	case ScorerAthlete:
		return "athlete"
	case ScorerOwnGoal:
		return "own_goal"
	case ScorerUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("ScorerKind(%d)", int(k))
	}
}

// Scorer is a tagged union: AthleteID is only meaningful when Kind is ScorerAthlete.
type Scorer struct {
	Kind      ScorerKind
	AthleteID AthleteID
}

// AthleteScorer credits id.
func AthleteScorer(id AthleteID) Scorer { return Scorer{Kind: ScorerAthlete, AthleteID: id} }

// OwnGoalScorer is the own-goal sentinel.
func OwnGoalScorer() Scorer { return Scorer{Kind: ScorerOwnGoal} }

// UnknownScorer is the unknown-scorer sentinel.
func UnknownScorer() Scorer { return Scorer{Kind: ScorerUnknown} }

// Athlete returns the scoring athlete, if any.
func (s Scorer) Athlete() (AthleteID, bool) {
	if s.Kind == ScorerAthlete && s.AthleteID != "" {
		return s.AthleteID, true
	}
	return "", false
}

func (s Scorer) String() string {
	if s.Kind == ScorerAthlete {
		return string(s.AthleteID)
	}
	return s.Kind.String()
}

// AssistKind tags whether a goal carries an assist.
type AssistKind int

const (
	// AssistNone is the "no assist" sentinel.
	AssistNone AssistKind = iota
	// AssistAthlete credits a real athlete with the assist.
	AssistAthlete
)

func (k AssistKind) String() string {
	switch k {
	case AssistNone:
		return "none"
	case AssistAthlete:
		return "athlete"
	}
	return "invalid"
}

// Assist is a tagged union: AthleteID is only meaningful when Kind is AssistAthlete.
// The zero value means no assist.
type Assist struct {
	Kind      AssistKind
	AthleteID AthleteID
}

// AthleteAssist credits id with the assist.
func AthleteAssist(id AthleteID) Assist { return Assist{Kind: AssistAthlete, AthleteID: id} }

// NoAssist is the "no assist" sentinel.
func NoAssist() Assist { return Assist{Kind: AssistNone} }

// Athlete returns the assisting athlete, if any.
func (a Assist) Athlete() (AthleteID, bool) {
	if a.Kind == AssistAthlete && a.AthleteID != "" {
		return a.AthleteID, true
	}
	return "", false
}

func (a Assist) String() string {
	if a.Kind == AssistAthlete {
		return string(a.AthleteID)
	}
	return "none"
}

// Provenance records where a goal event came from.
type Provenance string

const (
	ProvenanceExisting    Provenance = "existing"
	ProvenancePlaceholder Provenance = "placeholder"
	ProvenanceNew         Provenance = "new"
)

// GoalEvent is one goal in the editing session. It is never persisted as-is;
// only its folded aggregate form reaches the backend.
type GoalEvent struct {
	ID          string
	Team        TeamID // team the event belongs to; for own goals, the team that conceded it
	Scorer      Scorer
	Assist      Assist
	OwnGoal     bool
	Minute      string
	Description string
	Provenance  Provenance
}

// Validate checks the scorer/assist invariants of a single event.
func (e GoalEvent) Validate() error {
	if e.Team == "" {
		return fmt.Errorf("%w: missing team", ErrInvalidGoal)
	}
	if e.OwnGoal != (e.Scorer.Kind == ScorerOwnGoal) {
		return fmt.Errorf("%w: own-goal flag must match an own-goal scorer", ErrInvalidGoal)
	}
	switch e.Scorer.Kind {
	case ScorerAthlete:
		if e.Scorer.AthleteID == "" {
			return fmt.Errorf("%w: athlete scorer without id", ErrInvalidGoal)
		}
	case ScorerOwnGoal, ScorerUnknown:
	default:
		return fmt.Errorf("%w: unknown scorer kind %s", ErrInvalidGoal, e.Scorer.Kind)
	}
	switch e.Assist.Kind {
	case AssistNone:
	case AssistAthlete:
		if e.Assist.AthleteID == "" {
			return fmt.Errorf("%w: athlete assist without id", ErrInvalidGoal)
		}
		if e.OwnGoal {
			return fmt.Errorf("%w: own goals cannot carry an assist", ErrInvalidGoal)
		}
		if scorer, ok := e.Scorer.Athlete(); ok && scorer == e.Assist.AthleteID {
			return fmt.Errorf("%w: athlete %s cannot assist their own goal", ErrInvalidGoal, scorer)
		}
	default:
		return fmt.Errorf("%w: unknown assist kind %s", ErrInvalidGoal, e.Assist.Kind)
	}
	return nil
}
