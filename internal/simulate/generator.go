package simulate

import (
	"math/rand/v2"
	"slices"
	"strconv"

	"github.com/google/uuid"
	"github.com/okian/pelada/internal/adapters/http/api"
)

const matchMinutes = 90

// generator draws random but valid goals from the opened match's rosters.
type generator struct {
	rng     *rand.Rand
	cfg     *Config
	runID   string
	teams   []string
	rosters map[string][]string
}

func newGenerator(cfg *Config, st api.StateView) (*generator, error) {
	g := &generator{
		rng:     rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		cfg:     cfg,
		runID:   uuid.NewString(),
		rosters: make(map[string][]string, len(st.Rosters)),
	}
	for _, team := range []string{st.Home.ID, st.Away.ID} {
		ids := make([]string, 0, len(st.Rosters[team]))
		for _, e := range st.Rosters[team] {
			ids = append(ids, e.AthleteID)
		}
		if len(ids) > 0 {
			g.teams = append(g.teams, team)
		}
		g.rosters[team] = ids
	}
	if len(g.teams) == 0 {
		return nil, ErrEmptyRoster
	}
	return g, nil
}

// next builds goal number i of n.
func (g *generator) next(i, n int) api.GoalRequest {
	team := g.teams[g.rng.IntN(len(g.teams))]
	req := api.GoalRequest{
		Team:        team,
		Minute:      strconv.Itoa(1 + i*matchMinutes/max(n, 1)),
		Description: "simulated " + g.runID,
	}

	if g.rng.Float64() < g.cfg.OwnGoalRate {
		req.Scorer = api.ScorerBody{Kind: "own_goal"}
		req.OwnGoal = true
		return req
	}

	roster := g.rosters[team]
	scorer := roster[g.rng.IntN(len(roster))]
	req.Scorer = api.ScorerBody{Kind: "athlete", AthleteID: scorer}

	if g.rng.Float64() < g.cfg.AssistRate {
		others := slices.DeleteFunc(slices.Clone(roster), func(id string) bool { return id == scorer })
		if len(others) > 0 {
			req.Assist = &api.AssistBody{AthleteID: others[g.rng.IntN(len(others))]}
		}
	}
	return req
}
