package simulate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/pelada/internal/adapters/http/api"
	"github.com/okian/pelada/pkg/logger"
)

// Run opens the match, records random goals through the API, checks the live
// score and stats against a local tally and ends with a save or finalize.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	if config.Seed == 0 {
		config.Seed = uint64(stats.StartTime.UnixNano())
	}
	log := logger.Named("simulate")

	log.Info(ctx, "starting pelada editor simulation",
		logger.String("baseURL", config.BaseURL),
		logger.String("matchID", config.MatchID),
		logger.Int("goals", config.Goals),
		logger.Any("seed", config.Seed),
		logger.Bool("finalize", config.Finalize))

	client := newHTTPClient(config.BaseURL, config.Timeout)

	// Step 1: Check service health
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Open the match
	st, err := client.Open(ctx, config.MatchID)
	if err != nil {
		return stats, fmt.Errorf("open match %s: %w", config.MatchID, err)
	}
	defer func() {
		if err := client.Close(context.Background(), config.MatchID); err != nil {
			log.Warn(ctx, "failed to close session", logger.Error(err))
		}
	}()
	for _, w := range st.Warnings {
		log.Warn(ctx, "reconstruction warning", logger.String("warning", w))
	}

	if st.Locked {
		if !config.Unlock {
			return stats, ErrMatchLocked
		}
		if st, err = client.Unlock(ctx, config.MatchID); err != nil {
			return stats, fmt.Errorf("unlock match: %w", err)
		}
	}
	stats.StartScoreHome, stats.StartScoreAway = st.Score.Home, st.Score.Away

	// Step 3: Record goals
	expected := tallyFromState(st)
	if err := recordGoals(ctx, client, config, st, expected, stats); err != nil {
		return stats, err
	}

	// Step 4: Verify the live state
	st, err = client.State(ctx, config.MatchID)
	if err != nil {
		return stats, fmt.Errorf("read state: %w", err)
	}
	if err := expected.verify(ctx, st); err != nil {
		return stats, err
	}

	// Step 5: Persist
	if config.Finalize {
		st, err = client.Finalize(ctx, config.MatchID)
	} else {
		st, err = client.Save(ctx, config.MatchID)
	}
	if err != nil {
		return stats, fmt.Errorf("persist result: %w", err)
	}
	if st.Unsaved {
		return stats, fmt.Errorf("%w: state still unsaved after persisting", ErrMismatch)
	}
	stats.EndScoreHome, stats.EndScoreAway = st.Score.Home, st.Score.Away

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats, st)

	log.Info(ctx, "simulation completed successfully")
	return stats, nil
}

// recordGoals posts config.Goals goals one at a time, undoing the last one
// every config.UndoEvery goals. Rejected goals are counted and skipped.
func recordGoals(ctx context.Context, client *HTTPClient, config *Config, st api.StateView, expected *tally, stats *Stats) error {
	gen, err := newGenerator(config, st)
	if err != nil {
		return err
	}
	log := logger.Named("simulate")

	var posted []api.GoalRequest
	for i := range config.Goals {
		if err := ctx.Err(); err != nil {
			return err
		}
		goal := gen.next(i, config.Goals)
		if _, err := client.AddGoal(ctx, config.MatchID, goal); err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
				stats.GoalsRejected++
				log.Warn(ctx, "goal rejected", logger.Error(err))
				continue
			}
			return fmt.Errorf("add goal %d: %w", i, err)
		}
		expected.apply(goal, 1)
		posted = append(posted, goal)
		stats.GoalsPosted++
		if goal.OwnGoal {
			stats.OwnGoals++
		}
		if goal.Assist != nil {
			stats.Assists++
		}
		if config.Verbose {
			log.Info(ctx, "goal recorded",
				logger.String("team", goal.Team),
				logger.String("scorer", goal.Scorer.AthleteID),
				logger.Bool("ownGoal", goal.OwnGoal),
				logger.String("minute", goal.Minute))
		}

		if config.UndoEvery > 0 && stats.GoalsPosted%config.UndoEvery == 0 {
			if _, err := client.Undo(ctx, config.MatchID); err != nil {
				return fmt.Errorf("undo after goal %d: %w", i, err)
			}
			last := posted[len(posted)-1]
			posted = posted[:len(posted)-1]
			expected.apply(last, -1)
			stats.Undos++
		}
	}
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats, st api.StateView) {
	var goalsPerSecond float64
	if stats.Duration > 0 {
		goalsPerSecond = float64(stats.GoalsPosted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("goalsPosted", stats.GoalsPosted),
		logger.Int("goalsRejected", stats.GoalsRejected),
		logger.Int("ownGoals", stats.OwnGoals),
		logger.Int("assists", stats.Assists),
		logger.Int("undos", stats.Undos),
		logger.String("startScore", fmt.Sprintf("%d-%d", stats.StartScoreHome, stats.StartScoreAway)),
		logger.String("endScore", fmt.Sprintf("%d-%d", stats.EndScoreHome, stats.EndScoreAway)),
		logger.String("status", st.Status),
		logger.Bool("locked", st.Locked),
		logger.Duration("duration", stats.Duration),
		logger.Float64("goalsPerSecond", goalsPerSecond))
}
