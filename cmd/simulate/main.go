package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/pelada/internal/simulate"
)

// Default configuration constants.
const (
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 5 * time.Minute
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		matchID     = flag.String("match", "", "Match to edit")
		goals       = flag.Int("goals", simulate.DefaultGoals, "Number of goals to record")
		ownGoalRate = flag.Float64("own-goal-rate", simulate.DefaultOwnGoalRate, "Probability of an own goal")
		assistRate  = flag.Float64("assist-rate", simulate.DefaultAssistRate, "Probability that a goal carries an assist")
		undoEvery   = flag.Int("undo-every", 0, "Undo the last goal every N goals (0 disables)")
		finalize    = flag.Bool("finalize", false, "Finalize and lock the match instead of a manual save")
		unlock      = flag.Bool("unlock", false, "Unlock a finished match before editing")
		seed        = flag.Uint64("seed", 0, "Random seed (0 picks one from the clock)")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile     = flag.String("log", "", "Log file for run output (default: simulate_log_TIMESTAMP.log)")
		verbose     = flag.Bool("verbose", false, "Log every recorded goal")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help || *matchID == "" {
		simulate.ShowHelp()
		return 0
	}

	closeLog, err := simulate.SetupLogging(*logFile)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = closeLog() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &simulate.Config{
		BaseURL:     *baseURL,
		MatchID:     *matchID,
		Goals:       *goals,
		OwnGoalRate: *ownGoalRate,
		AssistRate:  *assistRate,
		UndoEvery:   *undoEvery,
		Finalize:    *finalize,
		Unlock:      *unlock,
		Seed:        *seed,
		Timeout:     *timeout,
		LogFile:     *logFile,
		Verbose:     *verbose,
	}

	if _, err := simulate.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		return 1
	}
	return 0
}
