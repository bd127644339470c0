package simulate

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/pelada/pkg/logger"
)

// SetupLogging configures logging to both console and file and returns the
// file's close function. If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) (func() error, error) {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "simulate_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.Init(logger.WithOutput(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return file.Close, nil
}

// ShowHelp prints usage information for the simulator.
func ShowHelp() {
	os.Stdout.WriteString(`Pelada Match Editor Simulator
=============================

Opens a match on a running editor service, records random goals through the
HTTP API and checks the live score and stats against its own tally.

Usage:
  go run cmd/simulate/main.go -match <id> [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -match string
        Match to edit (required)
  -goals int
        Number of goals to record (default 12)
  -own-goal-rate float
        Probability of an own goal (default 0.1)
  -assist-rate float
        Probability that a goal carries an assist (default 0.6)
  -undo-every int
        Undo the last goal every N goals, 0 disables (default 0)
  -finalize
        Finalize and lock the match instead of a manual save
  -unlock
        Unlock a finished match before editing
  -seed uint
        Random seed, 0 picks one from the clock (default 0)
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Log file for run output (default: simulate_log_TIMESTAMP.log)
  -verbose
        Log every recorded goal
  -help
        Show this help message

Examples:
  # Record 12 goals and save
  go run cmd/simulate/main.go -match 42

  # Record 30 goals with undos and finalize
  go run cmd/simulate/main.go -match 42 -goals 30 -undo-every 5 -finalize
`)
}
