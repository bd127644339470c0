package simulate

import "time"

// Config holds configuration for a simulated editing session.
type Config struct {
	BaseURL     string        // Base URL of the editor service
	MatchID     string        // Match to open
	Goals       int           // Number of goals to record
	OwnGoalRate float64       // Probability that a goal is an own goal
	AssistRate  float64       // Probability that a regular goal carries an assist
	UndoEvery   int           // Undo the last goal every N goals (0 disables)
	Finalize    bool          // Finalize instead of a manual save
	Unlock      bool          // Unlock a finished match before editing
	Seed        uint64        // Random seed (0 picks one from the clock)
	Timeout     time.Duration // HTTP request timeout
	LogFile     string        // Log file for run output
	Verbose     bool          // Log every recorded goal
}

// Stats holds run statistics.
type Stats struct {
	GoalsPosted    int
	GoalsRejected  int
	OwnGoals       int
	Assists        int
	Undos          int
	StartScoreHome int
	StartScoreAway int
	EndScoreHome   int
	EndScoreAway   int
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}
