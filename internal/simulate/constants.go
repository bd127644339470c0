package simulate

// Default run parameters.
const (
	DefaultGoals       = 12
	DefaultOwnGoalRate = 0.1
	DefaultAssistRate  = 0.6
)

const (
	logFilePermission = 0600
	maxErrorBody      = 4096
)
