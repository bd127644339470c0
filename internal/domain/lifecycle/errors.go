package lifecycle

import "errors"

// Sentinel kinds for lifecycle errors.
var (
	ErrMatchLocked          = errors.New("match is finished and locked for editing")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrInvalidTransition    = errors.New("invalid status transition")
)
