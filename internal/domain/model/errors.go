package model

import "errors"

// Sentinel kinds for model validation errors.
var (
	ErrInvalidGoal   = errors.New("invalid goal event")
	ErrInvalidStatus = errors.New("invalid match status")
	ErrUnknownTeam   = errors.New("team is not part of the match")
)
