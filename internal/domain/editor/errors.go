package editor

import "errors"

var (
	ErrGoalNotFound  = errors.New("goal not found")
	ErrNothingToUndo = errors.New("nothing to undo")
)
