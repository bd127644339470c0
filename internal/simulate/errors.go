package simulate

import "errors"

var (
	// ErrMatchLocked is returned when the match is finished and unlocking was not requested.
	ErrMatchLocked = errors.New("match is finished and locked")
	// ErrEmptyRoster is returned when neither team has an eligible athlete.
	ErrEmptyRoster = errors.New("no eligible athletes on either roster")
	// ErrMismatch is returned when the server state disagrees with the local tally.
	ErrMismatch = errors.New("server state does not match local tally")
)
