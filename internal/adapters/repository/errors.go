package repository

import "errors"

// Sentinel kinds for override store errors.
var (
	ErrStoreClosed = errors.New("status override store closed")
	ErrEmptyPath   = errors.New("status override store path is empty")
)
