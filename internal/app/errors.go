package service

import "errors"

var (
	ErrSessionNotFound = errors.New("no open session for match")
	ErrNotStarted      = errors.New("service not started")
	ErrNotConfigured   = errors.New("service missing match source or result writer")
)
