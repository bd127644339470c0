package persist

import "errors"

// ErrWriteFailed wraps any failure of a non-silent write.
var ErrWriteFailed = errors.New("result write failed")

var errSkipped = errors.New("save skipped")
