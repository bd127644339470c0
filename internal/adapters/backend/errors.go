package backend

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found on backend")
	ErrInvalidURL = errors.New("invalid backend url")
)

// HTTPError is a non-2xx backend response. Its message is the response body
// verbatim so it can be shown to the operator.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return e.Body
}
