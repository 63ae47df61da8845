package api

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("no data found for this request")
	ErrRateLimited = errors.New("rate limited by backend")
	ErrDecode      = errors.New("decoding backend response")
	ErrMissingDate = errors.New("date is required")
)

// BackendError carries the message of a response whose "error" field was
// set. It is shown to the user as is.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend error (status %d): %s", e.Status, e.Message)
}
