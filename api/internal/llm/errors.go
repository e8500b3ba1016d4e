package llm

import (
	"errors"
	"fmt"
)

// ErrEmptyCompletion is returned when a 2xx response carries no text.
var ErrEmptyCompletion = errors.New("empty completion")

// UpstreamError is a non-2xx answer from the completion service.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream %d: %s", e.Provider, e.StatusCode, e.Body)
}

// TransportError is a network-level failure: DNS, connect, reset, timeout.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
