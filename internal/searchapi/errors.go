package searchapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMalformedResponse is returned when a 2xx body is not a valid result page
	ErrMalformedResponse = errors.New("malformed search response")

	// ErrTimeout is returned when a single attempt exceeds its time budget
	ErrTimeout = errors.New("search request timed out")
)

// StatusError is returned for non-2xx responses
type StatusError struct {
	StatusCode int
	Body       string // truncated response body, for logs only
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search endpoint returned HTTP %d", e.StatusCode)
}

// TransportError wraps failures below HTTP: DNS, connection reset, TLS
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("search transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is worth retrying: transport failures,
// attempt timeouts and 5xx responses. 4xx responses, malformed bodies and
// caller cancellation are terminal.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrTimeout) {
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError
	}

	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// UserMessage turns a fetch error into text suitable for the error row
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var statusErr *StatusError
	switch {
	case errors.Is(err, ErrTimeout):
		return "search timed out"
	case errors.Is(err, ErrMalformedResponse):
		return "search service sent an invalid response"
	case errors.As(err, &statusErr):
		if statusErr.StatusCode >= http.StatusInternalServerError {
			return fmt.Sprintf("search service unavailable (HTTP %d)", statusErr.StatusCode)
		}
		return fmt.Sprintf("request rejected (HTTP %d)", statusErr.StatusCode)
	case errors.As(err, new(*TransportError)):
		return "could not reach search service"
	default:
		return "search failed"
	}
}
