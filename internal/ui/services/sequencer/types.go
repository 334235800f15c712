package sequencer

import (
	"errors"
	"time"

	"typeahead/internal/domain"
)

// Token identifies one issued request. Tokens increase monotonically per
// sequencer.
type Token uint64

// ErrSuperseded is reported when a retry loop stops because a newer request
// was issued
var ErrSuperseded = errors.New("request superseded")

// ResponseMsg carries the outcome of an issued request back to the update loop
type ResponseMsg struct {
	SequencerID string
	Token       Token
	Query       domain.Query
	Page        domain.ResultPage
	Err         error
	Message     string // user-facing text when Err is set
	Attempts    int
}

// Failed reports whether the request ended in an error
func (m ResponseMsg) Failed() bool {
	return m.Err != nil
}

// RetryPolicy bounds retries of transient failures
type RetryPolicy struct {
	MaxAttempts    int // total attempts, including the first
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryPolicy returns three attempts in total. Waits start at 500ms
// and double up to a 4s cap.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     4 * time.Second,
	}
}

// Backoff returns the wait after the given failed attempt (1-based):
// InitialBackoff doubled per attempt, capped at MaxBackoff
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 || p.InitialBackoff <= 0 {
		return 0
	}
	d := p.InitialBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}
