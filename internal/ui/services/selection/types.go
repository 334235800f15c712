package selection

import (
	"slices"

	"typeahead/internal/domain"
)

// Status is the phase of the widget
type Status int

const (
	StatusIdle    Status = iota // no query, query too short, or popup closed
	StatusLoading               // request in flight
	StatusLoaded                // non-empty results
	StatusEmpty                 // zero results
	StatusError                 // request failed after retries
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusEmpty:
		return "empty"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Key is a navigation key the machine understands
type Key int

const (
	KeyNone Key = iota
	KeyUp
	KeyDown
	KeyEnter
	KeyEscape
)

func (k Key) String() string {
	switch k {
	case KeyUp:
		return "up"
	case KeyDown:
		return "down"
	case KeyEnter:
		return "enter"
	case KeyEscape:
		return "escape"
	default:
		return "none"
	}
}

// State is what the presentation layer renders from
type State struct {
	Query         domain.Query
	Results       []domain.SearchResult
	Status        Status
	SelectedIndex int // -1 = none
	ErrorMessage  string
	Total         int
	Page          int

	// Previous holds the last loaded results while a new request is in
	// flight so the list does not flicker. It is never selectable.
	Previous []domain.SearchResult
}

// Selected returns the highlighted result
func (s State) Selected() (domain.SearchResult, bool) {
	if s.SelectedIndex < 0 || s.SelectedIndex >= len(s.Results) {
		return domain.SearchResult{}, false
	}
	return s.Results[s.SelectedIndex], true
}

// Open reports whether the popup has anything to show
func (s State) Open() bool {
	return s.Status != StatusIdle
}

// Retryable reports whether a manual retry is on offer
func (s State) Retryable() bool {
	return s.Status == StatusError
}

func (s State) clone() State {
	s.Results = slices.Clone(s.Results)
	s.Previous = slices.Clone(s.Previous)
	return s
}

// Transition describes what a key or pointer event did
type Transition struct {
	Handled   bool
	Committed bool
	Closed    bool
	Index     int
	Result    domain.SearchResult // set when Committed
}
