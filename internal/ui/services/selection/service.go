package selection

import (
	"typeahead/internal/domain"
)

const defaultErrorMessage = "search failed"

// Service is the selection state machine. It owns the State and must only
// be used from the update loop.
type Service struct {
	state *State
}

// NewService creates a machine in the idle state
func NewService() *Service {
	return &Service{
		state: &State{
			Status:        StatusIdle,
			SelectedIndex: -1,
		},
	}
}

// State returns a copy of the current state
func (s *Service) State() State {
	return s.state.clone()
}

// Status returns the current status
func (s *Service) Status() Status {
	return s.state.Status
}

// Reset moves to idle for query, dropping results
func (s *Service) Reset(query domain.Query) {
	s.state.Query = query
	s.clear()
}

// BeginLoading marks a request for query as in flight. Results of the last
// loaded page stay visible as Previous.
func (s *Service) BeginLoading(query domain.Query) {
	switch s.state.Status {
	case StatusLoaded:
		s.state.Previous = s.state.Results
	case StatusLoading:
		// keep what is already shown
	default:
		s.state.Previous = nil
	}
	s.state.Query = query
	s.state.Results = nil
	s.state.Status = StatusLoading
	s.state.SelectedIndex = -1
	s.state.ErrorMessage = ""
}

// Apply replaces the results with page. The selection always resets so a
// stale index never points into the new list.
func (s *Service) Apply(query domain.Query, page domain.ResultPage) {
	s.state.Query = query
	s.state.Results = page.Clone().Results
	s.state.Total = page.Total
	s.state.Page = page.Page
	s.state.Previous = nil
	s.state.ErrorMessage = ""
	s.state.SelectedIndex = -1
	if len(s.state.Results) == 0 {
		s.state.Results = nil
		s.state.Status = StatusEmpty
	} else {
		s.state.Status = StatusLoaded
	}
}

// Fail moves to the error state with a user-facing message
func (s *Service) Fail(query domain.Query, message string) {
	if message == "" {
		message = defaultErrorMessage
	}
	s.state.Query = query
	s.state.Results = nil
	s.state.Previous = nil
	s.state.Total = 0
	s.state.Page = 0
	s.state.Status = StatusError
	s.state.SelectedIndex = -1
	s.state.ErrorMessage = message
}

// Close hides the popup but keeps the query text
func (s *Service) Close() {
	s.clear()
}

// HandleKey processes a navigation key. Escape closes the popup from any
// open state; the other keys only act on a loaded list.
func (s *Service) HandleKey(key Key) Transition {
	if key == KeyEscape {
		if s.state.Status == StatusIdle && s.state.SelectedIndex == -1 {
			return Transition{Index: -1}
		}
		s.clear()
		return Transition{Handled: true, Closed: true, Index: -1}
	}

	if s.state.Status != StatusLoaded {
		return Transition{Index: s.state.SelectedIndex}
	}

	last := len(s.state.Results) - 1
	switch key {
	case KeyDown:
		if s.state.SelectedIndex >= last {
			s.state.SelectedIndex = 0
		} else {
			s.state.SelectedIndex++
		}
		return Transition{Handled: true, Index: s.state.SelectedIndex}

	case KeyUp:
		if s.state.SelectedIndex <= 0 {
			s.state.SelectedIndex = last
		} else {
			s.state.SelectedIndex--
		}
		return Transition{Handled: true, Index: s.state.SelectedIndex}

	case KeyEnter:
		result, ok := s.state.Selected()
		if !ok {
			return Transition{Index: -1}
		}
		index := s.state.SelectedIndex
		s.clear()
		return Transition{Handled: true, Committed: true, Closed: true, Index: index, Result: result}
	}

	return Transition{Index: s.state.SelectedIndex}
}

// Hover highlights index without committing. Out of range indexes and
// hovers outside a loaded list are ignored.
func (s *Service) Hover(index int) bool {
	if s.state.Status != StatusLoaded || index < 0 || index >= len(s.state.Results) {
		return false
	}
	if s.state.SelectedIndex == index {
		return false
	}
	s.state.SelectedIndex = index
	return true
}

func (s *Service) clear() {
	s.state.Results = nil
	s.state.Previous = nil
	s.state.Total = 0
	s.state.Page = 0
	s.state.Status = StatusIdle
	s.state.SelectedIndex = -1
	s.state.ErrorMessage = ""
}
