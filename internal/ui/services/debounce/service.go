package debounce

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Service collapses bursts of submissions into one delayed trigger.
// It must only be used from the update loop.
type Service struct {
	id     string
	delay  time.Duration
	state  *State
	stop   chan struct{} // closed to stop the pending timer
	onFire func(query string) tea.Cmd
}

// NewService creates a gate. id scopes FiredMsg to this gate; onFire is
// invoked with the latest query once the delay elapses without another
// submission.
func NewService(id string, delay time.Duration, onFire func(query string) tea.Cmd) *Service {
	return &Service{
		id:     id,
		delay:  delay,
		state:  &State{},
		onFire: onFire,
	}
}

// Submit records query as the latest input and restarts the timer. The
// returned command waits for the delay and yields a FiredMsg, or nothing if
// the timer is stopped first.
func (s *Service) Submit(query string) tea.Cmd {
	s.stopTimer()
	s.state.Seq++
	s.state.Pending = true
	s.state.Latest = query

	stop := make(chan struct{})
	s.stop = stop
	msg := FiredMsg{GateID: s.id, Seq: s.state.Seq}
	delay := s.delay

	return func() tea.Msg {
		if delay <= 0 {
			select {
			case <-stop:
				return nil
			default:
				return msg
			}
		}

		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
			return msg
		case <-stop:
			return nil
		}
	}
}

// Fire handles a FiredMsg. It calls onFire exactly once for the latest
// submission and ignores messages from stopped or superseded timers.
func (s *Service) Fire(msg FiredMsg) tea.Cmd {
	if msg.GateID != s.id || msg.Seq != s.state.Seq || !s.state.Pending {
		return nil
	}
	s.state.Pending = false
	s.stop = nil
	if s.onFire == nil {
		return nil
	}
	return s.onFire(s.state.Latest)
}

// Cancel stops the pending timer. A FiredMsg already queued is ignored.
func (s *Service) Cancel() {
	s.stopTimer()
	s.state.Seq++
	s.state.Pending = false
}

// Pending reports whether a trigger is outstanding
func (s *Service) Pending() bool {
	return s.state.Pending
}

// Latest returns the last submitted query
func (s *Service) Latest() string {
	return s.state.Latest
}

// Delay returns the configured delay
func (s *Service) Delay() time.Duration {
	return s.delay
}

func (s *Service) stopTimer() {
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}
