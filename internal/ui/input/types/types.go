package types

import tea "github.com/charmbracelet/bubbletea"

// Mode represents an input mode
type Mode int

const (
	// ModeTyping is active while the popup is closed
	ModeTyping Mode = iota
	// ModePopup is active while the result popup is open
	ModePopup
)

func (m Mode) String() string {
	switch m {
	case ModePopup:
		return "popup"
	default:
		return "typing"
	}
}

// Action represents a command the model should execute
type Action interface {
	Type() string
}

// Context provides read-only access to widget state needed for input handling
type Context interface {
	PopupOpen() bool
	HasResults() bool
	Retryable() bool
}

// ModeHandler handles input for a specific mode
type ModeHandler interface {
	// HandleKey processes a key message and returns actions and whether to consume the event
	HandleKey(msg tea.KeyMsg, ctx Context) ([]Action, bool)

	// Name returns the mode name for display
	Name() string
}
