package types

// Navigation actions
type NavigateAction struct {
	Direction string // "up" or "down"
}

func (a NavigateAction) Type() string { return "navigate" }

// CommitAction selects the highlighted result
type CommitAction struct{}

func (a CommitAction) Type() string { return "commit" }

// CloseAction dismisses the popup
type CloseAction struct{}

func (a CloseAction) Type() string { return "close" }

// RetryAction re-issues the last query after a failure
type RetryAction struct{}

func (a RetryAction) Type() string { return "retry" }

// Text input actions
type UpdateTextAction struct {
	Text string
}

func (a UpdateTextAction) Type() string { return "update_text" }

type ClearTextAction struct{}

func (a ClearTextAction) Type() string { return "clear_text" }

type ToggleHelpAction struct{}

func (a ToggleHelpAction) Type() string { return "toggle_help" }

type QuitAction struct {
	Force bool // true for Ctrl+C, false for Esc on a closed popup
}

func (a QuitAction) Type() string { return "quit" }
