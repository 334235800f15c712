package modes

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"typeahead/internal/ui/input/types"
)

// TypingMode handles keys while the popup is closed. Anything it does not
// consume goes to the text input.
type TypingMode struct {
	keys types.KeyMap
}

func NewTypingMode(keys types.KeyMap) *TypingMode {
	return &TypingMode{keys: keys}
}

func (m *TypingMode) Name() string {
	return "typing"
}

func (m *TypingMode) HandleKey(msg tea.KeyMsg, ctx types.Context) ([]types.Action, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return []types.Action{types.QuitAction{Force: true}}, true

	case key.Matches(msg, m.keys.Close):
		return []types.Action{types.QuitAction{Force: false}}, true

	case key.Matches(msg, m.keys.Help):
		return []types.Action{types.ToggleHelpAction{}}, true

	case key.Matches(msg, m.keys.Clear):
		return []types.Action{types.ClearTextAction{}}, true

	case key.Matches(msg, m.keys.Retry):
		return []types.Action{types.RetryAction{}}, true
	}
	return nil, false
}
