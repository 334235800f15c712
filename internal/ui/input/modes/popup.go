package modes

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"typeahead/internal/ui/input/types"
)

// PopupMode handles keys while the result popup is open
type PopupMode struct {
	keys types.KeyMap
}

func NewPopupMode(keys types.KeyMap) *PopupMode {
	return &PopupMode{keys: keys}
}

func (m *PopupMode) Name() string {
	return "popup"
}

func (m *PopupMode) HandleKey(msg tea.KeyMsg, ctx types.Context) ([]types.Action, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return []types.Action{types.QuitAction{Force: true}}, true

	case key.Matches(msg, m.keys.Close):
		return []types.Action{types.CloseAction{}}, true

	case key.Matches(msg, m.keys.Up):
		return []types.Action{types.NavigateAction{Direction: "up"}}, true

	case key.Matches(msg, m.keys.Down):
		return []types.Action{types.NavigateAction{Direction: "down"}}, true

	case key.Matches(msg, m.keys.Select):
		// Enter on a failed search retries it
		if ctx.Retryable() {
			return []types.Action{types.RetryAction{}}, true
		}
		return []types.Action{types.CommitAction{}}, true

	case key.Matches(msg, m.keys.Retry):
		return []types.Action{types.RetryAction{}}, true

	case key.Matches(msg, m.keys.Clear):
		return []types.Action{types.ClearTextAction{}}, true

	case key.Matches(msg, m.keys.Help):
		return []types.Action{types.ToggleHelpAction{}}, true
	}
	return nil, false
}
