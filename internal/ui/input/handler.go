package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"typeahead/internal/ui/input/modes"
	"typeahead/internal/ui/input/types"
)

// Handler turns key messages into actions. It owns the text input; keys no
// mode consumes are typed into it.
type Handler struct {
	modes     map[types.Mode]types.ModeHandler
	keys      types.KeyMap
	textInput *textinput.Model
}

func New(placeholder, prompt string) *Handler {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = prompt
	ti.Focus()

	keys := types.DefaultKeyMap()

	h := &Handler{
		modes:     make(map[types.Mode]types.ModeHandler),
		keys:      keys,
		textInput: &ti,
	}
	h.modes[types.ModeTyping] = modes.NewTypingMode(keys)
	h.modes[types.ModePopup] = modes.NewPopupMode(keys)
	return h
}

// ModeFor returns the mode that handles keys in ctx
func ModeFor(ctx types.Context) types.Mode {
	if ctx.PopupOpen() {
		return types.ModePopup
	}
	return types.ModeTyping
}

// HandleKey maps msg to actions. An UpdateTextAction is emitted whenever the
// text changes.
func (h *Handler) HandleKey(msg tea.KeyMsg, ctx types.Context) ([]types.Action, tea.Cmd) {
	handler := h.modes[ModeFor(ctx)]
	if handler != nil {
		if actions, consumed := handler.HandleKey(msg, ctx); consumed {
			return actions, nil
		}
	}

	before := h.textInput.Value()
	var cmd tea.Cmd
	*h.textInput, cmd = h.textInput.Update(msg)
	if after := h.textInput.Value(); after != before {
		return []types.Action{types.UpdateTextAction{Text: after}}, cmd
	}
	return nil, cmd
}

// Update handles non-keyboard messages for the text input (cursor blink)
func (h *Handler) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	*h.textInput, cmd = h.textInput.Update(msg)
	return cmd
}

// Init returns the initial command for the handler
func (h *Handler) Init() tea.Cmd {
	return textinput.Blink
}

// Reset clears the text input
func (h *Handler) Reset() {
	h.textInput.Reset()
}

// Focus gives the text input focus
func (h *Handler) Focus() tea.Cmd {
	return h.textInput.Focus()
}

// Blur removes focus from the text input
func (h *Handler) Blur() {
	h.textInput.Blur()
}

// TextInput returns the text input model
func (h *Handler) TextInput() *textinput.Model {
	return h.textInput
}

// Keys returns the key map for the help bar
func (h *Handler) Keys() types.KeyMap {
	return h.keys
}
