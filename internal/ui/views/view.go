package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"typeahead/internal/domain"
	"typeahead/internal/ui/services/selection"
)

// Rows above the first result row: the input line and the popup header
const resultsOffset = 2

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width            int
	Height           int
	Input            string
	Selection        selection.State
	MinQueryLength   int
	Spinner          string
	StatusMessage    string
	ShowDescriptions bool
	HelpView         string
	RenderResult     func(domain.SearchResult) string

	// Highlight marks query matches in a title; it receives plain text only
	Highlight func(text string, style func(string) string) string
}

// Renderer handles all view rendering
type Renderer struct {
	styles *Styles
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{styles: NewStyles()}
}

// Styles returns the renderer's styles
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// Render produces the complete view
func (r *Renderer) Render(state ViewState) string {
	content := &strings.Builder{}

	content.WriteString(state.Input)
	content.WriteString("\n")

	switch state.Selection.Status {
	case selection.StatusIdle:
		content.WriteString(r.renderIdle(state))

	case selection.StatusLoading:
		content.WriteString(r.renderLoading(state))

	case selection.StatusLoaded:
		content.WriteString(r.renderLoaded(state))

	case selection.StatusEmpty:
		content.WriteString(r.styles.Header.Render(fmt.Sprintf("No results for %q", state.Selection.Query.String())))
		content.WriteString("\n")

	case selection.StatusError:
		content.WriteString(r.styles.StatusError.Render("✗ " + state.Selection.ErrorMessage))
		content.WriteString("\n")
		content.WriteString(r.styles.Dim.Render("  press enter or ctrl+r to retry"))
		content.WriteString("\n")
	}

	if state.StatusMessage != "" {
		content.WriteString("\n")
		content.WriteString(r.styles.StatusWarning.Render(state.StatusMessage))
		content.WriteString("\n")
	}

	if state.HelpView != "" {
		content.WriteString("\n")
		content.WriteString(r.styles.Help.Render(state.HelpView))
	}

	return r.styles.Main.Render(content.String())
}

func (r *Renderer) renderIdle(state ViewState) string {
	query := state.Selection.Query
	if query.Len() > 0 && !query.IsSearchable(state.MinQueryLength) {
		return r.styles.Dim.Render(fmt.Sprintf("Type at least %d characters", state.MinQueryLength)) + "\n"
	}
	return "\n"
}

// renderLoading shows the spinner over the previous results, which stay
// visible but cannot be selected
func (r *Renderer) renderLoading(state ViewState) string {
	var b strings.Builder
	b.WriteString(r.styles.StatusLoading.Render(fmt.Sprintf("%s Searching %q", state.Spinner, state.Selection.Query.String())))
	b.WriteString("\n")
	start, end := window(len(state.Selection.Previous), -1, state.Height)
	for _, result := range state.Selection.Previous[start:end] {
		b.WriteString(r.styles.Stale.Render(r.line(state, result)))
		b.WriteString("\n")
	}
	return b.String()
}

func (r *Renderer) renderLoaded(state ViewState) string {
	var b strings.Builder
	sel := state.Selection
	b.WriteString(r.styles.Header.Render(r.header(sel)))
	b.WriteString("\n")

	start, end := window(len(sel.Results), sel.SelectedIndex, state.Height)
	for i := start; i < end; i++ {
		line := r.line(state, sel.Results[i])
		if i == sel.SelectedIndex {
			b.WriteString(r.styles.Selected.Render("▸ " + line))
		} else {
			b.WriteString(r.styles.Result.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (r *Renderer) header(sel selection.State) string {
	if sel.Total > len(sel.Results) {
		return fmt.Sprintf("%d of %d results", len(sel.Results), sel.Total)
	}
	if len(sel.Results) == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", len(sel.Results))
}

func (r *Renderer) line(state ViewState, result domain.SearchResult) string {
	text := result.Title
	if state.RenderResult != nil {
		text = state.RenderResult(result)
	}
	plain := text == result.Title
	width := state.Width - 8
	if width > 0 {
		text = truncateWidth(text, width)
	}
	textWidth := lipgloss.Width(text)
	if plain && state.Highlight != nil {
		text = state.Highlight(text, r.match)
	}
	if !state.ShowDescriptions || !result.HasDescription() {
		return text
	}

	desc := result.Description
	if width > 0 {
		room := width - textWidth - 2
		if room < 4 {
			return text
		}
		desc = truncateWidth(desc, room)
	}
	return text + "  " + r.styles.Description.Render(desc)
}

func (r *Renderer) match(s string) string {
	return r.styles.Match.Render(s)
}

// window returns the range of result rows that fit under the input and
// header. Rows are paged so that selected is visible and hovering within a
// page never scrolls it. A non-positive height shows every row.
func window(n, selected, height int) (start, end int) {
	if height <= 0 {
		return 0, n
	}
	room := height - resultsOffset - 3
	if room < 1 {
		room = 1
	}
	if n <= room {
		return 0, n
	}
	if selected > 0 {
		start = selected / room * room
	}
	return start, min(start+room, n)
}

// IndexAt maps a screen row to a result index, or -1 when the row holds no
// visible result. height must be the one the view was rendered with.
func IndexAt(y int, state selection.State, height int) int {
	if state.Status != selection.StatusLoaded {
		return -1
	}
	start, end := window(len(state.Results), state.SelectedIndex, height)
	i := start + y - resultsOffset
	if y < resultsOffset || i >= end {
		return -1
	}
	return i
}

func truncateWidth(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
