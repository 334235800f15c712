package views

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title         lipgloss.Style
	Dim           lipgloss.Style
	Header        lipgloss.Style
	Result        lipgloss.Style
	Selected      lipgloss.Style
	Description   lipgloss.Style
	Match         lipgloss.Style
	Stale         lipgloss.Style
	Help          lipgloss.Style
	Main          lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusLoading lipgloss.Style
	StatusSuccess lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		Dim:    lipgloss.NewStyle().Faint(true),
		Header: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Result: lipgloss.NewStyle().PaddingLeft(2),
		Selected: lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(lipgloss.Color("226")).
			Background(lipgloss.Color("238")).
			Bold(true),
		Description:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Match:         lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Underline(true),
		Stale:         lipgloss.NewStyle().PaddingLeft(2).Faint(true),
		Help:          lipgloss.NewStyle().Faint(true),
		Main:          lipgloss.NewStyle().Padding(0, 1),
		StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		StatusWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		StatusLoading: lipgloss.NewStyle().Foreground(lipgloss.Color("241")), // gray
		StatusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("78")),  // green
	}
}
