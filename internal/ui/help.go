package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/noborus/ov/oviewer"

	"typeahead/internal/config"
)

// HelpRenderer handles help content rendering
type HelpRenderer struct {
	config *config.Config
}

// NewHelpRenderer creates a new help renderer
func NewHelpRenderer(cfg *config.Config) *HelpRenderer {
	return &HelpRenderer{config: cfg}
}

// RenderHelpContent generates help content with colors for the pager
func (r *HelpRenderer) RenderHelpContent() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		MarginTop(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("220")).
		Width(14)

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	noteStyle := lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("241"))

	var help strings.Builder
	row := func(keys, desc string) {
		help.WriteString(fmt.Sprintf("  %s %s\n", keyStyle.Render(keys), descStyle.Render(desc)))
	}

	help.WriteString(titleStyle.Render("typeahead Help"))
	help.WriteString("\n")

	help.WriteString(sectionStyle.Render("Searching"))
	help.WriteString("\n")
	row("any text", fmt.Sprintf("Search once at least %d characters are typed", r.config.MinQueryLength))
	row("ctrl+u", "Clear the input")
	row("ctrl+r", "Retry a failed search")
	help.WriteString("\n")

	help.WriteString(sectionStyle.Render("Results"))
	help.WriteString("\n")
	row("↓, ctrl+n, tab", "Highlight next result")
	row("↑, ctrl+p", "Highlight previous result")
	row("enter", "Select the highlighted result")
	row("mouse", "Hover highlights, click selects")
	row("esc", "Close the results")
	help.WriteString("\n")

	help.WriteString(sectionStyle.Render("Other"))
	help.WriteString("\n")
	row("F1", "Show this help")
	row("esc", "Quit when no results are shown")
	row("ctrl+c", "Quit")
	help.WriteString("\n")

	help.WriteString(noteStyle.Render(fmt.Sprintf("  Endpoint: %s", r.config.APIURL)))
	help.WriteString("\n")
	help.WriteString(noteStyle.Render(fmt.Sprintf("  Debounce %s, cache TTL %s, up to %d results",
		r.config.Debounce, r.config.CacheTTL, r.config.MaxResults)))
	help.WriteString("\n")

	return help.String()
}

// HelpOps handles help operations
type HelpOps struct {
	program *tea.Program // reference to Bubble Tea program for terminal management
}

// NewHelpOps creates a new help operations instance
func NewHelpOps() *HelpOps {
	return &HelpOps{}
}

// SetProgram sets the program whose terminal is released while the pager runs
func (h *HelpOps) SetProgram(p *tea.Program) {
	h.program = p
}

// ShowHelpInPager shows help content using ov pager
func (h *HelpOps) ShowHelpInPager(helpContent string) error {
	if h.program == nil {
		return errors.New("program not set")
	}

	// Release terminal control to run ov
	if err := h.program.ReleaseTerminal(); err != nil {
		return err
	}

	// Ensure terminal is restored even if ov fails
	defer func() {
		// Small delay to ensure ov has fully exited before restoring terminal
		time.Sleep(100 * time.Millisecond)
		_ = h.program.RestoreTerminal() // Ignore error as we're in defer context
	}()

	root, err := oviewer.NewRoot(strings.NewReader(helpContent))
	if err != nil {
		return err
	}

	// Configure ov to not write on exit (to avoid messing with our screen)
	cfg := oviewer.NewConfig()
	cfg.IsWriteOnExit = false
	cfg.IsWriteOriginal = false
	root.SetConfig(cfg)

	return root.Run()
}
