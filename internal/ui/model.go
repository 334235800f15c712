package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"typeahead/internal/config"
	"typeahead/internal/domain"
	"typeahead/internal/eventbus"
	"typeahead/internal/logging"
	"typeahead/internal/searchapi"
	"typeahead/internal/ui/controller"
	"typeahead/internal/ui/input"
	inputtypes "typeahead/internal/ui/input/types"
	"typeahead/internal/ui/services/search"
	"typeahead/internal/ui/services/selection"
	"typeahead/internal/ui/views"
)

// How long a transient status message stays on screen
const statusTTL = 3 * time.Second

// Options configures a Model
type Options struct {
	// Fetcher replaces the HTTP client built from the config
	Fetcher searchapi.Fetcher
	Logger  *log.Logger

	// ExitOnSelect quits the program after the first committed result
	ExitOnSelect bool
}

// Model represents the UI state
type Model struct {
	bus    eventbus.EventBus
	config *config.Config
	logger *log.Logger

	// UI-specific state
	width         int
	height        int
	help          help.Model
	spinner       spinner.Model
	statusMessage string
	statusID      int
	inPagerMode   bool // tracks if we're currently in pager mode
	exitOnSelect  bool
	selected      *domain.SearchResult

	// Handlers
	controller   *controller.Controller
	inputHandler *input.Handler
	renderer     *views.Renderer
	highlighter  *search.Service
	helpRenderer *HelpRenderer
	helpOps      *HelpOps
}

// NewModel creates a new UI model
func NewModel(bus eventbus.EventBus, cfg *config.Config, opts Options) (*Model, error) {
	if bus == nil {
		bus = eventbus.NullBus{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	m := &Model{
		bus:          bus,
		config:       cfg,
		logger:       logger.WithPrefix("ui"),
		help:         help.New(),
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot)),
		exitOnSelect: opts.ExitOnSelect,
		inputHandler: input.New(cfg.UISettings.Placeholder, cfg.UISettings.Prompt),
		renderer:     views.NewRenderer(),
		highlighter:  search.NewService(),
		helpRenderer: NewHelpRenderer(cfg),
		helpOps:      NewHelpOps(),
	}
	m.spinner.Style = m.renderer.Styles().StatusLoading

	ctrl, err := controller.New(cfg, controller.Options{
		Fetcher:  opts.Fetcher,
		Bus:      bus,
		Logger:   logger,
		OnSelect: m.onSelect,
	})
	if err != nil {
		return nil, err
	}
	m.controller = ctrl

	return m, nil
}

// SetProgram sets the program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	m.helpOps.SetProgram(p)
}

// Controller returns the widget's query controller
func (m *Model) Controller() *controller.Controller {
	return m.controller
}

// Selected returns the last committed result
func (m *Model) Selected() (domain.SearchResult, bool) {
	if m.selected == nil {
		return domain.SearchResult{}, false
	}
	return *m.selected, true
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.inputHandler.Init(), m.spinner.Tick)
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.inPagerMode {
			return m, nil
		}

		state := m.controller.State()
		actions, cmd := m.inputHandler.HandleKey(msg, widgetContext{state: state})

		cmds := []tea.Cmd{cmd}
		for _, action := range actions {
			cmds = append(cmds, m.processAction(action))
		}
		return m, tea.Batch(cmds...)

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case tea.FocusMsg:
		return m, m.inputHandler.Focus()

	case tea.BlurMsg:
		m.controller.OnBlur()
		m.inputHandler.Blur()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case EventMsg:
		return m, m.handleEvent(msg.Event)

	case clearStatusMsg:
		if msg.id == m.statusID {
			m.statusMessage = ""
		}
		return m, nil

	case pauseRenderingMsg:
		m.inPagerMode = true
		return m, nil

	case resumeRenderingMsg:
		m.inPagerMode = false
		return m, nil

	case helpPagerMsg:
		m.inPagerMode = false
		if msg.err != nil {
			m.logger.Warn("help pager failed", "err", msg.err)
			return m, m.setStatus("Help unavailable: " + msg.err.Error())
		}
		return m, nil
	}

	if m.controller.Owns(msg) {
		return m, m.controller.Update(msg)
	}
	return m, m.inputHandler.Update(msg)
}

// View renders the UI
func (m *Model) View() string {
	state := m.controller.State()
	m.highlighter.SetQuery(state.Query)

	return m.renderer.Render(views.ViewState{
		Width:            m.width,
		Height:           m.height,
		Input:            m.inputHandler.TextInput().View(),
		Selection:        state,
		MinQueryLength:   m.controller.MinQueryLength(),
		Spinner:          m.spinner.View(),
		StatusMessage:    m.statusMessage,
		ShowDescriptions: m.config.UISettings.ShowDescriptions,
		HelpView:         m.help.View(m.inputHandler.Keys()),
		RenderResult:     m.controller.Render,
		Highlight:        m.highlighter.Highlight,
	})
}

// processAction executes a single input action
func (m *Model) processAction(action inputtypes.Action) tea.Cmd {
	switch a := action.(type) {
	case inputtypes.UpdateTextAction:
		return m.controller.OnInput(a.Text)

	case inputtypes.ClearTextAction:
		m.inputHandler.Reset()
		return m.controller.OnInput("")

	case inputtypes.NavigateAction:
		if a.Direction == "up" {
			return m.controller.OnKey(selection.KeyUp)
		}
		return m.controller.OnKey(selection.KeyDown)

	case inputtypes.CommitAction:
		return m.commit(func() tea.Cmd { return m.controller.OnKey(selection.KeyEnter) })

	case inputtypes.CloseAction:
		return m.controller.OnKey(selection.KeyEscape)

	case inputtypes.RetryAction:
		return m.controller.Retry()

	case inputtypes.ToggleHelpAction:
		return m.fetchHelpPager(m.helpRenderer.RenderHelpContent())

	case inputtypes.QuitAction:
		m.controller.Dispose()
		return tea.Quit
	}
	return nil
}

// commit runs fn and quits afterwards when a result was selected and the
// model exits on selection
func (m *Model) commit(fn func() tea.Cmd) tea.Cmd {
	before := m.selected
	cmd := fn()
	if m.exitOnSelect && m.selected != before {
		m.controller.Dispose()
		return tea.Sequence(cmd, tea.Quit)
	}
	return cmd
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.inPagerMode {
		return nil
	}
	state := m.controller.State()
	index := views.IndexAt(msg.Y, state, m.height)
	if index < 0 {
		return nil
	}

	switch {
	case msg.Action == tea.MouseActionMotion:
		m.controller.OnHover(index)

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.controller.OnHover(index)
		return m.commit(func() tea.Cmd { return m.controller.OnKey(selection.KeyEnter) })
	}
	return nil
}

// handleEvent reacts to domain events published by this widget
func (m *Model) handleEvent(event eventbus.DomainEvent) tea.Cmd {
	switch e := event.(type) {
	case eventbus.RequestRetryingEvent:
		if e.WidgetID != m.controller.ID() {
			return nil
		}
		return m.setStatus(fmt.Sprintf("%s, retrying in %s (attempt %d)", searchapi.UserMessage(e.Err), e.Delay, e.Attempt+1))

	case eventbus.ResultsAppliedEvent:
		if e.WidgetID == m.controller.ID() {
			m.statusMessage = ""
		}

	case eventbus.FetchFailedEvent:
		if e.WidgetID == m.controller.ID() {
			m.statusMessage = ""
		}
	}
	return nil
}

// onSelect fills the input with the committed result without searching again
func (m *Model) onSelect(result domain.SearchResult) {
	r := result
	m.selected = &r

	ti := m.inputHandler.TextInput()
	ti.SetValue(result.Title)
	ti.CursorEnd()
}

func (m *Model) setStatus(message string) tea.Cmd {
	m.statusID++
	m.statusMessage = message
	id := m.statusID
	return tea.Tick(statusTTL, func(time.Time) tea.Msg { return clearStatusMsg{id: id} })
}

// fetchHelpPager returns a command that shows help in the pager, pausing and resuming rendering
func (m *Model) fetchHelpPager(helpContent string) tea.Cmd {
	program := m.helpOps.program
	return func() tea.Msg {
		if program != nil {
			program.Send(pauseRenderingMsg{})
			defer program.Send(resumeRenderingMsg{})
		}
		return helpPagerMsg{err: m.helpOps.ShowHelpInPager(helpContent)}
	}
}

// widgetContext adapts the selection state to the input handler
type widgetContext struct {
	state selection.State
}

func (c widgetContext) PopupOpen() bool  { return c.state.Open() }
func (c widgetContext) HasResults() bool { return len(c.state.Results) > 0 }
func (c widgetContext) Retryable() bool  { return c.state.Retryable() }
