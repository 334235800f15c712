// Package controller turns raw keystrokes into an ordered, cached and
// race-free sequence of search requests and selection state transitions.
//
// A Controller is confined to the Bubble Tea update loop. Operations that
// need asynchronous work return a tea.Cmd; its result comes back through
// Update. Nothing here takes a lock.
package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"typeahead/internal/config"
	"typeahead/internal/domain"
	"typeahead/internal/eventbus"
	"typeahead/internal/logging"
	"typeahead/internal/searchapi"
	"typeahead/internal/ui/services/cache"
	"typeahead/internal/ui/services/debounce"
	"typeahead/internal/ui/services/selection"
	"typeahead/internal/ui/services/sequencer"
)

// Options carries collaborators and callbacks. Every field is optional.
type Options struct {
	// Fetcher replaces the HTTP client built from the config
	Fetcher searchapi.Fetcher
	Bus     eventbus.EventBus
	Logger  *log.Logger

	// OnSelect is called on the update loop once per committed result
	OnSelect func(domain.SearchResult)

	// RenderResult formats a result row; the title is used when nil
	RenderResult func(domain.SearchResult) string
}

// Controller owns the debounce gate, result cache, request sequencer and
// selection machine of one widget
type Controller struct {
	// Services
	Debounce  *debounce.Service
	Cache     *cache.Service
	Sequencer *sequencer.Service
	Selection *selection.Service

	id         string
	minLength  int
	maxResults int

	ctx    context.Context
	cancel context.CancelFunc

	bus          eventbus.EventBus
	logger       *log.Logger
	onSelect     func(domain.SearchResult)
	renderResult func(domain.SearchResult) string

	input     string       // raw text as last typed
	lastQuery domain.Query // last query sent to the cache/network path
	disposed  bool
}

// New creates a controller for cfg. Each call yields an independent widget.
func New(cfg *config.Config, opts Options) (*Controller, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		client, err := searchapi.NewClient(cfg.APIURL, searchapi.Options{
			Timeout:   cfg.RequestTimeout.Std(),
			RateLimit: cfg.RateLimit,
		})
		if err != nil {
			return nil, err
		}
		fetcher = client
	}

	bus := opts.Bus
	if bus == nil {
		bus = eventbus.NullBus{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())

	c := &Controller{
		id:           id,
		minLength:    cfg.MinQueryLength,
		maxResults:   cfg.MaxResults,
		ctx:          ctx,
		cancel:       cancel,
		bus:          bus,
		logger:       logger.WithPrefix("controller").With("widget", id[:8]),
		onSelect:     opts.OnSelect,
		renderResult: opts.RenderResult,
	}

	c.Cache = cache.NewService(cfg.CacheCapacity, cfg.CacheTTL.Std())
	c.Selection = selection.NewService()
	c.Debounce = debounce.NewService(id, cfg.Debounce.Std(), func(query string) tea.Cmd {
		return c.resolve(domain.Query(query))
	})
	c.Sequencer = sequencer.NewService(ctx, sequencer.Options{
		ID:      id,
		Fetcher: fetcher,
		Limit:   cfg.MaxResults,
		Policy: sequencer.RetryPolicy{
			MaxAttempts:    cfg.Retry.MaxAttempts,
			InitialBackoff: cfg.Retry.InitialBackoff.Std(),
			MaxBackoff:     cfg.Retry.MaxBackoff.Std(),
		},
		Bus:    bus,
		Logger: logger.WithPrefix("sequencer"),
	})

	return c, nil
}

// ID returns the widget id carried by this controller's messages
func (c *Controller) ID() string {
	return c.id
}

// State returns a copy of the selection state for rendering
func (c *Controller) State() selection.State {
	return c.Selection.State()
}

// Input returns the raw text last passed to OnInput
func (c *Controller) Input() string {
	return c.input
}

// MinQueryLength returns the number of runes a query needs to be searched
func (c *Controller) MinQueryLength() int {
	return c.minLength
}

// Disposed reports whether Dispose has been called
func (c *Controller) Disposed() bool {
	return c.disposed
}

// OnInput handles a change of the input text. Queries below the minimum
// length close the popup at once and never reach the cache or network;
// anything else goes through the debounce gate.
func (c *Controller) OnInput(raw string) tea.Cmd {
	if c.disposed {
		return nil
	}
	c.input = raw
	query := domain.NormalizeQuery(raw)

	if !query.IsSearchable(c.minLength) {
		c.Debounce.Cancel()
		c.Sequencer.Invalidate()
		c.lastQuery = ""
		c.Selection.Reset(query)
		c.bus.Publish(eventbus.QuerySkippedEvent{WidgetID: c.id, Query: query, MinLength: c.minLength})
		return nil
	}

	// Typing back to what is already shown or loading needs no new request
	state := c.Selection.State()
	if query == state.Query {
		switch state.Status {
		case selection.StatusLoading, selection.StatusLoaded, selection.StatusEmpty:
			c.Debounce.Cancel()
			return nil
		}
	}

	return c.Debounce.Submit(query.String())
}

// OnKey handles a navigation key. Enter on an error retries the last query.
func (c *Controller) OnKey(key selection.Key) tea.Cmd {
	if c.disposed {
		return nil
	}

	if key == selection.KeyEnter && c.Selection.Status() == selection.StatusError {
		return c.Retry()
	}

	if key == selection.KeyEscape {
		// A pending trigger or late response must not reopen the popup
		c.Debounce.Cancel()
		c.Sequencer.Invalidate()
	}

	query := c.Selection.State().Query
	t := c.Selection.HandleKey(key)
	if t.Committed {
		c.logger.Info("result selected", "query", query, "id", t.Result.ID, "index", t.Index)
		c.bus.Publish(eventbus.ResultSelectedEvent{WidgetID: c.id, Query: query, Index: t.Index, Result: t.Result})
		if c.onSelect != nil {
			c.onSelect(t.Result)
		}
		c.bus.Publish(eventbus.PopupClosedEvent{WidgetID: c.id, Query: query, Reason: "commit"})
	} else if t.Closed {
		c.bus.Publish(eventbus.PopupClosedEvent{WidgetID: c.id, Query: query, Reason: "escape"})
	}
	return nil
}

// OnHover highlights the result under the pointer without committing
func (c *Controller) OnHover(index int) {
	if c.disposed {
		return
	}
	c.Selection.Hover(index)
}

// OnBlur closes the popup and drops pending work. The input text is kept.
func (c *Controller) OnBlur() {
	if c.disposed {
		return
	}
	c.Debounce.Cancel()
	c.Sequencer.Invalidate()
	if c.Selection.Status() != selection.StatusIdle {
		c.Selection.Close()
		c.bus.Publish(eventbus.PopupClosedEvent{WidgetID: c.id, Query: c.Selection.State().Query, Reason: "blur"})
	}
}

// Retry re-issues the last query through the same cache and sequencing path
// as a keystroke, without waiting for the debounce delay
func (c *Controller) Retry() tea.Cmd {
	if c.disposed || c.lastQuery == "" {
		return nil
	}
	c.Debounce.Cancel()
	c.logger.Info("retrying query", "query", c.lastQuery)
	return c.resolve(c.lastQuery)
}

// Dispose tears the widget down: the debounce timer is stopped, the
// in-flight token invalidated and background retries cancelled. Responses
// that arrive later are inert. Dispose is idempotent.
func (c *Controller) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	c.lastQuery = ""
	c.Debounce.Cancel()
	c.Sequencer.Invalidate()
	c.cancel()
	c.Selection.Reset("")
	c.Cache.Purge()
	c.logger.Debug("disposed")
	c.bus.Publish(eventbus.WidgetDisposedEvent{WidgetID: c.id})
}

// Update routes the controller's own asynchronous completions. Messages
// belonging to other widgets are ignored.
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	if c.disposed {
		return nil
	}

	switch msg := msg.(type) {
	case debounce.FiredMsg:
		return c.Debounce.Fire(msg)

	case sequencer.ResponseMsg:
		c.handleResponse(msg)
	}
	return nil
}

// Owns reports whether msg is addressed to this controller
func (c *Controller) Owns(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case debounce.FiredMsg:
		return msg.GateID == c.id
	case sequencer.ResponseMsg:
		return msg.SequencerID == c.id
	}
	return false
}

// Render formats a result with the configured renderer
func (c *Controller) Render(r domain.SearchResult) string {
	if c.renderResult != nil {
		return c.renderResult(r)
	}
	return r.Title
}

// resolve answers query from the cache when possible, otherwise issues a
// request
func (c *Controller) resolve(query domain.Query) tea.Cmd {
	c.lastQuery = query
	c.Cache.InvalidateExpired()

	if page, ok := c.Cache.Get(query); ok {
		// An older request still in flight must not overwrite the cached answer
		c.Sequencer.Invalidate()
		c.Selection.Apply(query, page)
		c.logger.Debug("cache hit", "query", query, "results", len(page.Results))
		c.bus.Publish(eventbus.CacheHitEvent{WidgetID: c.id, Query: query, Results: len(page.Results)})
		c.bus.Publish(eventbus.ResultsAppliedEvent{
			WidgetID:  c.id,
			Query:     query,
			Count:     len(page.Results),
			Total:     page.Total,
			FromCache: true,
		})
		return nil
	}

	c.Selection.BeginLoading(query)
	return c.Sequencer.Issue(query)
}

func (c *Controller) handleResponse(msg sequencer.ResponseMsg) {
	if !c.Sequencer.Accept(msg) {
		return
	}

	if msg.Failed() {
		if errors.Is(msg.Err, sequencer.ErrSuperseded) || errors.Is(msg.Err, context.Canceled) {
			return
		}
		c.Selection.Fail(msg.Query, msg.Message)
		c.logger.Error("search failed", "query", msg.Query, "attempts", msg.Attempts, "err", msg.Err)
		c.bus.Publish(eventbus.FetchFailedEvent{
			WidgetID: c.id,
			Query:    msg.Query,
			Token:    uint64(msg.Token),
			Attempts: msg.Attempts,
			Message:  msg.Message,
			Err:      msg.Err,
		})
		return
	}

	c.Cache.Put(msg.Query, msg.Page)
	c.Selection.Apply(msg.Query, msg.Page)
	c.logger.Debug("results applied", "query", msg.Query, "results", len(msg.Page.Results), "total", msg.Page.Total)
	c.bus.Publish(eventbus.ResultsAppliedEvent{
		WidgetID: c.id,
		Query:    msg.Query,
		Token:    uint64(msg.Token),
		Count:    len(msg.Page.Results),
		Total:    msg.Page.Total,
	})
}

// DebounceDelay returns the configured debounce delay
func (c *Controller) DebounceDelay() time.Duration {
	return c.Debounce.Delay()
}
