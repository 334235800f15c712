package domain

import "time"

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventQuerySkipped           EventType = "QuerySkipped"
	EventCacheHit               EventType = "CacheHit"
	EventRequestIssued          EventType = "RequestIssued"
	EventRequestRetrying        EventType = "RequestRetrying"
	EventResultsApplied         EventType = "ResultsApplied"
	EventStaleResponseDiscarded EventType = "StaleResponseDiscarded"
	EventFetchFailed            EventType = "FetchFailed"
	EventResultSelected         EventType = "ResultSelected"
	EventPopupClosed            EventType = "PopupClosed"
	EventWidgetDisposed         EventType = "WidgetDisposed"
	EventConfigLoaded           EventType = "ConfigLoaded"
	EventError                  EventType = "Error"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// QuerySkippedEvent is emitted when input is below the minimum length and
// no request is made
type QuerySkippedEvent struct {
	WidgetID  string
	Query     Query
	MinLength int
}

func (e QuerySkippedEvent) Type() EventType { return EventQuerySkipped }

// CacheHitEvent is emitted when a query is answered from the result cache
type CacheHitEvent struct {
	WidgetID string
	Query    Query
	Results  int
}

func (e CacheHitEvent) Type() EventType { return EventCacheHit }

// RequestIssuedEvent is emitted when the sequencer mints a token and starts a fetch
type RequestIssuedEvent struct {
	WidgetID string
	Query    Query
	Token    uint64
}

func (e RequestIssuedEvent) Type() EventType { return EventRequestIssued }

// RequestRetryingEvent is emitted before a transient failure is retried
type RequestRetryingEvent struct {
	WidgetID string
	Query    Query
	Token    uint64
	Attempt  int // attempt that failed, 1-based
	Delay    time.Duration
	Err      error
}

func (e RequestRetryingEvent) Type() EventType { return EventRequestRetrying }

// ResultsAppliedEvent is emitted when a page replaces the visible results
type ResultsAppliedEvent struct {
	WidgetID  string
	Query     Query
	Token     uint64 // 0 for cache hits
	Count     int
	Total     int
	FromCache bool
}

func (e ResultsAppliedEvent) Type() EventType { return EventResultsApplied }

// StaleResponseDiscardedEvent is emitted when a response arrives for a
// superseded token
type StaleResponseDiscardedEvent struct {
	WidgetID string
	Query    Query
	Token    uint64
	Latest   uint64
}

func (e StaleResponseDiscardedEvent) Type() EventType { return EventStaleResponseDiscarded }

// FetchFailedEvent is emitted when a fetch fails terminally
type FetchFailedEvent struct {
	WidgetID string
	Query    Query
	Token    uint64
	Attempts int
	Message  string // user-facing
	Err      error
}

func (e FetchFailedEvent) Type() EventType { return EventFetchFailed }

// ResultSelectedEvent is emitted when the user commits a result
type ResultSelectedEvent struct {
	WidgetID string
	Query    Query
	Index    int
	Result   SearchResult
}

func (e ResultSelectedEvent) Type() EventType { return EventResultSelected }

// PopupClosedEvent is emitted on escape or blur
type PopupClosedEvent struct {
	WidgetID string
	Query    Query
	Reason   string // "escape", "blur", "commit"
}

func (e PopupClosedEvent) Type() EventType { return EventPopupClosed }

// WidgetDisposedEvent is emitted once when a controller is torn down
type WidgetDisposedEvent struct {
	WidgetID string
}

func (e WidgetDisposedEvent) Type() EventType { return EventWidgetDisposed }

// ConfigLoadedEvent is emitted when configuration is loaded
type ConfigLoadedEvent struct {
	Path   string // empty when defaults were used
	APIURL string
}

func (e ConfigLoadedEvent) Type() EventType { return EventConfigLoaded }

// ErrorEvent is emitted when an error occurs outside the fetch path
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }
