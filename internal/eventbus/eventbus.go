package eventbus

import (
	"runtime/debug"
	"sync"

	"github.com/charmbracelet/log"

	"typeahead/internal/domain"
	"typeahead/internal/logging"
)

// Re-export domain types for convenience
type DomainEvent = domain.DomainEvent
type EventType = domain.EventType

// Event type constants
const (
	EventQuerySkipped           = domain.EventQuerySkipped
	EventCacheHit               = domain.EventCacheHit
	EventRequestIssued          = domain.EventRequestIssued
	EventRequestRetrying        = domain.EventRequestRetrying
	EventResultsApplied         = domain.EventResultsApplied
	EventStaleResponseDiscarded = domain.EventStaleResponseDiscarded
	EventFetchFailed            = domain.EventFetchFailed
	EventResultSelected         = domain.EventResultSelected
	EventPopupClosed            = domain.EventPopupClosed
	EventWidgetDisposed         = domain.EventWidgetDisposed
	EventConfigLoaded           = domain.EventConfigLoaded
	EventError                  = domain.EventError
)

// Re-export domain event types
type QuerySkippedEvent = domain.QuerySkippedEvent
type CacheHitEvent = domain.CacheHitEvent
type RequestIssuedEvent = domain.RequestIssuedEvent
type RequestRetryingEvent = domain.RequestRetryingEvent
type ResultsAppliedEvent = domain.ResultsAppliedEvent
type StaleResponseDiscardedEvent = domain.StaleResponseDiscardedEvent
type FetchFailedEvent = domain.FetchFailedEvent
type ResultSelectedEvent = domain.ResultSelectedEvent
type PopupClosedEvent = domain.PopupClosedEvent
type WidgetDisposedEvent = domain.WidgetDisposedEvent
type ConfigLoadedEvent = domain.ConfigLoadedEvent
type ErrorEvent = domain.ErrorEvent

// EventHandler is a function that handles domain events
type EventHandler func(DomainEvent)

// EventBus is the interface for the event bus
type EventBus interface {
	Publish(event DomainEvent)
	Subscribe(eventType EventType, handler EventHandler) func()
	SubscribeAll(handler EventHandler) func()
	Close()
}

type subscription struct {
	id      uint64
	handler EventHandler
}

// bus is the concrete implementation of EventBus
type bus struct {
	mu        sync.RWMutex
	handlers  map[EventType][]subscription
	wildcard  []subscription
	nextID    uint64
	eventChan chan DomainEvent
	wg        sync.WaitGroup
	quit      chan struct{}
	closeOnce sync.Once
	logger    *log.Logger
}

// New creates a new event bus
func New(logger *log.Logger) EventBus {
	if logger == nil {
		logger = logging.Discard()
	}
	b := &bus{
		handlers:  make(map[EventType][]subscription),
		eventChan: make(chan DomainEvent, 1000),
		quit:      make(chan struct{}),
		logger:    logger.WithPrefix("eventbus"),
	}

	// Start the event dispatcher
	b.wg.Add(1)
	go b.dispatch()

	return b
}

// Publish queues an event for all subscribers. It never blocks the caller,
// which is usually the UI update loop.
func (b *bus) Publish(event DomainEvent) {
	select {
	case <-b.quit:
		return
	default:
	}

	select {
	case b.eventChan <- event:
	default:
		b.logger.Warn("channel full, dropping event", "type", event.Type())
	}
}

// Subscribe subscribes to events of a specific type.
// Returns an unsubscribe function.
func (b *bus) Subscribe(eventType EventType, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.handlers[eventType] = removeSubscription(b.handlers[eventType], id)
	}
}

// SubscribeAll subscribes to every event type
func (b *bus) SubscribeAll(handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.wildcard = append(b.wildcard, subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.wildcard = removeSubscription(b.wildcard, id)
	}
}

// Close stops the dispatcher. Events still queued are dropped.
func (b *bus) Close() {
	b.closeOnce.Do(func() {
		close(b.quit)
	})
	b.wg.Wait()
}

func removeSubscription(subs []subscription, id uint64) []subscription {
	for i, s := range subs {
		if s.id == id {
			out := make([]subscription, 0, len(subs)-1)
			out = append(out, subs[:i]...)
			return append(out, subs[i+1:]...)
		}
	}
	return subs
}

// dispatch delivers events in publish order. Handlers run on the dispatcher
// goroutine, so a slow handler delays later events but never the publisher.
func (b *bus) dispatch() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.eventChan:
			b.mu.RLock()
			subs := make([]subscription, 0, len(b.handlers[event.Type()])+len(b.wildcard))
			subs = append(subs, b.handlers[event.Type()]...)
			subs = append(subs, b.wildcard...)
			b.mu.RUnlock()

			for _, s := range subs {
				b.call(s.handler, event)
			}

		case <-b.quit:
			return
		}
	}
}

func (b *bus) call(h EventHandler, event DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panic", "type", event.Type(), "panic", r, "stack", string(debug.Stack()))
		}
	}()
	h(event)
}

// NullBus is a no-op implementation of EventBus
type NullBus struct{}

func (NullBus) Publish(event DomainEvent)                                  {}
func (NullBus) Subscribe(eventType EventType, handler EventHandler) func() { return func() {} }
func (NullBus) SubscribeAll(handler EventHandler) func()                   { return func() {} }
func (NullBus) Close()                                                     {}
