package eventbus

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu     sync.Mutex
	events []DomainEvent
}

func (c *collector) handle(e DomainEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func (c *collector) snapshot() []DomainEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]DomainEvent(nil), c.events...)
}

func TestSubscribeReceivesMatchingEvents(t *testing.T) {
	bus := New(nil)
	defer bus.Close()

	c := &collector{}
	bus.Subscribe(EventCacheHit, c.handle)

	bus.Publish(WidgetDisposedEvent{WidgetID: "w1"})
	bus.Publish(CacheHitEvent{WidgetID: "w1", Query: "abc", Results: 2})

	require.Eventually(t, func() bool { return c.len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, CacheHitEvent{WidgetID: "w1", Query: "abc", Results: 2}, c.snapshot()[0])
}

func TestSubscribeAllPreservesOrder(t *testing.T) {
	bus := New(nil)
	defer bus.Close()

	c := &collector{}
	bus.SubscribeAll(c.handle)

	for i := 0; i < 50; i++ {
		bus.Publish(RequestIssuedEvent{WidgetID: "w1", Token: uint64(i)})
	}

	require.Eventually(t, func() bool { return c.len() == 50 }, time.Second, 5*time.Millisecond)
	for i, e := range c.snapshot() {
		assert.Equal(t, uint64(i), e.(RequestIssuedEvent).Token)
	}
}

func TestUnsubscribe(t *testing.T) {
	bus := New(nil)
	defer bus.Close()

	kept := &collector{}
	dropped := &collector{}
	bus.Subscribe(EventPopupClosed, kept.handle)
	unsubscribe := bus.Subscribe(EventPopupClosed, dropped.handle)
	unsubscribe()

	bus.Publish(PopupClosedEvent{WidgetID: "w1", Reason: "escape"})

	require.Eventually(t, func() bool { return kept.len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, dropped.len())
}

func TestHandlerPanicDoesNotStopDispatch(t *testing.T) {
	bus := New(nil)
	defer bus.Close()

	c := &collector{}
	bus.Subscribe(EventError, func(DomainEvent) { panic("boom") })
	bus.SubscribeAll(c.handle)

	bus.Publish(ErrorEvent{Message: "first"})
	bus.Publish(ErrorEvent{Message: "second"})

	require.Eventually(t, func() bool { return c.len() == 2 }, time.Second, 5*time.Millisecond)
}

func TestPublishAfterCloseIsIgnored(t *testing.T) {
	bus := New(nil)
	bus.Close()
	bus.Close()

	assert.NotPanics(t, func() { bus.Publish(WidgetDisposedEvent{WidgetID: "w1"}) })
}

func TestNullBus(t *testing.T) {
	var bus EventBus = NullBus{}
	bus.Publish(WidgetDisposedEvent{})
	bus.Subscribe(EventWidgetDisposed, func(DomainEvent) {})()
	bus.SubscribeAll(func(DomainEvent) {})()
	bus.Close()
}
