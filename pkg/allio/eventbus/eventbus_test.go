package eventbus_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchcask/allio/pkg/allio/eventbus"
	"github.com/watchcask/allio/pkg/allio/types"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	bus := eventbus.New(4)
	_, events, unsub := bus.Subscribe()
	defer unsub()

	bus.Publish(types.Event{Kind: types.EventMousePosition})

	select {
	case ev := <-events:
		assert.Equal(t, types.EventMousePosition, ev.Kind)
	default:
		t.Fatal("expected a buffered event")
	}
}

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	bus := eventbus.New(4)
	_, a, unsubA := bus.Subscribe()
	_, b, unsubB := bus.Subscribe()
	defer unsubA()
	defer unsubB()

	bus.Publish(types.Event{Kind: types.EventWindowAdded})

	assert.Len(t, a, 1)
	assert.Len(t, b, 1)
}

func TestOverflowDropsOldestNotNewest(t *testing.T) {
	bus := eventbus.New(2)
	_, events, unsub := bus.Subscribe()
	defer unsub()

	var dropped int
	var mu sync.Mutex
	bus.SetOverflowHandler(func(int) {
		mu.Lock()
		dropped++
		mu.Unlock()
	})

	bus.Publish(types.Event{Kind: types.EventWindowAdded, WindowID: 1})
	bus.Publish(types.Event{Kind: types.EventWindowAdded, WindowID: 2})
	bus.Publish(types.Event{Kind: types.EventWindowAdded, WindowID: 3}) // drops WindowID 1

	require.Len(t, events, 2)
	first := <-events
	second := <-events
	assert.Equal(t, types.WindowId(2), first.WindowID)
	assert.Equal(t, types.WindowId(3), second.WindowID)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, dropped)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := eventbus.New(4)
	id, events, _ := bus.Subscribe()
	bus.Unsubscribe(id)

	bus.Publish(types.Event{Kind: types.EventWindowAdded})

	_, ok := <-events
	assert.False(t, ok, "channel should be closed after unsubscribe")
}

func TestSubscriberCount(t *testing.T) {
	bus := eventbus.New(4)
	assert.Equal(t, 0, bus.SubscriberCount())
	_, _, unsub := bus.Subscribe()
	assert.Equal(t, 1, bus.SubscriberCount())
	unsub()
	assert.Equal(t, 0, bus.SubscriberCount())
}
