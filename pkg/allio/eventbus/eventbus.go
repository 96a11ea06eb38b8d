// Package eventbus is a bounded, multi-subscriber broadcast of allio
// Events. Each subscriber gets its own buffered channel; when a slow
// subscriber's buffer fills, the bus drops the oldest buffered event to
// make room for the new one rather than blocking the publisher or the
// other subscribers.
package eventbus

import (
	"sync"

	"github.com/watchcask/allio/pkg/allio/types"
)

// DefaultCapacity is the default per-subscriber channel capacity, matching
// the event channel capacity used across the rest of the accessibility
// pipeline.
const DefaultCapacity = 5000

// OverflowHandler is called whenever a subscriber's buffer had to drop an
// event to make room. Wire this to a metrics counter; it must not block.
type OverflowHandler func(subscriberID int)

// Bus is a bounded broadcast channel over types.Event.
//
// Thread Safety:
//
//	All methods are safe to call concurrently.
type Bus struct {
	mu       sync.Mutex
	capacity int
	subs     map[int]chan types.Event
	nextID   int

	onOverflow OverflowHandler
}

// New builds a Bus whose subscriber channels each hold up to capacity
// events before the drop-oldest policy kicks in.
func New(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus{
		capacity: capacity,
		subs:     make(map[int]chan types.Event),
	}
}

// SetOverflowHandler installs the callback invoked when a subscriber drops
// an event. Like every Bus method it takes the bus lock, so it may be
// called while other goroutines publish.
func (b *Bus) SetOverflowHandler(h OverflowHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onOverflow = h
}

// Subscribe registers a new subscriber and returns its id, a receive-only
// channel of events published from this point on, and an Unsubscribe
// function. Callers must eventually call Unsubscribe to release the
// channel.
func (b *Bus) Subscribe() (id int, events <-chan types.Event, unsubscribe func()) {
	b.mu.Lock()
	id = b.nextID
	b.nextID++
	ch := make(chan types.Event, b.capacity)
	b.subs[id] = ch
	b.mu.Unlock()

	return id, ch, func() { b.Unsubscribe(id) }
}

// Unsubscribe removes a subscriber and closes its channel. Safe to call
// more than once.
func (b *Bus) Unsubscribe(id int) {
	b.mu.Lock()
	ch, ok := b.subs[id]
	if ok {
		delete(b.subs, id)
	}
	b.mu.Unlock()

	if ok {
		close(ch)
	}
}

// Publish broadcasts event to every current subscriber. A subscriber whose
// buffer is full has its oldest buffered event dropped to make room; the
// new event is never discarded in favor of an older one.
func (b *Bus) Publish(event types.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			// Buffer full: evict the oldest entry, then retry once. A
			// concurrent receiver may have already drained a slot, so
			// don't treat a second failure as impossible to satisfy.
			select {
			case <-ch:
				if b.onOverflow != nil {
					b.onOverflow(id)
				}
			default:
			}
			select {
			case ch <- event:
			default:
			}
		}
	}
}

// SubscriberCount reports the current number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
