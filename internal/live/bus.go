// Package live provides the operator event feed: an in-process event bus
// with a WebSocket fan-out endpoint.
package live

import (
	"sync"
	"time"
)

// Event types published by the intake workflow.
const (
	EventSessionStarted  = "session_started"
	EventFieldsUpdated   = "fields_updated"
	EventPhotoReceived   = "photo_received"
	EventIntakeCompleted = "intake_completed"
	EventDeliveryFailed  = "delivery_failed"
)

// Event is one operator-feed entry.
type Event struct {
	Type      string         `json:"type"`
	SessionID string         `json:"session_id"`
	At        time.Time      `json:"at"`
	Data      map[string]any `json:"data,omitempty"`
}

// Bus fans events out to subscribers. Publishing never blocks: slow
// subscribers lose events rather than stalling the intake workflow.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan Event
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Publish delivers the event to all current subscribers.
func (b *Bus) Publish(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			// Subscriber is not keeping up; drop the event for it.
		}
	}
}

// Subscribe registers a new subscriber and returns its channel plus a
// cancel function. The channel is closed on cancel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, 64)
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Subscribers returns the current subscriber count.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
