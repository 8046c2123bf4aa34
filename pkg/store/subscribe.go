package store

import (
	"sync"

	"github.com/Qefaraki/treescape/pkg/tree"
)

// EventType discriminates node lifecycle notifications.
type EventType int

const (
	// EventCreated announces a node new to the dataset.
	EventCreated EventType = iota
	// EventUpdated announces changed fields on an existing node.
	EventUpdated
	// EventRemoved announces a deleted node. Only Node.ID is meaningful.
	EventRemoved
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventUpdated:
		return "updated"
	case EventRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is one node lifecycle notification from the data layer.
type Event struct {
	Type EventType
	Node tree.Node
}

// Subscription fans node lifecycle events out to a consumer channel.
// Publish never blocks the producer: if the consumer falls behind, the
// oldest buffered event is dropped, matching the engine's stance that an
// incremental update lost is recovered by the next viewport fetch.
type Subscription struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

// NewSubscription creates a subscription with the given buffer size.
func NewSubscription(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 64
	}
	return &Subscription{ch: make(chan Event, buffer)}
}

// Events returns the consumer channel. It is closed by Close.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Publish delivers an event, evicting the oldest buffered event when full.
func (s *Subscription) Publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- ev:
			return
		default:
			select {
			case <-s.ch:
			default:
			}
		}
	}
}

// Close closes the consumer channel. Publish after Close is a no-op.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
