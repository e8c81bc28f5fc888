// Package pubsub fans typed events out to in-process subscribers.
//
// modkit runs two streams over it: log lines (internal/log) and lifecycle
// events (internal/lifecycle). Delivery is best-effort. A subscriber whose
// buffer is full misses the event and the broker counts the miss.
package pubsub

import (
	"context"
	"time"
)

// EventType classifies what happened to the payload's subject.
type EventType string

const (
	CreatedEvent EventType = "created"
	UpdatedEvent EventType = "updated"
	DeletedEvent EventType = "deleted"
	FailedEvent  EventType = "failed"
)

// Event is one delivery. Seq is assigned by the broker at publish time and
// increases by one per Publish, so a subscriber that sees a gap knows it
// missed events.
type Event[T any] struct {
	Seq       uint64
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Missed returns how many events were published between prev and e.
func (e Event[T]) Missed(prev Event[T]) uint64 {
	if prev.Seq == 0 || e.Seq <= prev.Seq {
		return 0
	}
	return e.Seq - prev.Seq - 1
}

type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
