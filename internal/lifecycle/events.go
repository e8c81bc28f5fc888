package lifecycle

import (
	"github.com/zjrosen/modkit/internal/domain/component"
	"github.com/zjrosen/modkit/internal/pubsub"
)

// EventKind identifies what a lifecycle Event reports.
type EventKind string

const (
	EventStateChanged EventKind = "state_changed"
	EventConstructed  EventKind = "constructed"
	EventAttached     EventKind = "attached"
	EventInitialized  EventKind = "initialized"
	EventCleanedUp    EventKind = "cleaned_up"
	EventFailure      EventKind = "failure"
)

// pubsubType maps an EventKind to the broker event type.
func (k EventKind) pubsubType() pubsub.EventType {
	switch k {
	case EventConstructed:
		return pubsub.CreatedEvent
	case EventCleanedUp:
		return pubsub.DeletedEvent
	case EventFailure:
		return pubsub.FailedEvent
	default:
		return pubsub.UpdatedEvent
	}
}

// Event is published on Coordinator.Events for every state change, component
// step and reported failure.
type Event struct {
	Kind          EventKind
	CoordinatorID string
	CycleID       string
	From, To      State            // EventStateChanged
	TypeID        component.TypeID // component events
	Name          string
	Err           error // EventFailure
}

// Message is the event rendered as one human-readable line.
func (e Event) Message() string {
	switch e.Kind {
	case EventStateChanged:
		return string(e.From) + " -> " + string(e.To)
	case EventFailure:
		if e.Err != nil {
			return e.Err.Error()
		}
		return "failure"
	default:
		return string(e.Kind) + " " + e.Name + " (" + e.TypeID.String() + ")"
	}
}
