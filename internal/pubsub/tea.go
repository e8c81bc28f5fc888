package pubsub

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// StreamClosed is delivered once when a subscription carrying T closes.
// Models should stop re-arming that listener when they see it. The type
// parameter tells apart models that listen to several streams.
type StreamClosed[T any] struct{}

// ListenCmd waits for the next event on ch. It yields the Event as the
// message, StreamClosed[T] when ch is closed, and nil when ctx ends first.
func ListenCmd[T any](ctx context.Context, ch <-chan Event[T]) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-ch:
			if !ok {
				return StreamClosed[T]{}
			}
			return event
		}
	}
}

// ContinuousListener holds one subscription for a Bubble Tea model. Update
// re-arms it by returning Listen() after each event.
type ContinuousListener[T any] struct {
	ctx  context.Context
	ch   <-chan Event[T]
	last Event[T]
}

func NewContinuousListener[T any](ctx context.Context, b *Broker[T]) *ContinuousListener[T] {
	return &ContinuousListener[T]{ctx: ctx, ch: b.Subscribe(ctx)}
}

func (l *ContinuousListener[T]) Listen() tea.Cmd {
	return ListenCmd(l.ctx, l.ch)
}

// Observe records e and returns how many events were missed since the
// previously observed one.
func (l *ContinuousListener[T]) Observe(e Event[T]) uint64 {
	missed := e.Missed(l.last)
	l.last = e
	return missed
}
