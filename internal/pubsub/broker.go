package pubsub

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultBuffer is the per-subscriber queue depth used by NewBroker.
const DefaultBuffer = 64

type subscription[T any] struct {
	ch chan Event[T]
}

// Broker delivers every published event to each live subscription.
// Publish never blocks.
type Broker[T any] struct {
	mu      sync.RWMutex
	subs    map[*subscription[T]]struct{}
	closed  chan struct{}
	depth   int
	seq     atomic.Uint64
	dropped atomic.Uint64
}

var (
	_ Subscriber[int] = (*Broker[int])(nil)
	_ Publisher[int]  = (*Broker[int])(nil)
)

// NewBroker returns a broker with DefaultBuffer slots per subscriber.
func NewBroker[T any]() *Broker[T] {
	return NewBrokerWithBuffer[T](DefaultBuffer)
}

// NewBrokerWithBuffer returns a broker with depth slots per subscriber.
// Negative depths are treated as zero (unbuffered).
func NewBrokerWithBuffer[T any](depth int) *Broker[T] {
	return &Broker[T]{
		subs:   make(map[*subscription[T]]struct{}),
		closed: make(chan struct{}),
		depth:  max(depth, 0),
	}
}

// Subscribe registers a subscription that ends when ctx is done or the
// broker is closed; either way the returned channel is closed.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isClosed() {
		ch := make(chan Event[T])
		close(ch)
		return ch
	}

	sub := &subscription[T]{ch: make(chan Event[T], b.depth)}
	b.subs[sub] = struct{}{}
	go b.reap(ctx, sub)
	return sub.ch
}

// reap removes sub once ctx is done. Close owns the channel otherwise.
func (b *Broker[T]) reap(ctx context.Context, sub *subscription[T]) {
	select {
	case <-b.closed:
		return
	case <-ctx.Done():
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; !ok {
		return
	}
	delete(b.subs, sub)
	close(sub.ch)
}

// Publish stamps payload with the next sequence number and offers it to
// every subscription.
func (b *Broker[T]) Publish(eventType EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.isClosed() {
		return
	}

	event := Event[T]{
		Seq:       b.seq.Add(1),
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	for sub := range b.subs {
		select {
		case sub.ch <- event:
		default:
			b.dropped.Add(1)
		}
	}
}

// Published returns the number of events accepted by Publish.
func (b *Broker[T]) Published() uint64 { return b.seq.Load() }

// Dropped returns the number of deliveries skipped across all subscribers.
func (b *Broker[T]) Dropped() uint64 { return b.dropped.Load() }

// Close ends every subscription. Publish and Subscribe are inert afterwards.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isClosed() {
		return
	}
	close(b.closed)
	for sub := range b.subs {
		close(sub.ch)
		delete(b.subs, sub)
	}
}

func (b *Broker[T]) Closed() bool { return b.isClosed() }

func (b *Broker[T]) isClosed() bool {
	select {
	case <-b.closed:
		return true
	default:
		return false
	}
}

// SubscriberCount returns the number of live subscriptions.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
