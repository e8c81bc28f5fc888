package pubsub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type transition struct {
	From, To string
}

func recv[T any](t *testing.T, ch <-chan Event[T]) Event[T] {
	t.Helper()
	select {
	case e, ok := <-ch:
		require.True(t, ok, "channel closed")
		return e
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
		return Event[T]{}
	}
}

func TestBroker_DeliversStampedEvents(t *testing.T) {
	b := NewBroker[transition]()
	defer b.Close()
	ch := b.Subscribe(context.Background())

	b.Publish(UpdatedEvent, transition{"empty", "discovering"})
	b.Publish(UpdatedEvent, transition{"discovering", "constructing"})

	first, second := recv(t, ch), recv(t, ch)
	require.Equal(t, transition{"empty", "discovering"}, first.Payload)
	require.Equal(t, UpdatedEvent, first.Type)
	require.False(t, first.Timestamp.IsZero())
	require.Equal(t, []uint64{1, 2}, []uint64{first.Seq, second.Seq})
	require.Zero(t, second.Missed(first))
}

func TestBroker_FanOut(t *testing.T) {
	b := NewBroker[string]()
	defer b.Close()

	subs := make([]<-chan Event[string], 3)
	for i := range subs {
		subs[i] = b.Subscribe(context.Background())
	}
	require.Equal(t, 3, b.SubscriberCount())

	b.Publish(FailedEvent, "sample.LegacyPhysicsModule")
	for _, ch := range subs {
		e := recv(t, ch)
		require.Equal(t, FailedEvent, e.Type)
		require.Equal(t, "sample.LegacyPhysicsModule", e.Payload)
	}
}

func TestBroker_CancelledSubscriptionIsReaped(t *testing.T) {
	b := NewBroker[string]()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := b.Subscribe(ctx)
	keep := b.Subscribe(context.Background())
	cancel()

	require.Eventually(t, func() bool { return b.SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)
	_, ok := <-ch
	require.False(t, ok)

	b.Publish(CreatedEvent, "still delivered")
	require.Equal(t, "still delivered", recv(t, keep).Payload)
}

func TestBroker_FullSubscriberDropsWithoutBlocking(t *testing.T) {
	b := NewBrokerWithBuffer[int](1)
	defer b.Close()
	ch := b.Subscribe(context.Background())

	done := make(chan struct{})
	go func() {
		for i := range 3 {
			b.Publish(CreatedEvent, i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}

	require.Equal(t, 0, recv(t, ch).Payload)
	require.Equal(t, uint64(2), b.Dropped())
	require.Equal(t, uint64(3), b.Published())
}

func TestBroker_UnbufferedWithoutReaderDrops(t *testing.T) {
	b := NewBrokerWithBuffer[int](-1)
	defer b.Close()
	ch := b.Subscribe(context.Background())

	b.Publish(CreatedEvent, 1)
	require.Equal(t, uint64(1), b.Dropped())
	select {
	case <-ch:
		t.Fatal("unexpected delivery")
	default:
	}
}

func TestBroker_Close(t *testing.T) {
	b := NewBroker[string]()
	a, c := b.Subscribe(context.Background()), b.Subscribe(context.Background())

	b.Close()
	b.Close()

	for _, ch := range []<-chan Event[string]{a, c} {
		_, ok := <-ch
		require.False(t, ok)
	}
	require.True(t, b.Closed())
	require.Zero(t, b.SubscriberCount())

	_, ok := <-b.Subscribe(context.Background())
	require.False(t, ok, "subscribing after close yields a closed channel")

	b.Publish(DeletedEvent, "ignored")
	require.Zero(t, b.Published())
}

func TestBroker_CloseRacesCancel(t *testing.T) {
	b := NewBroker[int]()
	ctx, cancel := context.WithCancel(context.Background())
	for range 16 {
		b.Subscribe(ctx)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); cancel() }()
	go func() { defer wg.Done(); b.Close() }()
	wg.Wait()

	require.Zero(t, b.SubscriberCount())
}

func TestBroker_DeliveredPlusDroppedEqualsPublished(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		depth := rapid.IntRange(0, 8).Draw(t, "depth")
		n := rapid.IntRange(0, 32).Draw(t, "publishes")

		b := NewBrokerWithBuffer[int](depth)
		defer b.Close()
		ch := b.Subscribe(context.Background())
		for i := range n {
			b.Publish(UpdatedEvent, i)
		}

		var last uint64
		delivered := 0
		for len(ch) > 0 {
			e := <-ch
			if e.Seq <= last {
				t.Fatalf("seq %d after %d", e.Seq, last)
			}
			last = e.Seq
			delivered++
		}
		if uint64(delivered)+b.Dropped() != uint64(n) {
			t.Fatalf("delivered %d + dropped %d != published %d", delivered, b.Dropped(), n)
		}
		if delivered != min(depth, n) {
			t.Fatalf("delivered %d, want %d", delivered, min(depth, n))
		}
	})
}
