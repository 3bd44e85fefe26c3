package bus_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kirjastoapp/kirjasto-server/internal/bus"
)

func receive(t *testing.T, ch <-chan any) any {
	t.Helper()

	select {
	case payload, ok := <-ch:
		require.True(t, ok, "stream closed unexpectedly")
		return payload
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func requireClosed(t *testing.T, ch <-chan any) {
	t.Helper()

	select {
	case _, ok := <-ch:
		require.False(t, ok, "expected closed stream")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for stream close")
	}
}

func TestBus_FanOut(t *testing.T) {
	b := bus.New(nil)
	defer b.Shutdown()

	first := b.Subscribe(context.Background(), bus.TopicBookAdded)
	second := b.Subscribe(context.Background(), bus.TopicBookAdded)

	b.Publish(bus.TopicBookAdded, "dune")

	// Each subscriber receives the event exactly once.
	require.Equal(t, "dune", receive(t, first))
	require.Equal(t, "dune", receive(t, second))

	select {
	case extra := <-first:
		t.Fatalf("unexpected second delivery: %v", extra)
	default:
	}
}

func TestBus_LateSubscriberMissesEarlierEvents(t *testing.T) {
	b := bus.New(nil)
	defer b.Shutdown()

	b.Publish(bus.TopicBookAdded, "before")

	late := b.Subscribe(context.Background(), bus.TopicBookAdded)
	b.Publish(bus.TopicBookAdded, "after")

	require.Equal(t, "after", receive(t, late))
}

func TestBus_CancelUnsubscribes(t *testing.T) {
	b := bus.New(nil)
	defer b.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	ch := b.Subscribe(ctx, bus.TopicBookAdded)

	cancel()
	requireClosed(t, ch)

	// Publishing after the cancel must not panic.
	b.Publish(bus.TopicBookAdded, "ignored")
}

func TestBus_ShutdownClosesAllStreams(t *testing.T) {
	b := bus.New(nil)

	first := b.Subscribe(context.Background(), bus.TopicBookAdded)
	second := b.Subscribe(context.Background(), "other.topic")

	b.Shutdown()

	requireClosed(t, first)
	requireClosed(t, second)

	// Subscribe after shutdown yields an already-closed stream.
	requireClosed(t, b.Subscribe(context.Background(), bus.TopicBookAdded))

	// Shutdown is idempotent.
	b.Shutdown()
}

func TestBus_PublishNeverBlocks(t *testing.T) {
	b := bus.New(nil)
	defer b.Shutdown()

	ch := b.Subscribe(context.Background(), bus.TopicBookAdded)

	// Overfill the subscriber buffer; the surplus is dropped, not
	// deadlocked on.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			b.Publish(bus.TopicBookAdded, i)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	require.Equal(t, 0, receive(t, ch))
}
