// Package bus provides the in-process publish/subscribe channel that fans
// catalog events out to GraphQL subscription streams.
package bus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Topics published on the bus.
const (
	// TopicBookAdded carries *domain.BookAdded payloads.
	TopicBookAdded = "book.added"
)

// subscriberBuffer is the per-subscriber channel capacity. A subscriber
// that falls this far behind starts losing events; delivery is
// at-most-once, best-effort.
const subscriberBuffer = 16

// Bus is an explicitly constructed, injected event bus. One instance
// lives for the process lifetime and is torn down on shutdown by closing
// every subscriber stream.
type Bus struct {
	logger *slog.Logger

	mu     sync.RWMutex
	topics map[string]map[string]chan any
	closed bool
}

// New creates a new event bus.
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bus{
		logger: logger,
		topics: make(map[string]map[string]chan any),
	}
}

// Subscribe registers a new subscriber for a topic and returns its stream.
// The stream is independent of every other subscriber's: each published
// payload is delivered to all streams active at publish time. The stream
// is closed when ctx is canceled (client disconnect) or the bus shuts
// down; it never restarts.
func (b *Bus) Subscribe(ctx context.Context, topic string) <-chan any {
	ch := make(chan any, subscriberBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch
	}

	subID := uuid.NewString()
	if b.topics[topic] == nil {
		b.topics[topic] = make(map[string]chan any)
	}
	b.topics[topic][subID] = ch
	b.mu.Unlock()

	b.logger.Debug("subscriber registered", "topic", topic, "subscriber", subID)

	go func() {
		<-ctx.Done()
		b.unsubscribe(topic, subID)
	}()

	return ch
}

// Publish delivers a payload to every subscriber currently registered on
// the topic. Sends never block: a subscriber with a full buffer misses
// the event.
func (b *Bus) Publish(topic string, payload any) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for subID, ch := range b.topics[topic] {
		select {
		case ch <- payload:
		default:
			b.logger.Warn("subscriber buffer full, dropping event", "topic", topic, "subscriber", subID)
		}
	}
}

// unsubscribe removes a subscriber and closes its stream.
func (b *Bus) unsubscribe(topic, subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.topics[topic]
	ch, ok := subs[subID]
	if !ok {
		return
	}
	delete(subs, subID)
	if len(subs) == 0 {
		delete(b.topics, topic)
	}
	close(ch)

	b.logger.Debug("subscriber removed", "topic", topic, "subscriber", subID)
}

// Shutdown closes all subscriber streams and rejects further publishes
// and subscriptions. Safe to call more than once.
func (b *Bus) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for topic, subs := range b.topics {
		for _, ch := range subs {
			close(ch)
		}
		delete(b.topics, topic)
	}

	b.logger.Info("event bus shut down")
}
