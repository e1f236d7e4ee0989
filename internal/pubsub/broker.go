package pubsub

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultBufferSize is the per-subscriber queue length of NewBroker.
const DefaultBufferSize = 64

type subscriber[T any] struct {
	ch    chan Event[T]
	types []EventType
	stop  func() bool
}

func (s *subscriber[T]) accepts(t EventType) bool {
	return len(s.types) == 0 || slices.Contains(s.types, t)
}

// Broker fans events out to subscribers. Publish never blocks: an event
// that does not fit in a subscriber's queue is dropped for that subscriber
// and counted.
type Broker[T any] struct {
	mu      sync.RWMutex
	nextID  uint64
	subs    map[uint64]*subscriber[T]
	closed  bool
	buffer  int
	dropped atomic.Uint64
}

// NewBroker creates a broker with DefaultBufferSize queues.
func NewBroker[T any]() *Broker[T] {
	return NewBrokerWithBuffer[T](DefaultBufferSize)
}

// NewBrokerWithBuffer creates a broker whose subscriber queues hold size
// events. Negative sizes are treated as zero.
func NewBrokerWithBuffer[T any](size int) *Broker[T] {
	return &Broker[T]{
		subs:   make(map[uint64]*subscriber[T]),
		buffer: max(size, 0),
	}
}

// Subscribe returns a channel of events, limited to types when any are
// given. The channel closes when ctx ends or the broker is closed.
func (b *Broker[T]) Subscribe(ctx context.Context, types ...EventType) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event[T])
		close(ch)
		return ch
	}

	id := b.nextID
	b.nextID++
	sub := &subscriber[T]{
		ch:    make(chan Event[T], b.buffer),
		types: slices.Clone(types),
	}
	b.subs[id] = sub
	sub.stop = context.AfterFunc(ctx, func() { b.unsubscribe(id) })
	return sub.ch
}

func (b *Broker[T]) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(sub.ch)
	}
}

// Publish delivers an event of the given type to every matching subscriber.
func (b *Broker[T]) Publish(eventType EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed || len(b.subs) == 0 {
		return
	}

	ev := Event[T]{Type: eventType, Payload: payload, Timestamp: time.Now()}
	for _, sub := range b.subs {
		if !sub.accepts(eventType) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			b.dropped.Add(1)
		}
	}
}

// Close ends every subscription. Further calls are no-ops.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		sub.stop()
		close(sub.ch)
		delete(b.subs, id)
	}
}

// SubscriberCount returns the number of live subscriptions.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were skipped on full queues.
func (b *Broker[T]) Dropped() uint64 {
	return b.dropped.Load()
}
