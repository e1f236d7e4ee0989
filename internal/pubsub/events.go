// Package pubsub is a small typed event bus with Bubble Tea adapters.
package pubsub

import (
	"context"
	"time"
)

// EventType names a kind of event. Publishers define their own values.
type EventType string

// Event is one published value.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber is anything events can be streamed from. A non-empty types
// list limits the stream to those event types.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context, types ...EventType) <-chan Event[T]
}

// Publisher is the sending side of a Broker.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}

var (
	_ Subscriber[int] = (*Broker[int])(nil)
	_ Publisher[int]  = (*Broker[int])(nil)
)
