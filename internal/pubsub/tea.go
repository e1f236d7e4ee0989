package pubsub

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// ListenCmd turns the next event on ch into a tea.Msg. The command yields
// nil when ctx is done or ch is closed, which ends the listen loop.
func ListenCmd[T any](ctx context.Context, ch <-chan Event[T]) tea.Cmd {
	return func() tea.Msg {
		select {
		case ev, ok := <-ch:
			if ok {
				return ev
			}
		case <-ctx.Done():
		}
		return nil
	}
}

// ContinuousListener holds one subscription for the lifetime of a model.
// Re-issue Listen from Update after every event it delivers.
type ContinuousListener[T any] struct {
	ctx context.Context
	ch  <-chan Event[T]
}

// NewContinuousListener subscribes to sub until ctx ends.
func NewContinuousListener[T any](ctx context.Context, sub Subscriber[T], types ...EventType) *ContinuousListener[T] {
	return &ContinuousListener[T]{ctx: ctx, ch: sub.Subscribe(ctx, types...)}
}

// Listen waits for the next event.
func (l *ContinuousListener[T]) Listen() tea.Cmd {
	return ListenCmd(l.ctx, l.ch)
}
