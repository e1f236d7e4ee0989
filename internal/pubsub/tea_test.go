package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListenCmd(t *testing.T) {
	t.Run("event", func(t *testing.T) {
		b := NewBroker[string]()
		t.Cleanup(b.Close)
		ch := b.Subscribe(context.Background())
		b.Publish(evDrop, "card-1")

		ev, ok := ListenCmd(context.Background(), ch)().(Event[string])
		require.True(t, ok)
		require.Equal(t, "card-1", ev.Payload)
	})

	t.Run("closed channel", func(t *testing.T) {
		ch := make(chan Event[string])
		close(ch)
		require.Nil(t, ListenCmd(context.Background(), ch)())
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.Nil(t, ListenCmd(ctx, make(chan Event[string]))())
	})
}

func TestContinuousListener(t *testing.T) {
	b := NewBroker[int]()
	t.Cleanup(b.Close)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewContinuousListener[int](ctx, b, evDrop)
	b.Publish(evHover, 1)
	b.Publish(evDrop, 2)
	b.Publish(evDrop, 3)

	for _, want := range []int{2, 3} {
		ev, ok := l.Listen()().(Event[int])
		require.True(t, ok)
		require.Equal(t, want, ev.Payload)
	}
}
