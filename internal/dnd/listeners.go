package dnd

import "slices"

// listenerSet keeps position-update callbacks in insertion order.
// Re-adding an id swaps its callback but keeps its place.
type listenerSet struct {
	order []string
	fns   map[string]func()
}

func newListenerSet() listenerSet {
	return listenerSet{fns: make(map[string]func())}
}

func (l *listenerSet) add(id string, fn func()) {
	if _, ok := l.fns[id]; !ok {
		l.order = append(l.order, id)
	}
	l.fns[id] = fn
}

func (l *listenerSet) remove(id string) bool {
	if _, ok := l.fns[id]; !ok {
		return false
	}
	delete(l.fns, id)
	if i := slices.Index(l.order, id); i >= 0 {
		l.order = slices.Delete(l.order, i, i+1)
	}
	return true
}

// callbacks copies the callbacks out so they can run without the engine lock.
func (l *listenerSet) callbacks() []func() {
	out := make([]func(), 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.fns[id])
	}
	return out
}
