// Package measure is the boundary to the platform primitive that reports an
// element's on-screen rectangle.
package measure

import (
	"sync"

	"github.com/zjrosen/dropzone/internal/geometry"
	"github.com/zjrosen/dropzone/internal/log"
)

// Measurer reports the absolute screen rectangle of the element identified by
// id. ok is false when the element is not laid out yet.
type Measurer interface {
	Measure(id string) (geometry.Rect, bool)
}

// Func adapts a plain function to Measurer.
type Func func(id string) (geometry.Rect, bool)

// Measure calls f.
func (f Func) Measure(id string) (geometry.Rect, bool) {
	return f(id)
}

// Safe wraps m so that panics and placeholder rectangles read as "not
// measured". Some layout engines report a 0x1 box for views that are not
// attached yet; that sentinel and every empty rectangle are rejected.
func Safe(m Measurer) Measurer {
	return Func(func(id string) (rect geometry.Rect, ok bool) {
		defer func() {
			if r := recover(); r != nil {
				log.Warn(log.CatMeasure, "measurement panicked", "id", id, "panic", r)
				rect, ok = geometry.Rect{}, false
			}
		}()

		rect, ok = m.Measure(id)
		if !ok {
			return geometry.Rect{}, false
		}
		if rect.Width == 0 && rect.Height == 1 {
			return geometry.Rect{}, false
		}
		if rect.IsEmpty() {
			return geometry.Rect{}, false
		}
		return rect, true
	})
}

// Table is an in-memory Measurer whose rectangles are set explicitly. The
// headless scenario runner and tests lay out zones with it.
type Table struct {
	mu    sync.RWMutex
	rects map[string]geometry.Rect
}

// NewTable creates an empty Table.
func NewTable() *Table {
	return &Table{rects: make(map[string]geometry.Rect)}
}

// Set records the rectangle for id.
func (t *Table) Set(id string, rect geometry.Rect) {
	t.mu.Lock()
	t.rects[id] = rect
	t.mu.Unlock()
}

// Delete forgets id.
func (t *Table) Delete(id string) {
	t.mu.Lock()
	delete(t.rects, id)
	t.mu.Unlock()
}

// Measure implements Measurer.
func (t *Table) Measure(id string) (geometry.Rect, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.rects[id]
	return r, ok
}
