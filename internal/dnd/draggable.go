package dnd

import (
	"sync"

	"github.com/google/uuid"

	"github.com/zjrosen/dropzone/internal/geometry"
	"github.com/zjrosen/dropzone/internal/log"
)

// DraggableState is the lifecycle state of a Draggable.
type DraggableState string

const (
	StateIdle     DraggableState = "idle"
	StateDragging DraggableState = "dragging"
	StateDropped  DraggableState = "dropped"
)

// DraggableOptions configures a draggable item.
type DraggableOptions[T any] struct {
	// ID identifies the item in the assignment table. Generated when empty.
	ID       string
	Data     T
	Size     geometry.Size
	Disabled bool

	OnDragStart func(T)
	OnDragging  func(DragMove[T])
	OnDragEnd   func(DropResult[T])
	OnState     func(DraggableState)
}

// Draggable is the per-item side of the drag lifecycle. The gesture layer
// calls Start, Move and Release; Draggable forwards to the engine and tracks
// the item's state.
type Draggable[T any] struct {
	engine *Engine[T]

	mu    sync.Mutex
	opts  DraggableOptions[T]
	state DraggableState
	last  DropResult[T]
}

// NewDraggable creates a draggable bound to engine. With a nil engine every
// call is a no-op.
func NewDraggable[T any](engine *Engine[T], opts DraggableOptions[T]) *Draggable[T] {
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if engine == nil {
		log.Warn(log.CatDrop, "draggable created without an engine", "id", opts.ID)
	}
	return &Draggable[T]{engine: engine, opts: opts, state: StateIdle}
}

// ID returns the item id.
func (d *Draggable[T]) ID() string {
	return d.opts.ID
}

// State returns the current lifecycle state.
func (d *Draggable[T]) State() DraggableState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// LastResult returns the result of the most recent release.
func (d *Draggable[T]) LastResult() DropResult[T] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// SetData replaces the payload carried by future drags.
func (d *Draggable[T]) SetData(data T) {
	d.mu.Lock()
	d.opts.Data = data
	d.mu.Unlock()
}

// SetSize updates the item's measured size.
func (d *Draggable[T]) SetSize(size geometry.Size) {
	d.mu.Lock()
	d.opts.Size = size
	d.mu.Unlock()
}

// SetDisabled toggles whether Start begins a drag.
func (d *Draggable[T]) SetDisabled(disabled bool) {
	d.mu.Lock()
	d.opts.Disabled = disabled
	d.mu.Unlock()
}

func (d *Draggable[T]) setState(s DraggableState) {
	d.mu.Lock()
	changed := d.state != s
	d.state = s
	cb := d.opts.OnState
	d.mu.Unlock()
	if changed && cb != nil {
		cb(s)
	}
}

// owns reports whether the engine's active drag is this item.
func (d *Draggable[T]) owns() bool {
	item, ok := d.engine.ActiveDrag()
	return ok && item.ID == d.opts.ID
}

// Start begins dragging. It reports false when disabled or without engine.
func (d *Draggable[T]) Start() bool {
	d.mu.Lock()
	opts := d.opts
	d.mu.Unlock()

	if d.engine == nil || opts.Disabled {
		return false
	}

	d.engine.DragStart(Item[T]{ID: opts.ID, Size: opts.Size, Data: opts.Data, OnEnd: d.end})
	d.setState(StateDragging)
	if opts.OnDragStart != nil {
		opts.OnDragStart(opts.Data)
	}
	return true
}

// Move reports a new position: (x, y) is the item's resting origin and
// (tx, ty) the gesture translation.
func (d *Draggable[T]) Move(x, y, tx, ty float64) (ZoneKey, bool) {
	if d.engine == nil || !d.owns() {
		return 0, false
	}
	key, ok := d.engine.Dragging(x, y, tx, ty)

	d.mu.Lock()
	cb, data := d.opts.OnDragging, d.opts.Data
	d.mu.Unlock()
	if cb != nil {
		cb(DragMove[T]{X: x, Y: y, TX: tx, TY: ty, Data: data})
	}
	return key, ok
}

// Release ends the drag over the current hover zone.
func (d *Draggable[T]) Release() DropResult[T] {
	if d.engine == nil || !d.owns() {
		return DropResult[T]{ItemID: d.opts.ID, Outcome: OutcomeNoTarget}
	}
	return d.engine.DragEnd()
}

// Cancel aborts the drag.
func (d *Draggable[T]) Cancel() DropResult[T] {
	if d.engine == nil || !d.owns() {
		return DropResult[T]{ItemID: d.opts.ID, Outcome: OutcomeCancelled}
	}
	return d.engine.CancelDrag()
}

// end runs from the engine when this item's drag finishes.
func (d *Draggable[T]) end(res DropResult[T]) {
	d.mu.Lock()
	d.last = res
	cb := d.opts.OnDragEnd
	d.mu.Unlock()

	if res.Committed() {
		d.setState(StateDropped)
	} else {
		d.setState(StateIdle)
	}
	if cb != nil {
		cb(res)
	}
}

// Unmount cancels an in-flight drag and removes the item's assignment.
func (d *Draggable[T]) Unmount() {
	if d.engine == nil {
		return
	}
	if d.owns() {
		d.engine.CancelDrag()
	}
	d.engine.UnregisterDroppedItem(d.opts.ID)
	d.setState(StateIdle)
}
