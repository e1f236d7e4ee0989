package dnd

import (
	"sync"

	"github.com/google/uuid"

	"github.com/zjrosen/dropzone/internal/geometry"
	"github.com/zjrosen/dropzone/internal/log"
	"github.com/zjrosen/dropzone/internal/measure"
)

// DroppableOptions configures a mounted drop zone.
type DroppableOptions[T any] struct {
	// ID is the zone id recorded in assignments. Generated when empty.
	ID string

	Alignment      geometry.Alignment
	Offset         geometry.Offset
	Capacity       int
	Disabled       bool
	OnDrop         func(T)
	OnActiveChange func(active bool)
}

// Droppable ties a zone's lifetime to a mounted element: it allocates a
// ZoneKey, keeps the zone's rectangle in sync with the measurer on every
// position-update pass and cleans up on Unmount.
type Droppable[T any] struct {
	engine     *Engine[T]
	measurer   measure.Measurer
	key        ZoneKey
	listenerID string

	mu      sync.Mutex
	opts    DroppableOptions[T]
	bounds  geometry.Rect
	placed  bool
	active  bool
	mounted bool
}

// NewDroppable mounts a zone on engine and measures it once. With a nil
// engine the returned Droppable is inert.
func NewDroppable[T any](engine *Engine[T], m measure.Measurer, opts DroppableOptions[T]) *Droppable[T] {
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	d := &Droppable[T]{
		engine:   engine,
		measurer: m,
		opts:     opts,
	}
	if engine == nil {
		log.Warn(log.CatRegistry, "droppable mounted without an engine", "id", opts.ID)
		return d
	}

	d.key = NextZoneKey()
	d.listenerID = "droppable-" + uuid.NewString()
	d.mounted = true

	engine.RegisterPositionUpdateListener(d.listenerID, d.Remeasure)
	d.Remeasure()
	return d
}

// ID returns the zone id.
func (d *Droppable[T]) ID() string {
	return d.opts.ID
}

// Key returns the registration key, zero for an inert Droppable.
func (d *Droppable[T]) Key() ZoneKey {
	return d.key
}

// IsActive reports whether the zone is the current hover target.
func (d *Droppable[T]) IsActive() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Bounds returns the last measured rectangle.
func (d *Droppable[T]) Bounds() (geometry.Rect, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bounds, d.placed
}

// Remeasure asks the measurer for the current rectangle and re-registers the
// zone. When measurement fails the previous geometry is kept.
func (d *Droppable[T]) Remeasure() {
	if d.measurer == nil {
		return
	}
	rect, ok := d.measurer.Measure(d.opts.ID)
	if !ok {
		log.Debug(log.CatMeasure, "droppable not measurable", "id", d.opts.ID)
		return
	}

	d.mu.Lock()
	d.bounds, d.placed = rect, true
	d.mu.Unlock()
	d.publish()
}

// SetDisabled toggles whether the zone accepts drops.
func (d *Droppable[T]) SetDisabled(disabled bool) {
	d.mu.Lock()
	d.opts.Disabled = disabled
	d.mu.Unlock()
	d.publish()
}

// SetCapacity changes the zone capacity.
func (d *Droppable[T]) SetCapacity(capacity int) {
	d.mu.Lock()
	d.opts.Capacity = capacity
	d.mu.Unlock()
	d.publish()
}

// Unmount removes the zone and its position-update listener.
func (d *Droppable[T]) Unmount() {
	d.mu.Lock()
	if !d.mounted {
		d.mu.Unlock()
		return
	}
	d.mounted = false
	d.mu.Unlock()

	d.engine.UnregisterPositionUpdateListener(d.listenerID)
	d.engine.Unregister(d.key)
	if c, ok := d.measurer.(*measure.Cache); ok {
		c.Forget(d.opts.ID)
	}
}

func (d *Droppable[T]) publish() {
	d.mu.Lock()
	if !d.mounted || !d.placed {
		d.mu.Unlock()
		return
	}
	zone := Zone[T]{
		ID:             d.opts.ID,
		Bounds:         d.bounds,
		Alignment:      d.opts.Alignment,
		Offset:         d.opts.Offset,
		Capacity:       d.opts.Capacity,
		DropDisabled:   d.opts.Disabled,
		OnDrop:         d.opts.OnDrop,
		OnActiveChange: d.setActive,
	}
	d.mu.Unlock()

	d.engine.Register(d.key, zone)
}

func (d *Droppable[T]) setActive(active bool) {
	d.mu.Lock()
	d.active = active
	cb := d.opts.OnActiveChange
	d.mu.Unlock()

	if cb != nil {
		cb(active)
	}
}
