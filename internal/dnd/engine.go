package dnd

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/dropzone/internal/geometry"
	"github.com/zjrosen/dropzone/internal/log"
	"github.com/zjrosen/dropzone/internal/pubsub"
	"github.com/zjrosen/dropzone/internal/tracing"
)

// Item is the thing being dragged.
type Item[T any] struct {
	ID   string
	Size geometry.Size
	Data T

	// OnEnd receives the result once the drag ends, whether by DragEnd,
	// CancelDrag or a later DragStart taking over.
	OnEnd func(DropResult[T])
}

// DragMove is passed to OnDragging on every position update.
// (X, Y) is the item's origin before the gesture, (TX, TY) the translation.
type DragMove[T any] struct {
	X, Y   float64
	TX, TY float64
	Data   T
}

// Options configures an Engine. Every callback is optional.
type Options[T any] struct {
	// DefaultCapacity applies to zones with no capacity of their own.
	// Zero means DefaultCapacity.
	DefaultCapacity int

	OnDragStart func(T)
	OnDragging  func(DragMove[T])
	OnDragEnd   func(T)

	// OnLayoutUpdateComplete fires once after every position-update pass.
	OnLayoutUpdateComplete func()

	// OnDroppedItemsUpdate receives a fresh snapshot after every change to
	// the assignment table.
	OnDroppedItemsUpdate func(map[string]Assignment[T])

	// Tracer records drop and position-update spans. Nil means no-op.
	Tracer trace.Tracer

	// Broker receives engine events. Nil means the engine creates and owns one.
	Broker *pubsub.Broker[Notice[T]]
}

// Handle is the imperative surface handed to layout code.
type Handle[T any] interface {
	RequestPositionUpdate()
	DroppedItems() map[string]Assignment[T]
}

// Engine is the coordination façade. All state is guarded by one mutex and
// user callbacks always run after it is released, so callbacks may call back
// into the engine.
type Engine[T any] struct {
	mu sync.Mutex

	opts       Options[T]
	tracer     trace.Tracer
	broker     *pubsub.Broker[Notice[T]]
	ownsBroker bool

	zones     registry[T]
	table     assignmentTable[T]
	listeners listenerSet

	hover    ZoneKey
	hovering bool

	item     Item[T]
	dragging bool

	broadcasting bool
	stats        Stats
}

var _ Handle[any] = (*Engine[any])(nil)

// New creates an Engine.
func New[T any](opts Options[T]) *Engine[T] {
	e := &Engine[T]{
		opts:      opts,
		tracer:    opts.Tracer,
		broker:    opts.Broker,
		zones:     newRegistry[T](),
		table:     newAssignmentTable[T](),
		listeners: newListenerSet(),
	}
	if e.tracer == nil {
		e.tracer = tracing.Noop()
	}
	if e.broker == nil {
		e.broker = pubsub.NewBroker[Notice[T]]()
		e.ownsBroker = true
	}
	return e
}

// Close releases the event broker if the engine created it.
func (e *Engine[T]) Close() {
	if e == nil {
		return
	}
	if e.ownsBroker {
		e.broker.Close()
	}
}

func warnNoEngine(op string) {
	log.Warn(log.CatRegistry, "called without an engine", "op", op)
}

// Subscribe streams engine events, optionally filtered by type.
func (e *Engine[T]) Subscribe(ctx context.Context, types ...pubsub.EventType) <-chan pubsub.Event[Notice[T]] {
	if e == nil {
		warnNoEngine("Subscribe")
		ch := make(chan pubsub.Event[Notice[T]])
		close(ch)
		return ch
	}
	return e.broker.Subscribe(ctx, types...)
}

// --- Zone registry ---

// Register inserts or replaces the zone at key.
func (e *Engine[T]) Register(key ZoneKey, zone Zone[T]) {
	if e == nil {
		warnNoEngine("Register")
		return
	}
	e.mu.Lock()
	replaced := e.zones.put(key, zone)
	e.mu.Unlock()

	log.Debug(log.CatRegistry, "zone registered", "key", key, "id", zone.ID, "replaced", replaced)
}

// Unregister removes the zone at key. Absent keys are ignored. Assignments
// that name the zone stay in the table; the zone simply stops accepting.
// Removing the hovered zone clears the hover and notifies the zone.
func (e *Engine[T]) Unregister(key ZoneKey) {
	if e == nil {
		warnNoEngine("Unregister")
		return
	}
	e.mu.Lock()
	var leave func(bool)
	if s, ok := e.zones.get(key); ok && e.hovering && e.hover == key {
		leave = s.zone.OnActiveChange
	}
	removed := e.zones.remove(key)
	lostHover := removed && e.hovering && e.hover == key
	if lostHover {
		e.hover, e.hovering = 0, false
		e.stats.HoverChanges++
	}
	itemID, data := e.item.ID, e.item.Data
	e.mu.Unlock()

	if !removed {
		return
	}
	log.Debug(log.CatRegistry, "zone unregistered", "key", key)
	if !lostHover {
		return
	}
	// The pointer is now over no zone until the next Dragging call.
	if leave != nil {
		leave(false)
	}
	log.Debug(log.CatHover, "hover changed", "item", itemID, "zone", "", "active", false)
	e.broker.Publish(EventHoverChanged, Notice[T]{ItemID: itemID, Data: data})
}

// IsRegistered reports whether key currently holds a zone.
func (e *Engine[T]) IsRegistered(key ZoneKey) bool {
	if e == nil {
		warnNoEngine("IsRegistered")
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.zones.get(key)
	return ok
}

// Slots returns a copy of every registered zone with its latest geometry.
func (e *Engine[T]) Slots() map[ZoneKey]Zone[T] {
	if e == nil {
		warnNoEngine("Slots")
		return map[ZoneKey]Zone[T]{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.zones.snapshot()
}

// --- Capacity gate ---

func (e *Engine[T]) capacityOf(z Zone[T]) int {
	if z.Capacity > 0 {
		return z.Capacity
	}
	if e.opts.DefaultCapacity > 0 {
		return e.opts.DefaultCapacity
	}
	return DefaultCapacity
}

// admitLocked decides whether itemID may be committed to zone. The item's
// own current assignment does not count against the zone, so re-dropping an
// item where it already sits is always allowed.
func (e *Engine[T]) admitLocked(zone Zone[T], itemID string) error {
	if zone.DropDisabled {
		return ErrDropDisabled
	}
	if e.table.countIn(zone.ID, itemID) >= e.capacityOf(zone) {
		return ErrZoneFull
	}
	return nil
}

// HasAvailableCapacity reports whether the zone with zoneID can take one
// more item. Unknown zones have no capacity.
func (e *Engine[T]) HasAvailableCapacity(zoneID string) bool {
	if e == nil {
		warnNoEngine("HasAvailableCapacity")
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.zones.byID(zoneID)
	if !ok {
		return false
	}
	return e.table.countIn(zoneID, "") < e.capacityOf(s.zone)
}

// --- Assignment table ---

// RegisterDroppedItem assigns itemID to zoneID directly, subject to the same
// capacity and disabled checks as a drag release. The zone's OnDrop is not
// called.
func (e *Engine[T]) RegisterDroppedItem(itemID, zoneID string, data T) error {
	if e == nil {
		warnNoEngine("RegisterDroppedItem")
		return nil
	}
	e.mu.Lock()
	s, ok := e.zones.byID(zoneID)
	if !ok {
		e.mu.Unlock()
		return ErrZoneNotFound
	}
	if err := e.admitLocked(s.zone, itemID); err != nil {
		e.mu.Unlock()
		return err
	}
	e.table.put(itemID, Assignment[T]{ZoneID: zoneID, Data: data})
	snap := e.tableSnapshotLocked()
	e.mu.Unlock()

	log.Debug(log.CatDrop, "item registered", "item", itemID, "zone", zoneID)
	e.afterTableChange(snap, itemID, zoneID, data)
	return nil
}

// UnregisterDroppedItem removes the item's assignment. Unknown ids are ignored.
func (e *Engine[T]) UnregisterDroppedItem(itemID string) {
	if e == nil {
		warnNoEngine("UnregisterDroppedItem")
		return
	}
	e.mu.Lock()
	prev, ok := e.table.get(itemID)
	if !ok {
		e.mu.Unlock()
		return
	}
	e.table.remove(itemID)
	snap := e.tableSnapshotLocked()
	e.mu.Unlock()

	log.Debug(log.CatDrop, "item unregistered", "item", itemID, "zone", prev.ZoneID)
	e.afterTableChange(snap, itemID, prev.ZoneID, prev.Data)
}

// DroppedItems returns a snapshot of the assignment table.
func (e *Engine[T]) DroppedItems() map[string]Assignment[T] {
	if e == nil {
		warnNoEngine("DroppedItems")
		return map[string]Assignment[T]{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.table.snapshot()
}

// tableSnapshotLocked returns a snapshot for OnDroppedItemsUpdate, or nil
// when nobody observes the table.
func (e *Engine[T]) tableSnapshotLocked() map[string]Assignment[T] {
	if e.opts.OnDroppedItemsUpdate == nil {
		return nil
	}
	return e.table.snapshot()
}

func (e *Engine[T]) afterTableChange(snap map[string]Assignment[T], itemID, zoneID string, data T) {
	if snap != nil {
		e.opts.OnDroppedItemsUpdate(snap)
	}
	e.broker.Publish(EventAssignmentsChanged, Notice[T]{ItemID: itemID, ZoneID: zoneID, Data: data})
}

// --- Position update broadcaster ---

// RegisterPositionUpdateListener adds fn under id. Re-using an id replaces
// the callback and keeps its position in the call order.
func (e *Engine[T]) RegisterPositionUpdateListener(id string, fn func()) {
	if e == nil {
		warnNoEngine("RegisterPositionUpdateListener")
		return
	}
	if fn == nil {
		return
	}
	e.mu.Lock()
	e.listeners.add(id, fn)
	e.mu.Unlock()
}

// UnregisterPositionUpdateListener removes the listener. Unknown ids are ignored.
func (e *Engine[T]) UnregisterPositionUpdateListener(id string) {
	if e == nil {
		warnNoEngine("UnregisterPositionUpdateListener")
		return
	}
	e.mu.Lock()
	e.listeners.remove(id)
	e.mu.Unlock()
}

// RequestPositionUpdate calls every listener once, in registration order,
// then OnLayoutUpdateComplete once. Listeners are expected to re-measure and
// re-register their zones. A request made from inside a listener is dropped.
func (e *Engine[T]) RequestPositionUpdate() {
	if e == nil {
		warnNoEngine("RequestPositionUpdate")
		return
	}
	e.mu.Lock()
	if e.broadcasting {
		e.mu.Unlock()
		log.Debug(log.CatBroadcast, "nested position update ignored")
		return
	}
	e.broadcasting = true
	fns := e.listeners.callbacks()
	e.mu.Unlock()

	_, span := e.tracer.Start(context.Background(), tracing.SpanPositionUpdate)
	span.SetAttributes(attribute.Int(tracing.AttrListeners, len(fns)))

	func() {
		defer func() {
			e.mu.Lock()
			e.broadcasting = false
			e.stats.Broadcasts++
			e.mu.Unlock()
		}()
		for _, fn := range fns {
			fn()
		}
	}()

	if e.opts.OnLayoutUpdateComplete != nil {
		e.opts.OnLayoutUpdateComplete()
	}
	span.End()

	log.Debug(log.CatBroadcast, "position update complete", "listeners", len(fns))
	e.broker.Publish(EventLayoutUpdated, Notice[T]{})
}

// --- Drag lifecycle ---

// DragStart makes item the active drag. A drag already in progress is
// cancelled first. Geometry may have moved since the last layout, so a
// position-update pass runs before the first hover.
func (e *Engine[T]) DragStart(item Item[T]) {
	if e == nil {
		warnNoEngine("DragStart")
		return
	}
	if item.ID == "" {
		log.Warn(log.CatDrop, "drag start without item id ignored")
		return
	}
	// A zero-size item could never overlap a zone; treat it as a 1x1 point.
	if item.Size.Width <= 0 {
		item.Size.Width = 1
	}
	if item.Size.Height <= 0 {
		item.Size.Height = 1
	}

	e.mu.Lock()
	wasDragging := e.dragging
	e.mu.Unlock()
	if wasDragging {
		log.Warn(log.CatDrop, "drag started while another is active", "item", item.ID)
		e.CancelDrag()
	}

	e.mu.Lock()
	e.item = item
	e.dragging = true
	e.hover, e.hovering = 0, false
	e.mu.Unlock()

	log.Debug(log.CatDrop, "drag start", "item", item.ID)
	if e.opts.OnDragStart != nil {
		e.opts.OnDragStart(item.Data)
	}
	e.RequestPositionUpdate()
}

// Dragging feeds one position update of the active drag and returns the
// resolved hover zone. The item's bounds are its size placed at
// (x+tx, y+ty).
func (e *Engine[T]) Dragging(x, y, tx, ty float64) (ZoneKey, bool) {
	if e == nil {
		warnNoEngine("Dragging")
		return 0, false
	}
	e.mu.Lock()
	if !e.dragging {
		e.mu.Unlock()
		return 0, false
	}
	bounds := geometry.Rect{X: x + tx, Y: y + ty, Width: e.item.Size.Width, Height: e.item.Size.Height}
	key, ok := e.zones.resolve(bounds)

	var leave, enter func(bool)
	var enterID string
	changed := ok != e.hovering || key != e.hover
	if changed {
		if e.hovering {
			if s, found := e.zones.get(e.hover); found {
				leave = s.zone.OnActiveChange
			}
		}
		if ok {
			s, _ := e.zones.get(key)
			enter = s.zone.OnActiveChange
			enterID = s.zone.ID
		}
		e.hover, e.hovering = key, ok
		e.stats.HoverChanges++
	}
	itemID, data := e.item.ID, e.item.Data
	e.mu.Unlock()

	if changed {
		if leave != nil {
			leave(false)
		}
		if enter != nil {
			enter(true)
		}
		log.Debug(log.CatHover, "hover changed", "item", itemID, "zone", enterID, "active", ok)
		e.broker.Publish(EventHoverChanged, Notice[T]{
			ItemID: itemID, ZoneID: enterID, ZoneKey: key, Active: ok, Data: data,
		})
	}

	if e.opts.OnDragging != nil {
		e.opts.OnDragging(DragMove[T]{X: x, Y: y, TX: tx, TY: ty, Data: data})
	}
	return key, ok
}

// HoverZone returns the current hover target, if any.
func (e *Engine[T]) HoverZone() (ZoneKey, bool) {
	if e == nil {
		warnNoEngine("HoverZone")
		return 0, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hover, e.hovering
}

// ActiveDrag returns the item being dragged, if any.
func (e *Engine[T]) ActiveDrag() (Item[T], bool) {
	if e == nil {
		warnNoEngine("ActiveDrag")
		return Item[T]{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.item, e.dragging
}

// DragEnd releases the active drag over the last resolved hover zone.
//
// The zone is looked up again, so a zone unregistered after the last hover
// reads as no target. Capacity and the disabled flag are checked and the
// assignment committed in one critical section. When the drop is not
// committed the item's previous assignment, if any, is removed: the item
// returns to where it came from. OnDragEnd fires in every case.
func (e *Engine[T]) DragEnd() DropResult[T] {
	if e == nil {
		warnNoEngine("DragEnd")
		return DropResult[T]{Outcome: OutcomeNoTarget}
	}
	return e.finish(false)
}

// CancelDrag aborts the active drag without committing. It is a no-op when
// nothing is being dragged.
func (e *Engine[T]) CancelDrag() DropResult[T] {
	if e == nil {
		warnNoEngine("CancelDrag")
		return DropResult[T]{Outcome: OutcomeCancelled}
	}
	return e.finish(true)
}

func (e *Engine[T]) finish(cancel bool) DropResult[T] {
	e.mu.Lock()
	if !e.dragging {
		e.mu.Unlock()
		log.Debug(log.CatDrop, "drag end without active drag")
		if cancel {
			return DropResult[T]{Outcome: OutcomeCancelled}
		}
		return DropResult[T]{Outcome: OutcomeNoTarget}
	}

	item := e.item
	res := DropResult[T]{ItemID: item.ID, Outcome: OutcomeNoTarget, Data: item.Data}
	if cancel {
		res.Outcome = OutcomeCancelled
	}

	var (
		leave  func(bool)
		onDrop func(T)
	)
	if e.hovering {
		if s, ok := e.zones.get(e.hover); ok {
			leave = s.zone.OnActiveChange
			if !cancel {
				res.ZoneID, res.ZoneKey = s.zone.ID, e.hover
				if err := e.admitLocked(s.zone, item.ID); err != nil {
					res.Outcome, res.Reason = OutcomeRejected, err
				} else {
					res.Outcome = OutcomeCommitted
					res.Position = geometry.DropPosition(s.zone.Bounds, item.Size, s.zone.Alignment, s.zone.Offset)
					onDrop = s.zone.OnDrop
				}
			}
		}
	}

	var tableChanged bool
	changedZone := res.ZoneID
	if res.Committed() {
		e.table.put(item.ID, Assignment[T]{ZoneID: res.ZoneID, Data: item.Data})
		tableChanged = true
	} else if prev, ok := e.table.get(item.ID); ok {
		e.table.remove(item.ID)
		changedZone = prev.ZoneID
		tableChanged = true
	}

	switch res.Outcome {
	case OutcomeCommitted:
		e.stats.Committed++
	case OutcomeRejected:
		e.stats.Rejected++
	case OutcomeCancelled:
		e.stats.Cancelled++
	default:
		e.stats.NoTarget++
	}

	e.hover, e.hovering = 0, false
	e.dragging = false
	e.item = Item[T]{}

	var snap map[string]Assignment[T]
	if tableChanged {
		snap = e.tableSnapshotLocked()
	}
	e.mu.Unlock()

	_, span := e.tracer.Start(context.Background(), tracing.SpanDrop)
	span.SetAttributes(
		attribute.String(tracing.AttrItemID, item.ID),
		attribute.String(tracing.AttrZoneID, res.ZoneID),
		attribute.String(tracing.AttrOutcome, string(res.Outcome)),
	)
	defer span.End()

	if leave != nil {
		leave(false)
	}
	if onDrop != nil {
		onDrop(item.Data)
	}
	if tableChanged {
		e.afterTableChange(snap, item.ID, changedZone, item.Data)
	}

	if res.Outcome == OutcomeRejected {
		log.Info(log.CatDrop, "drop rejected", "item", item.ID, "zone", res.ZoneID, "reason", res.Reason)
	} else {
		log.Debug(log.CatDrop, "drag end", "item", item.ID, "zone", res.ZoneID, "outcome", res.Outcome)
	}
	e.broker.Publish(outcomeEvent(res.Outcome), Notice[T]{
		ItemID: item.ID, ZoneID: res.ZoneID, ZoneKey: res.ZoneKey, Outcome: res.Outcome, Data: item.Data,
	})

	if item.OnEnd != nil {
		item.OnEnd(res)
	}
	if e.opts.OnDragEnd != nil {
		e.opts.OnDragEnd(item.Data)
	}
	return res
}

// Stats returns activity counters.
func (e *Engine[T]) Stats() Stats {
	if e == nil {
		return Stats{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}
