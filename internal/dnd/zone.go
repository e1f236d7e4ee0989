// Package dnd is the drop coordination engine: it keeps the registry of drop
// zones, resolves which zone a moving item hovers, gates drops on zone
// capacity, records which items occupy which zones, and broadcasts
// position-update requests so zones can refresh their geometry.
//
// An Engine is the single owner of all of that state. Gesture recognition,
// animation and rendering stay outside; callers feed positions in and get
// decisions back.
package dnd

import (
	"sync/atomic"

	"github.com/zjrosen/dropzone/internal/geometry"
)

// ZoneKey is the engine-facing registration key of a zone. It is distinct
// from the caller-facing Zone.ID: several keys may carry the same ID.
type ZoneKey uint64

var lastZoneKey atomic.Uint64

// NextZoneKey returns a process-unique key, starting at 1.
func NextZoneKey() ZoneKey {
	return ZoneKey(lastZoneKey.Add(1))
}

// DefaultCapacity is the capacity of a zone that declares none.
const DefaultCapacity = 1

// Zone describes a drop target at one moment: where it is on screen and how
// it accepts drops.
type Zone[T any] struct {
	// ID is the caller-assigned identifier recorded in assignments.
	ID string

	// Bounds is the absolute screen rectangle.
	Bounds geometry.Rect

	// Alignment and Offset place a dropped item inside Bounds.
	Alignment geometry.Alignment
	Offset    geometry.Offset

	// Capacity is the maximum number of items the zone holds.
	// Zero or negative means the engine default.
	Capacity int

	// DropDisabled zones still report hover but never accept.
	DropDisabled bool

	// OnDrop receives the payload of every accepted drop.
	OnDrop func(T)

	// OnActiveChange fires when the zone becomes or stops being the hover target.
	OnActiveChange func(active bool)
}

// slot is a registry entry. seq is stamped when the key is first
// registered and breaks hover ties in favour of the newest key.
type slot[T any] struct {
	zone Zone[T]
	seq  uint64
}

// registry maps keys to zones. Not safe for concurrent use; the Engine
// serializes access.
type registry[T any] struct {
	slots map[ZoneKey]*slot[T]
	seq   uint64
}

func newRegistry[T any]() registry[T] {
	return registry[T]{slots: make(map[ZoneKey]*slot[T])}
}

// put inserts or replaces the zone at key and reports whether it replaced.
// A replaced zone keeps the sequence of its first registration.
func (r *registry[T]) put(key ZoneKey, zone Zone[T]) bool {
	if s, ok := r.slots[key]; ok {
		s.zone = zone
		return true
	}
	r.seq++
	r.slots[key] = &slot[T]{zone: zone, seq: r.seq}
	return false
}

func (r *registry[T]) remove(key ZoneKey) bool {
	if _, ok := r.slots[key]; !ok {
		return false
	}
	delete(r.slots, key)
	return true
}

func (r *registry[T]) get(key ZoneKey) (*slot[T], bool) {
	s, ok := r.slots[key]
	return s, ok
}

// byID finds the newest slot carrying id.
func (r *registry[T]) byID(id string) (*slot[T], bool) {
	var best *slot[T]
	for _, s := range r.slots {
		if s.zone.ID != id {
			continue
		}
		if best == nil || s.seq > best.seq {
			best = s
		}
	}
	return best, best != nil
}

func (r *registry[T]) snapshot() map[ZoneKey]Zone[T] {
	out := make(map[ZoneKey]Zone[T], len(r.slots))
	for k, s := range r.slots {
		out[k] = s.zone
	}
	return out
}

// resolve picks the hover target for bounds: the zone with the largest
// intersection area, ties going to the most recently registered key.
// Re-registering a key (a geometry refresh, SetCapacity, SetDisabled) does
// not change its place in that order; unregistering and registering again
// does. Zones that do
// not overlap at all are never chosen. It runs once per pointer frame, so it
// walks the map directly and allocates nothing.
func (r *registry[T]) resolve(bounds geometry.Rect) (ZoneKey, bool) {
	var (
		bestKey  ZoneKey
		bestArea float64
		bestSeq  uint64
		found    bool
	)
	for key, s := range r.slots {
		area := bounds.OverlapArea(s.zone.Bounds)
		if !(area > 0) {
			continue
		}
		if !found || area > bestArea || (area == bestArea && s.seq > bestSeq) {
			bestKey, bestArea, bestSeq, found = key, area, s.seq, true
		}
	}
	return bestKey, found
}
