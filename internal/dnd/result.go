package dnd

import (
	"errors"

	"github.com/zjrosen/dropzone/internal/geometry"
	"github.com/zjrosen/dropzone/internal/pubsub"
)

var (
	// ErrZoneNotFound means no registered zone carries the requested id.
	ErrZoneNotFound = errors.New("zone not found")

	// ErrZoneFull means the zone already holds as many items as its capacity.
	ErrZoneFull = errors.New("zone is at capacity")

	// ErrDropDisabled means the zone currently refuses drops.
	ErrDropDisabled = errors.New("zone has drops disabled")
)

// Outcome classifies how a drag ended.
type Outcome string

const (
	// OutcomeCommitted: the zone accepted the item.
	OutcomeCommitted Outcome = "committed"
	// OutcomeRejected: the item was over a zone that was full or disabled.
	OutcomeRejected Outcome = "rejected"
	// OutcomeNoTarget: the item was released over no zone, or its zone
	// was unregistered before release.
	OutcomeNoTarget Outcome = "no_target"
	// OutcomeCancelled: the drag was aborted.
	OutcomeCancelled Outcome = "cancelled"
)

// DropResult reports what a drag end did.
type DropResult[T any] struct {
	ItemID  string
	Outcome Outcome

	// ZoneID and ZoneKey name the zone under the item at release, if any,
	// including the zone that rejected it.
	ZoneID  string
	ZoneKey ZoneKey

	// Position is where the item comes to rest inside the zone after
	// alignment and offset. Set only when committed.
	Position geometry.Point

	// Reason is ErrZoneFull or ErrDropDisabled for rejected drops.
	Reason error

	Data T
}

// Committed reports whether the drop was accepted.
func (r DropResult[T]) Committed() bool {
	return r.Outcome == OutcomeCommitted
}

// Event types published by an Engine.
const (
	EventHoverChanged       pubsub.EventType = "hover_changed"
	EventDropCommitted      pubsub.EventType = "drop_committed"
	EventDropRejected       pubsub.EventType = "drop_rejected"
	EventDropMissed         pubsub.EventType = "drop_missed"
	EventAssignmentsChanged pubsub.EventType = "assignments_changed"
	EventLayoutUpdated      pubsub.EventType = "layout_updated"
)

// Notice is the payload of every Engine event. Fields that do not apply to
// an event type are left zero.
type Notice[T any] struct {
	ItemID  string
	ZoneID  string
	ZoneKey ZoneKey
	Active  bool
	Outcome Outcome
	Data    T
}

func outcomeEvent(o Outcome) pubsub.EventType {
	switch o {
	case OutcomeCommitted:
		return EventDropCommitted
	case OutcomeRejected:
		return EventDropRejected
	default:
		return EventDropMissed
	}
}

// Stats counts engine activity since creation.
type Stats struct {
	Committed    uint64
	Rejected     uint64
	NoTarget     uint64
	Cancelled    uint64
	HoverChanges uint64
	Broadcasts   uint64
}
