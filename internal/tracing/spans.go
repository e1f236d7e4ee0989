package tracing

// Span names.
const (
	SpanDrop           = "dnd.drop"
	SpanPositionUpdate = "dnd.position_update"
	SpanScenario       = "scenario.run"
)

// Span attribute keys.
const (
	AttrItemID    = "item.id"
	AttrZoneID    = "zone.id"
	AttrZoneKey   = "zone.key"
	AttrOutcome   = "drop.outcome"
	AttrListeners = "broadcast.listeners"
	AttrSteps     = "scenario.steps"
)
