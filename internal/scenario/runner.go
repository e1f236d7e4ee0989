package scenario

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/dropzone/internal/dnd"
	"github.com/zjrosen/dropzone/internal/geometry"
	"github.com/zjrosen/dropzone/internal/log"
	"github.com/zjrosen/dropzone/internal/measure"
	"github.com/zjrosen/dropzone/internal/tracing"
)

// StepResult records what one step did.
type StepResult struct {
	Step    int
	Kind    string
	Item    string
	Zone    string
	Outcome dnd.Outcome
	Reason  string

	// Position is where a committed item came to rest.
	Position *geometry.Point
}

// Report is the outcome of a run.
type Report struct {
	Name  string
	Steps []StepResult

	// Assignments maps item ids to zone ids after the last step.
	Assignments map[string]string

	Stats dnd.Stats
}

// Options configures a Runner.
type Options struct {
	// DefaultCapacity applies to zones that declare none.
	DefaultCapacity int

	// MeasureTTL is how long a zone's last good rectangle is served when
	// measurement fails. Zero disables the cache.
	MeasureTTL time.Duration

	Tracer trace.Tracer
}

// Runner replays scenarios. Each Run uses a fresh engine.
type Runner struct {
	opts Options
}

// NewRunner creates a Runner.
func NewRunner(opts Options) *Runner {
	if opts.Tracer == nil {
		opts.Tracer = tracing.Noop()
	}
	return &Runner{opts: opts}
}

// run holds the per-Run state.
type run struct {
	engine     *dnd.Engine[string]
	layout     *measure.Table
	droppables map[string]*dnd.Droppable[string]
	draggables map[string]*dnd.Draggable[string]
}

// Run plays every step of sc in order. It stops early only when ctx is
// cancelled; rejected or missed drops are reported, not returned as errors.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Report, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	ctx, span := r.opts.Tracer.Start(ctx, tracing.SpanScenario)
	span.SetAttributes(attribute.Int(tracing.AttrSteps, len(sc.Steps)))
	defer span.End()

	engine := dnd.New(dnd.Options[string]{
		DefaultCapacity: r.opts.DefaultCapacity,
		Tracer:          r.opts.Tracer,
	})
	defer engine.Close()

	state := &run{
		engine:     engine,
		layout:     measure.NewTable(),
		droppables: make(map[string]*dnd.Droppable[string], len(sc.Zones)),
		draggables: make(map[string]*dnd.Draggable[string]),
	}

	var measurer measure.Measurer = measure.Safe(state.layout)
	if r.opts.MeasureTTL > 0 {
		cache := measure.NewCache(measurer, r.opts.MeasureTTL)
		defer cache.Flush()
		measurer = cache
	}

	for _, z := range sc.Zones {
		state.layout.Set(z.ID, z.Rect)
		state.droppables[z.ID] = dnd.NewDroppable(engine, measurer, dnd.DroppableOptions[string]{
			ID:        z.ID,
			Alignment: z.Alignment,
			Offset:    z.Offset,
			Capacity:  z.Capacity,
			Disabled:  z.Disabled,
		})
	}

	log.Info(log.CatScenario, "scenario started", "name", sc.Name, "zones", len(sc.Zones), "steps", len(sc.Steps))

	report := &Report{Name: sc.Name, Steps: make([]StepResult, 0, len(sc.Steps))}
	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "cancelled")
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		res := state.apply(step)
		res.Step = i + 1
		report.Steps = append(report.Steps, res)
		log.Debug(log.CatScenario, "step", "n", res.Step, "kind", res.Kind, "item", res.Item, "zone", res.Zone, "outcome", res.Outcome)
	}

	report.Assignments = make(map[string]string)
	for id, a := range engine.DroppedItems() {
		report.Assignments[id] = a.ZoneID
	}
	report.Stats = engine.Stats()

	for _, d := range state.droppables {
		d.Unmount()
	}

	log.Info(log.CatScenario, "scenario finished", "name", sc.Name,
		"committed", report.Stats.Committed, "rejected", report.Stats.Rejected)
	return report, nil
}

func (s *run) draggable(id string) *dnd.Draggable[string] {
	if d, ok := s.draggables[id]; ok {
		return d
	}
	d := dnd.NewDraggable(s.engine, dnd.DraggableOptions[string]{ID: id, Data: id})
	s.draggables[id] = d
	return d
}

func (s *run) apply(step Step) StepResult {
	res := StepResult{Kind: step.Kind(), Item: step.Item()}

	switch res.Kind {
	case KindDrag:
		d := s.draggable(step.Drag)
		d.SetSize(step.Size)
		d.Start()
		d.Move(step.From.X, step.From.Y, 0, 0)
		d.Move(step.From.X, step.From.Y, step.To.X-step.From.X, step.To.Y-step.From.Y)
		s.record(&res, d.Release())

	case KindCancel:
		d := s.draggable(step.Cancel)
		d.SetSize(step.Size)
		d.Start()
		d.Move(step.From.X, step.From.Y, 0, 0)
		s.record(&res, d.Cancel())

	case KindUnregister:
		if a, ok := s.engine.DroppedItems()[step.Unregister]; ok {
			res.Zone = a.ZoneID
		}
		s.engine.UnregisterDroppedItem(step.Unregister)

	case KindMoveZone:
		s.layout.Set(step.MoveZone.ID, step.MoveZone.Rect)
		s.engine.RequestPositionUpdate()
		res.Zone = step.MoveZone.ID
	}
	return res
}

func (s *run) record(res *StepResult, drop dnd.DropResult[string]) {
	res.Zone = drop.ZoneID
	res.Outcome = drop.Outcome
	if drop.Reason != nil {
		res.Reason = drop.Reason.Error()
	}
	if drop.Committed() {
		pos := drop.Position
		res.Position = &pos
	}
}
