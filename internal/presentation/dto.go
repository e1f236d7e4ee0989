package presentation

import (
	"sort"

	"github.com/zjrosen/dropzone/internal/geometry"
	"github.com/zjrosen/dropzone/internal/scenario"
)

// ReportDTO is a scenario report shaped for output.
type ReportDTO struct {
	Name        string          `json:"name,omitempty" yaml:"name,omitempty"`
	Steps       []StepDTO       `json:"steps" yaml:"steps"`
	Assignments []AssignmentDTO `json:"assignments" yaml:"assignments"`
	Stats       StatsDTO        `json:"stats" yaml:"stats"`
}

// StepDTO is one step's outcome.
type StepDTO struct {
	Step     int             `json:"step" yaml:"step"`
	Kind     string          `json:"kind" yaml:"kind"`
	Item     string          `json:"item,omitempty" yaml:"item,omitempty"`
	Zone     string          `json:"zone,omitempty" yaml:"zone,omitempty"`
	Outcome  string          `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	Reason   string          `json:"reason,omitempty" yaml:"reason,omitempty"`
	Position *geometry.Point `json:"position,omitempty" yaml:"position,omitempty"`
}

// AssignmentDTO is one row of the final assignment table.
type AssignmentDTO struct {
	Item string `json:"item" yaml:"item"`
	Zone string `json:"zone" yaml:"zone"`
}

// StatsDTO mirrors the engine counters.
type StatsDTO struct {
	Committed    uint64 `json:"committed" yaml:"committed"`
	Rejected     uint64 `json:"rejected" yaml:"rejected"`
	NoTarget     uint64 `json:"no_target" yaml:"no_target"`
	Cancelled    uint64 `json:"cancelled" yaml:"cancelled"`
	HoverChanges uint64 `json:"hover_changes" yaml:"hover_changes"`
	Broadcasts   uint64 `json:"broadcasts" yaml:"broadcasts"`
}

// FromReport converts a run report. Assignments are sorted by item id so
// output is stable.
func FromReport(r *scenario.Report) ReportDTO {
	steps := make([]StepDTO, len(r.Steps))
	for i, s := range r.Steps {
		steps[i] = StepDTO{
			Step:     s.Step,
			Kind:     s.Kind,
			Item:     s.Item,
			Zone:     s.Zone,
			Outcome:  string(s.Outcome),
			Reason:   s.Reason,
			Position: s.Position,
		}
	}

	assignments := make([]AssignmentDTO, 0, len(r.Assignments))
	for item, zone := range r.Assignments {
		assignments = append(assignments, AssignmentDTO{Item: item, Zone: zone})
	}
	sort.Slice(assignments, func(i, j int) bool {
		return assignments[i].Item < assignments[j].Item
	})

	return ReportDTO{
		Name:        r.Name,
		Steps:       steps,
		Assignments: assignments,
		Stats: StatsDTO{
			Committed:    r.Stats.Committed,
			Rejected:     r.Stats.Rejected,
			NoTarget:     r.Stats.NoTarget,
			Cancelled:    r.Stats.Cancelled,
			HoverChanges: r.Stats.HoverChanges,
			Broadcasts:   r.Stats.Broadcasts,
		},
	}
}
