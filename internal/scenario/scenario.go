// Package scenario loads scripted drag sessions from YAML and replays them
// against a headless engine.
package scenario

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/dropzone/internal/geometry"
)

// Zone declares a drop zone and its initial geometry.
type Zone struct {
	ID        string             `yaml:"id"`
	Rect      geometry.Rect      `yaml:"rect"`
	Capacity  int                `yaml:"capacity,omitempty"`
	Alignment geometry.Alignment `yaml:"alignment,omitempty"`
	Offset    geometry.Offset    `yaml:"offset,omitempty"`
	Disabled  bool               `yaml:"disabled,omitempty"`
}

// MoveZone changes a zone's rectangle before a position-update pass.
type MoveZone struct {
	ID   string        `yaml:"id"`
	Rect geometry.Rect `yaml:"rect"`
}

// Step is one scripted action. Exactly one of Drag, Cancel, Unregister or
// MoveZone is set.
type Step struct {
	// Drag moves the item from From to To and releases it.
	Drag string         `yaml:"drag,omitempty"`
	Size geometry.Size  `yaml:"size,omitempty"`
	From geometry.Point `yaml:"from,omitempty"`
	To   geometry.Point `yaml:"to,omitempty"`

	// Cancel starts a drag of the item and aborts it.
	Cancel string `yaml:"cancel,omitempty"`

	// Unregister removes the item's assignment.
	Unregister string `yaml:"unregister,omitempty"`

	MoveZone *MoveZone `yaml:"move_zone,omitempty"`
}

// Step kinds.
const (
	KindDrag       = "drag"
	KindCancel     = "cancel"
	KindUnregister = "unregister"
	KindMoveZone   = "move_zone"
)

// Kind returns which action the step performs, or "" when it names none or
// several.
func (s Step) Kind() string {
	kind, n := "", 0
	if s.Drag != "" {
		kind, n = KindDrag, n+1
	}
	if s.Cancel != "" {
		kind, n = KindCancel, n+1
	}
	if s.Unregister != "" {
		kind, n = KindUnregister, n+1
	}
	if s.MoveZone != nil {
		kind, n = KindMoveZone, n+1
	}
	if n != 1 {
		return ""
	}
	return kind
}

// Item returns the item id the step acts on.
func (s Step) Item() string {
	switch s.Kind() {
	case KindDrag:
		return s.Drag
	case KindCancel:
		return s.Cancel
	case KindUnregister:
		return s.Unregister
	}
	return ""
}

// Scenario is a set of zones and the steps played against them.
type Scenario struct {
	Name  string `yaml:"name,omitempty"`
	Zones []Zone `yaml:"zones"`
	Steps []Step `yaml:"steps"`
}

// ErrNoZones is returned for a scenario without zones.
var ErrNoZones = errors.New("scenario declares no zones")

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes and validates scenario YAML.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks zone ids, alignments and step shapes.
func (sc *Scenario) Validate() error {
	if len(sc.Zones) == 0 {
		return ErrNoZones
	}
	seen := make(map[string]bool, len(sc.Zones))
	for i, z := range sc.Zones {
		if z.ID == "" {
			return fmt.Errorf("zone %d: missing id", i)
		}
		if seen[z.ID] {
			return fmt.Errorf("zone %d: duplicate id %q", i, z.ID)
		}
		seen[z.ID] = true
		if z.Rect.IsEmpty() {
			return fmt.Errorf("zone %q: rect must have positive width and height", z.ID)
		}
		if _, err := geometry.ParseAlignment(string(z.Alignment)); err != nil {
			return fmt.Errorf("zone %q: %w", z.ID, err)
		}
	}
	for i, s := range sc.Steps {
		switch s.Kind() {
		case "":
			return fmt.Errorf("step %d: exactly one of drag, cancel, unregister or move_zone is required", i+1)
		case KindMoveZone:
			if !seen[s.MoveZone.ID] {
				return fmt.Errorf("step %d: move_zone names unknown zone %q", i+1, s.MoveZone.ID)
			}
		}
	}
	return nil
}
