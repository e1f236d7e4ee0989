package dnd

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/zjrosen/dropzone/internal/geometry"
)

func genRect(t *rapid.T, label string) geometry.Rect {
	return geometry.NewRect(
		float64(rapid.IntRange(0, 200).Draw(t, label+"_x")),
		float64(rapid.IntRange(0, 200).Draw(t, label+"_y")),
		float64(rapid.IntRange(1, 80).Draw(t, label+"_w")),
		float64(rapid.IntRange(1, 80).Draw(t, label+"_h")),
	)
}

// No sequence of drops, moves and direct registrations ever puts more items
// in a zone than its capacity allows.
func TestProperty_CapacityNeverExceeded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e := New(Options[card]{})
		defer e.Close()

		nZones := rapid.IntRange(1, 4).Draw(t, "zones")
		capacity := make(map[string]int, nZones)
		for i := range nZones {
			id := fmt.Sprintf("z%d", i)
			c := rapid.IntRange(1, 3).Draw(t, id+"_cap")
			capacity[id] = c
			e.Register(NextZoneKey(), Zone[card]{ID: id, Bounds: genRect(t, id), Capacity: c})
		}

		items := []string{"a", "b", "c", "d", "e", "f"}
		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for range steps {
			item := rapid.SampledFrom(items).Draw(t, "item")
			switch rapid.IntRange(0, 3).Draw(t, "op") {
			case 0:
				zone := fmt.Sprintf("z%d", rapid.IntRange(0, nZones-1).Draw(t, "zone"))
				_ = e.RegisterDroppedItem(item, zone, card{})
			case 1:
				e.UnregisterDroppedItem(item)
			default:
				e.DragStart(Item[card]{ID: item, Size: geometry.Size{Width: 10, Height: 10}})
				e.Dragging(
					float64(rapid.IntRange(0, 280).Draw(t, "x")),
					float64(rapid.IntRange(0, 280).Draw(t, "y")),
					0, 0,
				)
				if rapid.Bool().Draw(t, "cancel") {
					e.CancelDrag()
				} else {
					e.DragEnd()
				}
			}

			counts := map[string]int{}
			for _, a := range e.DroppedItems() {
				counts[a.ZoneID]++
			}
			for zone, n := range counts {
				if n > capacity[zone] {
					t.Fatalf("zone %s holds %d items, capacity %d", zone, n, capacity[zone])
				}
			}
		}
	})
}

// The resolved hover zone always has the maximal overlap with the item, and
// nothing is resolved when no zone overlaps.
func TestProperty_HoverPicksMaximalOverlap(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e := New(Options[card]{})
		defer e.Close()

		n := rapid.IntRange(0, 6).Draw(t, "zones")
		for i := range n {
			e.Register(NextZoneKey(), Zone[card]{ID: fmt.Sprint(i), Bounds: genRect(t, fmt.Sprint(i))})
		}

		size := geometry.Size{
			Width:  float64(rapid.IntRange(1, 60).Draw(t, "w")),
			Height: float64(rapid.IntRange(1, 60).Draw(t, "h")),
		}
		x := float64(rapid.IntRange(0, 260).Draw(t, "x"))
		y := float64(rapid.IntRange(0, 260).Draw(t, "y"))
		bounds := geometry.Rect{X: x, Y: y, Width: size.Width, Height: size.Height}

		e.DragStart(Item[card]{ID: "mover", Size: size})
		key, ok := e.Dragging(x, y, 0, 0)

		var best float64
		for _, z := range e.Slots() {
			best = max(best, bounds.OverlapArea(z.Bounds))
		}
		if best == 0 {
			if ok {
				t.Fatalf("resolved zone %d with no overlapping zones", key)
			}
			return
		}
		if !ok {
			t.Fatalf("no zone resolved, best overlap %v", best)
		}
		if got := bounds.OverlapArea(e.Slots()[key].Bounds); got != best {
			t.Fatalf("resolved overlap %v, want %v", got, best)
		}

		// Same inputs, same answer.
		again, _ := e.Dragging(x, y, 0, 0)
		if again != key {
			t.Fatalf("resolution not deterministic: %d then %d", key, again)
		}
	})
}
