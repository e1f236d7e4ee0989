package geometry

import "fmt"

// Alignment names the anchor inside a zone where a dropped item is placed.
type Alignment string

const (
	AlignCenter       Alignment = "center"
	AlignTopLeft      Alignment = "top-left"
	AlignTopCenter    Alignment = "top-center"
	AlignTopRight     Alignment = "top-right"
	AlignCenterLeft   Alignment = "center-left"
	AlignCenterRight  Alignment = "center-right"
	AlignBottomLeft   Alignment = "bottom-left"
	AlignBottomCenter Alignment = "bottom-center"
	AlignBottomRight  Alignment = "bottom-right"
)

// Alignments lists every valid anchor, row by row.
var Alignments = []Alignment{
	AlignTopLeft, AlignTopCenter, AlignTopRight,
	AlignCenterLeft, AlignCenter, AlignCenterRight,
	AlignBottomLeft, AlignBottomCenter, AlignBottomRight,
}

// ParseAlignment converts a config value into an Alignment.
// The empty string maps to AlignCenter.
func ParseAlignment(s string) (Alignment, error) {
	if s == "" {
		return AlignCenter, nil
	}
	a := Alignment(s)
	if !a.Valid() {
		return AlignCenter, fmt.Errorf("invalid alignment %q", s)
	}
	return a, nil
}

// Valid reports whether a is one of the nine anchors.
func (a Alignment) Valid() bool {
	for _, v := range Alignments {
		if v == a {
			return true
		}
	}
	return false
}

// OrDefault returns a, or AlignCenter when a is empty or unknown.
func (a Alignment) OrDefault() Alignment {
	if a.Valid() {
		return a
	}
	return AlignCenter
}

// factors returns the horizontal and vertical placement factors (0, 0.5, 1).
func (a Alignment) factors() (fx, fy float64) {
	switch a.OrDefault() {
	case AlignTopLeft:
		return 0, 0
	case AlignTopCenter:
		return 0.5, 0
	case AlignTopRight:
		return 1, 0
	case AlignCenterLeft:
		return 0, 0.5
	case AlignCenterRight:
		return 1, 0.5
	case AlignBottomLeft:
		return 0, 1
	case AlignBottomCenter:
		return 0.5, 1
	case AlignBottomRight:
		return 1, 1
	default:
		return 0.5, 0.5
	}
}

// DropPosition returns the top-left point at which an item of the given size
// comes to rest inside zone, after alignment and then offset are applied.
func DropPosition(zone Rect, item Size, align Alignment, offset Offset) Point {
	fx, fy := align.factors()
	return Point{
		X: zone.X + (zone.Width-item.Width)*fx + offset.X,
		Y: zone.Y + (zone.Height-item.Height)*fy + offset.Y,
	}
}
