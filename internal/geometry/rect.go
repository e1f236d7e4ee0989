// Package geometry provides the screen-space types shared by drop zones and
// draggable items.
package geometry

// Point is a screen-space position.
type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Offset is a pixel displacement applied after alignment.
type Offset struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Size is a width/height pair.
type Size struct {
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// Rect is an axis-aligned rectangle with its origin at the top-left corner.
type Rect struct {
	X      float64 `yaml:"x" json:"x"`
	Y      float64 `yaml:"y" json:"y"`
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// NewRect creates a rectangle from its origin and dimensions.
func NewRect(x, y, width, height float64) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// Right returns the x-coordinate of the right edge.
func (r Rect) Right() float64 {
	return r.X + r.Width
}

// Bottom returns the y-coordinate of the bottom edge.
func (r Rect) Bottom() float64 {
	return r.Y + r.Height
}

// Area returns width * height, or 0 for degenerate or NaN sizes.
func (r Rect) Area() float64 {
	if !(r.Width > 0) || !(r.Height > 0) {
		return 0
	}
	return r.Width * r.Height
}

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.Area() == 0
}

// Center returns the center point.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains reports whether (x, y) lies inside the rectangle. The left and
// top edges are inside, the right and bottom edges are not, so a grid of
// adjacent cells never claims a point twice.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// OverlapArea returns the area shared by r and other.
// Rectangles that only touch along an edge have zero overlap, and so does
// any rectangle with a NaN coordinate.
func (r Rect) OverlapArea(other Rect) float64 {
	w := min(r.Right(), other.Right()) - max(r.X, other.X)
	if !(w > 0) {
		return 0
	}
	h := min(r.Bottom(), other.Bottom()) - max(r.Y, other.Y)
	if !(h > 0) {
		return 0
	}
	return w * h
}
