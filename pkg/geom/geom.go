// Package geom provides the 2D primitives shared by layout, culling,
// camera math, and hit-testing.
//
// All coordinates are float64. Two coordinate spaces exist in treescape:
//
//   - World space: the layout plane the tree lives on. Node positions and
//     footprints are expressed here and never change with zoom.
//   - Screen space: device points after the camera transform is applied.
//
// A [Transform] converts between the two: screen = world*Scale + T.
package geom

import "math"

// Point is a location in either world or screen space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair.
type Size struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Rect is an axis-aligned rectangle. Min is inclusive, Max is exclusive
// for membership tests, which keeps adjacent cells from double-claiming
// boundary points.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// RectAround builds the rect covering a footprint centered at p.
func RectAround(p Point, s Size) Rect {
	return Rect{
		MinX: p.X - s.W/2,
		MinY: p.Y - s.H/2,
		MaxX: p.X + s.W/2,
		MaxY: p.Y + s.H/2,
	}
}

// W returns the rectangle width.
func (r Rect) W() float64 { return r.MaxX - r.MinX }

// H returns the rectangle height.
func (r Rect) H() float64 { return r.MaxY - r.MinY }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{X: (r.MinX + r.MaxX) / 2, Y: (r.MinY + r.MaxY) / 2}
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.MaxX <= r.MinX || r.MaxY <= r.MinY }

// Contains reports whether p falls inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX && p.X < r.MaxX && p.Y >= r.MinY && p.Y < r.MaxY
}

// Intersects reports whether r and o share any area.
func (r Rect) Intersects(o Rect) bool {
	return r.MinX < o.MaxX && o.MinX < r.MaxX && r.MinY < o.MaxY && o.MinY < r.MaxY
}

// Union returns the smallest rect covering both r and o.
// An empty rect acts as the identity.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	return Rect{
		MinX: math.Min(r.MinX, o.MinX),
		MinY: math.Min(r.MinY, o.MinY),
		MaxX: math.Max(r.MaxX, o.MaxX),
		MaxY: math.Max(r.MaxY, o.MaxY),
	}
}

// Outset grows the rectangle by m on every side. Negative m shrinks it.
func (r Rect) Outset(m float64) Rect {
	return Rect{MinX: r.MinX - m, MinY: r.MinY - m, MaxX: r.MaxX + m, MaxY: r.MaxY + m}
}

// Translate shifts the rectangle by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{MinX: r.MinX + dx, MinY: r.MinY + dy, MaxX: r.MaxX + dx, MaxY: r.MaxY + dy}
}

// ExpandToward grows the rect in the direction of (vx, vy), scaled by k.
// Used for predictive loading: the fetch rect leads the pan so data is
// resident before it scrolls into view.
func (r Rect) ExpandToward(vx, vy, k float64) Rect {
	out := r
	if vx > 0 {
		out.MaxX += vx * k
	} else {
		out.MinX += vx * k
	}
	if vy > 0 {
		out.MaxY += vy * k
	} else {
		out.MinY += vy * k
	}
	return out
}

// Transform maps world space to screen space: screen = world*Scale + T.
type Transform struct {
	TX    float64
	TY    float64
	Scale float64
}

// Identity is the no-op transform.
var Identity = Transform{Scale: 1}

// Apply converts a world-space point to screen space.
func (t Transform) Apply(p Point) Point {
	return Point{X: p.X*t.Scale + t.TX, Y: p.Y*t.Scale + t.TY}
}

// Invert converts a screen-space point back to world space.
// A zero scale would be degenerate; callers clamp scale well above zero.
func (t Transform) Invert(p Point) Point {
	return Point{X: (p.X - t.TX) / t.Scale, Y: (p.Y - t.TY) / t.Scale}
}

// ApplyRect converts a world-space rect to screen space.
func (t Transform) ApplyRect(r Rect) Rect {
	a := t.Apply(Point{X: r.MinX, Y: r.MinY})
	b := t.Apply(Point{X: r.MaxX, Y: r.MaxY})
	return Rect{MinX: a.X, MinY: a.Y, MaxX: b.X, MaxY: b.Y}
}

// InvertRect converts a screen-space rect to world space.
func (t Transform) InvertRect(r Rect) Rect {
	a := t.Invert(Point{X: r.MinX, Y: r.MinY})
	b := t.Invert(Point{X: r.MaxX, Y: r.MaxY})
	return Rect{MinX: a.X, MinY: a.Y, MaxX: b.X, MaxY: b.Y}
}
