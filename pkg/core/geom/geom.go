// Package geom provides the geometry primitives shared by the layout, snap
// and drag resolvers.
//
// All coordinates are canvas units with the origin at the top-left corner
// and y growing downward. Every function is pure.
package geom

import "math"

// Point is a position in canvas units.
type Point struct {
	X, Y float64
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Distance returns the Euclidean distance between p and q.
func Distance(p, q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Size is a width/height pair.
type Size struct {
	Width, Height float64
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// RectAt builds a rectangle from a top-left position and a size.
func RectAt(pos Point, size Size) Rect {
	return Rect{X: pos.X, Y: pos.Y, Width: size.Width, Height: size.Height}
}

// Left returns the x coordinate of the left edge.
func (r Rect) Left() float64 { return r.X }

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Top returns the y coordinate of the top edge.
func (r Rect) Top() float64 { return r.Y }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Center returns the center point of the rectangle.
func (r Rect) Center() Point {
	return Point{r.X + r.Width/2, r.Y + r.Height/2}
}

// Origin returns the top-left corner.
func (r Rect) Origin() Point { return Point{r.X, r.Y} }

// Size returns the rectangle's dimensions.
func (r Rect) Size() Size { return Size{r.Width, r.Height} }

// Contains reports whether p lies inside r. Edges count as inside.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left() && p.X <= r.Right() && p.Y >= r.Top() && p.Y <= r.Bottom()
}

// Translate returns r moved by d.
func (r Rect) Translate(d Point) Rect {
	return Rect{X: r.X + d.X, Y: r.Y + d.Y, Width: r.Width, Height: r.Height}
}

// Local converts a canvas point into coordinates relative to r's origin.
func (r Rect) Local(p Point) Point { return p.Sub(r.Origin()) }

// Edges returns the four edges of r.
func (r Rect) Edges() Edges { return EdgesOf(r.Origin(), r.Size()) }

// Edges holds the four edge coordinates of a rectangle.
type Edges struct {
	Left, Right, Top, Bottom float64
}

// EdgesOf returns the edges of an element of the given size placed at pos.
func EdgesOf(pos Point, size Size) Edges {
	return Edges{
		Left:   pos.X,
		Right:  pos.X + size.Width,
		Top:    pos.Y,
		Bottom: pos.Y + size.Height,
	}
}

// Vertical returns the left and right edges.
func (e Edges) Vertical() [2]float64 { return [2]float64{e.Left, e.Right} }

// Horizontal returns the top and bottom edges.
func (e Edges) Horizontal() [2]float64 { return [2]float64{e.Top, e.Bottom} }
