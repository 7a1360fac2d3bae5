package glyphrun

import "math"

// Point represents a 2D point or vector.
type Point struct {
	X, Y float32
}

// Pt is a convenience function to create a Point.
func Pt(x, y float32) Point {
	return Point{X: x, Y: y}
}

// Add returns the sum of two points (vector addition).
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the difference of two points (vector subtraction).
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Mul returns the point scaled by a scalar.
func (p Point) Mul(s float32) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// IsFinite reports whether both coordinates are finite.
func (p Point) IsFinite() bool {
	return !math.IsNaN(float64(p.X)) && !math.IsInf(float64(p.X), 0) &&
		!math.IsNaN(float64(p.Y)) && !math.IsInf(float64(p.Y), 0)
}

// Rect is an axis-aligned rectangle. Left <= Right and Top <= Bottom for
// non-empty rectangles.
type Rect struct {
	Left, Top, Right, Bottom float32
}

// RectLTRB returns a rectangle from its edges.
func RectLTRB(l, t, r, b float32) Rect {
	return Rect{Left: l, Top: t, Right: r, Bottom: b}
}

// EmptyRect returns the canonical empty rectangle.
func EmptyRect() Rect { return Rect{} }

// IsEmpty reports whether the rectangle encloses no area.
func (r Rect) IsEmpty() bool {
	return !(r.Left < r.Right && r.Top < r.Bottom)
}

// Width returns Right - Left.
func (r Rect) Width() float32 { return r.Right - r.Left }

// Height returns Bottom - Top.
func (r Rect) Height() float32 { return r.Bottom - r.Top }

// Offset returns r translated by d.
func (r Rect) Offset(d Point) Rect {
	return Rect{Left: r.Left + d.X, Top: r.Top + d.Y, Right: r.Right + d.X, Bottom: r.Bottom + d.Y}
}

// Scale returns r with every edge multiplied by s.
func (r Rect) Scale(s float32) Rect {
	return Rect{Left: r.Left * s, Top: r.Top * s, Right: r.Right * s, Bottom: r.Bottom * s}
}

// Inset returns r shrunk by d on every side.
func (r Rect) Inset(d float32) Rect {
	return Rect{Left: r.Left + d, Top: r.Top + d, Right: r.Right - d, Bottom: r.Bottom - d}
}

// Join returns the union of r and o. Empty rectangles are ignored.
func (r Rect) Join(o Rect) Rect {
	if o.IsEmpty() {
		return r
	}
	if r.IsEmpty() {
		return o
	}
	return Rect{
		Left:   min(r.Left, o.Left),
		Top:    min(r.Top, o.Top),
		Right:  max(r.Right, o.Right),
		Bottom: max(r.Bottom, o.Bottom),
	}
}

// Intersect returns the overlap of r and o, or the empty rectangle.
func (r Rect) Intersect(o Rect) Rect {
	out := Rect{
		Left:   max(r.Left, o.Left),
		Top:    max(r.Top, o.Top),
		Right:  min(r.Right, o.Right),
		Bottom: min(r.Bottom, o.Bottom),
	}
	if out.IsEmpty() {
		return Rect{}
	}
	return out
}

// Contains reports whether o lies entirely inside r.
func (r Rect) Contains(o Rect) bool {
	return !r.IsEmpty() && !o.IsEmpty() &&
		r.Left <= o.Left && r.Top <= o.Top && r.Right >= o.Right && r.Bottom >= o.Bottom
}

// RoundOut returns the smallest integer rectangle containing r.
func (r Rect) RoundOut() IRect {
	return IRect{
		Left:   int32(math.Floor(float64(r.Left))),
		Top:    int32(math.Floor(float64(r.Top))),
		Right:  int32(math.Ceil(float64(r.Right))),
		Bottom: int32(math.Ceil(float64(r.Bottom))),
	}
}

// BoundsOfPoints returns the tightest rectangle enclosing pts.
func BoundsOfPoints(pts []Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	r := Rect{Left: pts[0].X, Top: pts[0].Y, Right: pts[0].X, Bottom: pts[0].Y}
	for _, p := range pts[1:] {
		r.Left = min(r.Left, p.X)
		r.Top = min(r.Top, p.Y)
		r.Right = max(r.Right, p.X)
		r.Bottom = max(r.Bottom, p.Y)
	}
	return r
}

// IRect is an integer rectangle, used for glyph boxes and clip rectangles.
type IRect struct {
	Left, Top, Right, Bottom int32
}

// IsEmpty reports whether the rectangle encloses no pixels.
func (r IRect) IsEmpty() bool {
	return !(r.Left < r.Right && r.Top < r.Bottom)
}

// Width returns Right - Left.
func (r IRect) Width() int32 { return r.Right - r.Left }

// Height returns Bottom - Top.
func (r IRect) Height() int32 { return r.Bottom - r.Top }

// Rect converts r to a float rectangle.
func (r IRect) Rect() Rect {
	return Rect{Left: float32(r.Left), Top: float32(r.Top), Right: float32(r.Right), Bottom: float32(r.Bottom)}
}

// Contains reports whether o lies entirely inside r.
func (r IRect) Contains(o IRect) bool {
	return !r.IsEmpty() && !o.IsEmpty() &&
		r.Left <= o.Left && r.Top <= o.Top && r.Right >= o.Right && r.Bottom >= o.Bottom
}
