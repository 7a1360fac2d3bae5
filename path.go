package glyphrun

// Verb is a path segment operation.
type Verb uint8

const (
	// VerbMove starts a new contour at one point.
	VerbMove Verb = iota
	// VerbLine draws a line to one point.
	VerbLine
	// VerbQuad draws a quadratic curve through a control and an end point.
	VerbQuad
	// VerbCubic draws a cubic curve through two controls and an end point.
	VerbCubic
	// VerbClose closes the current contour.
	VerbClose
)

// pointsPerVerb is the number of points each verb consumes.
var pointsPerVerb = [...]int{VerbMove: 1, VerbLine: 1, VerbQuad: 2, VerbCubic: 3, VerbClose: 0}

// String returns a string representation of the verb.
func (v Verb) String() string {
	switch v {
	case VerbMove:
		return "Move"
	case VerbLine:
		return "Line"
	case VerbQuad:
		return "Quad"
	case VerbCubic:
		return "Cubic"
	case VerbClose:
		return "Close"
	default:
		return "Unknown"
	}
}

// Path is a glyph outline: a verb list with a flat point array.
// Glyph paths are in strike space with the y axis pointing down.
type Path struct {
	verbs  []Verb
	points []Point
}

// MoveTo starts a new contour.
func (p *Path) MoveTo(x, y float32) {
	p.verbs = append(p.verbs, VerbMove)
	p.points = append(p.points, Point{x, y})
}

// LineTo adds a line segment.
func (p *Path) LineTo(x, y float32) {
	p.verbs = append(p.verbs, VerbLine)
	p.points = append(p.points, Point{x, y})
}

// QuadTo adds a quadratic curve.
func (p *Path) QuadTo(cx, cy, x, y float32) {
	p.verbs = append(p.verbs, VerbQuad)
	p.points = append(p.points, Point{cx, cy}, Point{x, y})
}

// CubicTo adds a cubic curve.
func (p *Path) CubicTo(c1x, c1y, c2x, c2y, x, y float32) {
	p.verbs = append(p.verbs, VerbCubic)
	p.points = append(p.points, Point{c1x, c1y}, Point{c2x, c2y}, Point{x, y})
}

// Close closes the current contour.
func (p *Path) Close() {
	p.verbs = append(p.verbs, VerbClose)
}

// IsEmpty reports whether the path has no segments.
func (p *Path) IsEmpty() bool {
	return p == nil || len(p.verbs) == 0
}

// VerbCount returns the number of verbs.
func (p *Path) VerbCount() int { return len(p.verbs) }

// Points returns the path's points. The slice must not be modified.
func (p *Path) Points() []Point { return p.points }

// Iterate calls fn for each verb with the points it consumes.
func (p *Path) Iterate(fn func(v Verb, pts []Point)) {
	i := 0
	for _, v := range p.verbs {
		n := pointsPerVerb[v]
		fn(v, p.points[i:i+n])
		i += n
	}
}

// Bounds returns the bounds of every point, control points included.
func (p *Path) Bounds() Rect {
	if p.IsEmpty() {
		return Rect{}
	}
	return BoundsOfPoints(p.points)
}

// Transform returns a copy of the path with every point mapped by m.
func (p *Path) Transform(m Matrix) *Path {
	out := &Path{
		verbs:  append([]Verb(nil), p.verbs...),
		points: make([]Point, len(p.points)),
	}
	for i, pt := range p.points {
		out.points[i] = m.MapPoint(pt)
	}
	return out
}
