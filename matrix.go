package glyphrun

import "math"

// Matrix represents a 2D affine transformation in row-major 2x3 form:
//
//	| a  b  c |
//	| d  e  f |
//
// which maps
//
//	x' = a*x + b*y + c
//	y' = d*x + e*y + f
//
// Scalars are float32 to match the wire format.
type Matrix struct {
	A, B, C float32
	D, E, F float32
}

// nearlyZero is the tolerance used for singularity and integrality tests.
const nearlyZero = 1.0 / (1 << 12)

// Identity returns the identity transformation matrix.
func Identity() Matrix {
	return Matrix{A: 1, E: 1}
}

// Translate creates a translation matrix.
func Translate(x, y float32) Matrix {
	return Matrix{A: 1, C: x, E: 1, F: y}
}

// Scale creates a scaling matrix.
func Scale(x, y float32) Matrix {
	return Matrix{A: x, E: y}
}

// Rotate creates a rotation matrix (angle in radians).
func Rotate(angle float64) Matrix {
	cos := float32(math.Cos(angle))
	sin := float32(math.Sin(angle))
	return Matrix{A: cos, B: -sin, D: sin, E: cos}
}

// Multiply returns m * other: other is applied first.
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		A: m.A*other.A + m.B*other.D,
		B: m.A*other.B + m.B*other.E,
		C: m.A*other.C + m.B*other.F + m.C,
		D: m.D*other.A + m.E*other.D,
		E: m.D*other.B + m.E*other.E,
		F: m.D*other.C + m.E*other.F + m.F,
	}
}

// PostTranslate returns the matrix followed by a translation.
func (m Matrix) PostTranslate(dx, dy float32) Matrix {
	m.C += dx
	m.F += dy
	return m
}

// PreTranslate returns a translation followed by the matrix.
func (m Matrix) PreTranslate(dx, dy float32) Matrix {
	return m.Multiply(Translate(dx, dy))
}

// MapPoint applies the transformation to a point.
func (m Matrix) MapPoint(p Point) Point {
	return Point{
		X: m.A*p.X + m.B*p.Y + m.C,
		Y: m.D*p.X + m.E*p.Y + m.F,
	}
}

// MapVector applies the transformation to a vector (no translation).
func (m Matrix) MapVector(p Point) Point {
	return Point{
		X: m.A*p.X + m.B*p.Y,
		Y: m.D*p.X + m.E*p.Y,
	}
}

// MapOrigin returns the image of (0, 0), the matrix translation.
func (m Matrix) MapOrigin() Point {
	return Point{X: m.C, Y: m.F}
}

// MapRect returns the bounds of the four mapped corners of r.
func (m Matrix) MapRect(r Rect) Rect {
	if m.IsTranslation() {
		return r.Offset(Point{X: m.C, Y: m.F})
	}
	return BoundsOfPoints([]Point{
		m.MapPoint(Point{X: r.Left, Y: r.Top}),
		m.MapPoint(Point{X: r.Right, Y: r.Top}),
		m.MapPoint(Point{X: r.Left, Y: r.Bottom}),
		m.MapPoint(Point{X: r.Right, Y: r.Bottom}),
	})
}

// Determinant returns a*e - b*d.
func (m Matrix) Determinant() float32 {
	return m.A*m.E - m.B*m.D
}

// Invert returns the inverse matrix and true, or the identity and false if
// m is singular.
func (m Matrix) Invert() (Matrix, bool) {
	det := float64(m.A)*float64(m.E) - float64(m.B)*float64(m.D)
	if math.Abs(det) < 1e-12 || math.IsNaN(det) || math.IsInf(det, 0) {
		return Identity(), false
	}
	inv := 1 / det
	a, b, c := float64(m.A), float64(m.B), float64(m.C)
	d, e, f := float64(m.D), float64(m.E), float64(m.F)
	return Matrix{
		A: float32(e * inv),
		B: float32(-b * inv),
		C: float32((b*f - c*e) * inv),
		D: float32(-d * inv),
		E: float32(a * inv),
		F: float32((c*d - a*f) * inv),
	}, true
}

// IsIdentity returns true if the matrix is the identity matrix.
func (m Matrix) IsIdentity() bool {
	return m == Identity()
}

// IsTranslation returns true if the matrix is only a translation.
func (m Matrix) IsTranslation() bool {
	return m.A == 1 && m.B == 0 && m.D == 0 && m.E == 1
}

// IsScaleTranslate returns true if the matrix has no rotation or skew.
func (m Matrix) IsScaleTranslate() bool {
	return m.B == 0 && m.D == 0
}

// HasPerspective always returns false: the type only holds affine
// transforms. It exists so classification can state its preconditions.
func (m Matrix) HasPerspective() bool { return false }

// SameLinear reports whether m and other share the 2x2 linear part exactly.
func (m Matrix) SameLinear(other Matrix) bool {
	return m.A == other.A && m.B == other.B && m.D == other.D && m.E == other.E
}

// Linear returns m without its translation.
func (m Matrix) Linear() Matrix {
	m.C, m.F = 0, 0
	return m
}

// MaxScale returns the largest singular value of the linear part, the
// maximum factor by which the matrix stretches any unit vector.
func (m Matrix) MaxScale() float32 {
	if m.IsScaleTranslate() {
		return max(abs32(m.A), abs32(m.E))
	}
	a, b, d, e := float64(m.A), float64(m.B), float64(m.D), float64(m.E)
	// Eigenvalues of (M^T M) are the squared singular values.
	p := a*a + d*d
	q := a*b + d*e
	r := b*b + e*e
	half := (p + r) / 2
	disc := math.Sqrt(((p-r)/2)*((p-r)/2) + q*q)
	return float32(math.Sqrt(half + disc))
}

// IsFinite reports whether every element is finite.
func (m Matrix) IsFinite() bool {
	for _, v := range [6]float32{m.A, m.B, m.C, m.D, m.E, m.F} {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return false
		}
	}
	return true
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func isIntegral(v float32) bool {
	return abs32(v-float32(math.Round(float64(v)))) < nearlyZero
}
