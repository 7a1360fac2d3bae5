package glyphrun

import (
	"math"
	"unsafe"

	"github.com/gogpu/glyphrun/internal/wire"
)

// DirectMaskSubRun draws glyphs rasterized at their device size and
// position. Glyph boxes are stored at integer device coordinates of the
// creation matrix.
type DirectMaskSubRun struct {
	format                MaskFormat
	initialPositionMatrix Matrix
	creationBounds        Rect
	leftTop               []Point
	glyphs                *GlyphVector
}

var _ AtlasSubRun = (*DirectMaskSubRun)(nil)

// maxDirectPosition bounds device positions so that a glyph box of up to
// MaxBilerpAtlasDimension pixels still fits int16 vertex coordinates.
const maxDirectPosition = math.MaxInt16 - MaxBilerpAtlasDimension

// inDirectRange reports whether a device position can carry a direct mask.
func inDirectRange(p Point) bool {
	return p.IsFinite() && abs32(p.X) <= maxDirectPosition && abs32(p.Y) <= maxDirectPosition
}

// makeDirectMask builds a SubRun from glyphs accepted at device positions
// and reports how many glyphs it had to leave out. It returns nil when no
// glyph has a usable position.
func makeDirectMask(accepted []AcceptedGlyph, positionMatrix Matrix, strike Strike, format MaskFormat, a *allocator) (*DirectMaskSubRun, int) {
	leftTop := a.points.Make(len(accepted))
	ids := a.ids.Make(len(accepted))
	bounds := EmptyRect()
	n := 0
	for _, ag := range accepted {
		if !ag.Pos.IsFinite() {
			continue
		}
		g := ag.Glyph
		r := g.Rect().Rect().Offset(ag.Pos)
		if r.Left < math.MinInt16 || r.Bottom > math.MaxInt16 || r.Top < math.MinInt16 || r.Right > math.MaxInt16 {
			continue
		}
		bounds = bounds.Join(r)
		leftTop[n] = Point{X: r.Left, Y: r.Top}
		ids[n] = g.ID
		n++
	}
	skipped := len(accepted) - n
	if n == 0 {
		return nil, skipped
	}
	strike.Ref()
	return &DirectMaskSubRun{
		format:                format,
		initialPositionMatrix: positionMatrix,
		creationBounds:        bounds,
		leftTop:               leftTop[:n:n],
		glyphs:                newGlyphVector(strike, ids[:n:n]),
	}, skipped
}

// canUseDirect reports whether glyphs made at initial can be drawn at m by
// an integer offset.
func canUseDirect(initial, m Matrix) bool {
	if !initial.SameLinear(m) {
		return false
	}
	d := m.MapOrigin().Sub(initial.MapOrigin())
	return isIntegral(d.X) && isIntegral(d.Y)
}

func roundPoint(p Point) Point {
	return Point{X: float32(math.Round(float64(p.X))), Y: float32(math.Round(float64(p.Y)))}
}

func (s *DirectMaskSubRun) Type() SubRunType          { return SubRunDirectMask }
func (s *DirectMaskSubRun) GlyphCount() int           { return len(s.leftTop) }
func (s *DirectMaskSubRun) MaskFormat() MaskFormat    { return s.format }
func (s *DirectMaskSubRun) GlyphVector() *GlyphVector { return s.glyphs }

// CanReuse reports whether positionMatrix differs from the creation matrix
// by an integer translation only.
func (s *DirectMaskSubRun) CanReuse(_ *Paint, positionMatrix Matrix) bool {
	return canUseDirect(s.initialPositionMatrix, positionMatrix)
}

func (s *DirectMaskSubRun) VertexStride(Matrix) int {
	return VertexStrideForFormat(s.format)
}

// deviceRect returns the device bounds at positionMatrix and whether vertex
// positions must be mapped rather than offset.
func (s *DirectMaskSubRun) deviceRect(positionMatrix Matrix) (Rect, bool) {
	if canUseDirect(s.initialPositionMatrix, positionMatrix) {
		d := roundPoint(positionMatrix.MapOrigin().Sub(s.initialPositionMatrix.MapOrigin()))
		return s.creationBounds.Offset(d), false
	}
	inv, ok := s.initialPositionMatrix.Invert()
	if !ok {
		return EmptyRect(), true
	}
	return positionMatrix.Multiply(inv).MapRect(s.creationBounds), true
}

func (s *DirectMaskSubRun) Draw(canvas Canvas, drawOrigin Point, paint *Paint, dev Device) {
	bounds, needsTransform := s.deviceRect(positionMatrixFor(canvas.LocalToDevice(), drawOrigin))
	submitAtlas(s, canvas, drawOrigin, paint, dev, bounds, needsTransform, 0)
}

func (s *DirectMaskSubRun) RegenerateAtlas(begin, end int, target AtlasTarget) (bool, int) {
	return s.glyphs.RegenerateAtlas(begin, end, s.format, 0, target)
}

func (s *DirectMaskSubRun) FillVertexData(dst []byte, offset, count int, color uint32, drawMatrix Matrix, drawOrigin Point, clip IRect) {
	w := newVertexWriter(dst, s.format, color)
	glyphs := s.glyphs.Glyphs()[offset : offset+count]
	leftTop := s.leftTop[offset : offset+count]
	positionMatrix := positionMatrixFor(drawMatrix, drawOrigin)

	if canUseDirect(s.initialPositionMatrix, positionMatrix) {
		d := roundPoint(positionMatrix.MapOrigin().Sub(s.initialPositionMatrix.MapOrigin()))
		for i, g := range glyphs {
			uv := g.Locator
			l, t := leftTop[i].X+d.X, leftTop[i].Y+d.Y
			if clip.IsEmpty() {
				w.quad(l, t, l+float32(uv.Width()), t+float32(uv.Height()), uv)
			} else {
				w.clippedQuad(int32(l), int32(t), uv, clip)
			}
		}
		return
	}

	inv, ok := s.initialPositionMatrix.Invert()
	if !ok {
		for range glyphs {
			w.quad(0, 0, 0, 0, AtlasLocator{})
		}
		return
	}
	viewDifference := positionMatrix.Multiply(inv)
	for i, g := range glyphs {
		uv := g.Locator
		l, t := leftTop[i].X, leftTop[i].Y
		r := Rect{Left: l, Top: t, Right: l + float32(uv.Width()), Bottom: t + float32(uv.Height())}
		w.mappedQuad(viewDifference, r, uv)
	}
}

func (s *DirectMaskSubRun) EstimatedSize() int {
	return int(unsafe.Sizeof(*s)) + len(s.leftTop)*int(unsafe.Sizeof(Point{})+unsafe.Sizeof(PackedGlyphID(0)))
}

func (s *DirectMaskSubRun) Release() { s.glyphs.release() }

func (s *DirectMaskSubRun) flatten(w *wire.Writer) {
	w.WriteInt32(int32(s.format))
	writeRect(w, s.creationBounds)
	writePoints(w, s.leftTop)
	s.glyphs.flatten(w)
}

func readDirectMask(r *wire.Reader, d *decoder) SubRun {
	format := MaskFormat(r.ReadInt32())
	if !r.Validate(format < MaskFormatCount) {
		return nil
	}
	bounds := readRect(r)
	if !r.Validate(rectIsFinite(bounds)) {
		return nil
	}
	leftTop := d.readPoints(r)
	if !r.IsValid() {
		return nil
	}
	glyphs := readGlyphVector(r, d)
	if glyphs == nil {
		return nil
	}
	if !r.Validate(glyphs.GlyphCount() == len(leftTop)) {
		glyphs.release()
		return nil
	}
	return &DirectMaskSubRun{
		format:                format,
		initialPositionMatrix: d.positionMatrix,
		creationBounds:        bounds,
		leftTop:               leftTop,
		glyphs:                glyphs,
	}
}
