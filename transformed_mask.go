package glyphrun

import (
	"unsafe"

	"github.com/gogpu/glyphrun/internal/wire"
)

// transformedMaskVertexFiller positions source-space glyph boxes for the
// transformed and distance-field variants. Boxes are stored in source space
// and mapped by the position matrix on every fill.
type transformedMaskVertexFiller struct {
	format              MaskFormat
	strikeToSourceScale float32
	sourceBounds        Rect
	leftTop             []Point
}

// makeTransformedFiller converts strike-space glyph boxes, inset by inset
// pixels, to source space.
func makeTransformedFiller(accepted []AcceptedGlyph, format MaskFormat, strikeToSource float32, inset float32, a *allocator) transformedMaskVertexFiller {
	leftTop := a.points.Make(len(accepted))
	bounds := EmptyRect()
	for i, ag := range accepted {
		r := ag.Glyph.Rect().Rect().Inset(inset).Scale(strikeToSource).Offset(ag.Pos)
		bounds = bounds.Join(r)
		leftTop[i] = Point{X: r.Left, Y: r.Top}
	}
	return transformedMaskVertexFiller{
		format:              format,
		strikeToSourceScale: strikeToSource,
		sourceBounds:        bounds,
		leftTop:             leftTop,
	}
}

func (f *transformedMaskVertexFiller) deviceRect(positionMatrix Matrix) Rect {
	return positionMatrix.MapRect(f.sourceBounds)
}

func (f *transformedMaskVertexFiller) fill(dst []byte, glyphs []*AtlasGlyph, offset int, color uint32, positionMatrix Matrix) {
	w := newVertexWriter(dst, f.format, color)
	s := f.strikeToSourceScale
	for i, g := range glyphs {
		uv := g.Locator
		lt := f.leftTop[offset+i]
		r := Rect{
			Left:   lt.X,
			Top:    lt.Y,
			Right:  lt.X + float32(uv.Width())*s,
			Bottom: lt.Y + float32(uv.Height())*s,
		}
		w.mappedQuad(positionMatrix, r, uv)
	}
}

func (f *transformedMaskVertexFiller) flatten(w *wire.Writer) {
	w.WriteInt32(int32(f.format))
	w.WriteScalar(f.strikeToSourceScale)
	writeRect(w, f.sourceBounds)
	writePoints(w, f.leftTop)
}

func readTransformedFiller(r *wire.Reader, d *decoder) (transformedMaskVertexFiller, bool) {
	var f transformedMaskVertexFiller
	f.format = MaskFormat(r.ReadInt32())
	if !r.Validate(f.format < MaskFormatCount) {
		return f, false
	}
	f.strikeToSourceScale = r.ReadScalar()
	if !r.Validate(validScale(f.strikeToSourceScale)) {
		return f, false
	}
	f.sourceBounds = readRect(r)
	if !r.Validate(rectIsFinite(f.sourceBounds)) {
		return f, false
	}
	f.leftTop = d.readPoints(r)
	return f, r.IsValid()
}

// TransformedMaskSubRun draws glyphs rasterized in source space at a scale
// at least as large as the matrix they are drawn with, filtered bilinearly.
type TransformedMaskSubRun struct {
	initialPositionMatrix Matrix
	filler                transformedMaskVertexFiller
	glyphs                *GlyphVector
}

var _ AtlasSubRun = (*TransformedMaskSubRun)(nil)

func makeTransformedMask(accepted []AcceptedGlyph, positionMatrix Matrix, strike Strike, strikeToSource float32, format MaskFormat, a *allocator) *TransformedMaskSubRun {
	if len(accepted) == 0 {
		return nil
	}
	ids := a.ids.Make(len(accepted))
	for i, ag := range accepted {
		ids[i] = ag.Glyph.ID
	}
	strike.Ref()
	return &TransformedMaskSubRun{
		initialPositionMatrix: positionMatrix,
		filler:                makeTransformedFiller(accepted, format, strikeToSource, 0, a),
		glyphs:                newGlyphVector(strike, ids),
	}
}

func (s *TransformedMaskSubRun) Type() SubRunType          { return SubRunTransformedMask }
func (s *TransformedMaskSubRun) GlyphCount() int           { return len(s.filler.leftTop) }
func (s *TransformedMaskSubRun) MaskFormat() MaskFormat    { return s.filler.format }
func (s *TransformedMaskSubRun) GlyphVector() *GlyphVector { return s.glyphs }

// StrikeToSourceScale returns the factor mapping strike pixels to source
// units.
func (s *TransformedMaskSubRun) StrikeToSourceScale() float32 { return s.filler.strikeToSourceScale }

// CanReuse reports whether the glyphs would not be magnified beyond their
// creation scale.
func (s *TransformedMaskSubRun) CanReuse(_ *Paint, positionMatrix Matrix) bool {
	return s.initialPositionMatrix.MaxScale() <= positionMatrix.MaxScale()
}

func (s *TransformedMaskSubRun) VertexStride(Matrix) int {
	return VertexStrideForFormat(s.filler.format)
}

func (s *TransformedMaskSubRun) Draw(canvas Canvas, drawOrigin Point, paint *Paint, dev Device) {
	bounds := s.filler.deviceRect(positionMatrixFor(canvas.LocalToDevice(), drawOrigin))
	submitAtlas(s, canvas, drawOrigin, paint, dev, bounds, true, 0)
}

// RegenerateAtlas places glyphs with a one pixel border for bilinear
// filtering.
func (s *TransformedMaskSubRun) RegenerateAtlas(begin, end int, target AtlasTarget) (bool, int) {
	return s.glyphs.RegenerateAtlas(begin, end, s.filler.format, 1, target)
}

func (s *TransformedMaskSubRun) FillVertexData(dst []byte, offset, count int, color uint32, drawMatrix Matrix, drawOrigin Point, _ IRect) {
	glyphs := s.glyphs.Glyphs()[offset : offset+count]
	s.filler.fill(dst, glyphs, offset, color, positionMatrixFor(drawMatrix, drawOrigin))
}

func (s *TransformedMaskSubRun) EstimatedSize() int {
	return int(unsafe.Sizeof(*s)) + len(s.filler.leftTop)*int(unsafe.Sizeof(Point{})+unsafe.Sizeof(PackedGlyphID(0)))
}

func (s *TransformedMaskSubRun) Release() { s.glyphs.release() }

func (s *TransformedMaskSubRun) flatten(w *wire.Writer) {
	s.filler.flatten(w)
	s.glyphs.flatten(w)
}

func readTransformedMask(r *wire.Reader, d *decoder) SubRun {
	filler, ok := readTransformedFiller(r, d)
	if !ok {
		return nil
	}
	glyphs := readGlyphVector(r, d)
	if glyphs == nil {
		return nil
	}
	if !r.Validate(glyphs.GlyphCount() == len(filler.leftTop)) {
		glyphs.release()
		return nil
	}
	return &TransformedMaskSubRun{
		initialPositionMatrix: d.positionMatrix,
		filler:                filler,
		glyphs:                glyphs,
	}
}
