package glyphrun

import (
	"unsafe"

	"github.com/gogpu/glyphrun/internal/wire"
)

// DistanceFieldFlags select the distance-field shader variant for a draw.
type DistanceFieldFlags uint16

const (
	// DFSimilarity is set when the matrix is a rotation and uniform scale.
	DFSimilarity DistanceFieldFlags = 1 << iota
	// DFScaleOnly is set when the matrix has no rotation or skew.
	DFScaleOnly
	// DFUseLCD selects the per-subpixel shader.
	DFUseLCD
	// DFAliased disables edge smoothing.
	DFAliased
	// DFGammaCorrect is set when the strike applies fake gamma.
	DFGammaCorrect

	// DFEnabled is always set for distance-field draws.
	DFEnabled
)

func isSimilarity(m Matrix) bool {
	// Columns must be orthogonal and of equal length.
	return abs32(m.A*m.B+m.D*m.E) < nearlyZero &&
		abs32((m.A*m.A+m.D*m.D)-(m.B*m.B+m.E*m.E)) < nearlyZero
}

// SDFTSubRun draws glyphs from distance fields rasterized at a canonical
// size. It stays sharp across a band of matrix scales.
type SDFTSubRun struct {
	useLCD      bool
	antiAliased bool
	matrixRange SDFTMatrixRange
	filler      transformedMaskVertexFiller
	glyphs      *GlyphVector
}

var _ AtlasSubRun = (*SDFTSubRun)(nil)

func makeSDFT(accepted []AcceptedGlyph, font Font, props SurfaceProps, strike Strike, strikeToSource float32, matrixRange SDFTMatrixRange, a *allocator) *SDFTSubRun {
	if len(accepted) == 0 {
		return nil
	}
	ids := a.ids.Make(len(accepted))
	for i, ag := range accepted {
		ids[i] = ag.Glyph.ID
	}
	strike.Ref()
	return &SDFTSubRun{
		useLCD:      font.Edging == EdgingSubpixelAntiAlias && props.PixelGeometry != PixelGeometryUnknown,
		antiAliased: font.Edging != EdgingAlias,
		matrixRange: matrixRange,
		filler:      makeTransformedFiller(accepted, MaskA8, strikeToSource, DistanceFieldInset, a),
		glyphs:      newGlyphVector(strike, ids),
	}
}

func (s *SDFTSubRun) Type() SubRunType          { return SubRunSDFT }
func (s *SDFTSubRun) GlyphCount() int           { return len(s.filler.leftTop) }
func (s *SDFTSubRun) MaskFormat() MaskFormat    { return s.filler.format }
func (s *SDFTSubRun) GlyphVector() *GlyphVector { return s.glyphs }

// MatrixRange returns the scale band the SubRun can be reused in.
func (s *SDFTSubRun) MatrixRange() SDFTMatrixRange { return s.matrixRange }

// CanReuse reports whether positionMatrix's scale is inside the SubRun's
// band.
func (s *SDFTSubRun) CanReuse(_ *Paint, positionMatrix Matrix) bool {
	return s.matrixRange.InRange(positionMatrix)
}

func (s *SDFTSubRun) VertexStride(Matrix) int { return Mask2DVertexStride }

func (s *SDFTSubRun) flags(drawMatrix Matrix) DistanceFieldFlags {
	f := DFEnabled
	if isSimilarity(drawMatrix) {
		f |= DFSimilarity
	}
	if drawMatrix.IsScaleTranslate() {
		f |= DFScaleOnly
	}
	if s.useLCD {
		f |= DFUseLCD
	}
	if !s.antiAliased {
		f |= DFAliased
	}
	if s.glyphs.Strike().Descriptor().Flags&ScalerFakeGamma != 0 {
		f |= DFGammaCorrect
	}
	return f
}

func (s *SDFTSubRun) Draw(canvas Canvas, drawOrigin Point, paint *Paint, dev Device) {
	drawMatrix := canvas.LocalToDevice()
	bounds := s.filler.deviceRect(positionMatrixFor(drawMatrix, drawOrigin))
	submitAtlas(s, canvas, drawOrigin, paint, dev, bounds, true, s.flags(drawMatrix))
}

func (s *SDFTSubRun) RegenerateAtlas(begin, end int, target AtlasTarget) (bool, int) {
	return s.glyphs.RegenerateAtlas(begin, end, s.filler.format, DistanceFieldInset, target)
}

func (s *SDFTSubRun) FillVertexData(dst []byte, offset, count int, color uint32, drawMatrix Matrix, drawOrigin Point, _ IRect) {
	glyphs := s.glyphs.Glyphs()[offset : offset+count]
	s.filler.fill(dst, glyphs, offset, color, positionMatrixFor(drawMatrix, drawOrigin))
}

func (s *SDFTSubRun) EstimatedSize() int {
	return int(unsafe.Sizeof(*s)) + len(s.filler.leftTop)*int(unsafe.Sizeof(Point{})+unsafe.Sizeof(PackedGlyphID(0)))
}

func (s *SDFTSubRun) Release() { s.glyphs.release() }

func (s *SDFTSubRun) flatten(w *wire.Writer) {
	w.WriteBool(s.useLCD)
	w.WriteBool(s.antiAliased)
	w.WriteScalars(s.matrixRange.Min, s.matrixRange.Max)
	s.filler.flatten(w)
	s.glyphs.flatten(w)
}

func readSDFT(r *wire.Reader, d *decoder) SubRun {
	useLCD := r.ReadBool()
	antiAliased := r.ReadBool()
	var mr [2]float32
	r.ReadScalars(mr[:])
	if !r.Validate(mr[0] >= 0 && mr[0] <= mr[1]) {
		return nil
	}
	filler, ok := readTransformedFiller(r, d)
	if !ok || !r.Validate(filler.format == MaskA8) {
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
	return &SDFTSubRun{
		useLCD:      useLCD,
		antiAliased: antiAliased,
		matrixRange: SDFTMatrixRange{Min: mr[0], Max: mr[1]},
		filler:      filler,
		glyphs:      glyphs,
	}
}
