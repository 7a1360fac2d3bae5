package glyphrun

import (
	"math"

	"github.com/gogpu/glyphrun/internal/wire"
)

// SubRunType tags the SubRun variants on the wire. The zero value is
// reserved so a zeroed buffer never decodes.
type SubRunType int32

const (
	subRunBad SubRunType = iota
	SubRunDirectMask
	SubRunSDFT
	SubRunTransformedMask
	SubRunPath
	SubRunDrawable

	subRunTypeCount
)

// String returns the variant name.
func (t SubRunType) String() string {
	switch t {
	case SubRunDirectMask:
		return "DirectMask"
	case SubRunSDFT:
		return "SDFT"
	case SubRunTransformedMask:
		return "TransformedMask"
	case SubRunPath:
		return "Path"
	case SubRunDrawable:
		return "Drawable"
	default:
		return "Bad"
	}
}

// subRunReader decodes one SubRun payload. It returns nil and leaves r
// invalid on failure.
type subRunReader func(r *wire.Reader, d *decoder) SubRun

// subRunReaders is indexed by SubRunType. Keep it in step with the
// constants above; the bad tag has no reader.
var subRunReaders = [subRunTypeCount]subRunReader{
	subRunBad:             nil,
	SubRunDirectMask:      readDirectMask,
	SubRunSDFT:            readSDFT,
	SubRunTransformedMask: readTransformedMask,
	SubRunPath:            readPath,
	SubRunDrawable:        readDrawable,
}

// SubRun is an immutable batch of glyphs drawn with one strategy.
type SubRun interface {
	Type() SubRunType
	GlyphCount() int
	// CanReuse reports whether the SubRun can be drawn at positionMatrix
	// with the output it was created for.
	CanReuse(paint *Paint, positionMatrix Matrix) bool
	// Draw submits the SubRun. The canvas supplies the draw matrix; atlas
	// variants hand an AtlasTextOp to dev, the others draw on canvas.
	Draw(canvas Canvas, drawOrigin Point, paint *Paint, dev Device)
	// EstimatedSize approximates the bytes the SubRun occupies.
	EstimatedSize() int
	// Release drops the SubRun's strike reference.
	Release()

	flatten(w *wire.Writer)
}

// AtlasSubRun is a SubRun drawn from atlas glyphs.
type AtlasSubRun interface {
	SubRun
	MaskFormat() MaskFormat
	GlyphVector() *GlyphVector
	// VertexStride returns the bytes per vertex FillVertexData writes.
	VertexStride(drawMatrix Matrix) int
	// RegenerateAtlas places glyphs [begin, end) in the atlas; see
	// GlyphVector.RegenerateAtlas.
	RegenerateAtlas(begin, end int, target AtlasTarget) (bool, int)
	// FillVertexData writes VerticesPerGlyph vertices for each of count
	// glyphs starting at offset. dst must hold count*VerticesPerGlyph*stride
	// bytes. A non-empty clip is applied per glyph where supported.
	FillVertexData(dst []byte, offset, count int, color uint32, drawMatrix Matrix, drawOrigin Point, clip IRect)
}

// positionMatrixFor returns the matrix a SubRun's glyphs are drawn with.
func positionMatrixFor(drawMatrix Matrix, drawOrigin Point) Matrix {
	return drawMatrix.PreTranslate(drawOrigin.X, drawOrigin.Y)
}

// submitAtlas builds and queues the op for an atlas SubRun.
func submitAtlas(sr AtlasSubRun, canvas Canvas, drawOrigin Point, paint *Paint, dev Device,
	deviceBounds Rect, needsTransform bool, dfFlags DistanceFieldFlags) {
	res, clip := calculateClip(dev, deviceBounds, !needsTransform)
	if res == clipCulled {
		return
	}
	op := &AtlasTextOp{
		SubRun:             sr,
		DrawMatrix:         canvas.LocalToDevice(),
		DrawOrigin:         drawOrigin,
		Color:              paint.Color.Premul(),
		DeviceBounds:       deviceBounds,
		NeedsTransform:     needsTransform,
		DistanceFieldFlags: dfFlags,
		GlyphCount:         sr.GlyphCount(),
	}
	switch res {
	case clipGeometric:
		op.ClipRect = clip
	case clipScissor:
		op.Scissor = clip
	}
	dev.AddDrawOp(op)
}

func writePoints(w *wire.Writer, pts []Point) {
	xy := make([]float32, 0, 2*len(pts))
	for _, p := range pts {
		xy = append(xy, p.X, p.Y)
	}
	w.WritePointArray(xy)
}

func writeRect(w *wire.Writer, r Rect) {
	w.WriteScalars(r.Left, r.Top, r.Right, r.Bottom)
}

func rectIsFinite(r Rect) bool {
	return Point{r.Left, r.Top}.IsFinite() && Point{r.Right, r.Bottom}.IsFinite()
}

// validScale reports whether a decoded strike-to-source scale is finite and
// positive.
func validScale(v float32) bool {
	return v > 0 && !math.IsInf(float64(v), 1)
}

func readRect(r *wire.Reader) Rect {
	var v [4]float32
	r.ReadScalars(v[:])
	return Rect{Left: v[0], Top: v[1], Right: v[2], Bottom: v[3]}
}
