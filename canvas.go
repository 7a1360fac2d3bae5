package glyphrun

// Canvas receives path and drawable glyphs. It keeps a matrix stack; Concat
// pre-multiplies onto the current matrix.
type Canvas interface {
	Save()
	Restore()
	Concat(m Matrix)
	LocalToDevice() Matrix
	DrawPath(p *Path, paint *Paint)
	// SaveLayer saves and starts an offscreen layer limited to bounds,
	// composited with paint on Restore.
	SaveLayer(bounds *Rect, paint *Paint)
}

// Device receives atlas glyph draws and supplies the clip they are
// culled and clipped against.
type Device interface {
	// Bounds returns the device size in pixels.
	Bounds() IRect
	// Clip returns the device-space clip rectangle, or false when only the
	// device bounds clip.
	Clip() (IRect, bool)
	// AddDrawOp queues an atlas draw for the prepare and execute phases.
	AddDrawOp(op *AtlasTextOp)
}

// AtlasTextOp is one atlas SubRun drawn at one matrix and origin.
type AtlasTextOp struct {
	SubRun     AtlasSubRun
	DrawMatrix Matrix
	DrawOrigin Point
	// Color is the premultiplied paint color.
	Color uint32
	// ClipRect, when not empty, is applied per glyph while filling vertices.
	ClipRect IRect
	// Scissor, when not empty, must be set as the GPU scissor rectangle.
	Scissor      IRect
	DeviceBounds Rect
	// NeedsTransform is set when vertex positions come from a matrix rather
	// than integer offsets.
	NeedsTransform bool
	// DistanceFieldFlags is non-zero for SDFT SubRuns.
	DistanceFieldFlags DistanceFieldFlags
	GlyphCount         int
}

// clipResult says how an atlas draw relates to the device clip.
type clipResult uint8

const (
	clipCulled clipResult = iota
	clipNone
	clipGeometric
	clipScissor
)

// calculateClip classifies deviceBounds against the device clip. Only
// integer-positioned draws may clip geometrically; others use a scissor.
func calculateClip(dev Device, deviceBounds Rect, canClipGeometrically bool) (clipResult, IRect) {
	if deviceBounds.IsEmpty() {
		return clipCulled, IRect{}
	}
	devRect := dev.Bounds().Rect()
	if devRect.Intersect(deviceBounds).IsEmpty() {
		return clipCulled, IRect{}
	}
	clip, ok := dev.Clip()
	if !ok {
		if devRect.Contains(deviceBounds) {
			return clipNone, IRect{}
		}
		clip = dev.Bounds()
	}
	clipRect := clip.Rect()
	if clipRect.Intersect(deviceBounds).IsEmpty() {
		return clipCulled, IRect{}
	}
	if clipRect.Contains(deviceBounds) {
		return clipNone, IRect{}
	}
	if canClipGeometrically {
		return clipGeometric, clip
	}
	return clipScissor, clip
}
