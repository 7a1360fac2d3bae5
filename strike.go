package glyphrun

import "math"

// MaskFormat is the pixel format of a glyph mask in the atlas.
type MaskFormat uint8

const (
	// MaskA8 is 8-bit coverage.
	MaskA8 MaskFormat = iota
	// MaskA565 is 16-bit per-channel LCD coverage.
	MaskA565
	// MaskARGB is 32-bit premultiplied color.
	MaskARGB

	// MaskFormatCount is the number of mask formats.
	MaskFormatCount
)

// BytesPerPixel returns the storage size of one mask pixel.
func (f MaskFormat) BytesPerPixel() int {
	switch f {
	case MaskA565:
		return 2
	case MaskARGB:
		return 4
	default:
		return 1
	}
}

// String returns the format name.
func (f MaskFormat) String() string {
	switch f {
	case MaskA8:
		return "A8"
	case MaskA565:
		return "A565"
	case MaskARGB:
		return "ARGB"
	default:
		return "Unknown"
	}
}

// SideTooBigForAtlas is the glyph side length, in pixels, at which a glyph
// no longer goes into the atlas.
const SideTooBigForAtlas = 256

// MaxBilerpAtlasDimension is the largest glyph side the fallback stage
// accepts, leaving one pixel of padding on each side for bilinear sampling.
const MaxBilerpAtlasDimension = SideTooBigForAtlas - 2

// PackedGlyphID is a glyph ID plus its subpixel position: bits 0-15 hold
// the glyph ID, bits 16-17 the x quarter-pixel and bits 18-19 the y
// quarter-pixel.
type PackedGlyphID uint32

const (
	subpixelShiftX  = 16
	subpixelShiftY  = 18
	subpixelMask    = 3
	packedValidMask = 0xFFFFF
)

// MakePackedGlyphID packs a glyph ID with quarter-pixel offsets.
func MakePackedGlyphID(id GlyphID, subX, subY uint8) PackedGlyphID {
	return PackedGlyphID(uint32(id) | uint32(subX&subpixelMask)<<subpixelShiftX | uint32(subY&subpixelMask)<<subpixelShiftY)
}

// GlyphID returns the glyph index.
func (p PackedGlyphID) GlyphID() GlyphID { return GlyphID(p & 0xFFFF) }

// SubX returns the x quarter-pixel offset, 0 to 3.
func (p PackedGlyphID) SubX() uint8 { return uint8(p>>subpixelShiftX) & subpixelMask }

// SubY returns the y quarter-pixel offset, 0 to 3.
func (p PackedGlyphID) SubY() uint8 { return uint8(p>>subpixelShiftY) & subpixelMask }

func (p PackedGlyphID) valid() bool { return p&^packedValidMask == 0 }

// Glyph is a strike's entry for one packed glyph ID. Rect fields are in
// strike pixels relative to the glyph origin.
type Glyph struct {
	ID     PackedGlyphID
	Left   int16
	Top    int16
	Width  uint16
	Height uint16
	Format MaskFormat

	// Image holds Width*Height pixels of Format, filled lazily by the strike.
	Image []byte
	// Path is the outline, nil for color or empty glyphs.
	Path *Path
	// Drawable is set for glyphs that must be drawn by the typeface, such
	// as color layers or embedded SVG.
	Drawable Drawable
}

// IsEmpty reports whether the glyph has no pixels.
func (g *Glyph) IsEmpty() bool { return g.Width == 0 || g.Height == 0 }

// Rect returns the glyph box in strike pixels.
func (g *Glyph) Rect() IRect {
	return IRect{
		Left:   int32(g.Left),
		Top:    int32(g.Top),
		Right:  int32(g.Left) + int32(g.Width),
		Bottom: int32(g.Top) + int32(g.Height),
	}
}

// MaxDimension returns the larger side.
func (g *Glyph) MaxDimension() int {
	return int(max(g.Width, g.Height))
}

// FitsInAtlas reports whether the glyph is small enough for an atlas page.
func (g *Glyph) FitsInAtlas() bool {
	return g.MaxDimension() <= SideTooBigForAtlas
}

// Drawable draws a glyph that cannot be expressed as a mask or a path.
type Drawable interface {
	// Bounds returns the drawable's bounds in strike space.
	Bounds() Rect
	// Draw renders into canvas with m mapping strike space to the canvas.
	Draw(canvas Canvas, m Matrix)
}

// Strike is a glyph cache for one Descriptor.
//
// The Prepare methods consume accepted.Input() and, for each index, either
// accept the glyph into accepted, reject it into rejected with the same
// index, or drop it when it is empty.
type Strike interface {
	Descriptor() Descriptor
	RoundingSpec() RoundingSpec

	PrepareForMaskDrawing(accepted *DrawableBuffer, rejected *SourceBuffer)
	PrepareForSDFTDrawing(accepted *DrawableBuffer, rejected *SourceBuffer)
	PrepareForPathDrawing(accepted *DrawableBuffer, rejected *SourceBuffer)
	PrepareForDrawableDrawing(accepted *DrawableBuffer, rejected *SourceBuffer)

	// FindMaximumGlyphDimension returns the largest side, in strike
	// pixels, of any glyph in ids. Zero means none has pixels.
	FindMaximumGlyphDimension(ids []GlyphID) float32
	// GlyphIDsToPaths returns one outline per id, nil where none exists.
	GlyphIDsToPaths(ids []GlyphID) []*Path
	// Glyph returns the entry for id with its Image filled.
	Glyph(id PackedGlyphID) *Glyph

	Ref()
	Unref()
}

// StrikeFinder looks up existing strikes. A nil result means the strike
// is unknown.
type StrikeFinder interface {
	FindStrike(desc Descriptor) Strike
}

// StrikeCache owns strikes keyed by descriptor.
type StrikeCache interface {
	StrikeFinder
	// FindOrCreateStrike returns the strike for desc with one reference
	// held for the caller.
	FindOrCreateStrike(desc Descriptor) Strike
}

// TypefaceTranslator rewrites the typeface ID of a descriptor decoded from
// another process into a local one. It returns false when no mapping exists.
type TypefaceTranslator interface {
	TranslateTypefaceID(desc *Descriptor) bool
}

// RoundingSpec says how device positions are snapped before lookup.
type RoundingSpec struct {
	// SubpixelX and SubpixelY enable quarter-pixel positioning per axis.
	SubpixelX, SubpixelY bool
}

// bias returns the value added before flooring each axis.
func (rs RoundingSpec) bias() Point {
	b := Point{X: 0.5, Y: 0.5}
	if rs.SubpixelX {
		b.X = 1.0 / 8
	}
	if rs.SubpixelY {
		b.Y = 1.0 / 8
	}
	return b
}

// Position snaps a device-space point, returning the integer origin and the
// packed quarter-pixel offsets for id.
func (rs RoundingSpec) Position(id GlyphID, p Point) (Point, PackedGlyphID) {
	b := rs.bias()
	x := float64(p.X + b.X)
	y := float64(p.Y + b.Y)
	fx, fy := math.Floor(x), math.Floor(y)
	var subX, subY uint8
	if rs.SubpixelX {
		subX = uint8((x - fx) * 4)
	}
	if rs.SubpixelY {
		subY = uint8((y - fy) * 4)
	}
	return Point{X: float32(fx), Y: float32(fy)}, MakePackedGlyphID(id, subX, subY)
}

// SurfaceProps describes the destination's subpixel layout.
type SurfaceProps struct {
	PixelGeometry PixelGeometry
}

// PixelGeometry is the LCD subpixel order of the destination.
type PixelGeometry uint8

const (
	PixelGeometryUnknown PixelGeometry = iota
	PixelGeometryRGBH
	PixelGeometryBGRH
	PixelGeometryRGBV
	PixelGeometryBGRV
)

// IsBGR reports whether subpixels are ordered blue first.
func (g PixelGeometry) IsBGR() bool {
	return g == PixelGeometryBGRH || g == PixelGeometryBGRV
}

// StrikeDeviceInfo is everything about the destination that influences
// classification.
type StrikeDeviceInfo struct {
	SurfaceProps       SurfaceProps
	ScalerContextFlags ScalerContextFlags
	SDFTControl        *SDFTControl
}

// StrikeSpec is a descriptor plus the factor mapping strike units back to
// source units.
type StrikeSpec struct {
	Descriptor          Descriptor
	StrikeToSourceScale float32
}

// CanonicalPathTextSize is the text size of path and drawable strikes.
const CanonicalPathTextSize = 64

func baseDescriptor(font Font, props SurfaceProps, flags ScalerContextFlags) Descriptor {
	d := Descriptor{
		TypefaceID: font.TypefaceID,
		TextSize:   font.Size,
		ScaleX:     font.ScaleX,
		SkewX:      font.SkewX,
		Matrix:     [4]float32{1, 0, 0, 1},
		Edging:     font.Edging,
		Hinting:    font.Hinting,
		Flags:      flags & scalerFlagsMask,
	}
	if d.ScaleX == 0 {
		d.ScaleX = 1
	}
	if d.Edging == EdgingSubpixelAntiAlias && props.PixelGeometry == PixelGeometryUnknown {
		d.Edging = EdgingAntiAlias
	}
	return d
}

// MakeMaskStrikeSpec returns a device-space strike spec for drawing glyphs
// directly at deviceMatrix.
func MakeMaskStrikeSpec(font Font, paint *Paint, props SurfaceProps, flags ScalerContextFlags, deviceMatrix Matrix) StrikeSpec {
	d := baseDescriptor(font, props, flags)
	d.Kind = StrikeKindMask
	d.Matrix = [4]float32{deviceMatrix.A, deviceMatrix.B, deviceMatrix.D, deviceMatrix.E}
	if !paint.AntiAlias {
		d.Edging = EdgingAlias
	}
	return StrikeSpec{Descriptor: d, StrikeToSourceScale: 1}
}

// MakeTransformMaskStrikeSpec returns a source-space strike spec rasterized
// at font.Size*scale, mapped back to source size at draw time.
func MakeTransformMaskStrikeSpec(font Font, paint *Paint, props SurfaceProps, flags ScalerContextFlags, scale float32) StrikeSpec {
	if scale <= 0 {
		scale = 1
	}
	d := baseDescriptor(font, props, flags)
	d.Kind = StrikeKindTransformMask
	d.TextSize = font.Size * scale
	d.Hinting = HintingNone
	if d.Edging == EdgingSubpixelAntiAlias || !paint.AntiAlias {
		d.Edging = EdgingAntiAlias
	}
	return StrikeSpec{Descriptor: d, StrikeToSourceScale: 1 / scale}
}

// MakePathStrikeSpec returns a strike spec at CanonicalPathTextSize for
// outlines and drawables.
func MakePathStrikeSpec(font Font, props SurfaceProps, flags ScalerContextFlags) StrikeSpec {
	d := baseDescriptor(font, props, flags)
	d.Kind = StrikeKindPath
	d.TextSize = CanonicalPathTextSize
	d.Hinting = HintingNone
	d.Edging = EdgingAntiAlias
	return StrikeSpec{Descriptor: d, StrikeToSourceScale: font.Size / CanonicalPathTextSize}
}

// FindOrCreateStrike returns the spec's strike with one reference held.
func (s StrikeSpec) FindOrCreateStrike(cache StrikeCache) Strike {
	return cache.FindOrCreateStrike(s.Descriptor)
}
