package glyphrun

import (
	"encoding/binary"
	"hash/fnv"
	"math"
)

// Style selects how glyph shapes are painted.
type Style uint8

const (
	// StyleFill fills the glyph interior.
	StyleFill Style = iota
	// StyleStroke strokes the glyph outline.
	StyleStroke
	// StyleStrokeAndFill does both.
	StyleStrokeAndFill
)

// Color is a non-premultiplied 8-bit ARGB color packed as 0xAARRGGBB.
type Color uint32

// ColorBlack is opaque black.
const ColorBlack Color = 0xFF000000

// RGBA packs the channels into a Color.
func RGBA(r, g, b, a uint8) Color {
	return Color(uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// Premul returns the color premultiplied by alpha in the byte order the
// vertex shader expects (R, G, B, A from low to high bytes).
func (c Color) Premul() uint32 {
	a := uint32(c >> 24)
	r := uint32(c>>16) & 0xFF * a / 255
	g := uint32(c>>8) & 0xFF * a / 255
	b := uint32(c) & 0xFF * a / 255
	return r | g<<8 | b<<16 | a<<24
}

// Shader paints glyph coverage with something other than a solid color.
type Shader interface {
	// IsOpaque reports whether every pixel the shader produces is opaque.
	IsOpaque() bool
}

// PathEffect alters a path before it is filled or stroked.
type PathEffect interface {
	Filter(p *Path) *Path
}

// BlurStyle selects the blur mask filter variant.
type BlurStyle uint8

const (
	BlurNormal BlurStyle = iota
	BlurSolid
	BlurOuter
	BlurInner
)

// MaskFilter modifies glyph coverage before it is painted. Only blurs carry
// a sigma; other filters are opaque to the pipeline.
type MaskFilter struct {
	Blur  bool
	Style BlurStyle
	Sigma float32
}

// Paint carries the drawing state that influences SubRun selection and
// submission.
type Paint struct {
	Color       Color
	Style       Style
	StrokeWidth float32
	AntiAlias   bool

	Shader     Shader
	PathEffect PathEffect
	MaskFilter *MaskFilter
}

// DefaultPaint returns an anti-aliased black fill paint.
func DefaultPaint() Paint {
	return Paint{Color: ColorBlack, Style: StyleFill, AntiAlias: true}
}

// IsHairline reports whether the paint strokes with a zero width.
func (p *Paint) IsHairline() bool {
	return p.Style != StyleFill && p.StrokeWidth == 0
}

// isPlainOpaqueFill reports whether compositing with p changes nothing: an
// opaque fill with no shader, path effect or mask filter.
func (p *Paint) isPlainOpaqueFill() bool {
	return p == nil || p.Color>>24 == 0xFF && p.Style == StyleFill &&
		p.Shader == nil && p.PathEffect == nil && p.MaskFilter == nil
}

// needsExactCTM reports whether path glyphs must be transformed to source
// space before drawing instead of concatenating the glyph matrix onto the
// canvas.
func (p *Paint) needsExactCTM() bool {
	if p.Shader != nil || p.PathEffect != nil {
		return true
	}
	if p.Style != StyleFill && !p.IsHairline() {
		return true
	}
	return p.MaskFilter != nil && !p.MaskFilter.Blur
}

// Key returns a hash of the paint state that affects how glyphs are
// rasterized, for keying cached containers. Color is excluded: it is
// applied per draw.
func (p *Paint) Key() uint64 {
	var buf [16]byte
	buf[0] = byte(p.Style)
	if p.AntiAlias {
		buf[1] = 1
	}
	if p.Shader != nil {
		buf[2] = 1
	}
	if p.PathEffect != nil {
		buf[3] = 1
	}
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(p.StrokeWidth))
	if mf := p.MaskFilter; mf != nil {
		buf[8] = 1 + byte(mf.Style)
		if mf.Blur {
			buf[9] = 1
		}
		binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(mf.Sigma))
	}
	h := fnv.New64a()
	_, _ = h.Write(buf[:]) // fnv.Write never returns an error
	return h.Sum64()
}
