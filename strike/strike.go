package strike

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/go-text/typesetting/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/glyphrun"
	"github.com/gogpu/glyphrun/internal/gamma"
)

// glyphSource says where a glyph's pixels come from.
type glyphSource uint8

const (
	sourceEmpty    glyphSource = iota
	sourceOutline              // monochrome outline
	sourceBitmap               // embedded bitmap
	sourceDrawable             // color layers or SVG, drawn from the fallback outline
)

// entry is a strike's record of one packed glyph.
type entry struct {
	glyph  glyphrun.Glyph
	source glyphSource
	bitmap font.GlyphBitmap
	// outline is the drawable's outline, kept off glyph.Path so path
	// drawing rejects color glyphs.
	outline *glyphrun.Path
	imaged  bool
}

const (
	strikeOverhead = 512
	entryOverhead  = int64(unsafe.Sizeof(entry{})) + 16
	pointSize      = int64(unsafe.Sizeof(glyphrun.Point{}))
)

// Strike caches glyph metrics, outlines and mask images for one
// descriptor. It implements glyphrun.Strike.
//
// Metrics and outlines are computed on first lookup; mask images are
// rasterized on the first Glyph call, which the atlas upload makes.
//
// Strike is safe for concurrent use.
type Strike struct {
	desc     glyphrun.Descriptor
	typeface *Typeface
	rounding glyphrun.RoundingSpec
	format   glyphrun.MaskFormat
	// toStrike maps sfnt outline pixels, y down, into strike space.
	toStrike glyphrun.Matrix
	ppem     fixed.Int26_6
	lut      *gamma.Table
	onGrow   func(glyphrun.Descriptor)

	refs atomic.Int32
	mem  atomic.Int64

	mu     sync.Mutex
	glyphs map[glyphrun.PackedGlyphID]*entry
	buf    sfnt.Buffer
	face   *font.Face
}

var _ glyphrun.Strike = (*Strike)(nil)

// newStrike returns a strike holding one reference for its owner. t may be
// nil, in which case every glyph is empty.
func newStrike(desc glyphrun.Descriptor, t *Typeface, onGrow func(glyphrun.Descriptor)) *Strike {
	s := &Strike{
		desc:     desc,
		typeface: t,
		rounding: roundingFor(desc),
		format:   formatFor(desc),
		toStrike: desc.DeviceMatrix().Multiply(glyphrun.Matrix{A: desc.ScaleX, B: desc.SkewX, E: 1}),
		ppem:     fixed.Int26_6(math.Round(float64(desc.TextSize) * 64)),
		lut:      gamma.For(desc.Flags&glyphrun.ScalerFakeGamma != 0, desc.Flags&glyphrun.ScalerBoostContrast != 0),
		onGrow:   onGrow,
		glyphs:   make(map[glyphrun.PackedGlyphID]*entry),
	}
	if t != nil {
		s.face = t.newFace()
		ppem := uint16(min(math.Ceil(float64(desc.TextSize*s.toStrike.MaxScale())), math.MaxUint16))
		s.face.SetPpem(ppem, ppem)
	}
	s.refs.Store(1)
	s.mem.Store(strikeOverhead)
	return s
}

// roundingFor enables quarter-pixel positioning for unhinted anti-aliased
// device masks: horizontally for axis-aligned strikes, on both axes
// otherwise.
func roundingFor(desc glyphrun.Descriptor) glyphrun.RoundingSpec {
	if desc.Kind != glyphrun.StrikeKindMask || desc.Edging == glyphrun.EdgingAlias || desc.Hinting > glyphrun.HintingSlight {
		return glyphrun.RoundingSpec{}
	}
	if desc.Matrix[1] == 0 && desc.Matrix[2] == 0 {
		return glyphrun.RoundingSpec{SubpixelX: true}
	}
	return glyphrun.RoundingSpec{SubpixelX: true, SubpixelY: true}
}

func formatFor(desc glyphrun.Descriptor) glyphrun.MaskFormat {
	if desc.Kind == glyphrun.StrikeKindMask && desc.Edging == glyphrun.EdgingSubpixelAntiAlias {
		return glyphrun.MaskA565
	}
	return glyphrun.MaskA8
}

func (s *Strike) Descriptor() glyphrun.Descriptor     { return s.desc }
func (s *Strike) RoundingSpec() glyphrun.RoundingSpec { return s.rounding }

// Ref adds a reference.
func (s *Strike) Ref() { s.refs.Add(1) }

// Unref drops a reference. The strike must not be used by the caller
// afterwards.
func (s *Strike) Unref() {
	if n := s.refs.Add(-1); n == 0 {
		glyphrun.Logger().Debug("strike: released",
			"typeface", s.desc.TypefaceID, "size", s.desc.TextSize, "bytes", s.memoryUsed())
	} else if n < 0 {
		panic("strike: Unref without matching Ref")
	}
}

// Refs returns the current reference count.
func (s *Strike) Refs() int32 { return s.refs.Load() }

func (s *Strike) memoryUsed() int64 { return s.mem.Load() }

// locked runs fn under the strike lock and reports growth to the owning
// cache after the lock is released.
func (s *Strike) locked(fn func()) {
	s.mu.Lock()
	before := s.mem.Load()
	fn()
	grew := s.mem.Load() > before
	s.mu.Unlock()
	if grew && s.onGrow != nil {
		s.onGrow(s.desc)
	}
}

// Glyph returns the entry for id with its image rendered. Images are only
// rendered for glyphs that fit in the atlas.
func (s *Strike) Glyph(id glyphrun.PackedGlyphID) *glyphrun.Glyph {
	var g *glyphrun.Glyph
	s.locked(func() {
		e := s.entryLocked(id)
		s.renderLocked(e)
		g = &e.glyph
	})
	return g
}

func (s *Strike) PrepareForMaskDrawing(accepted *glyphrun.DrawableBuffer, rejected *glyphrun.SourceBuffer) {
	s.prepare(accepted, rejected, func(e *entry) bool {
		return e.glyph.FitsInAtlas()
	})
}

func (s *Strike) PrepareForSDFTDrawing(accepted *glyphrun.DrawableBuffer, rejected *glyphrun.SourceBuffer) {
	s.prepare(accepted, rejected, func(e *entry) bool {
		return e.glyph.Path != nil && e.glyph.FitsInAtlas()
	})
}

func (s *Strike) PrepareForPathDrawing(accepted *glyphrun.DrawableBuffer, rejected *glyphrun.SourceBuffer) {
	s.prepare(accepted, rejected, func(e *entry) bool {
		return e.glyph.Path != nil
	})
}

func (s *Strike) PrepareForDrawableDrawing(accepted *glyphrun.DrawableBuffer, rejected *glyphrun.SourceBuffer) {
	s.prepare(accepted, rejected, func(e *entry) bool {
		return e.glyph.Drawable != nil
	})
}

// prepare drops empty glyphs, accepts the ones ok approves and rejects the
// rest.
func (s *Strike) prepare(accepted *glyphrun.DrawableBuffer, rejected *glyphrun.SourceBuffer, ok func(*entry) bool) {
	s.locked(func() {
		for i, in := range accepted.Input() {
			e := s.entryLocked(in.ID)
			switch {
			case e.glyph.IsEmpty():
			case !ok(e):
				rejected.Reject(i)
			default:
				accepted.Accept(&e.glyph, i)
			}
		}
	})
}

// FindMaximumGlyphDimension returns the largest glyph side in ids.
func (s *Strike) FindMaximumGlyphDimension(ids []glyphrun.GlyphID) float32 {
	m := 0
	s.locked(func() {
		for _, id := range ids {
			m = max(m, s.entryLocked(glyphrun.PackedGlyphID(id)).glyph.MaxDimension())
		}
	})
	return float32(m)
}

// GlyphIDsToPaths returns each glyph's outline, nil for glyphs without one.
func (s *Strike) GlyphIDsToPaths(ids []glyphrun.GlyphID) []*glyphrun.Path {
	paths := make([]*glyphrun.Path, len(ids))
	s.locked(func() {
		for i, id := range ids {
			paths[i] = s.entryLocked(glyphrun.PackedGlyphID(id)).glyph.Path
		}
	})
	return paths
}

// entryLocked returns the entry for id, computing its metrics and outline
// on first use. Caller must hold s.mu.
func (s *Strike) entryLocked(id glyphrun.PackedGlyphID) *entry {
	if e, ok := s.glyphs[id]; ok {
		return e
	}
	e := &entry{glyph: glyphrun.Glyph{ID: id, Format: s.format}}
	if s.typeface != nil {
		s.classifyLocked(e)
	}
	s.glyphs[id] = e
	s.mem.Add(entryOverhead + pointSize*int64(pointCount(e.glyph.Path)+pointCount(e.outline)))
	return e
}

func pointCount(p *glyphrun.Path) int {
	if p == nil {
		return 0
	}
	return len(p.Points())
}

// classifyLocked asks the typeface what kind of glyph id is and fills in
// the geometry.
func (s *Strike) classifyLocked(e *entry) {
	id := e.glyph.ID
	m := s.toStrike
	if sx, sy := id.SubX(), id.SubY(); sx != 0 || sy != 0 {
		m = m.PostTranslate(float32(sx)/4, float32(sy)/4)
	}

	switch data := s.face.GlyphData(font.GID(id.GlyphID())).(type) {
	case font.GlyphBitmap:
		s.setBitmap(e, data, m)
	case font.GlyphColor:
		if p := s.loadOutline(id.GlyphID(), m); hasArea(p) {
			s.setDrawable(e, p)
		}
	case font.GlyphSVG:
		p := s.loadOutline(id.GlyphID(), m)
		if !hasArea(p) {
			p = goTextPath(data.Outline, s.desc.TextSize/s.typeface.upem, m)
		}
		if hasArea(p) {
			s.setDrawable(e, p)
		}
	case font.GlyphOutline:
		if p := s.loadOutline(id.GlyphID(), m); hasArea(p) {
			e.source = sourceOutline
			e.glyph.Path = p
			s.setBox(e, p.Bounds())
		}
	}
}

// loadOutline returns the sfnt outline of gid mapped by m, or nil.
func (s *Strike) loadOutline(gid glyphrun.GlyphID, m glyphrun.Matrix) *glyphrun.Path {
	segs, err := s.typeface.sfnt.LoadGlyph(&s.buf, sfnt.GlyphIndex(gid), s.ppem, nil)
	if err != nil {
		if !errors.Is(err, sfnt.ErrColoredGlyph) && !errors.Is(err, sfnt.ErrNotFound) {
			glyphrun.Logger().Debug("strike: outline load failed", "glyph", gid, "err", err)
		}
		return nil
	}
	return sfntPath(segs, m)
}

func (s *Strike) setDrawable(e *entry, p *glyphrun.Path) {
	e.source = sourceDrawable
	e.outline = p
	e.glyph.Format = glyphrun.MaskARGB
	e.glyph.Drawable = newOutlineDrawable(p)
	s.setBox(e, p.Bounds())
}

// setBitmap sizes a bitmap glyph from its font-unit extents, falling back
// to the bitmap's own size at the strike's ppem.
func (s *Strike) setBitmap(e *entry, b font.GlyphBitmap, m glyphrun.Matrix) {
	var r glyphrun.Rect
	if ext, ok := s.face.GlyphExtents(font.GID(e.glyph.ID.GlyphID())); ok && ext.Width != 0 && ext.Height != 0 {
		scale := s.desc.TextSize / s.typeface.upem
		r = glyphrun.RectLTRB(ext.XBearing*scale, -ext.YBearing*scale,
			(ext.XBearing+ext.Width)*scale, -(ext.YBearing+ext.Height)*scale)
	} else {
		r = glyphrun.RectLTRB(0, -float32(b.Height), float32(b.Width), 0)
	}
	r = m.MapRect(r)
	if r.IsEmpty() || b.Width == 0 || b.Height == 0 {
		return
	}
	e.source = sourceBitmap
	e.bitmap = b
	e.glyph.Format = glyphrun.MaskARGB
	s.setBox(e, r)
}

// setBox sets the glyph rectangle to r rounded out, padded for distance
// fields and saturated to the Glyph field ranges.
func (s *Strike) setBox(e *entry, r glyphrun.Rect) {
	ir := r.RoundOut()
	if s.desc.Kind == glyphrun.StrikeKindSDFT {
		ir.Left -= distanceFieldPad
		ir.Top -= distanceFieldPad
		ir.Right += distanceFieldPad
		ir.Bottom += distanceFieldPad
	}
	if ir.IsEmpty() {
		return
	}
	e.glyph.Left = int16(min(max(ir.Left, math.MinInt16), math.MaxInt16))
	e.glyph.Top = int16(min(max(ir.Top, math.MinInt16), math.MaxInt16))
	e.glyph.Width = uint16(min(int64(ir.Right)-int64(ir.Left), math.MaxUint16))
	e.glyph.Height = uint16(min(int64(ir.Bottom)-int64(ir.Top), math.MaxUint16))
}

// renderLocked fills e's image on first use. Caller must hold s.mu.
func (s *Strike) renderLocked(e *entry) {
	g := &e.glyph
	if e.imaged || g.IsEmpty() || !g.FitsInAtlas() || s.desc.Kind == glyphrun.StrikeKindPath {
		return
	}
	e.imaged = true

	switch e.source {
	case sourceOutline:
		switch {
		case s.desc.Kind == glyphrun.StrikeKindSDFT:
			g.Image = distanceField(g)
		case g.Format == glyphrun.MaskA565:
			g.Image = maskA565(g, s.lut)
		default:
			g.Image = maskA8(g, s.desc.Edging == glyphrun.EdgingAlias, s.lut)
		}
	case sourceDrawable:
		g.Image = maskSolidARGB(g, e.outline)
	case sourceBitmap:
		img, err := decodeBitmap(e.bitmap)
		if err != nil {
			glyphrun.Logger().Warn("strike: bitmap decode failed", "glyph", g.ID.GlyphID(), "err", err)
			g.Image = make([]byte, int(g.Width)*int(g.Height)*g.Format.BytesPerPixel())
			break
		}
		g.Image = maskBitmap(g, img)
		e.bitmap.Data = nil
	}
	s.mem.Add(int64(len(g.Image)))
}
