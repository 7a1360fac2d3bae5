package glyphrun

import (
	"math"
	"sync"
	"sync/atomic"
)

// glyphKind says what a fake typeface produces for a glyph.
type glyphKind uint8

const (
	kindOutline  glyphKind = iota // mask and path
	kindColor                     // ARGB mask, no path
	kindDrawable                  // drawable, no path
	kindEmpty                     // no pixels
	kindStubborn                  // bitmap whose size ignores the text size
)

// fakeGlyphSpec describes one glyph of the fake typeface. Extent is the
// glyph side as a fraction of the text size.
type fakeGlyphSpec struct {
	kind   glyphKind
	extent float32
}

// fakeStrikeCache is a StrikeCache over a synthetic typeface. Glyphs not in
// specs are outlines with extent 0.5.
type fakeStrikeCache struct {
	mu      sync.Mutex
	specs   map[GlyphID]fakeGlyphSpec
	strikes map[Descriptor]*fakeStrike
	created int
}

func newFakeStrikeCache() *fakeStrikeCache {
	return &fakeStrikeCache{
		specs:   make(map[GlyphID]fakeGlyphSpec),
		strikes: make(map[Descriptor]*fakeStrike),
	}
}

func (c *fakeStrikeCache) set(id GlyphID, kind glyphKind, extent float32) *fakeStrikeCache {
	c.specs[id] = fakeGlyphSpec{kind: kind, extent: extent}
	return c
}

func (c *fakeStrikeCache) spec(id GlyphID) fakeGlyphSpec {
	if s, ok := c.specs[id]; ok {
		return s
	}
	return fakeGlyphSpec{kind: kindOutline, extent: 0.5}
}

func (c *fakeStrikeCache) FindStrike(desc Descriptor) Strike {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.strikes[desc]; ok {
		return s
	}
	return nil
}

func (c *fakeStrikeCache) FindOrCreateStrike(desc Descriptor) Strike {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.strikes[desc]
	if !ok {
		s = &fakeStrike{cache: c, desc: desc, glyphs: make(map[PackedGlyphID]*Glyph)}
		c.strikes[desc] = s
		c.created++
	}
	s.Ref()
	return s
}

// outstandingRefs sums the references held on every strike.
func (c *fakeStrikeCache) outstandingRefs() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, s := range c.strikes {
		n += s.refs.Load()
	}
	return n
}

type fakeStrike struct {
	cache       *fakeStrikeCache
	desc        Descriptor
	refs        atomic.Int64
	conversions atomic.Int64

	mu     sync.Mutex
	glyphs map[PackedGlyphID]*Glyph
}

func (s *fakeStrike) Descriptor() Descriptor     { return s.desc }
func (s *fakeStrike) RoundingSpec() RoundingSpec { return RoundingSpec{} }
func (s *fakeStrike) Ref()                       { s.refs.Add(1) }
func (s *fakeStrike) Unref()                     { s.refs.Add(-1) }

// side returns the glyph side in strike pixels, zero for empty glyphs.
func (s *fakeStrike) side(id GlyphID) int {
	spec := s.cache.spec(id)
	switch spec.kind {
	case kindEmpty:
		return 0
	case kindStubborn:
		return 1000
	}
	scale := s.desc.DeviceMatrix().MaxScale()
	return int(math.Ceil(float64(spec.extent * s.desc.TextSize * scale)))
}

func (s *fakeStrike) Glyph(id PackedGlyphID) *Glyph {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.glyphs[id]; ok {
		return g
	}
	spec := s.cache.spec(id.GlyphID())
	side := s.side(id.GlyphID())
	g := &Glyph{
		ID:     id,
		Top:    int16(-side),
		Width:  uint16(side),
		Height: uint16(side),
		Format: MaskA8,
	}
	switch spec.kind {
	case kindOutline:
		if side > 0 {
			g.Path = squarePath(float32(side))
		}
	case kindColor, kindStubborn:
		g.Format = MaskARGB
	case kindDrawable:
		g.Format = MaskARGB
		g.Drawable = &fakeDrawable{bounds: Rect{Top: -float32(side), Right: float32(side)}}
	}
	if !g.IsEmpty() {
		g.Image = make([]byte, int(g.Width)*int(g.Height)*g.Format.BytesPerPixel())
	}
	s.glyphs[id] = g
	return g
}

func squarePath(side float32) *Path {
	p := &Path{}
	p.MoveTo(0, 0)
	p.LineTo(side, 0)
	p.LineTo(side, -side)
	p.LineTo(0, -side)
	p.Close()
	return p
}

func (s *fakeStrike) PrepareForMaskDrawing(accepted *DrawableBuffer, rejected *SourceBuffer) {
	for i, in := range accepted.Input() {
		g := s.Glyph(in.ID)
		switch {
		case g.IsEmpty():
		case !g.FitsInAtlas():
			rejected.Reject(i)
		default:
			accepted.Accept(g, i)
		}
	}
}

func (s *fakeStrike) PrepareForSDFTDrawing(accepted *DrawableBuffer, rejected *SourceBuffer) {
	for i, in := range accepted.Input() {
		g := s.Glyph(in.ID)
		switch {
		case g.IsEmpty():
		case g.Path == nil || !g.FitsInAtlas():
			rejected.Reject(i)
		default:
			accepted.Accept(g, i)
		}
	}
}

func (s *fakeStrike) PrepareForPathDrawing(accepted *DrawableBuffer, rejected *SourceBuffer) {
	for i, in := range accepted.Input() {
		g := s.Glyph(in.ID)
		switch {
		case g.IsEmpty():
		case g.Path == nil:
			rejected.Reject(i)
		default:
			accepted.Accept(g, i)
		}
	}
}

func (s *fakeStrike) PrepareForDrawableDrawing(accepted *DrawableBuffer, rejected *SourceBuffer) {
	for i, in := range accepted.Input() {
		g := s.Glyph(in.ID)
		switch {
		case g.IsEmpty():
		case g.Drawable == nil:
			rejected.Reject(i)
		default:
			accepted.Accept(g, i)
		}
	}
}

func (s *fakeStrike) FindMaximumGlyphDimension(ids []GlyphID) float32 {
	m := 0
	for _, id := range ids {
		m = max(m, s.side(id))
	}
	return float32(m)
}

func (s *fakeStrike) GlyphIDsToPaths(ids []GlyphID) []*Path {
	s.conversions.Add(1)
	paths := make([]*Path, len(ids))
	for i, id := range ids {
		paths[i] = s.Glyph(PackedGlyphID(id)).Path
	}
	return paths
}

type fakeDrawable struct {
	bounds Rect
	draws  atomic.Int64
}

func (d *fakeDrawable) Bounds() Rect { return d.bounds }

func (d *fakeDrawable) Draw(Canvas, Matrix) { d.draws.Add(1) }

// recordingCanvas keeps a matrix stack and records what is drawn.
type recordingCanvas struct {
	stack  []Matrix
	ctm    Matrix
	paths  []drawnPath
	layers []Rect
	saves  int
}

type drawnPath struct {
	path  *Path
	paint Paint
	ctm   Matrix
}

func newRecordingCanvas(m Matrix) *recordingCanvas {
	return &recordingCanvas{ctm: m}
}

func (c *recordingCanvas) Save() {
	c.stack = append(c.stack, c.ctm)
	c.saves++
}

func (c *recordingCanvas) Restore() {
	c.ctm = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

func (c *recordingCanvas) Concat(m Matrix)       { c.ctm = c.ctm.Multiply(m) }
func (c *recordingCanvas) LocalToDevice() Matrix { return c.ctm }

func (c *recordingCanvas) DrawPath(p *Path, paint *Paint) {
	c.paths = append(c.paths, drawnPath{path: p, paint: *paint, ctm: c.ctm})
}

func (c *recordingCanvas) SaveLayer(bounds *Rect, _ *Paint) {
	c.Save()
	c.layers = append(c.layers, *bounds)
}

// recordingDevice collects atlas ops.
type recordingDevice struct {
	bounds  IRect
	clip    IRect
	hasClip bool
	ops     []*AtlasTextOp
}

func newRecordingDevice(w, h int32) *recordingDevice {
	return &recordingDevice{bounds: IRect{Right: w, Bottom: h}}
}

func (d *recordingDevice) Bounds() IRect             { return d.bounds }
func (d *recordingDevice) Clip() (IRect, bool)       { return d.clip, d.hasClip }
func (d *recordingDevice) AddDrawOp(op *AtlasTextOp) { d.ops = append(d.ops, op) }

// fakeAtlas places glyphs on a single row per format and never fills up
// unless capacity is set.
type fakeAtlas struct {
	next       [MaskFormatCount]uint16
	generation [MaskFormatCount]uint64
	placed     map[*AtlasGlyph]bool
	capacity   int
	adds       int
	token      uint64
	strikes    map[Descriptor]*fakeTextStrike
}

func newFakeAtlas() *fakeAtlas {
	return &fakeAtlas{
		placed:  make(map[*AtlasGlyph]bool),
		strikes: make(map[Descriptor]*fakeTextStrike),
	}
}

func (a *fakeAtlas) AtlasManager() AtlasManager                { return a }
func (a *fakeAtlas) TextStrikeCache() TextStrikeCache          { return a }
func (a *fakeAtlas) HasGlyph(_ MaskFormat, g *AtlasGlyph) bool { return a.placed[g] }
func (a *fakeAtlas) AtlasGeneration(f MaskFormat) uint64       { return a.generation[f] }

func (a *fakeAtlas) NextDrawToken() uint64 {
	a.token++
	return a.token
}

func (a *fakeAtlas) SetUseToken(_ MaskFormat, ag *AtlasGlyph, token uint64) { ag.UseToken = token }

func (a *fakeAtlas) AddGlyphToAtlas(glyph *Glyph, ag *AtlasGlyph, format MaskFormat, padding int, _ uint64) AtlasErrorCode {
	if a.capacity > 0 && a.adds == a.capacity {
		return AtlasTryAgain
	}
	a.adds++
	w, h := glyph.Width, glyph.Height
	if padding == 1 {
		w, h = w+2, h+2
	}
	x := a.next[format]
	a.next[format] += w
	inset := uint16(padding)
	ag.Locator = AtlasLocator{U0: x + inset, V0: inset, U1: x + w - inset, V1: h - inset}
	a.placed[ag] = true
	return AtlasSucceeded
}

func (a *fakeAtlas) FindOrCreateTextStrike(desc Descriptor) TextStrike {
	s, ok := a.strikes[desc]
	if !ok {
		s = &fakeTextStrike{glyphs: make(map[PackedGlyphID]*AtlasGlyph)}
		a.strikes[desc] = s
	}
	return s
}

type fakeTextStrike struct {
	glyphs map[PackedGlyphID]*AtlasGlyph
}

func (s *fakeTextStrike) Glyph(id PackedGlyphID) *AtlasGlyph {
	g, ok := s.glyphs[id]
	if !ok {
		g = &AtlasGlyph{ID: id}
		s.glyphs[id] = g
	}
	return g
}

// runOf builds a run list with glyphs spaced 20 units apart on the baseline.
func runOf(font Font, ids ...GlyphID) *GlyphRunList {
	pos := make([]Point, len(ids))
	for i := range pos {
		pos[i] = Point{X: float32(20 * i), Y: 0}
	}
	run, err := NewGlyphRun(font, ids, pos)
	if err != nil {
		panic(err)
	}
	return NewGlyphRunList(Point{}, run)
}

func deviceInfo() StrikeDeviceInfo {
	return StrikeDeviceInfo{SDFTControl: DefaultSDFTControl()}
}
