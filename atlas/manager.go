package atlas

import (
	"image"
	"sync"

	"github.com/gogpu/glyphrun"
	"github.com/gogpu/glyphrun/internal/cache"
)

// page is the single atlas texture for one mask format.
type page struct {
	format        glyphrun.MaskFormat
	width, height int
	bpp           int
	pix           []byte // allocated on first upload
	packer        *shelfPacker

	// generation starts at 1 so a zero AtlasGlyph is never in the atlas.
	generation uint64
	glyphs     int
	lastUse    uint64
	dirty      image.Rectangle
}

func newPage(format glyphrun.MaskFormat, cfg Config) *page {
	return &page{
		format:     format,
		width:      cfg.PageWidth,
		height:     cfg.PageHeight,
		bpp:        format.BytesPerPixel(),
		packer:     newShelfPacker(cfg.PageWidth, cfg.PageHeight, cfg.Padding),
		generation: 1,
	}
}

func (p *page) reset() {
	p.packer.reset()
	p.generation++
	p.glyphs = 0
	clear(p.pix)
	p.dirty = image.Rect(0, 0, p.width, p.height)
}

// blit copies a tightly packed w×h image to (x, y).
func (p *page) blit(src []byte, x, y, w, h int) {
	if p.pix == nil {
		p.pix = make([]byte, p.width*p.height*p.bpp)
	}
	stride := p.width * p.bpp
	row := w * p.bpp
	for j := 0; j < h; j++ {
		dst := (y+j)*stride + x*p.bpp
		copy(p.pix[dst:dst+row], src[j*row:(j+1)*row])
	}
	p.dirty = p.dirty.Union(image.Rect(x, y, x+w, y+h))
}

// PageData is a view of one atlas page for upload. Pix is shared with the
// manager and is valid until the next call that adds glyphs.
type PageData struct {
	Format     glyphrun.MaskFormat
	Width      int
	Height     int
	Stride     int
	Pix        []byte
	Generation uint64
	// Dirty is the region written since the previous TakeDirty.
	Dirty image.Rectangle
}

// Stats reports atlas usage.
type Stats struct {
	Glyphs      [glyphrun.MaskFormatCount]int
	Utilization [glyphrun.MaskFormatCount]float64
	Resets      uint64
	TextStrikes int
}

// Manager owns one atlas page per mask format and the GPU-side text
// strikes that remember where glyphs were placed. It implements
// glyphrun.AtlasManager, glyphrun.TextStrikeCache and glyphrun.AtlasTarget.
//
// A page that fills up is reset when none of its glyphs is used by the
// draw being prepared; otherwise AddGlyphToAtlas reports AtlasTryAgain and
// the caller must Flush first.
//
// Manager is safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	cfg     Config
	pages   [glyphrun.MaskFormatCount]*page
	strikes *cache.Cache[glyphrun.Descriptor, *TextStrike]

	nextToken uint64
	resets    uint64
}

var (
	_ glyphrun.AtlasManager    = (*Manager)(nil)
	_ glyphrun.TextStrikeCache = (*Manager)(nil)
	_ glyphrun.AtlasTarget     = (*Manager)(nil)
)

// NewManager creates a manager with empty pages.
func NewManager(cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Manager{
		cfg:       cfg,
		strikes:   cache.New[glyphrun.Descriptor, *TextStrike](cfg.MaxTextStrikes),
		nextToken: 1,
	}
	for f := range m.pages {
		m.pages[f] = newPage(glyphrun.MaskFormat(f), cfg)
	}
	return m, nil
}

func (m *Manager) AtlasManager() glyphrun.AtlasManager       { return m }
func (m *Manager) TextStrikeCache() glyphrun.TextStrikeCache { return m }

// NextDrawToken returns the token of the draw being prepared.
func (m *Manager) NextDrawToken() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextToken
}

// Flush marks every draw prepared so far as submitted. Glyphs they used
// may be evicted afterwards.
func (m *Manager) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextToken++
}

// HasGlyph reports whether g was placed in the current generation of the
// format's page.
func (m *Manager) HasGlyph(format glyphrun.MaskFormat, g *glyphrun.AtlasGlyph) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return g.Generation == m.pages[format].generation
}

// AtlasGeneration returns the format's page generation.
func (m *Manager) AtlasGeneration(format glyphrun.MaskFormat) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pages[format].generation
}

// SetUseToken records that the draw identified by token uses ag.
func (m *Manager) SetUseToken(format glyphrun.MaskFormat, ag *glyphrun.AtlasGlyph, token uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ag.UseToken = token
	p := m.pages[format]
	p.lastUse = max(p.lastUse, token)
}

// AddGlyphToAtlas copies glyph's image into the format's page and sets
// ag's locator. A padding of 1 adds a transparent border for bilinear
// sampling; larger paddings are already part of the image and only inset
// the locator.
func (m *Manager) AddGlyphToAtlas(glyph *glyphrun.Glyph, ag *glyphrun.AtlasGlyph, format glyphrun.MaskFormat, padding int, token uint64) glyphrun.AtlasErrorCode {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.pages[format]
	w, h := int(glyph.Width), int(glyph.Height)
	if glyph.Format != format || len(glyph.Image) < w*h*p.bpp {
		glyphrun.Logger().Warn("atlas: glyph image does not match its format",
			"glyph", ag.ID.GlyphID(), "format", format, "bytes", len(glyph.Image))
		return glyphrun.AtlasError
	}
	border := 0
	if padding == 1 {
		border = 1
	}
	cellW, cellH := w+2*border, h+2*border
	if cellW+m.cfg.Padding > p.width || cellH+m.cfg.Padding > p.height {
		return glyphrun.AtlasError
	}

	x, y, ok := p.packer.pack(cellW, cellH)
	if !ok {
		if p.lastUse >= m.nextToken {
			return glyphrun.AtlasTryAgain
		}
		glyphrun.Logger().Debug("atlas: page reset", "format", format,
			"generation", p.generation, "glyphs", p.glyphs)
		p.reset()
		m.resets++
		if x, y, ok = p.packer.pack(cellW, cellH); !ok {
			return glyphrun.AtlasError
		}
	}

	p.blit(glyph.Image, x+border, y+border, w, h)
	if border > 0 {
		p.dirty = p.dirty.Union(image.Rect(x, y, x+cellW, y+cellH))
	}
	inset := padding
	if border > 0 {
		inset = 0
	}
	x0, y0 := x+border+inset, y+border+inset
	ag.Locator = glyphrun.AtlasLocator{
		U0: uint16(x0),
		V0: uint16(y0),
		U1: uint16(x + border + w - inset),
		V1: uint16(y + border + h - inset),
	}
	ag.Generation = p.generation
	ag.UseToken = token
	p.lastUse = max(p.lastUse, token)
	p.glyphs++
	return glyphrun.AtlasSucceeded
}

// FindOrCreateTextStrike returns the GPU-side strike for desc.
func (m *Manager) FindOrCreateTextStrike(desc glyphrun.Descriptor) glyphrun.TextStrike {
	return m.strikes.GetOrCreate(desc, func() *TextStrike {
		return &TextStrike{desc: desc, glyphs: make(map[glyphrun.PackedGlyphID]*glyphrun.AtlasGlyph)}
	})
}

// TakeDirty returns the format's page and clears its dirty region. The
// second result is false when nothing changed since the last call.
func (m *Manager) TakeDirty(format glyphrun.MaskFormat) (PageData, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.pages[format]
	data := PageData{
		Format:     format,
		Width:      p.width,
		Height:     p.height,
		Stride:     p.width * p.bpp,
		Pix:        p.pix,
		Generation: p.generation,
		Dirty:      p.dirty,
	}
	p.dirty = image.Rectangle{}
	return data, !data.Dirty.Empty() && p.pix != nil
}

// Reset empties every page and drops the text strikes.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.pages {
		p.reset()
	}
	m.strikes.Purge()
}

// Stats returns a snapshot of atlas usage.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Stats{Resets: m.resets, TextStrikes: m.strikes.Len()}
	for f, p := range m.pages {
		st.Glyphs[f] = p.glyphs
		st.Utilization[f] = p.packer.utilization()
	}
	return st
}

// TextStrike maps packed glyph IDs to their atlas records for one
// descriptor.
type TextStrike struct {
	mu     sync.Mutex
	desc   glyphrun.Descriptor
	glyphs map[glyphrun.PackedGlyphID]*glyphrun.AtlasGlyph
}

// Descriptor returns the strike's key.
func (s *TextStrike) Descriptor() glyphrun.Descriptor { return s.desc }

// Glyph returns the record for id, creating an unplaced one on first use.
func (s *TextStrike) Glyph(id glyphrun.PackedGlyphID) *glyphrun.AtlasGlyph {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.glyphs[id]
	if !ok {
		g = &glyphrun.AtlasGlyph{ID: id}
		s.glyphs[id] = g
	}
	return g
}
