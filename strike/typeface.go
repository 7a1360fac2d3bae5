package strike

import (
	"bytes"
	"fmt"
	"math"
	"sync"

	"github.com/go-text/typesetting/font"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/glyphrun"
)

// Typeface is a parsed font file. Outlines and metrics come from sfnt;
// color glyph data (bitmaps, COLR layers, SVG) comes from go-text.
//
// Typeface is safe for concurrent use. sfnt.Font and font.Font are
// read-only; every caller brings its own sfnt.Buffer or font.Face.
type Typeface struct {
	id    uint32
	name  string
	sfnt  *sfnt.Font
	color *font.Font
	upem  float32
}

// ParseTypeface parses an OpenType or TrueType file.
func ParseTypeface(id uint32, data []byte) (*Typeface, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("strike: parse typeface: %w", err)
	}
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("strike: parse color tables: %w", err)
	}
	t := &Typeface{
		id:    id,
		sfnt:  f,
		color: face.Font,
		upem:  float32(f.UnitsPerEm()),
	}
	if name, err := f.Name(nil, sfnt.NameIDFamily); err == nil {
		t.name = name
	}
	return t, nil
}

// ID returns the registry ID.
func (t *Typeface) ID() uint32 { return t.id }

// Name returns the family name, or "" when the font has none.
func (t *Typeface) Name() string { return t.name }

// NumGlyphs returns the number of glyphs in the font.
func (t *Typeface) NumGlyphs() int { return t.sfnt.NumGlyphs() }

// UnitsPerEm returns the font's design units per em.
func (t *Typeface) UnitsPerEm() float32 { return t.upem }

// GlyphIndex returns the nominal glyph for r, or 0 (.notdef) when the font
// has none.
func (t *Typeface) GlyphIndex(r rune) glyphrun.GlyphID {
	var buf sfnt.Buffer
	idx, err := t.sfnt.GlyphIndex(&buf, r)
	if err != nil {
		return 0
	}
	return glyphrun.GlyphID(idx)
}

// GlyphIndices maps every rune of s to its nominal glyph.
func (t *Typeface) GlyphIndices(s string) []glyphrun.GlyphID {
	var buf sfnt.Buffer
	ids := make([]glyphrun.GlyphID, 0, len(s))
	for _, r := range s {
		idx, err := t.sfnt.GlyphIndex(&buf, r)
		if err != nil {
			idx = 0
		}
		ids = append(ids, glyphrun.GlyphID(idx))
	}
	return ids
}

// Advance returns the unhinted horizontal advance of id at size, or 0 when
// the font has no such glyph.
func (t *Typeface) Advance(id glyphrun.GlyphID, size float32) float32 {
	var buf sfnt.Buffer
	ppem := fixed.Int26_6(math.Round(float64(size) * 64))
	adv, err := t.sfnt.GlyphAdvance(&buf, sfnt.GlyphIndex(id), ppem, xfont.HintingNone)
	if err != nil {
		return 0
	}
	return float32(adv) / 64
}

// newFace returns a go-text face for one strike. Faces are not safe for
// concurrent use.
func (t *Typeface) newFace() *font.Face {
	return font.NewFace(t.color)
}

// Registry assigns IDs to typefaces. IDs start at 1 so the zero
// descriptor never names a real typeface.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	faces map[uint32]*Typeface
	next  uint32
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{faces: make(map[uint32]*Typeface), next: 1}
}

// Register parses data and stores it under a fresh ID.
func (r *Registry) Register(data []byte) (*Typeface, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := ParseTypeface(r.next, data)
	if err != nil {
		return nil, err
	}
	r.faces[t.id] = t
	r.next++
	glyphrun.Logger().Debug("strike: typeface registered", "id", t.id, "name", t.name, "glyphs", t.NumGlyphs())
	return t, nil
}

// Typeface returns the typeface registered under id.
func (r *Registry) Typeface(id uint32) (*Typeface, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.faces[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", glyphrun.ErrUnknownTypeface, id)
	}
	return t, nil
}

// Len returns the number of registered typefaces.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.faces)
}
