package glyphrun

import (
	"fmt"
	"sync/atomic"
)

// GlyphID is a glyph index within a typeface.
type GlyphID uint16

// Edging selects how glyph edges are anti-aliased.
type Edging uint8

const (
	EdgingAlias Edging = iota
	EdgingAntiAlias
	EdgingSubpixelAntiAlias
)

// Hinting selects the outline hinting level.
type Hinting uint8

const (
	HintingNone Hinting = iota
	HintingSlight
	HintingNormal
	HintingFull
)

// Font is the typeface and size a run is drawn with.
type Font struct {
	// TypefaceID identifies the typeface in the strike cache's registry.
	TypefaceID uint32
	// Size is the text size in source units.
	Size float32
	// ScaleX is the horizontal scale applied to the text. 1 is no scale.
	ScaleX float32
	// SkewX is the horizontal skew applied to the text. 0 is no skew.
	SkewX float32

	Edging   Edging
	Hinting  Hinting
	Subpixel bool
}

// NewFont returns an anti-aliased font with normal hinting.
func NewFont(typefaceID uint32, size float32) Font {
	return Font{
		TypefaceID: typefaceID,
		Size:       size,
		ScaleX:     1,
		Edging:     EdgingAntiAlias,
		Hinting:    HintingNormal,
	}
}

// GlyphRun is a sequence of glyphs sharing one font, with a source-space
// position per glyph.
type GlyphRun struct {
	Font      Font
	GlyphIDs  []GlyphID
	Positions []Point
}

// NewGlyphRun returns a run after checking that ids and positions pair up.
func NewGlyphRun(font Font, ids []GlyphID, positions []Point) (GlyphRun, error) {
	if len(ids) != len(positions) {
		return GlyphRun{}, fmt.Errorf("%w: %d glyph IDs, %d positions", ErrMismatchedRun, len(ids), len(positions))
	}
	return GlyphRun{Font: font, GlyphIDs: ids, Positions: positions}, nil
}

// Len returns the number of glyphs in the run.
func (r *GlyphRun) Len() int { return len(r.GlyphIDs) }

func (r *GlyphRun) source() []SourceGlyph {
	out := make([]SourceGlyph, len(r.GlyphIDs))
	for i, id := range r.GlyphIDs {
		out[i] = SourceGlyph{ID: id, Pos: r.Positions[i]}
	}
	return out
}

var nextRunListID atomic.Uint64

// GlyphRunList is the unit of submission: runs drawn together at an origin.
type GlyphRunList struct {
	Runs   []GlyphRun
	Origin Point

	id uint64
}

// NewGlyphRunList returns a list with a process-unique ID, used to key
// cached containers.
func NewGlyphRunList(origin Point, runs ...GlyphRun) *GlyphRunList {
	return &GlyphRunList{
		Runs:   runs,
		Origin: origin,
		id:     nextRunListID.Add(1),
	}
}

// UniqueID returns the list's ID.
func (l *GlyphRunList) UniqueID() uint64 { return l.id }

// TotalGlyphCount returns the number of glyphs over all runs.
func (l *GlyphRunList) TotalGlyphCount() int {
	n := 0
	for i := range l.Runs {
		n += l.Runs[i].Len()
	}
	return n
}
