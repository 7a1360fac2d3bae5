package glyphrun

// AtlasLocator is a glyph's texel rectangle in its format's atlas page.
type AtlasLocator struct {
	U0, V0, U1, V1 uint16
}

// Width returns the texel width.
func (l AtlasLocator) Width() uint16 { return l.U1 - l.U0 }

// Height returns the texel height.
func (l AtlasLocator) Height() uint16 { return l.V1 - l.V0 }

// AtlasGlyph is the GPU-side record of a glyph: where it lives in the atlas
// and when it was last used.
type AtlasGlyph struct {
	ID      PackedGlyphID
	Locator AtlasLocator
	// Generation is the atlas generation Locator was assigned in.
	Generation uint64
	// UseToken is the last draw token that referenced the glyph.
	UseToken uint64
}

// TextStrike maps packed IDs to atlas glyphs for one descriptor.
type TextStrike interface {
	Glyph(id PackedGlyphID) *AtlasGlyph
}

// TextStrikeCache owns the GPU-side text strikes.
type TextStrikeCache interface {
	FindOrCreateTextStrike(desc Descriptor) TextStrike
}

// AtlasErrorCode is the outcome of adding a glyph to an atlas.
type AtlasErrorCode uint8

const (
	// AtlasSucceeded means the glyph is in the atlas.
	AtlasSucceeded AtlasErrorCode = iota
	// AtlasError means the glyph can never be placed.
	AtlasError
	// AtlasTryAgain means the atlas is full of glyphs in use by pending
	// draws; flush and retry the rest.
	AtlasTryAgain
)

// AtlasManager places glyph images in per-format atlas pages.
type AtlasManager interface {
	HasGlyph(format MaskFormat, g *AtlasGlyph) bool
	// AddGlyphToAtlas uploads glyph's image and sets ag's locator. padding
	// is the transparent border already present (distance fields) or to
	// add (bilerp) around the image.
	AddGlyphToAtlas(glyph *Glyph, ag *AtlasGlyph, format MaskFormat, padding int, token uint64) AtlasErrorCode
	// AtlasGeneration changes whenever previously assigned locators become
	// invalid.
	AtlasGeneration(format MaskFormat) uint64
	SetUseToken(format MaskFormat, ag *AtlasGlyph, token uint64)
}

// AtlasTarget is the prepare-phase context for atlas regeneration.
type AtlasTarget interface {
	AtlasManager() AtlasManager
	TextStrikeCache() TextStrikeCache
	// NextDrawToken identifies the draw being prepared.
	NextDrawToken() uint64
}
