// Package strike implements glyph strikes over real font files.
//
// A Registry parses fonts into Typefaces and hands out the IDs that glyph
// runs and descriptors refer to. A Cache maps descriptors to Strikes and
// implements glyphrun.StrikeCache, so it can be passed straight to
// glyphrun.MakeContainer and glyphrun.Unflatten:
//
//	reg := strike.NewRegistry()
//	face, err := reg.Register(goregular.TTF)
//	if err != nil {
//	    return err
//	}
//	strikes, err := strike.NewCache(reg, strike.DefaultCacheConfig())
//	if err != nil {
//	    return err
//	}
//	font := glyphrun.NewFont(face.ID(), 16)
//	run, _ := glyphrun.NewGlyphRun(font, face.GlyphIndices("Hi"), positions)
//	c, _ := glyphrun.MakeContainer(glyphrun.NewGlyphRunList(origin, run),
//	    glyphrun.Identity(), &paint, info, strikes)
//
// Outlines and metrics come from golang.org/x/image/font/sfnt and are
// rasterized with golang.org/x/image/vector. Embedded bitmaps, COLR and
// SVG glyphs are detected with github.com/go-text/typesetting: bitmaps
// become ARGB masks, color layer and SVG glyphs become drawables that
// paint the font's fallback outline.
//
// Strikes are reference counted. The cache holds one reference on every
// strike it stores and drops it on eviction.
package strike
