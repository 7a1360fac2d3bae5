// Package atlas packs glyph images into GPU atlas pages.
//
// A Manager keeps one page per glyphrun.MaskFormat. Glyphs are placed on
// shelves; when a page is full and none of its glyphs belongs to the draw
// being prepared the page is cleared and its generation advances, which
// tells every GlyphVector that its cached locators are stale.
//
//	m, err := atlas.NewManager(atlas.DefaultConfig())
//	...
//	ok, n := subRun.RegenerateAtlas(0, subRun.GlyphCount(), m)
//	if ok && n < subRun.GlyphCount() {
//	    // submit the pending draw, then continue from n
//	    m.Flush()
//	}
//	page, dirty := m.TakeDirty(glyphrun.MaskA8)
package atlas
