package atlas

import (
	"bytes"
	"errors"
	"image"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/glyphrun"
	"github.com/gogpu/glyphrun/strike"
)

func newTestManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m
}

func solidGlyph(format glyphrun.MaskFormat, w, h int, fill byte) *glyphrun.Glyph {
	return &glyphrun.Glyph{
		Width:  uint16(w),
		Height: uint16(h),
		Format: format,
		Image:  bytes.Repeat([]byte{fill}, w*h*format.BytesPerPixel()),
	}
}

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.PageWidth, cfg.PageHeight = minPageSize, minPageSize
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"default", func(*Config) {}, ""},
		{"narrow", func(c *Config) { c.PageWidth = 256 }, "PageWidth"},
		{"huge", func(c *Config) { c.PageHeight = 16384 }, "PageHeight"},
		{"negative padding", func(c *Config) { c.Padding = -1 }, "Padding"},
		{"negative strikes", func(c *Config) { c.MaxTextStrikes = -1 }, "MaxTextStrikes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.field == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			var cfgErr *glyphrun.ConfigError
			if !errors.As(err, &cfgErr) || cfgErr.Field != tt.field {
				t.Errorf("Validate() error = %v, want field %s", err, tt.field)
			}
		})
	}
}

func TestShelfPackerNoOverlap(t *testing.T) {
	p := newShelfPacker(64, 64, 1)
	var placed []image.Rectangle
	sizes := [][2]int{{10, 12}, {20, 8}, {15, 15}, {30, 5}, {7, 20}, {12, 12}, {40, 10}}
	for _, sz := range sizes {
		x, y, ok := p.pack(sz[0], sz[1])
		if !ok {
			t.Fatalf("pack(%d, %d) failed with room left", sz[0], sz[1])
		}
		r := image.Rect(x, y, x+sz[0], y+sz[1])
		if !r.In(image.Rect(0, 0, 64, 64)) {
			t.Fatalf("pack(%d, %d) = %v, outside the page", sz[0], sz[1], r)
		}
		for _, o := range placed {
			if r.Overlaps(o) {
				t.Fatalf("pack(%d, %d) = %v overlaps %v", sz[0], sz[1], r, o)
			}
		}
		placed = append(placed, r)
	}
	if _, _, ok := p.pack(64, 1); ok {
		t.Error("pack() accepted an item wider than the page with padding")
	}
	if u := p.utilization(); u <= 0 || u > 1 {
		t.Errorf("utilization() = %v", u)
	}
	p.reset()
	if x, y, ok := p.pack(10, 10); !ok || x != 0 || y != 0 {
		t.Errorf("pack() after reset = (%d, %d, %v), want (0, 0, true)", x, y, ok)
	}
}

func TestAddGlyphBilerpBorder(t *testing.T) {
	m := newTestManager(t, smallConfig())
	g := solidGlyph(glyphrun.MaskA8, 3, 2, 0xFF)
	ag := &glyphrun.AtlasGlyph{}

	if code := m.AddGlyphToAtlas(g, ag, glyphrun.MaskA8, 1, m.NextDrawToken()); code != glyphrun.AtlasSucceeded {
		t.Fatalf("AddGlyphToAtlas() = %v", code)
	}
	if ag.Locator.Width() != 3 || ag.Locator.Height() != 2 {
		t.Errorf("locator = %+v, want 3x2", ag.Locator)
	}
	if ag.Locator.U0 != 1 || ag.Locator.V0 != 1 {
		t.Errorf("locator origin = (%d, %d), want (1, 1) inside the border", ag.Locator.U0, ag.Locator.V0)
	}
	if !m.HasGlyph(glyphrun.MaskA8, ag) {
		t.Error("HasGlyph() = false after add")
	}

	page, ok := m.TakeDirty(glyphrun.MaskA8)
	if !ok {
		t.Fatal("TakeDirty() reported a clean page after add")
	}
	if !image.Rect(0, 0, 5, 4).In(page.Dirty) {
		t.Errorf("Dirty = %v, want the bordered cell", page.Dirty)
	}
	at := func(x, y int) byte { return page.Pix[y*page.Stride+x] }
	if at(1, 1) != 0xFF || at(3, 2) != 0xFF {
		t.Error("glyph pixels not copied")
	}
	if at(0, 0) != 0 || at(4, 1) != 0 || at(2, 3) != 0 {
		t.Error("border pixels not transparent")
	}
	if _, ok := m.TakeDirty(glyphrun.MaskA8); ok {
		t.Error("TakeDirty() reported changes twice")
	}
}

func TestAddGlyphDistanceFieldInset(t *testing.T) {
	m := newTestManager(t, smallConfig())
	g := solidGlyph(glyphrun.MaskA8, 12, 10, 0x80)
	ag := &glyphrun.AtlasGlyph{}
	if code := m.AddGlyphToAtlas(g, ag, glyphrun.MaskA8, glyphrun.DistanceFieldInset, 1); code != glyphrun.AtlasSucceeded {
		t.Fatalf("AddGlyphToAtlas() = %v", code)
	}
	want := glyphrun.AtlasLocator{U0: 2, V0: 2, U1: 10, V1: 8}
	if diff := cmp.Diff(want, ag.Locator); diff != "" {
		t.Errorf("locator mismatch (-want +got):\n%s", diff)
	}
}

func TestAddGlyphFormats(t *testing.T) {
	m := newTestManager(t, smallConfig())
	for _, f := range []glyphrun.MaskFormat{glyphrun.MaskA8, glyphrun.MaskA565, glyphrun.MaskARGB} {
		ag := &glyphrun.AtlasGlyph{}
		if code := m.AddGlyphToAtlas(solidGlyph(f, 4, 4, 7), ag, f, 0, 1); code != glyphrun.AtlasSucceeded {
			t.Errorf("%v: AddGlyphToAtlas() = %v", f, code)
		}
		page, ok := m.TakeDirty(f)
		if !ok || page.Stride != page.Width*f.BytesPerPixel() {
			t.Errorf("%v: TakeDirty() = stride %d, ok %v", f, page.Stride, ok)
		}
	}
	st := m.Stats()
	if diff := cmp.Diff([glyphrun.MaskFormatCount]int{1, 1, 1}, st.Glyphs); diff != "" {
		t.Errorf("Stats().Glyphs mismatch (-want +got):\n%s", diff)
	}
}

func TestAddGlyphErrors(t *testing.T) {
	m := newTestManager(t, smallConfig())
	ag := &glyphrun.AtlasGlyph{}

	wrongFormat := solidGlyph(glyphrun.MaskARGB, 4, 4, 1)
	if code := m.AddGlyphToAtlas(wrongFormat, ag, glyphrun.MaskA8, 0, 1); code != glyphrun.AtlasError {
		t.Errorf("format mismatch: AddGlyphToAtlas() = %v, want AtlasError", code)
	}
	short := solidGlyph(glyphrun.MaskA8, 4, 4, 1)
	short.Image = short.Image[:5]
	if code := m.AddGlyphToAtlas(short, ag, glyphrun.MaskA8, 0, 1); code != glyphrun.AtlasError {
		t.Errorf("short image: AddGlyphToAtlas() = %v, want AtlasError", code)
	}
	wide := solidGlyph(glyphrun.MaskA8, minPageSize, 1, 1)
	if code := m.AddGlyphToAtlas(wide, ag, glyphrun.MaskA8, 0, 1); code != glyphrun.AtlasError {
		t.Errorf("oversized: AddGlyphToAtlas() = %v, want AtlasError", code)
	}
	if st := m.Stats(); st.Resets != 0 {
		t.Errorf("Resets = %d, failed adds must not reset the page", st.Resets)
	}
}

func TestPageFullTryAgainThenReset(t *testing.T) {
	m := newTestManager(t, smallConfig())
	token := m.NextDrawToken()

	// Four 250x250 cells fill a 512x512 page.
	glyphs := make([]*glyphrun.AtlasGlyph, 5)
	for i := range glyphs {
		glyphs[i] = &glyphrun.AtlasGlyph{ID: glyphrun.MakePackedGlyphID(glyphrun.GlyphID(i+1), 0, 0)}
	}
	for _, ag := range glyphs[:4] {
		if code := m.AddGlyphToAtlas(solidGlyph(glyphrun.MaskA8, 250, 250, 9), ag, glyphrun.MaskA8, 0, token); code != glyphrun.AtlasSucceeded {
			t.Fatalf("AddGlyphToAtlas() = %v", code)
		}
	}
	gen := m.AtlasGeneration(glyphrun.MaskA8)
	big := solidGlyph(glyphrun.MaskA8, 250, 250, 9)
	if code := m.AddGlyphToAtlas(big, glyphs[4], glyphrun.MaskA8, 0, token); code != glyphrun.AtlasTryAgain {
		t.Fatalf("full page in use: AddGlyphToAtlas() = %v, want AtlasTryAgain", code)
	}

	m.Flush()
	next := m.NextDrawToken()
	if next != token+1 {
		t.Errorf("NextDrawToken() after Flush = %d, want %d", next, token+1)
	}
	if code := m.AddGlyphToAtlas(big, glyphs[4], glyphrun.MaskA8, 0, next); code != glyphrun.AtlasSucceeded {
		t.Fatalf("after flush: AddGlyphToAtlas() = %v, want success", code)
	}
	if got := m.AtlasGeneration(glyphrun.MaskA8); got != gen+1 {
		t.Errorf("AtlasGeneration() = %d, want %d", got, gen+1)
	}
	if m.HasGlyph(glyphrun.MaskA8, glyphs[0]) {
		t.Error("glyph from the previous generation still reported present")
	}
	if !m.HasGlyph(glyphrun.MaskA8, glyphs[4]) {
		t.Error("new glyph missing")
	}
	if st := m.Stats(); st.Resets != 1 || st.Glyphs[glyphrun.MaskA8] != 1 {
		t.Errorf("Stats() = %+v, want one reset and one glyph", st)
	}
}

func TestTextStrikes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTextStrikes = 2
	m := newTestManager(t, cfg)

	a := m.FindOrCreateTextStrike(glyphrun.Descriptor{TypefaceID: 1, TextSize: 12})
	if a != m.FindOrCreateTextStrike(glyphrun.Descriptor{TypefaceID: 1, TextSize: 12}) {
		t.Error("FindOrCreateTextStrike() made two strikes for one descriptor")
	}
	id := glyphrun.MakePackedGlyphID(5, 1, 0)
	if g := a.Glyph(id); g != a.Glyph(id) || g.ID != id {
		t.Error("Glyph() is not stable per packed ID")
	}
	m.FindOrCreateTextStrike(glyphrun.Descriptor{TypefaceID: 1, TextSize: 13})
	m.FindOrCreateTextStrike(glyphrun.Descriptor{TypefaceID: 1, TextSize: 14})
	if st := m.Stats(); st.TextStrikes != 2 {
		t.Errorf("TextStrikes = %d, want 2", st.TextStrikes)
	}
	m.Reset()
	if st := m.Stats(); st.TextStrikes != 0 {
		t.Errorf("TextStrikes after Reset = %d, want 0", st.TextStrikes)
	}
}

func TestRegenerateAtlasWithFontStrikes(t *testing.T) {
	reg := strike.NewRegistry()
	face, err := reg.Register(goregular.TTF)
	if err != nil {
		t.Fatal(err)
	}
	strikes, err := strike.NewCache(reg, strike.DefaultCacheConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer strikes.Purge()

	ids := face.GlyphIndices("Atlas")
	pos := make([]glyphrun.Point, len(ids))
	for i := range pos {
		pos[i] = glyphrun.Point{X: float32(10 * i)}
	}
	run, err := glyphrun.NewGlyphRun(glyphrun.NewFont(face.ID(), 14), ids, pos)
	if err != nil {
		t.Fatal(err)
	}
	paint := glyphrun.DefaultPaint()
	info := glyphrun.StrikeDeviceInfo{SDFTControl: glyphrun.DefaultSDFTControl()}
	c, _ := glyphrun.MakeContainer(glyphrun.NewGlyphRunList(glyphrun.Point{Y: 20}, run), glyphrun.Identity(), &paint, info, strikes)
	defer c.Release()

	m := newTestManager(t, DefaultConfig())
	subRuns := c.SubRuns()
	if len(subRuns) != 1 {
		t.Fatalf("got %d sub runs, want 1", len(subRuns))
	}
	sr, ok := subRuns[0].(glyphrun.AtlasSubRun)
	if !ok {
		t.Fatalf("sub run %v is not an atlas sub run", subRuns[0].Type())
	}
	n := sr.GlyphCount()
	if ok, placed := sr.RegenerateAtlas(0, n, m); !ok || placed != n {
		t.Fatalf("RegenerateAtlas() = (%v, %d), want (true, %d)", ok, placed, n)
	}

	for i, ag := range sr.GlyphVector().Glyphs() {
		g := sr.GlyphVector().Strike().Glyph(ag.ID)
		if int(ag.Locator.Width()) != int(g.Width) || int(ag.Locator.Height()) != int(g.Height) {
			t.Errorf("glyph %d: locator %+v, want %dx%d", i, ag.Locator, g.Width, g.Height)
		}
		if !m.HasGlyph(sr.MaskFormat(), ag) {
			t.Errorf("glyph %d not in the atlas", i)
		}
	}
	page, ok := m.TakeDirty(sr.MaskFormat())
	if !ok || !slices.ContainsFunc(page.Pix, func(b byte) bool { return b != 0 }) {
		t.Error("atlas page has no coverage after regeneration")
	}

	// A second pass only refreshes use tokens.
	m.Flush()
	if ok, placed := sr.RegenerateAtlas(0, n, m); !ok || placed != n {
		t.Errorf("second RegenerateAtlas() = (%v, %d)", ok, placed)
	}
	if st := m.Stats(); st.Glyphs[sr.MaskFormat()] != n {
		t.Errorf("Glyphs = %d after two passes, want %d", st.Glyphs[sr.MaskFormat()], n)
	}
}
