//go:build !nogpu

package gpu

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gogpu/glyphrun"
	"github.com/gogpu/glyphrun/atlas"
)

func TestRendererCanvas(t *testing.T) {
	r := NewRenderer(100, 100)
	r.Save()
	r.Concat(glyphrun.Translate(10, 20))
	r.SaveLayer(&glyphrun.Rect{Right: 50, Bottom: 50}, nil)
	r.Concat(glyphrun.Scale(2, 2))

	var p glyphrun.Path
	p.MoveTo(1, 1)
	p.LineTo(2, 3)
	paint := glyphrun.DefaultPaint()
	r.DrawPath(&p, &paint)

	r.Restore()
	if got, want := r.LocalToDevice(), glyphrun.Translate(10, 20); got != want {
		t.Errorf("matrix after layer restore = %v, want %v", got, want)
	}
	r.Restore()
	r.Restore() // unbalanced restores are ignored
	if got := r.LocalToDevice(); got != glyphrun.Identity() {
		t.Errorf("matrix after restores = %v, want identity", got)
	}

	paths := r.Paths()
	if len(paths) != 1 {
		t.Fatalf("got %d paths, want 1", len(paths))
	}
	if paths[0].Layer != 1 {
		t.Errorf("Layer = %d, want 1", paths[0].Layer)
	}
	want := []glyphrun.Point{{X: 12, Y: 22}, {X: 14, Y: 26}}
	if diff := cmp.Diff(want, paths[0].Path.Points()); diff != "" {
		t.Errorf("device path points mismatch (-want +got):\n%s", diff)
	}

	r.Reset()
	if len(r.Paths()) != 0 || len(r.Ops()) != 0 {
		t.Error("Reset kept queued draws")
	}
}

func TestRendererPrepare(t *testing.T) {
	env := newFontEnv(t)
	c := env.container(t, 14, "Hello", glyphrun.Identity(), glyphrun.Point{X: 10, Y: 30})
	m := newManager(t, atlas.DefaultConfig())

	r := NewRenderer(200, 100)
	paint := glyphrun.DefaultPaint()
	paint.Color = glyphrun.RGBA(255, 0, 0, 255)
	c.Draw(r, glyphrun.Point{X: 10, Y: 30}, &paint, r)
	if len(r.Ops()) != 1 {
		t.Fatalf("got %d ops, want 1", len(r.Ops()))
	}

	var batches []Batch
	calls := 0
	err := r.Prepare(m, func(b []Batch) error {
		calls++
		batches = append(batches, b...)
		return nil
	})
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if calls != 1 || len(batches) != 1 {
		t.Fatalf("submit called %d times with %d batches, want 1 and 1", calls, len(batches))
	}
	b := batches[0]
	if b.Format != glyphrun.MaskA8 || b.GlyphCount != 5 || b.DistanceField != 0 {
		t.Errorf("batch = %v %d glyphs df %b, want A8 5 glyphs no df", b.Format, b.GlyphCount, b.DistanceField)
	}
	if want := 5 * glyphrun.VerticesPerGlyph * glyphrun.Mask2DVertexStride; len(b.Vertices) != want {
		t.Errorf("len(Vertices) = %d, want %d", len(b.Vertices), want)
	}
	if st := m.Stats(); st.Glyphs[glyphrun.MaskA8] != 5 {
		t.Errorf("atlas holds %d glyphs, want 5", st.Glyphs[glyphrun.MaskA8])
	}
}

func TestRendererPrepareFlushesFullAtlas(t *testing.T) {
	env := newFontEnv(t)
	const text = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	c := env.container(t, 200, text, glyphrun.Identity(), glyphrun.Point{Y: 250})
	if got := c.SubRuns()[0].Type(); got != glyphrun.SubRunSDFT {
		t.Fatalf("sub run type = %v, want SDFT", got)
	}

	cfg := atlas.DefaultConfig()
	cfg.PageWidth, cfg.PageHeight = 512, 512
	m := newManager(t, cfg)

	r := NewRenderer(8192, 512)
	paint := glyphrun.DefaultPaint()
	c.Draw(r, glyphrun.Point{Y: 250}, &paint, r)

	calls, glyphs := 0, 0
	err := r.Prepare(m, func(batches []Batch) error {
		calls++
		for _, b := range batches {
			if b.DistanceField&glyphrun.DFEnabled == 0 {
				t.Errorf("batch without distance field flags: %b", b.DistanceField)
			}
			glyphs += b.GlyphCount
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if calls < 2 {
		t.Errorf("submit called %d times, want a flush", calls)
	}
	if glyphs != len(text) {
		t.Errorf("submitted %d glyphs, want %d", glyphs, len(text))
	}
	if st := m.Stats(); st.Resets == 0 {
		t.Error("atlas was never reset")
	}
}

func TestRendererPrepareSubmitError(t *testing.T) {
	env := newFontEnv(t)
	c := env.container(t, 12, "abc", glyphrun.Identity(), glyphrun.Point{Y: 20})
	m := newManager(t, atlas.DefaultConfig())
	r := NewRenderer(100, 100)
	paint := glyphrun.DefaultPaint()
	c.Draw(r, glyphrun.Point{Y: 20}, &paint, r)

	errSubmit := errors.New("submit failed")
	if err := r.Prepare(m, func([]Batch) error { return errSubmit }); !errors.Is(err, errSubmit) {
		t.Errorf("Prepare() error = %v, want %v", err, errSubmit)
	}
}

func TestRendererClipProducesScissor(t *testing.T) {
	env := newFontEnv(t)
	c := env.container(t, 48, "Clip", glyphrun.Identity(), glyphrun.Point{X: 10, Y: 60})
	r := NewRenderer(400, 100)
	r.SetClip(glyphrun.IRect{Left: 0, Top: 0, Right: 60, Bottom: 100})
	paint := glyphrun.DefaultPaint()
	c.Draw(r, glyphrun.Point{X: 10, Y: 60}, &paint, r)

	ops := r.Ops()
	if len(ops) != 1 {
		t.Fatalf("got %d ops, want 1", len(ops))
	}
	if ops[0].Scissor != (glyphrun.IRect{Right: 60, Bottom: 100}) {
		t.Errorf("Scissor = %+v, want the clip", ops[0].Scissor)
	}
}
