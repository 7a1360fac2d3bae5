package strike

import "github.com/gogpu/glyphrun"

// outlineDrawable draws a color glyph's fallback outline. Color layer and
// SVG glyphs keep the outline the font ships for renderers without color
// support; it is painted in opaque black.
type outlineDrawable struct {
	path  *glyphrun.Path
	paint glyphrun.Paint
}

func newOutlineDrawable(p *glyphrun.Path) *outlineDrawable {
	return &outlineDrawable{path: p, paint: glyphrun.DefaultPaint()}
}

func (d *outlineDrawable) Bounds() glyphrun.Rect { return d.path.Bounds() }

func (d *outlineDrawable) Draw(canvas glyphrun.Canvas, m glyphrun.Matrix) {
	canvas.Save()
	canvas.Concat(m)
	canvas.DrawPath(d.path, &d.paint)
	canvas.Restore()
}
