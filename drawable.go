package glyphrun

import (
	"unsafe"

	"github.com/gogpu/glyphrun/internal/wire"
)

// DrawableSubRun draws glyphs the typeface renders itself, such as color
// layer or SVG glyphs. Each glyph is drawn into its own layer so the paint
// applies to the composite.
type DrawableSubRun struct {
	strike              Strike
	strikeToSourceScale float32
	positions           []Point
	ids                 []GlyphID
	drawables           []Drawable
}

var _ SubRun = (*DrawableSubRun)(nil)

func makeDrawable(accepted []AcceptedGlyph, strike Strike, strikeToSource float32, a *allocator) *DrawableSubRun {
	if len(accepted) == 0 {
		return nil
	}
	positions := a.points.Make(len(accepted))
	ids := a.glyphIDs.Make(len(accepted))
	drawables := make([]Drawable, len(accepted))
	for i, ag := range accepted {
		positions[i] = ag.Pos
		ids[i] = ag.Glyph.ID.GlyphID()
		drawables[i] = ag.Glyph.Drawable
	}
	strike.Ref()
	return &DrawableSubRun{
		strike:              strike,
		strikeToSourceScale: strikeToSource,
		positions:           positions,
		ids:                 ids,
		drawables:           drawables,
	}
}

func (s *DrawableSubRun) Type() SubRunType { return SubRunDrawable }
func (s *DrawableSubRun) GlyphCount() int  { return len(s.ids) }

// CanReuse always reports true.
func (s *DrawableSubRun) CanReuse(*Paint, Matrix) bool { return true }

// Draw draws every glyph through its own matrix. Each glyph gets a layer
// bounded by its drawable unless paint is a plain opaque fill.
func (s *DrawableSubRun) Draw(canvas Canvas, drawOrigin Point, paint *Paint, _ Device) {
	strikeToSource := Scale(s.strikeToSourceScale, s.strikeToSourceScale).PostTranslate(drawOrigin.X, drawOrigin.Y)
	layered := !paint.isPlainOpaqueFill()
	for i, d := range s.drawables {
		if d == nil {
			continue
		}
		pos := s.positions[i]
		m := strikeToSource.PostTranslate(pos.X, pos.Y)
		if layered {
			bounds := m.MapRect(d.Bounds())
			canvas.SaveLayer(&bounds, paint)
		} else {
			canvas.Save()
		}
		d.Draw(canvas, m)
		canvas.Restore()
	}
}

func (s *DrawableSubRun) EstimatedSize() int {
	per := unsafe.Sizeof(Point{}) + unsafe.Sizeof(GlyphID(0)) + unsafe.Sizeof(Drawable(nil))
	return int(unsafe.Sizeof(*s)) + len(s.ids)*int(per)
}

func (s *DrawableSubRun) Release() { s.strike.Unref() }

func (s *DrawableSubRun) flatten(w *wire.Writer) {
	w.WriteScalar(s.strikeToSourceScale)
	w.WriteInt(len(s.ids))
	writePoints(w, s.positions)
	for _, id := range s.ids {
		w.WriteUint32(uint32(id))
	}
	desc := s.strike.Descriptor()
	desc.flatten(w)
}

func readDrawable(r *wire.Reader, d *decoder) SubRun {
	scale := r.ReadScalar()
	n := r.ReadCount(4)
	positions := d.readPoints(r)
	if !r.Validate(validScale(scale) && len(positions) == n) {
		return nil
	}
	ids := d.readGlyphIDs(r, n)
	if ids == nil {
		return nil
	}
	strike := d.readStrike(r)
	if strike == nil {
		return nil
	}
	drawables := make([]Drawable, n)
	for i, id := range ids {
		if g := strike.Glyph(PackedGlyphID(id)); g != nil {
			drawables[i] = g.Drawable
		}
	}
	return &DrawableSubRun{
		strike:              strike,
		strikeToSourceScale: scale,
		positions:           positions,
		ids:                 ids,
		drawables:           drawables,
	}
}
