package glyphrun

import (
	"sync"
	"unsafe"

	"github.com/gogpu/glyphrun/internal/wire"
)

// PathSubRun draws glyph outlines on the canvas. Outlines are taken from
// the strike the first time the SubRun is drawn; concurrent first draws
// convert exactly once.
type PathSubRun struct {
	strike              Strike
	isAntiAliased       bool
	strikeToSourceScale float32
	positions           []Point
	ids                 []GlyphID

	pathsOnce sync.Once
	paths     []*Path
}

var _ SubRun = (*PathSubRun)(nil)

func makePath(accepted []AcceptedGlyph, strike Strike, strikeToSource float32, isAntiAliased bool, a *allocator) *PathSubRun {
	if len(accepted) == 0 {
		return nil
	}
	positions := a.points.Make(len(accepted))
	ids := a.glyphIDs.Make(len(accepted))
	for i, ag := range accepted {
		positions[i] = ag.Pos
		ids[i] = ag.Glyph.ID.GlyphID()
	}
	strike.Ref()
	return &PathSubRun{
		strike:              strike,
		isAntiAliased:       isAntiAliased,
		strikeToSourceScale: strikeToSource,
		positions:           positions,
		ids:                 ids,
	}
}

func (s *PathSubRun) Type() SubRunType { return SubRunPath }
func (s *PathSubRun) GlyphCount() int  { return len(s.ids) }

// CanReuse always reports true: outlines are resolution independent.
func (s *PathSubRun) CanReuse(*Paint, Matrix) bool { return true }

// Paths returns the glyph outlines, converting them on first use. Entries
// are nil for glyphs without an outline.
func (s *PathSubRun) Paths() []*Path {
	s.pathsOnce.Do(func() {
		s.paths = s.strike.GlyphIDsToPaths(s.ids)
	})
	return s.paths
}

func (s *PathSubRun) Draw(canvas Canvas, drawOrigin Point, paint *Paint, _ Device) {
	paths := s.Paths()

	runPaint := *paint
	runPaint.AntiAlias = s.isAntiAliased
	if mf := paint.MaskFilter; mf != nil && mf.Blur {
		// Outlines are drawn in strike units, so the blur must shrink with them.
		scaled := *mf
		scaled.Sigma = mf.Sigma / s.strikeToSourceScale
		runPaint.MaskFilter = &scaled
	}

	strikeToSource := Scale(s.strikeToSourceScale, s.strikeToSourceScale).PostTranslate(drawOrigin.X, drawOrigin.Y)
	exact := paint.needsExactCTM()
	for i, path := range paths {
		if path.IsEmpty() {
			continue
		}
		pos := s.positions[i]
		pathMatrix := strikeToSource.PostTranslate(pos.X, pos.Y)
		if exact {
			canvas.DrawPath(path.Transform(pathMatrix), &runPaint)
			continue
		}
		canvas.Save()
		canvas.Concat(pathMatrix)
		canvas.DrawPath(path, &runPaint)
		canvas.Restore()
	}
}

func (s *PathSubRun) EstimatedSize() int {
	return int(unsafe.Sizeof(PathSubRun{})) + len(s.ids)*int(unsafe.Sizeof(Point{})+unsafe.Sizeof(GlyphID(0)))
}

func (s *PathSubRun) Release() { s.strike.Unref() }

func (s *PathSubRun) flatten(w *wire.Writer) {
	desc := s.strike.Descriptor()
	desc.flatten(w)
	w.WriteBool(s.isAntiAliased)
	w.WriteScalar(s.strikeToSourceScale)
	w.WriteInt(len(s.ids))
	writePoints(w, s.positions)
	for _, id := range s.ids {
		w.WriteUint32(uint32(id))
	}
}

func readPath(r *wire.Reader, d *decoder) SubRun {
	strike := d.readStrike(r)
	if strike == nil {
		return nil
	}
	isAntiAliased := r.ReadBool()
	scale := r.ReadScalar()
	n := r.ReadCount(4)
	positions := d.readPoints(r)
	if !r.Validate(validScale(scale) && len(positions) == n) {
		strike.Unref()
		return nil
	}
	ids := d.readGlyphIDs(r, n)
	if ids == nil {
		strike.Unref()
		return nil
	}
	return &PathSubRun{
		strike:              strike,
		isAntiAliased:       isAntiAliased,
		strikeToSourceScale: scale,
		positions:           positions,
		ids:                 ids,
	}
}
