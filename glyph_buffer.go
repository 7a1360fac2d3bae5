package glyphrun

// SourceGlyph is a glyph ID at a source-space position.
type SourceGlyph struct {
	ID  GlyphID
	Pos Point
}

// SourceBuffer holds the glyphs a stage will consider and collects the ones
// it rejects for the next stage.
type SourceBuffer struct {
	source  []SourceGlyph
	rejects []SourceGlyph
	// screened counts rejects added before the strike saw the input.
	screened int
}

// setSource starts a new run.
func (b *SourceBuffer) setSource(src []SourceGlyph) {
	b.source = src
	b.rejects = b.rejects[:0]
	b.screened = 0
}

// Source returns the glyphs awaiting the current stage.
func (b *SourceBuffer) Source() []SourceGlyph { return b.source }

// Reject passes source glyph i on to the next stage.
func (b *SourceBuffer) Reject(i int) {
	b.rejects = append(b.rejects, b.source[i])
}

// Rejects returns the glyphs rejected so far in this stage.
func (b *SourceBuffer) Rejects() []SourceGlyph { return b.rejects }

// rejectIf sends the source glyphs matched by drop straight to the rejects.
// The strike never sees them and the next stage does.
func (b *SourceBuffer) rejectIf(drop func(SourceGlyph) bool) {
	kept := b.source[:0]
	for _, g := range b.source {
		if drop(g) {
			b.rejects = append(b.rejects, g)
			b.screened++
			continue
		}
		kept = append(kept, g)
	}
	b.source = kept
}

// flipRejectsToSource makes this stage's rejects the next stage's source.
func (b *SourceBuffer) flipRejectsToSource() {
	b.source, b.rejects = b.rejects, b.source[:0]
	b.screened = 0
}

// empty reports whether no glyphs remain.
func (b *SourceBuffer) empty() bool { return len(b.source) == 0 }

// InputGlyph is a glyph presented to a strike: its packed ID and the
// position it will be drawn at, in device space for direct masks and
// source space otherwise.
type InputGlyph struct {
	ID  PackedGlyphID
	Pos Point
}

// AcceptedGlyph is a glyph a strike accepted, with its strike entry.
type AcceptedGlyph struct {
	Glyph *Glyph
	Pos   Point
}

// DrawableBuffer presents input glyphs to a strike and collects the
// accepted ones.
type DrawableBuffer struct {
	input    []InputGlyph
	accepted []AcceptedGlyph
}

// startSource presents src at source positions with plain glyph IDs.
func (b *DrawableBuffer) startSource(src []SourceGlyph) {
	b.reset()
	for _, g := range src {
		b.input = append(b.input, InputGlyph{ID: PackedGlyphID(g.ID), Pos: g.Pos})
	}
}

// startDevicePositioning maps src through m, snapping with rs.
func (b *DrawableBuffer) startDevicePositioning(src []SourceGlyph, m Matrix, rs RoundingSpec) {
	b.reset()
	for _, g := range src {
		pos, id := rs.Position(g.ID, m.MapPoint(g.Pos))
		b.input = append(b.input, InputGlyph{ID: id, Pos: pos})
	}
}

func (b *DrawableBuffer) reset() {
	b.input = b.input[:0]
	b.accepted = b.accepted[:0]
}

// Input returns the glyphs presented to the strike.
func (b *DrawableBuffer) Input() []InputGlyph { return b.input }

// Accept records g at the position of input i.
func (b *DrawableBuffer) Accept(g *Glyph, i int) {
	b.accepted = append(b.accepted, AcceptedGlyph{Glyph: g, Pos: b.input[i].Pos})
}

// Accepted returns the accepted glyphs in input order.
func (b *DrawableBuffer) Accepted() []AcceptedGlyph { return b.accepted }

// dropped reports whether the strike discarded some input outright.
func (b *DrawableBuffer) dropped(rejected *SourceBuffer) bool {
	return len(b.accepted)+len(rejected.rejects)-rejected.screened < len(b.input)
}
