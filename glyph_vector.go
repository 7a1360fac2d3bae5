package glyphrun

import (
	"github.com/gogpu/glyphrun/internal/wire"
)

// invalidAtlasGeneration forces coordinates to be computed on first use.
const invalidAtlasGeneration = ^uint64(0)

// GlyphVector holds the packed glyph IDs of an atlas SubRun and, once
// prepared, the matching atlas glyphs.
type GlyphVector struct {
	strike          Strike
	ids             []PackedGlyphID
	textStrike      TextStrike
	glyphs          []*AtlasGlyph
	atlasGeneration uint64
}

func newGlyphVector(strike Strike, ids []PackedGlyphID) *GlyphVector {
	return &GlyphVector{
		strike:          strike,
		ids:             ids,
		atlasGeneration: invalidAtlasGeneration,
	}
}

// GlyphCount returns the number of glyphs.
func (v *GlyphVector) GlyphCount() int { return len(v.ids) }

// IDs returns the packed glyph IDs.
func (v *GlyphVector) IDs() []PackedGlyphID { return v.ids }

// Strike returns the strike the IDs belong to.
func (v *GlyphVector) Strike() Strike { return v.strike }

// Glyphs returns the resolved atlas glyphs, nil before the first
// RegenerateAtlas.
func (v *GlyphVector) Glyphs() []*AtlasGlyph { return v.glyphs }

func (v *GlyphVector) flatten(w *wire.Writer) {
	desc := v.strike.Descriptor()
	desc.flatten(w)
	w.WriteInt(len(v.ids))
	for _, id := range v.ids {
		w.WriteUint32(uint32(id))
	}
}

// readGlyphVector decodes a glyph vector, translating the typeface and
// finding the strike locally.
func readGlyphVector(r *wire.Reader, d *decoder) *GlyphVector {
	strike := d.readStrike(r)
	if strike == nil {
		return nil
	}
	n := r.ReadCount(4)
	if !r.IsValid() {
		strike.Unref()
		return nil
	}
	ids := d.ids.Make(n)
	for i := range ids {
		id := PackedGlyphID(r.ReadUint32())
		if !r.Validate(id.valid()) {
			strike.Unref()
			return nil
		}
		ids[i] = id
	}
	return newGlyphVector(strike, ids)
}

func (v *GlyphVector) packedIDsToAtlasGlyphs(cache TextStrikeCache) {
	if v.textStrike != nil {
		return
	}
	v.textStrike = cache.FindOrCreateTextStrike(v.strike.Descriptor())
	v.glyphs = make([]*AtlasGlyph, len(v.ids))
	for i, id := range v.ids {
		v.glyphs[i] = v.textStrike.Glyph(id)
	}
}

// RegenerateAtlas makes sure glyphs [begin, end) are in the atlas. It
// returns false on an unrecoverable error, and the number of glyphs that
// are ready; fewer than end-begin means the atlas filled up and the caller
// must flush and call again from begin plus the count.
func (v *GlyphVector) RegenerateAtlas(begin, end int, format MaskFormat, padding int, target AtlasTarget) (bool, int) {
	atlas := target.AtlasManager()
	token := target.NextDrawToken()
	v.packedIDsToAtlasGlyphs(target.TextStrikeCache())

	if v.atlasGeneration == atlas.AtlasGeneration(format) {
		for _, g := range v.glyphs[begin:end] {
			atlas.SetUseToken(format, g, token)
		}
		return true, end - begin
	}

	placed := 0
	for _, ag := range v.glyphs[begin:end] {
		if !atlas.HasGlyph(format, ag) {
			glyph := v.strike.Glyph(ag.ID)
			code := atlas.AddGlyphToAtlas(glyph, ag, format, padding, token)
			if code != AtlasSucceeded {
				return code != AtlasError, placed
			}
		}
		atlas.SetUseToken(format, ag, token)
		placed++
	}
	if begin == 0 && placed == len(v.glyphs) {
		// Every glyph is in this generation; later calls can skip the
		// checks until the atlas changes again.
		v.atlasGeneration = atlas.AtlasGeneration(format)
	}
	return true, placed
}

func (v *GlyphVector) release() {
	if v.strike != nil {
		v.strike.Unref()
	}
}
