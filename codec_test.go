package glyphrun

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// makeFlat builds a container on strikes and returns it with its encoding.
func makeFlat(t *testing.T, strikes *fakeStrikeCache, font Font, m Matrix, ids ...GlyphID) (*Container, []byte) {
	t.Helper()
	paint := DefaultPaint()
	c, _ := MakeContainer(runOf(font, ids...), m, &paint, deviceInfo(), strikes)
	t.Cleanup(c.Release)
	data, err := c.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error = %v", err)
	}
	return c, data
}

func put32(data []byte, off int, v uint32) []byte {
	out := append([]byte(nil), data...)
	binary.LittleEndian.PutUint32(out[off:], v)
	return out
}

func TestUnflattenRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		size      float32
		matrix    Matrix
		setup     func(*fakeStrikeCache)
		ids       []GlyphID
		wantTypes []SubRunType
	}{
		{
			name:   "mixed",
			size:   12,
			matrix: Translate(3, 7),
			setup: func(c *fakeStrikeCache) {
				c.set(2, kindColor, 0.5).set(3, kindOutline, 30).set(4, kindDrawable, 30)
			},
			ids:       []GlyphID{1, 2, 3, 4},
			wantTypes: []SubRunType{SubRunDirectMask, SubRunDirectMask, SubRunDrawable, SubRunPath},
		},
		{
			name:      "distance field",
			size:      24,
			matrix:    Rotate(0.25),
			ids:       []GlyphID{1, 2, 3},
			wantTypes: []SubRunType{SubRunSDFT},
		},
		{
			name:      "transformed",
			size:      12,
			matrix:    Matrix{A: 1, B: 0.5, D: 0, E: 1, C: 4},
			ids:       []GlyphID{1, 2},
			wantTypes: []SubRunType{SubRunTransformedMask},
		},
		{
			name:   "fallback",
			size:   12,
			matrix: Identity(),
			setup: func(c *fakeStrikeCache) {
				c.set(1, kindColor, 30)
			},
			ids:       []GlyphID{1},
			wantTypes: []SubRunType{SubRunTransformedMask},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strikes := newFakeStrikeCache()
			if tt.setup != nil {
				tt.setup(strikes)
			}
			c, data := makeFlat(t, strikes, NewFont(1, tt.size), tt.matrix, tt.ids...)

			got, err := Unflatten(data, strikes, nil)
			if err != nil {
				t.Fatalf("Unflatten() error = %v", err)
			}
			if diff := cmp.Diff(tt.wantTypes, subRunTypes(got)); diff != "" {
				t.Errorf("types mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(c.InitialPositionMatrix(), got.InitialPositionMatrix()); diff != "" {
				t.Errorf("matrix mismatch (-want +got):\n%s", diff)
			}
			if got.GlyphCount() != c.GlyphCount() {
				t.Errorf("GlyphCount() = %d, want %d", got.GlyphCount(), c.GlyphCount())
			}
			again, err := got.MarshalBinary()
			if err != nil {
				t.Fatalf("MarshalBinary() of decoded container error = %v", err)
			}
			if diff := cmp.Diff(data, again); diff != "" {
				t.Errorf("re-encoding differs (-want +got):\n%s", diff)
			}
			if !got.CanReuse(nil, tt.matrix) {
				t.Error("decoded container cannot be reused at its creation matrix")
			}

			got.Release()
			c.Release()
			if n := strikes.outstandingRefs(); n != 0 {
				t.Errorf("outstanding strike refs = %d, want 0", n)
			}
		})
	}
}

// Offsets into the encoding of a container whose first SubRun is a direct
// mask of one glyph.
const (
	offCount      = 24
	offFirstTag   = 28
	offDMFormat   = 32
	offDMBounds   = 36
	offDMPoints   = 52
	offDMPointX   = 56
	offDMDescSize = 64
	offDMChecksum = 68
	offDMTypeface = 72
	offDMIDCount  = 120
	offDMID       = 124
)

func TestUnflattenRejectsMalformed(t *testing.T) {
	strikes := newFakeStrikeCache().set(2, kindColor, 0.5).set(3, kindOutline, 30)
	_, data := makeFlat(t, strikes, NewFont(1, 12), Identity(), 1, 2, 3)
	nan := math.Float32bits(float32(math.NaN()))
	checksum := binary.LittleEndian.Uint32(data[offDMChecksum:])

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"unaligned", data[:len(data)-2]},
		{"nan matrix", put32(data, 0, nan)},
		{"zero count", put32(data, offCount, 0)},
		{"negative count", put32(data, offCount, math.MaxUint32)},
		{"count beyond buffer", put32(data, offCount, 1<<30)},
		{"count larger than records", put32(data, offCount, 9)},
		{"reserved tag", put32(data, offFirstTag, 0)},
		{"tag past last variant", put32(data, offFirstTag, uint32(subRunTypeCount))},
		{"negative tag", put32(data, offFirstTag, math.MaxUint32)},
		{"unknown mask format", put32(data, offDMFormat, 99)},
		{"nan bounds", put32(data, offDMBounds, nan)},
		{"empty point array", put32(data, offDMPoints, 0)},
		{"point array beyond buffer", put32(data, offDMPoints, 1<<20)},
		{"nan position", put32(data, offDMPointX, nan)},
		{"descriptor size", put32(data, offDMDescSize, 40)},
		{"checksum", put32(data, offDMChecksum, ^checksum)},
		{"typeface under stale checksum", put32(data, offDMTypeface, 99)},
		{"zero glyph count", put32(data, offDMIDCount, 0)},
		{"glyph and position counts differ", put32(data, offDMIDCount, 2)},
		{"glyph count beyond buffer", put32(data, offDMIDCount, 1<<28)},
		{"packed ID out of range", put32(data, offDMID, math.MaxUint32)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := strikes.outstandingRefs()
			c, err := Unflatten(tt.data, strikes, nil)
			if c != nil {
				t.Errorf("Unflatten() returned a container for a malformed buffer")
			}
			if !errors.Is(err, ErrInvalidBuffer) {
				t.Errorf("Unflatten() error = %v, want ErrInvalidBuffer", err)
			}
			if n := strikes.outstandingRefs(); n != before {
				t.Errorf("outstanding refs %d after failed decode, want %d", n, before)
			}
		})
	}
}

func TestUnflattenRejectsEveryTruncation(t *testing.T) {
	strikes := newFakeStrikeCache().set(2, kindColor, 0.5).set(3, kindOutline, 30).set(4, kindDrawable, 30)
	_, data := makeFlat(t, strikes, NewFont(1, 12), Identity(), 1, 2, 3, 4)
	before := strikes.outstandingRefs()

	for n := 0; n < len(data); n += 4 {
		if c, err := Unflatten(data[:n], strikes, nil); c != nil || !errors.Is(err, ErrInvalidBuffer) {
			t.Fatalf("Unflatten(data[:%d]) = %v, %v; want nil, ErrInvalidBuffer", n, c, err)
		}
	}
	if n := strikes.outstandingRefs(); n != before {
		t.Errorf("outstanding refs %d after failed decodes, want %d", n, before)
	}
}

func TestUnflattenRejectsMalformedPayloads(t *testing.T) {
	t.Run("distance field", func(t *testing.T) {
		// Record layout after the tag: useLCD, antiAliased, min, max,
		// format, scale.
		const (
			offUseLCD = 32
			offMin    = 40
			offFormat = 48
			offScale  = 52
		)
		strikes := newFakeStrikeCache()
		_, data := makeFlat(t, strikes, NewFont(1, 24), Identity(), 1)
		for name, bad := range map[string][]byte{
			"bool out of range":   put32(data, offUseLCD, 2),
			"inverted band":       put32(data, offMin, math.Float32bits(100)),
			"color format":        put32(data, offFormat, uint32(MaskARGB)),
			"zero strike scale":   put32(data, offScale, 0),
			"infinite scale":      put32(data, offScale, math.Float32bits(float32(math.Inf(1)))),
			"negative band floor": put32(data, offMin, math.Float32bits(-1)),
		} {
			if _, err := Unflatten(bad, strikes, nil); !errors.Is(err, ErrInvalidBuffer) {
				t.Errorf("%s: error = %v, want ErrInvalidBuffer", name, err)
			}
		}
	})

	t.Run("path", func(t *testing.T) {
		// Record layout after the tag: descriptor (56 bytes), antiAliased,
		// scale, count, points, IDs.
		const (
			offAntiAliased = 88
			offScale       = 92
			offCount       = 96
			offID          = 112
		)
		strikes := newFakeStrikeCache().set(1, kindOutline, 30)
		_, data := makeFlat(t, strikes, NewFont(1, 12), Identity(), 1)
		for name, bad := range map[string][]byte{
			"bool out of range":  put32(data, offAntiAliased, 7),
			"zero scale":         put32(data, offScale, 0),
			"infinite scale":     put32(data, offScale, math.Float32bits(float32(math.Inf(1)))),
			"NaN scale":          put32(data, offScale, math.Float32bits(float32(math.NaN()))),
			"count mismatch":     put32(data, offCount, 2),
			"glyph ID too large": put32(data, offID, 0x10000),
		} {
			if _, err := Unflatten(bad, strikes, nil); !errors.Is(err, ErrInvalidBuffer) {
				t.Errorf("%s: error = %v, want ErrInvalidBuffer", name, err)
			}
		}
	})

	t.Run("drawable", func(t *testing.T) {
		// Record layout after the tag: scale, count, points, IDs,
		// descriptor.
		const (
			offScale = 32
			offCount = 36
		)
		strikes := newFakeStrikeCache().set(1, kindDrawable, 30)
		_, data := makeFlat(t, strikes, NewFont(1, 12), Identity(), 1)
		if _, err := Unflatten(data, strikes, nil); err != nil {
			t.Fatalf("Unflatten(unmodified) error = %v", err)
		}
		for name, bad := range map[string][]byte{
			"zero scale":     put32(data, offScale, 0),
			"negative scale": put32(data, offScale, math.Float32bits(-2)),
			"infinite scale": put32(data, offScale, math.Float32bits(float32(math.Inf(1)))),
			"count mismatch": put32(data, offCount, 3),
		} {
			if _, err := Unflatten(bad, strikes, nil); !errors.Is(err, ErrInvalidBuffer) {
				t.Errorf("%s: error = %v, want ErrInvalidBuffer", name, err)
			}
		}
	})
}

func TestUnflattenStrikeNotFound(t *testing.T) {
	_, data := makeFlat(t, newFakeStrikeCache(), NewFont(1, 12), Identity(), 1, 2)
	_, err := Unflatten(data, newFakeStrikeCache(), nil)
	if !errors.Is(err, ErrStrikeNotFound) || !errors.Is(err, ErrInvalidBuffer) {
		t.Errorf("Unflatten() error = %v, want ErrStrikeNotFound wrapped in ErrInvalidBuffer", err)
	}
}

// typefaceMap translates typeface IDs; IDs missing from the map fail.
type typefaceMap map[uint32]uint32

func (m typefaceMap) TranslateTypefaceID(desc *Descriptor) bool {
	id, ok := m[desc.TypefaceID]
	if ok {
		desc.TypefaceID = id
	}
	return ok
}

func TestUnflattenTranslatesTypefaces(t *testing.T) {
	strikes := newFakeStrikeCache().set(3, kindOutline, 30)
	// The receiver knows the typeface as 1; the sender calls it 7.
	makeFlat(t, strikes, NewFont(1, 12), Identity(), 1, 2, 3)
	_, data := makeFlat(t, newFakeStrikeCache().set(3, kindOutline, 30), NewFont(7, 12), Identity(), 1, 2, 3)

	t.Run("mapped", func(t *testing.T) {
		c, err := Unflatten(data, strikes, typefaceMap{7: 1})
		if err != nil {
			t.Fatalf("Unflatten() error = %v", err)
		}
		defer c.Release()
		for _, sr := range c.SubRuns() {
			var desc Descriptor
			switch sr := sr.(type) {
			case AtlasSubRun:
				desc = sr.GlyphVector().Strike().Descriptor()
			case *PathSubRun:
				desc = sr.strike.Descriptor()
			}
			if desc.TypefaceID != 1 {
				t.Errorf("%v strike typeface = %d, want 1", sr.Type(), desc.TypefaceID)
			}
		}
	})

	t.Run("unmapped", func(t *testing.T) {
		before := strikes.outstandingRefs()
		_, err := Unflatten(data, strikes, typefaceMap{})
		if !errors.Is(err, ErrTypefaceTranslation) || !errors.Is(err, ErrInvalidBuffer) {
			t.Errorf("Unflatten() error = %v, want ErrTypefaceTranslation wrapped in ErrInvalidBuffer", err)
		}
		if n := strikes.outstandingRefs(); n != before {
			t.Errorf("outstanding refs %d, want %d", n, before)
		}
	})
}

func TestUnflattenWithHint(t *testing.T) {
	strikes := newFakeStrikeCache().set(3, kindOutline, 30)
	c, data := makeFlat(t, strikes, NewFont(1, 12), Identity(), 1, 2, 3)
	hinted, err := c.MarshalBinaryWithHint()
	if err != nil {
		t.Fatalf("MarshalBinaryWithHint() error = %v", err)
	}
	if diff := cmp.Diff(data, hinted[4:]); diff != "" {
		t.Errorf("hinted body differs (-want +got):\n%s", diff)
	}

	for _, hint := range []uint32{binary.LittleEndian.Uint32(hinted), 0, 1 << 20, math.MaxUint32} {
		got, err := UnflattenWithHint(put32(hinted, 0, hint), strikes, nil)
		if err != nil {
			t.Fatalf("UnflattenWithHint(hint %d) error = %v", hint, err)
		}
		again, _ := got.MarshalBinary()
		got.Release()
		if diff := cmp.Diff(data, again); diff != "" {
			t.Errorf("hint %d: re-encoding differs (-want +got):\n%s", hint, diff)
		}
	}
}

func TestMarshalEmptyContainer(t *testing.T) {
	paint := DefaultPaint()
	c, excluded := MakeContainer(runOf(NewFont(1, 12)), Identity(), &paint, deviceInfo(), newFakeStrikeCache())
	if excluded {
		t.Error("empty run reported excluded glyphs")
	}
	if _, err := c.MarshalBinary(); !errors.Is(err, ErrEmptyContainer) {
		t.Errorf("MarshalBinary() error = %v, want ErrEmptyContainer", err)
	}
}

func FuzzUnflatten(f *testing.F) {
	strikes := newFakeStrikeCache().set(2, kindColor, 0.5).set(3, kindOutline, 30).set(4, kindDrawable, 30)
	paint := DefaultPaint()
	for _, m := range []Matrix{Identity(), Rotate(0.5), Scale(2, 2)} {
		c, _ := MakeContainer(runOf(NewFont(1, 12), 1, 2, 3, 4), m, &paint, deviceInfo(), strikes)
		data, err := c.MarshalBinary()
		if err == nil {
			f.Add(data)
		}
	}
	f.Fuzz(func(t *testing.T, data []byte) {
		c, err := Unflatten(data, strikes, nil)
		if (c == nil) == (err == nil) {
			t.Fatalf("Unflatten() = %v, %v; want exactly one of container and error", c, err)
		}
		if c != nil {
			c.Release()
		}
	})
}
