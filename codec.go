package glyphrun

import (
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/glyphrun/internal/arena"
	"github.com/gogpu/glyphrun/internal/wire"
)

// Alloc size hints outside [0, maxAllocSizeHint] are replaced by
// defaultAllocSizeHint; the hint only sizes the arena.
const (
	maxAllocSizeHint     = 1 << 16
	defaultAllocSizeHint = 128
)

// allocator hands out the plain-data arrays of one container.
type allocator struct {
	arena    *arena.Arena
	points   *arena.Slab[Point]
	ids      *arena.Slab[PackedGlyphID]
	glyphIDs *arena.Slab[GlyphID]
}

func newAllocator(a *arena.Arena) *allocator {
	return &allocator{
		arena:    a,
		points:   arena.NewSlab[Point](a),
		ids:      arena.NewSlab[PackedGlyphID](a),
		glyphIDs: arena.NewSlab[GlyphID](a),
	}
}

// decoder carries the state shared by the SubRun readers of one buffer.
type decoder struct {
	*allocator
	positionMatrix Matrix
	finder         StrikeFinder
	translator     TypefaceTranslator
	// cause is the first non-format failure, reported instead of
	// ErrInvalidBuffer.
	cause error
}

func (d *decoder) fail(r *wire.Reader, cause error) {
	if d.cause == nil {
		d.cause = cause
	}
	r.Validate(false)
}

// readStrike decodes a descriptor and finds the local strike for it, with
// one reference held for the caller.
func (d *decoder) readStrike(r *wire.Reader) Strike {
	desc, ok := readDescriptor(r)
	if !ok {
		return nil
	}
	if d.translator != nil && !d.translator.TranslateTypefaceID(&desc) {
		d.fail(r, ErrTypefaceTranslation)
		return nil
	}
	strike := d.finder.FindStrike(desc)
	if strike == nil {
		d.fail(r, fmt.Errorf("%w: typeface %d size %g kind %d", ErrStrikeNotFound, desc.TypefaceID, desc.TextSize, desc.Kind))
		return nil
	}
	strike.Ref()
	return strike
}

// readPoints reads a validated, finite point array into the arena.
func (d *decoder) readPoints(r *wire.Reader) []Point {
	xy := r.ReadPointArray()
	if xy == nil {
		return nil
	}
	pts := d.points.Make(len(xy) / 2)
	for i := range pts {
		pts[i] = Point{X: xy[2*i], Y: xy[2*i+1]}
		if !r.Validate(pts[i].IsFinite()) {
			return nil
		}
	}
	return pts
}

// readGlyphIDs reads n plain glyph IDs.
func (d *decoder) readGlyphIDs(r *wire.Reader, n int) []GlyphID {
	if !r.ValidateCanReadN(n, 4) {
		return nil
	}
	ids := d.glyphIDs.Make(n)
	for i := range ids {
		v := r.ReadUint32()
		if !r.Validate(v <= math.MaxUint16) {
			return nil
		}
		ids[i] = GlyphID(v)
	}
	return ids
}

// flatten appends the container's wire form to w.
func (c *Container) flatten(w *wire.Writer) error {
	if len(c.subRuns) == 0 {
		return ErrEmptyContainer
	}
	m := c.initialPositionMatrix
	w.WriteScalars(m.A, m.B, m.C, m.D, m.E, m.F)
	w.WriteInt(len(c.subRuns))
	for _, sr := range c.subRuns {
		w.WriteInt32(int32(sr.Type()))
		sr.flatten(w)
	}
	return nil
}

// MarshalBinary encodes the container: its creation matrix followed by
// every SubRun. Strikes are referenced by descriptor only, so the receiver
// must hold matching strikes.
func (c *Container) MarshalBinary() ([]byte, error) {
	w := wire.NewWriter(c.EstimatedSize())
	if err := c.flatten(w); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// MarshalBinaryWithHint is MarshalBinary preceded by an allocation size
// hint the receiver uses to size its arena.
func (c *Container) MarshalBinaryWithHint() ([]byte, error) {
	w := wire.NewWriter(c.EstimatedSize() + 4)
	c.flattenAllocSizeHint(w)
	if err := c.flatten(w); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func (c *Container) flattenAllocSizeHint(w *wire.Writer) {
	hint := 0
	for _, sr := range c.subRuns {
		hint += sr.EstimatedSize()
	}
	w.WriteInt(hint)
}

// allocSizeHintFromBuffer reads the hint written by flattenAllocSizeHint,
// replacing implausible values with a default.
func allocSizeHintFromBuffer(r *wire.Reader) int {
	hint := r.ReadInt()
	if hint < 0 || hint > maxAllocSizeHint {
		return defaultAllocSizeHint
	}
	return hint
}

// Unflatten decodes a container produced by MarshalBinary. Strikes are
// looked up in finder after the optional translator has mapped each
// descriptor's typeface. Any failure releases the SubRuns decoded so far and
// returns an error wrapping ErrInvalidBuffer, ErrStrikeNotFound or
// ErrTypefaceTranslation; a partial container is never returned.
func Unflatten(data []byte, finder StrikeFinder, translator TypefaceTranslator) (*Container, error) {
	return unflatten(wire.NewReader(data), len(data), finder, translator)
}

// UnflattenWithHint decodes the output of MarshalBinaryWithHint.
func UnflattenWithHint(data []byte, finder StrikeFinder, translator TypefaceTranslator) (*Container, error) {
	r := wire.NewReader(data)
	hint := allocSizeHintFromBuffer(r)
	return unflatten(r, hint, finder, translator)
}

func unflatten(r *wire.Reader, sizeHint int, finder StrikeFinder, translator TypefaceTranslator) (*Container, error) {
	var v [6]float32
	r.ReadScalars(v[:])
	m := Matrix{A: v[0], B: v[1], C: v[2], D: v[3], E: v[4], F: v[5]}
	r.Validate(m.IsFinite())
	count := r.ReadInt()
	// Every record holds at least its tag.
	r.Validate(count > 0 && count <= r.Available()/4)

	d := &decoder{
		allocator:      newAllocator(arena.New(sizeHint, 0)),
		positionMatrix: m,
		finder:         finder,
		translator:     translator,
	}
	c := newContainer(m, d.allocator)
	for i := 0; i < count && r.IsValid(); i++ {
		tag := SubRunType(r.ReadInt32())
		if !r.Validate(tag > subRunBad && tag < subRunTypeCount) {
			break
		}
		sr := subRunReaders[tag](r, d)
		if sr == nil {
			r.Validate(false)
			break
		}
		c.subRuns = append(c.subRuns, sr)
	}

	if !r.IsValid() {
		c.Release()
		err := d.cause
		if err == nil {
			err = ErrInvalidBuffer
		}
		if !errors.Is(err, ErrInvalidBuffer) {
			err = fmt.Errorf("%w: %w", ErrInvalidBuffer, err)
		}
		Logger().Warn("glyphrun: rejected sub run buffer",
			"offset", r.Offset(),
			"decoded", len(c.subRuns),
			"err", err)
		return nil, err
	}
	return c, nil
}
