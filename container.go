package glyphrun

import (
	"sync/atomic"
	"unsafe"

	"github.com/gogpu/glyphrun/internal/arena"
)

// Container is the ordered list of SubRuns made from one glyph run list at
// one position matrix. It is immutable after creation and may be drawn
// from several goroutines at once.
type Container struct {
	initialPositionMatrix Matrix
	subRuns               []SubRun
	alloc                 *allocator

	// holds counts the owner plus every unmatched Ref.
	holds    atomic.Int32
	disowned atomic.Bool
	released atomic.Bool
}

func newContainer(positionMatrix Matrix, alloc *allocator) *Container {
	c := &Container{initialPositionMatrix: positionMatrix, alloc: alloc}
	c.holds.Store(1)
	return c
}

// InitialPositionMatrix returns the matrix the container was created at.
func (c *Container) InitialPositionMatrix() Matrix { return c.initialPositionMatrix }

// SubRuns returns the SubRuns in draw order. The slice must not be
// modified.
func (c *Container) SubRuns() []SubRun { return c.subRuns }

// IsEmpty reports whether the container has nothing to draw.
func (c *Container) IsEmpty() bool { return len(c.subRuns) == 0 }

// GlyphCount returns the number of glyphs across all SubRuns.
func (c *Container) GlyphCount() int {
	n := 0
	for _, sr := range c.subRuns {
		n += sr.GlyphCount()
	}
	return n
}

// CanReuse reports whether every SubRun can be drawn at positionMatrix.
func (c *Container) CanReuse(paint *Paint, positionMatrix Matrix) bool {
	for _, sr := range c.subRuns {
		if !sr.CanReuse(paint, positionMatrix) {
			return false
		}
	}
	return true
}

// Draw submits every SubRun in order. The canvas supplies the draw matrix;
// drawOrigin is the run list origin the glyph positions are relative to.
func (c *Container) Draw(canvas Canvas, drawOrigin Point, paint *Paint, dev Device) {
	for _, sr := range c.subRuns {
		sr.Draw(canvas, drawOrigin, paint, dev)
	}
}

// EstimatedSize approximates the memory held by the container.
func (c *Container) EstimatedSize() int {
	n := int(unsafe.Sizeof(Container{}))
	for _, sr := range c.subRuns {
		n += sr.EstimatedSize()
	}
	return n
}

// ArenaBytes returns the bytes the container's arrays occupy in its arena.
func (c *Container) ArenaBytes() int {
	if c.alloc == nil {
		return 0
	}
	return c.alloc.arena.Used()
}

// Release gives up the creator's hold. Once no Ref is outstanding either,
// the SubRuns drop their strike references and the container must not be
// drawn. Release is idempotent.
func (c *Container) Release() {
	if c.disowned.Swap(true) {
		return
	}
	c.Unref()
}

// Ref takes an extra hold that keeps the container drawable until the
// matching Unref. It fails once the container has been released.
func (c *Container) Ref() bool {
	for {
		n := c.holds.Load()
		if n <= 0 {
			return false
		}
		if c.holds.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// Unref gives up a hold taken by Ref.
func (c *Container) Unref() {
	if c.holds.Add(-1) != 0 {
		return
	}
	c.released.Store(true)
	for _, sr := range c.subRuns {
		sr.Release()
	}
}

// EstimateAllocSize returns an arena size hint for making a container from
// list: room for every glyph's position and ID plus one SubRun per run.
func EstimateAllocSize(list *GlyphRunList) int {
	perGlyph := int(unsafe.Sizeof(Point{}) + unsafe.Sizeof(PackedGlyphID(0)))
	perRun := int(unsafe.Sizeof(DirectMaskSubRun{}) + unsafe.Sizeof(GlyphVector{}))
	return list.TotalGlyphCount()*perGlyph + len(list.Runs)*perRun
}

func newArenaFor(list *GlyphRunList) *arena.Arena {
	return arena.New(EstimateAllocSize(list), 0)
}
