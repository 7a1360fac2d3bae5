//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/glyphrun"
)

var (
	// ErrAtlasRegeneration is returned when a glyph can never be placed in
	// the atlas.
	ErrAtlasRegeneration = errors.New("gpu: glyph cannot be placed in the atlas")

	// ErrAtlasStalled is returned when a flush frees no atlas space.
	ErrAtlasStalled = errors.New("gpu: atlas full after flush")
)

// FlushTarget is an atlas target whose pending draws can be submitted to
// free atlas space. *atlas.Manager implements it.
type FlushTarget interface {
	glyphrun.AtlasTarget
	Flush()
}

// Batch is a run of glyph quads sharing one pipeline and scissor.
type Batch struct {
	Format glyphrun.MaskFormat
	// DistanceField holds the SDFT shader flags, zero for plain masks.
	DistanceField glyphrun.DistanceFieldFlags
	// Scissor is empty when the draw needs no scissor rectangle.
	Scissor    glyphrun.IRect
	Stride     int
	GlyphCount int
	Vertices   []byte
}

// PathDraw is a path glyph handed to the canvas, already in device space.
type PathDraw struct {
	Path  *glyphrun.Path
	Paint glyphrun.Paint
	// Layer is the save-layer depth the path was drawn at.
	Layer int
}

// Renderer is the canvas and device a Container draws into. Atlas draws
// become vertex batches in Prepare; path glyphs are collected for a path
// renderer.
type Renderer struct {
	bounds  glyphrun.IRect
	clip    glyphrun.IRect
	hasClip bool
	ops     []*glyphrun.AtlasTextOp

	ctm    glyphrun.Matrix
	stack  []savedState
	layers int
	paths  []PathDraw
}

type savedState struct {
	ctm   glyphrun.Matrix
	layer bool
}

var (
	_ glyphrun.Device = (*Renderer)(nil)
	_ glyphrun.Canvas = (*Renderer)(nil)
)

// NewRenderer creates a renderer for a width×height target.
func NewRenderer(width, height int) *Renderer {
	return &Renderer{
		bounds: glyphrun.IRect{Right: int32(width), Bottom: int32(height)},
		ctm:    glyphrun.Identity(),
	}
}

func (r *Renderer) Bounds() glyphrun.IRect             { return r.bounds }
func (r *Renderer) Clip() (glyphrun.IRect, bool)       { return r.clip, r.hasClip }
func (r *Renderer) AddDrawOp(op *glyphrun.AtlasTextOp) { r.ops = append(r.ops, op) }
func (r *Renderer) Ops() []*glyphrun.AtlasTextOp       { return r.ops }
func (r *Renderer) SetClip(clip glyphrun.IRect)        { r.clip, r.hasClip = clip, true }
func (r *Renderer) ResetClip()                         { r.clip, r.hasClip = glyphrun.IRect{}, false }
func (r *Renderer) Paths() []PathDraw                  { return r.paths }
func (r *Renderer) LocalToDevice() glyphrun.Matrix     { return r.ctm }
func (r *Renderer) Concat(m glyphrun.Matrix)           { r.ctm = r.ctm.Multiply(m) }

// SetMatrix replaces the current matrix.
func (r *Renderer) SetMatrix(m glyphrun.Matrix) { r.ctm = m }

func (r *Renderer) Save() { r.stack = append(r.stack, savedState{ctm: r.ctm}) }

// SaveLayer saves the matrix and counts a layer; bounds and paint are left
// to the path renderer.
func (r *Renderer) SaveLayer(_ *glyphrun.Rect, _ *glyphrun.Paint) {
	r.stack = append(r.stack, savedState{ctm: r.ctm, layer: true})
	r.layers++
}

func (r *Renderer) Restore() {
	if len(r.stack) == 0 {
		return
	}
	top := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	r.ctm = top.ctm
	if top.layer {
		r.layers--
	}
}

func (r *Renderer) DrawPath(p *glyphrun.Path, paint *glyphrun.Paint) {
	r.paths = append(r.paths, PathDraw{Path: p.Transform(r.ctm), Paint: *paint, Layer: r.layers})
}

// Reset drops the queued draws and restores the identity matrix.
func (r *Renderer) Reset() {
	clear(r.ops)
	r.ops = r.ops[:0]
	clear(r.paths)
	r.paths = r.paths[:0]
	r.stack = r.stack[:0]
	r.layers = 0
	r.ctm = glyphrun.Identity()
}

// Prepare places the glyphs of every queued draw in the atlas and fills
// their vertices. When the atlas runs out of room the batches built so far
// are passed to submit, target is flushed and preparation continues. The
// remaining batches are passed to submit at the end.
func (r *Renderer) Prepare(target FlushTarget, submit func([]Batch) error) error {
	var pending []Batch
	for _, op := range r.ops {
		sr := op.SubRun
		stride := sr.VertexStride(op.DrawMatrix)
		n := sr.GlyphCount()
		flushed := false
		for begin := 0; begin < n; {
			ok, placed := sr.RegenerateAtlas(begin, n, target)
			if !ok {
				return fmt.Errorf("%w: %v sub run glyph %d", ErrAtlasRegeneration, sr.Type(), begin)
			}
			if placed == 0 && flushed {
				return fmt.Errorf("%w: %v sub run glyph %d", ErrAtlasStalled, sr.Type(), begin)
			}
			if placed > 0 {
				buf := make([]byte, placed*glyphrun.VerticesPerGlyph*stride)
				sr.FillVertexData(buf, begin, placed, op.Color, op.DrawMatrix, op.DrawOrigin, op.ClipRect)
				pending = append(pending, Batch{
					Format:        sr.MaskFormat(),
					DistanceField: op.DistanceFieldFlags,
					Scissor:       op.Scissor,
					Stride:        stride,
					GlyphCount:    placed,
					Vertices:      buf,
				})
				begin += placed
			}
			if begin == n {
				break
			}
			glyphrun.Logger().Debug("gpu: atlas full, flushing", "batches", len(pending))
			if err := submit(pending); err != nil {
				return err
			}
			pending = nil
			target.Flush()
			flushed = true
		}
	}
	if len(pending) == 0 {
		return nil
	}
	return submit(pending)
}
