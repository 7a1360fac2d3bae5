package glyphrun

import (
	"encoding/binary"
	"math"
)

// Vertex layouts written by FillVertexData. Every glyph is a quad of four
// vertices in the order left-top, left-bottom, right-top, right-bottom.
//
//	Mask2DVertex:  position (2×f32) | color (u32, premul RGBA) | atlas (2×u16) = 16 bytes
//	ARGB2DVertex:  position (2×f32) | atlas (2×u16)                            = 12 bytes
const (
	Mask2DVertexStride = 16
	ARGB2DVertexStride = 12

	// VerticesPerGlyph is the number of vertices per glyph quad.
	VerticesPerGlyph = 4
)

// VertexStrideForFormat returns the vertex size for a mask format.
func VertexStrideForFormat(f MaskFormat) int {
	if f == MaskARGB {
		return ARGB2DVertexStride
	}
	return Mask2DVertexStride
}

// vertexWriter appends quads to a caller-sized byte slice.
type vertexWriter struct {
	buf      []byte
	off      int
	color    uint32
	hasColor bool
}

func newVertexWriter(dst []byte, format MaskFormat, color uint32) *vertexWriter {
	return &vertexWriter{buf: dst, color: color, hasColor: format != MaskARGB}
}

func (w *vertexWriter) vertex(x, y float32, u, v uint16) {
	b := w.buf[w.off:]
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(x))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(y))
	i := 8
	if w.hasColor {
		binary.LittleEndian.PutUint32(b[8:], w.color)
		i = 12
	}
	binary.LittleEndian.PutUint16(b[i:], u)
	binary.LittleEndian.PutUint16(b[i+2:], v)
	w.off += i + 4
}

// quad writes an axis-aligned quad.
func (w *vertexWriter) quad(l, t, r, b float32, uv AtlasLocator) {
	w.vertex(l, t, uv.U0, uv.V0)
	w.vertex(l, b, uv.U0, uv.V1)
	w.vertex(r, t, uv.U1, uv.V0)
	w.vertex(r, b, uv.U1, uv.V1)
}

// mappedQuad writes rect r mapped through m.
func (w *vertexWriter) mappedQuad(m Matrix, r Rect, uv AtlasLocator) {
	lt := m.MapPoint(Point{r.Left, r.Top})
	lb := m.MapPoint(Point{r.Left, r.Bottom})
	rt := m.MapPoint(Point{r.Right, r.Top})
	rb := m.MapPoint(Point{r.Right, r.Bottom})
	w.vertex(lt.X, lt.Y, uv.U0, uv.V0)
	w.vertex(lb.X, lb.Y, uv.U0, uv.V1)
	w.vertex(rt.X, rt.Y, uv.U1, uv.V0)
	w.vertex(rb.X, rb.Y, uv.U1, uv.V1)
}

// clippedQuad writes an integer quad intersected with clip, moving the
// texture coordinates with the clipped edges. A glyph entirely outside clip
// collapses to a zero-area quad.
func (w *vertexWriter) clippedQuad(l, t int32, uv AtlasLocator, clip IRect) {
	r := l + int32(uv.Width())
	b := t + int32(uv.Height())
	glyph := IRect{Left: l, Top: t, Right: r, Bottom: b}
	if clip.Contains(glyph) {
		w.quad(float32(l), float32(t), float32(r), float32(b), uv)
		return
	}
	cl, ct := max(l, clip.Left), max(t, clip.Top)
	cr, cb := min(r, clip.Right), min(b, clip.Bottom)
	if cl >= cr || ct >= cb {
		w.quad(0, 0, 0, 0, AtlasLocator{})
		return
	}
	uv.U0 += uint16(cl - l)
	uv.V0 += uint16(ct - t)
	uv.U1 -= uint16(r - cr)
	uv.V1 -= uint16(b - cb)
	w.quad(float32(cl), float32(ct), float32(cr), float32(cb), uv)
}
