// Package wire implements the little-endian, 4-byte aligned byte stream used
// to flatten glyph containers for transport between processes.
//
// Every value occupies a multiple of four bytes. Writers only append; readers
// keep a sticky validation error so that a decoder can issue a sequence of
// reads and check Err once, without ever reading past the end of the buffer.
package wire

import (
	"encoding/binary"
	"math"
)

// Writer appends values to a growable byte slice.
type Writer struct {
	buf []byte
}

// NewWriter returns a writer with room for sizeHint bytes.
func NewWriter(sizeHint int) *Writer {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &Writer{buf: make([]byte, 0, sizeHint)}
}

// Bytes returns the written bytes. The slice aliases the writer's buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Reset discards the written bytes but keeps the buffer.
func (w *Writer) Reset() { w.buf = w.buf[:0] }

// WriteUint32 appends v.
func (w *Writer) WriteUint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// WriteInt32 appends v.
func (w *Writer) WriteInt32(v int32) {
	w.WriteUint32(uint32(v))
}

// WriteInt appends v as a 32-bit signed value.
func (w *Writer) WriteInt(v int) {
	w.WriteInt32(int32(v))
}

// WriteBool appends v as a 32-bit 0 or 1.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteUint32(1)
		return
	}
	w.WriteUint32(0)
}

// WriteScalar appends an IEEE-754 single.
func (w *Writer) WriteScalar(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

// WriteScalars appends each value of vs in order, without a count.
func (w *Writer) WriteScalars(vs ...float32) {
	for _, v := range vs {
		w.WriteScalar(v)
	}
}

// WritePointArray appends a point count followed by interleaved x, y pairs.
// xy must have even length.
func (w *Writer) WritePointArray(xy []float32) {
	w.WriteUint32(uint32(len(xy) / 2))
	w.WriteScalars(xy...)
}

// WriteBytes appends a length prefix followed by b, padded to four bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.WriteUint32(uint32(len(b)))
	w.buf = append(w.buf, b...)
	for pad := Align4(len(b)) - len(b); pad > 0; pad-- {
		w.buf = append(w.buf, 0)
	}
}

// Reserve appends n zero bytes and returns their offset, so a length or
// checksum can be patched in later with PatchUint32.
func (w *Writer) Reserve(n int) int {
	off := len(w.buf)
	for i := 0; i < Align4(n); i++ {
		w.buf = append(w.buf, 0)
	}
	return off
}

// PatchUint32 overwrites four previously written bytes at off.
func (w *Writer) PatchUint32(off int, v uint32) {
	binary.LittleEndian.PutUint32(w.buf[off:off+4], v)
}

// Align4 rounds n up to a multiple of four.
func Align4(n int) int { return (n + 3) &^ 3 }
