package wire

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrInvalid is the sticky error a Reader records on the first failed
// validation or short read.
var ErrInvalid = errors.New("wire: invalid buffer")

// pointSize is the encoded size of one point.
const pointSize = 8

// Reader consumes values written by Writer. After the first failure every
// read returns a zero value and Err reports ErrInvalid.
type Reader struct {
	buf []byte
	off int
	err error
}

// NewReader returns a reader over b. The reader does not copy b.
func NewReader(b []byte) *Reader {
	r := &Reader{buf: b}
	if len(b)%4 != 0 {
		r.err = ErrInvalid
	}
	return r
}

// Err returns ErrInvalid if any read or validation has failed.
func (r *Reader) Err() error { return r.err }

// IsValid reports whether no read or validation has failed.
func (r *Reader) IsValid() bool { return r.err == nil }

// Available returns the number of unread bytes, or zero after a failure.
func (r *Reader) Available() int {
	if r.err != nil {
		return 0
	}
	return len(r.buf) - r.off
}

// Offset returns the read position.
func (r *Reader) Offset() int { return r.off }

// Validate records a failure when ok is false and returns the reader's
// validity.
func (r *Reader) Validate(ok bool) bool {
	if !ok && r.err == nil {
		r.err = ErrInvalid
	}
	return r.err == nil
}

// ValidateCanReadN checks that n elements of size bytes each fit in the
// remaining buffer.
func (r *Reader) ValidateCanReadN(n, size int) bool {
	if n < 0 || size <= 0 {
		return r.Validate(false)
	}
	return r.Validate(n <= r.Available()/size)
}

func (r *Reader) skip(n int) []byte {
	if r.err != nil {
		return nil
	}
	n = Align4(n)
	if n > len(r.buf)-r.off {
		r.err = ErrInvalid
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

// ReadUint32 reads a 32-bit unsigned value.
func (r *Reader) ReadUint32() uint32 {
	b := r.skip(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// ReadInt32 reads a 32-bit signed value.
func (r *Reader) ReadInt32() int32 {
	return int32(r.ReadUint32())
}

// ReadInt reads a 32-bit signed value.
func (r *Reader) ReadInt() int {
	return int(r.ReadInt32())
}

// ReadBool reads a 32-bit value that must be 0 or 1.
func (r *Reader) ReadBool() bool {
	v := r.ReadUint32()
	r.Validate(v <= 1)
	return v == 1
}

// ReadScalar reads an IEEE-754 single.
func (r *Reader) ReadScalar() float32 {
	return math.Float32frombits(r.ReadUint32())
}

// ReadScalars fills dst.
func (r *Reader) ReadScalars(dst []float32) {
	if !r.ValidateCanReadN(len(dst), 4) {
		return
	}
	for i := range dst {
		dst[i] = r.ReadScalar()
	}
}

// PeekUint32 returns the next 32-bit value without consuming it.
func (r *Reader) PeekUint32() (uint32, bool) {
	if r.err != nil || len(r.buf)-r.off < 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(r.buf[r.off:]), true
}

// ReadPointArray reads a point count and the interleaved x, y pairs that
// follow. An empty array, a count of MaxInt32/8 or more, or a count larger
// than the remaining bytes allow is invalid and returns nil.
func (r *Reader) ReadPointArray() []float32 {
	count := r.ReadUint32()
	if !r.Validate(count != 0 && count < math.MaxInt32/pointSize) {
		return nil
	}
	if !r.ValidateCanReadN(int(count), pointSize) {
		return nil
	}
	xy := make([]float32, 2*int(count))
	for i := range xy {
		xy[i] = r.ReadScalar()
	}
	return xy
}

// ReadBytes reads a length-prefixed, padded byte string. The returned
// slice aliases the reader's buffer.
func (r *Reader) ReadBytes() []byte {
	n := r.ReadUint32()
	if !r.Validate(n <= math.MaxInt32 && int(n) <= r.Available()) {
		return nil
	}
	b := r.skip(int(n))
	if b == nil {
		return nil
	}
	return b[:n]
}

// ReadCount reads a count that must satisfy 0 < n <= Available()/size, the
// bound used for glyph ID arrays.
func (r *Reader) ReadCount(size int) int {
	n := r.ReadInt32()
	avail := r.Available()
	if !r.Validate(n > 0 && int(n) <= avail/size) {
		return 0
	}
	return int(n)
}
