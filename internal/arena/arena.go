// Package arena provides a bump allocator for the plain-data arrays a glyph
// container owns: positions, packed glyph IDs and atlas glyph pointers.
//
// An Arena only does accounting; the memory itself lives in typed Slabs that
// hand out capacity-limited sub-slices of larger chunks. All slices taken
// from an arena share its lifetime, which is the lifetime of the container
// that created it.
package arena

import (
	"fmt"
	"unsafe"
)

// minChunkBytes is the smallest chunk a slab allocates.
const minChunkBytes = 256

// Arena accounts for the bytes handed out by its slabs.
type Arena struct {
	sizeHint int
	budget   int
	used     int
	chunks   int
}

// New returns an arena whose first chunks are sized from sizeHint bytes.
// A positive budget is a hard limit: exceeding it panics.
func New(sizeHint, budget int) *Arena {
	if sizeHint < minChunkBytes {
		sizeHint = minChunkBytes
	}
	return &Arena{sizeHint: sizeHint, budget: budget}
}

// Used returns the number of bytes handed out.
func (a *Arena) Used() int { return a.used }

// Chunks returns the number of chunks allocated by all slabs.
func (a *Arena) Chunks() int { return a.chunks }

// SizeHint returns the configured first-chunk size in bytes.
func (a *Arena) SizeHint() int { return a.sizeHint }

func (a *Arena) charge(n int) {
	a.used += n
	if a.budget > 0 && a.used > a.budget {
		panic(fmt.Sprintf("arena: budget exhausted (%d > %d bytes)", a.used, a.budget))
	}
}

// Slab hands out sub-slices of T from chunks owned by an Arena.
type Slab[T any] struct {
	arena *Arena
	chunk []T
}

// NewSlab returns a slab of T charging its allocations to a.
func NewSlab[T any](a *Arena) *Slab[T] {
	return &Slab[T]{arena: a}
}

func elemSize[T any]() int {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		return 1
	}
	return size
}

// Make returns a zeroed slice of n elements. The slice has capacity n so
// appending to it never writes into a neighbour.
func (s *Slab[T]) Make(n int) []T {
	if n <= 0 {
		return nil
	}
	size := elemSize[T]()
	s.arena.charge(n * size)
	if len(s.chunk) < n {
		want := s.arena.sizeHint / size
		if want < n {
			want = n
		}
		s.chunk = make([]T, want)
		s.arena.chunks++
	}
	out := s.chunk[:n:n]
	s.chunk = s.chunk[n:]
	return out
}

// Copy returns an arena-owned copy of src.
func (s *Slab[T]) Copy(src []T) []T {
	out := s.Make(len(src))
	copy(out, src)
	return out
}
