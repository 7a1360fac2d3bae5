package arena

import (
	"strings"
	"testing"
)

func TestSlabMakeIsolated(t *testing.T) {
	a := New(1024, 0)
	s := NewSlab[uint32](a)

	first := s.Make(3)
	second := s.Make(2)
	if len(first) != 3 || cap(first) != 3 {
		t.Fatalf("first len/cap = %d/%d, want 3/3", len(first), cap(first))
	}
	first = append(first, 99)
	if second[0] != 0 {
		t.Errorf("append on first wrote into second: %v", second)
	}
	if got := a.Used(); got != 5*4 {
		t.Errorf("Used() = %d, want %d", got, 5*4)
	}
	if a.Chunks() != 1 {
		t.Errorf("Chunks() = %d, want 1", a.Chunks())
	}
}

func TestSlabGrowsBeyondHint(t *testing.T) {
	a := New(0, 0)
	s := NewSlab[[2]float32](a)
	big := s.Make(1000)
	if len(big) != 1000 {
		t.Fatalf("len = %d, want 1000", len(big))
	}
	if a.SizeHint() != minChunkBytes {
		t.Errorf("SizeHint() = %d, want %d", a.SizeHint(), minChunkBytes)
	}
}

func TestSlabCopy(t *testing.T) {
	a := New(64, 0)
	s := NewSlab[int32](a)
	src := []int32{4, 5, 6}
	dst := s.Copy(src)
	src[0] = 0
	if dst[0] != 4 || dst[2] != 6 {
		t.Errorf("Copy() = %v, want [4 5 6]", dst)
	}
	if s.Make(0) != nil {
		t.Error("Make(0) returned non-nil")
	}
}

func TestBudgetExhaustionPanics(t *testing.T) {
	a := New(64, 16)
	s := NewSlab[uint64](a)
	_ = s.Make(2)

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic when exceeding budget")
		}
		msg, _ := r.(string)
		if !strings.Contains(msg, "budget exhausted") {
			t.Errorf("panic = %v, want budget exhausted", r)
		}
	}()
	_ = s.Make(1)
}
