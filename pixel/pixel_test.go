package pixel

import (
	"testing"

	"github.com/brianmayclone/anyos-sub003/geom"
)

func TestARGBPackUnpack(t *testing.T) {
	p := NewARGB(0x11, 0x22, 0x33, 0x44)
	if p.A() != 0x11 || p.R() != 0x22 || p.G() != 0x33 || p.B() != 0x44 {
		t.Fatalf("round trip failed: %08x", uint32(p))
	}
}

func TestBufferSetAt(t *testing.T) {
	b := NewBuffer(4, 4)
	c := NewARGB(255, 10, 20, 30)
	b.Set(1, 2, c)
	if got := b.At(1, 2); got != c {
		t.Fatalf("At(1,2) = %08x, want %08x", uint32(got), uint32(c))
	}
	// Out of bounds must not panic.
	b.Set(-1, 100, c)
	if got := b.At(-1, 100); got != 0 {
		t.Fatalf("out of bounds read should be 0, got %08x", got)
	}
}

func TestOverOpaqueReplacesFully(t *testing.T) {
	dst := NewARGB(255, 0, 0, 0)
	src := NewARGB(255, 200, 100, 50)
	got := Over(dst, src)
	if got != src {
		t.Fatalf("opaque src should fully replace dst, got %08x want %08x", uint32(got), uint32(src))
	}
}

func TestOverTransparentKeepsDst(t *testing.T) {
	dst := NewARGB(255, 10, 20, 30)
	src := NewARGB(0, 200, 100, 50)
	got := Over(dst, src)
	if got != dst {
		t.Fatalf("fully transparent src should not change dst, got %08x want %08x", uint32(got), uint32(dst))
	}
}

func TestOverHalfBlend(t *testing.T) {
	dst := NewARGB(255, 0, 0, 0)
	src := NewARGB(128, 255, 0, 0)
	got := Over(dst, src)
	if got.R() < 120 || got.R() > 135 {
		t.Fatalf("50%% red over black should be ~127 red, got %d", got.R())
	}
}

func TestBlendIntoClips(t *testing.T) {
	dst := NewBuffer(4, 4)
	src := NewBuffer(4, 4)
	Fill(src, NewARGB(255, 9, 9, 9))
	// Place src mostly off the right/bottom edge; must not panic.
	BlendInto(dst, 2, 2, src)
	if got := dst.At(2, 2); got.R() != 9 {
		t.Fatalf("expected blended pixel at (2,2), got %08x", uint32(got))
	}
	if got := dst.At(0, 0); got != 0 {
		t.Fatalf("pixel outside the blended rect should be untouched, got %08x", uint32(got))
	}
}

func TestCopyIntoOpaque(t *testing.T) {
	dst := NewBuffer(2, 2)
	src := NewBuffer(2, 2)
	Fill(src, NewARGB(128, 1, 2, 3))
	CopyInto(dst, 0, 0, src)
	if got := dst.At(0, 0); got.A() != 128 {
		t.Fatalf("CopyInto must ignore alpha semantics and copy verbatim, got alpha %d", got.A())
	}
}

func TestCopyIntoRectOnlyTouchesGivenRegion(t *testing.T) {
	dst := NewBuffer(4, 4)
	src := NewBuffer(4, 4)
	Fill(src, NewARGB(255, 7, 8, 9))

	CopyIntoRect(dst, src, geom.Rect{X: 1, Y: 1, Width: 2, Height: 2})

	if got := dst.At(1, 1); got != NewARGB(255, 7, 8, 9) {
		t.Fatalf("pixel inside the rect should be copied, got %08x", uint32(got))
	}
	if got := dst.At(0, 0); got != 0 {
		t.Fatalf("pixel outside the rect must be untouched, got %08x", uint32(got))
	}
	if got := dst.At(3, 3); got != 0 {
		t.Fatalf("pixel outside the rect must be untouched, got %08x", uint32(got))
	}
}

func TestCopyIntoRectClipsToBufferBounds(t *testing.T) {
	dst := NewBuffer(2, 2)
	src := NewBuffer(2, 2)
	Fill(src, NewARGB(255, 1, 1, 1))
	// Rect partially off the edge must not panic and must clip cleanly.
	CopyIntoRect(dst, src, geom.Rect{X: 1, Y: 1, Width: 4, Height: 4})
	if got := dst.At(1, 1); got != NewARGB(255, 1, 1, 1) {
		t.Fatalf("in-bounds corner should still be copied, got %08x", uint32(got))
	}
}
