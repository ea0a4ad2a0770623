package layer

import (
	"testing"

	"github.com/brianmayclone/anyos-sub003/geom"
)

func order(s *Stack) []ID {
	var out []ID
	s.IterBackToFront(func(l *Layer) bool {
		out = append(out, l.ID)
		return true
	})
	return out
}

func TestTiersStayContiguous(t *testing.T) {
	s := NewStack()
	bg := s.Add(geom.Rect{Width: 10, Height: 10}, true, TierBackground)
	w1 := s.Add(geom.Rect{Width: 5, Height: 5}, true, TierNormal)
	w2 := s.Add(geom.Rect{Width: 5, Height: 5}, true, TierNormal)
	top := s.Add(geom.Rect{Width: 5, Height: 5}, false, TierAlwaysOnTop)

	got := order(s)
	want := []ID{bg, w1, w2, top}
	if !equal(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}

	if err := s.Raise(w1); err != nil {
		t.Fatal(err)
	}
	got = order(s)
	want = []ID{bg, w2, w1, top}
	if !equal(got, want) {
		t.Fatalf("after raise: order = %v, want %v", got, want)
	}
}

func TestRaiseCannotCrossTierBoundary(t *testing.T) {
	s := NewStack()
	w1 := s.Add(geom.Rect{Width: 5, Height: 5}, true, TierNormal)
	top := s.Add(geom.Rect{Width: 5, Height: 5}, false, TierAlwaysOnTop)

	if err := s.Raise(w1); err != nil {
		t.Fatal(err)
	}
	got := order(s)
	want := []ID{w1, top}
	if !equal(got, want) {
		t.Fatalf("raising w1 must never place it above the always-on-top tier: %v", got)
	}
}

func TestTopHitPicksFrontmost(t *testing.T) {
	s := NewStack()
	s.Add(geom.Rect{X: 0, Y: 0, Width: 10, Height: 10}, true, TierBackground)
	top := s.Add(geom.Rect{X: 0, Y: 0, Width: 10, Height: 10}, false, TierNormal)

	hit := s.TopHit(5, 5)
	if hit == nil || hit.ID != top {
		t.Fatalf("TopHit should find the frontmost overlapping layer")
	}
	if s.TopHit(100, 100) != nil {
		t.Fatal("TopHit outside every rect should return nil")
	}
}

func TestRemoveAndLen(t *testing.T) {
	s := NewStack()
	id := s.Add(geom.Rect{Width: 1, Height: 1}, true, TierNormal)
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
	if err := s.Remove(id); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 0 {
		t.Fatalf("Len after remove = %d, want 0", s.Len())
	}
	if err := s.Remove(id); err != ErrNotFound {
		t.Fatalf("double remove should return ErrNotFound, got %v", err)
	}
}

func equal(a, b []ID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
