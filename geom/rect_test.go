package geom

import "testing"

func TestRectIntersect(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	b := Rect{X: 5, Y: 5, Width: 10, Height: 10}
	got := a.Intersect(b)
	want := Rect{X: 5, Y: 5, Width: 5, Height: 5}
	if got != want {
		t.Fatalf("Intersect = %+v, want %+v", got, want)
	}

	c := Rect{X: 20, Y: 20, Width: 5, Height: 5}
	if got := a.Intersect(c); !got.Empty() {
		t.Fatalf("disjoint Intersect = %+v, want empty", got)
	}
}

func TestRectUnionEmptySide(t *testing.T) {
	a := Rect{X: 1, Y: 2, Width: 3, Height: 4}
	if got := (Rect{}).Union(a); got != a {
		t.Fatalf("Union(empty, a) = %+v, want %+v", got, a)
	}
	if got := a.Union(Rect{}); got != a {
		t.Fatalf("Union(a, empty) = %+v, want %+v", got, a)
	}
}

func TestRectUnionCovers(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 2, Height: 2}
	b := Rect{X: 8, Y: 8, Width: 2, Height: 2}
	got := a.Union(b)
	want := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	if got != want {
		t.Fatalf("Union = %+v, want %+v", got, want)
	}
}

func TestRectContains(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 5, Height: 5}
	if !r.Contains(10, 10) {
		t.Fatal("expected top-left corner contained")
	}
	if r.Contains(15, 10) {
		t.Fatal("right edge is exclusive")
	}
	if (Rect{}).Contains(0, 0) {
		t.Fatal("empty rect contains nothing")
	}
}

func TestTileGridSingleTile(t *testing.T) {
	g := NewTileGrid(640, 480)
	colLo, rowLo, colHi, rowHi, ok := g.CoveringTiles(Rect{X: 1, Y: 1, Width: 1, Height: 1})
	if !ok || colLo != 0 || rowLo != 0 || colHi != 0 || rowHi != 0 {
		t.Fatalf("1x1 rect should touch exactly tile (0,0), got (%d,%d)-(%d,%d) ok=%v", colLo, rowLo, colHi, rowHi, ok)
	}
}

func TestTileGridCeilDiv(t *testing.T) {
	g := NewTileGrid(640, 480)
	if g.Cols != 10 || g.Rows != 8 {
		t.Fatalf("640x480 should be a 10x8 grid of 64px tiles, got %dx%d", g.Cols, g.Rows)
	}
	g2 := NewTileGrid(100, 100)
	if g2.Cols != 2 || g2.Rows != 2 {
		t.Fatalf("100x100 should ceil to 2x2 tiles, got %dx%d", g2.Cols, g2.Rows)
	}
}

func TestTileGridOffscreenRect(t *testing.T) {
	g := NewTileGrid(640, 480)
	_, _, _, _, ok := g.CoveringTiles(Rect{X: 1000, Y: 1000, Width: 10, Height: 10})
	if ok {
		t.Fatal("fully offscreen rect should touch no tile")
	}
}
