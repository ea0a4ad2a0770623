// Package damage implements the tile-grained dirty tracker described in
// spec §3 (DamageSet) and §4.2: a bitmap over the screen's 64x64 tile grid
// plus a "full damage" flag, with a mark/drain cycle.
package damage

import "github.com/brianmayclone/anyos-sub003/geom"

// Set tracks dirty tiles for one screen. Zero value is usable after Resize.
type Set struct {
	grid  geom.TileGrid
	tiles []bool
	full  bool
}

// NewSet creates a tracker for a w x h screen.
func NewSet(w, h int) *Set {
	s := &Set{}
	s.Resize(w, h)
	return s
}

// Resize reallocates the tile bitmap for a new screen size and marks it
// fully dirty, per spec §4.2's resolution-change rule.
func (s *Set) Resize(w, h int) {
	s.grid = geom.NewTileGrid(w, h)
	s.tiles = make([]bool, s.grid.Cols*s.grid.Rows)
	s.MarkAll()
}

// Mark rasterizes rect to its covering tiles and sets their bits. A rect
// touching no tile (fully offscreen) is a no-op.
func (s *Set) Mark(r geom.Rect) {
	if s.full {
		return
	}
	colLo, rowLo, colHi, rowHi, ok := s.grid.CoveringTiles(r)
	if !ok {
		return
	}
	for row := rowLo; row <= rowHi; row++ {
		base := row * s.grid.Cols
		for col := colLo; col <= colHi; col++ {
			s.tiles[base+col] = true
		}
	}
}

// MarkAll sets the full-damage flag. Per spec invariant, while the flag is
// set no per-tile bit is examined.
func (s *Set) MarkAll() {
	s.full = true
}

// IsEmpty reports whether there is nothing to repaint.
func (s *Set) IsEmpty() bool {
	if s.full {
		return false
	}
	for _, dirty := range s.tiles {
		if dirty {
			return false
		}
	}
	return true
}

// Drain returns the dirty regions as a slice of screen-space rectangles and
// clears the tracker. When the full flag was set, the result is a single
// rectangle covering the whole screen; otherwise it is the union rect of
// each dirty tile, intersected with the screen bounds. After Drain,
// IsEmpty() holds.
func (s *Set) Drain() []geom.Rect {
	defer s.clear()

	screen := geom.Rect{Width: uint32(s.grid.ScreenW), Height: uint32(s.grid.ScreenH)}
	if s.full {
		if screen.Empty() {
			return nil
		}
		return []geom.Rect{screen}
	}

	var out []geom.Rect
	for row := 0; row < s.grid.Rows; row++ {
		base := row * s.grid.Cols
		for col := 0; col < s.grid.Cols; col++ {
			if s.tiles[base+col] {
				out = append(out, s.grid.TileRect(col, row).Intersect(screen))
			}
		}
	}
	return out
}

func (s *Set) clear() {
	s.full = false
	for i := range s.tiles {
		s.tiles[i] = false
	}
}
