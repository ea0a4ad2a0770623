package geom

// TileSize is the fixed edge length, in pixels, of a damage-tracking tile.
const TileSize = 64

// TileGrid describes how a WxH screen partitions into TileSize-aligned tiles.
type TileGrid struct {
	ScreenW, ScreenH int
	Cols, Rows       int
}

// NewTileGrid computes the ceil(W/64) x ceil(H/64) grid for a screen.
func NewTileGrid(w, h int) TileGrid {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return TileGrid{
		ScreenW: w,
		ScreenH: h,
		Cols:    ceilDiv(w, TileSize),
		Rows:    ceilDiv(h, TileSize),
	}
}

func ceilDiv(n, d int) int {
	if n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}

// TileRect returns the on-screen rectangle for tile (col, row), clipped to
// the screen bounds.
func (g TileGrid) TileRect(col, row int) Rect {
	x := col * TileSize
	y := row * TileSize
	w := TileSize
	h := TileSize
	if x+w > g.ScreenW {
		w = g.ScreenW - x
	}
	if y+h > g.ScreenH {
		h = g.ScreenH - y
	}
	if w <= 0 || h <= 0 {
		return Rect{}
	}
	return Rect{X: int32(x), Y: int32(y), Width: uint32(w), Height: uint32(h)}
}

// CoveringTiles returns the inclusive [colLo,colHi] x [rowLo,rowHi] tile
// range touched by r, clipped to the grid. ok is false if r touches no
// tile (e.g. it lies entirely outside the screen).
func (g TileGrid) CoveringTiles(r Rect) (colLo, rowLo, colHi, rowHi int, ok bool) {
	screen := Rect{Width: uint32(g.ScreenW), Height: uint32(g.ScreenH)}
	r = r.Intersect(screen)
	if r.Empty() {
		return 0, 0, 0, 0, false
	}
	colLo = int(r.X) / TileSize
	rowLo = int(r.Y) / TileSize
	colHi = (int(r.Right()) - 1) / TileSize
	rowHi = (int(r.Bottom()) - 1) / TileSize
	if colHi >= g.Cols {
		colHi = g.Cols - 1
	}
	if rowHi >= g.Rows {
		rowHi = g.Rows - 1
	}
	return colLo, rowLo, colHi, rowHi, true
}
