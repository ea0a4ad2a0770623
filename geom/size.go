package geom

// Size is a plain width/height pair, used where a rect's position is
// irrelevant (interior paint sizes, resize requests).
type Size struct {
	Width  uint32
	Height uint32
}

// Empty reports whether either dimension is zero.
func (s Size) Empty() bool { return s.Width == 0 || s.Height == 0 }
