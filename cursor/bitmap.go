package cursor

import "github.com/brianmayclone/anyos-sub003/pixel"

// arrowMask is the stock pointer glyph: '.' transparent, 'X' black outline,
// 'o' white fill. The tip sits at (0, 0), which is also the hotspot.
var arrowMask = []string{
	"X...............",
	"XX..............",
	"XoX.............",
	"XooX............",
	"XoooX...........",
	"XooooX..........",
	"XoooooX.........",
	"XooooooX........",
	"XoooooooX.......",
	"XooooXXXX.......",
	"XooXooX.........",
	"XoX.XooX........",
	"XX..XooX........",
	"X....XooX.......",
	".....XXXX.......",
	"................",
}

// DefaultArrow builds the stock pointer bitmap and its hotspot offset.
func DefaultArrow() (*pixel.Buffer, int32, int32) {
	const black = 0xff000000
	const white = 0xffffffff
	w := len(arrowMask[0])
	h := len(arrowMask)
	buf := pixel.NewBuffer(w, h)
	for y, row := range arrowMask {
		for x := 0; x < len(row) && x < w; x++ {
			switch row[x] {
			case 'X':
				buf.Set(x, y, pixel.ARGB(black))
			case 'o':
				buf.Set(x, y, pixel.ARGB(white))
			}
		}
	}
	return buf, 0, 0
}
