// Package pixel implements the compositor's per-pixel operations: alpha
// blending, solid fill, and the outline/rounded-rect helpers used by window
// chrome and menu rendering. Buffers are tightly packed ARGB, 4 bytes per
// pixel, row-major — the same layout the teacher's video_compositor.go
// blends directly with unsafe uint32 reads.
package pixel

import (
	"encoding/binary"
	"math"

	"github.com/brianmayclone/anyos-sub003/geom"
)

// BytesPerPixel is the fixed stride of an ARGB pixel.
const BytesPerPixel = 4

// ARGB is a 32-bit pixel, byte order A R G B from high to low, per spec §3.
type ARGB uint32

// NewARGB packs components into a pixel.
func NewARGB(a, r, g, b uint8) ARGB {
	return ARGB(uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

func (p ARGB) A() uint8 { return uint8(p >> 24) }
func (p ARGB) R() uint8 { return uint8(p >> 16) }
func (p ARGB) G() uint8 { return uint8(p >> 8) }
func (p ARGB) B() uint8 { return uint8(p) }

// Buffer is a simple owned ARGB pixel store with a row stride equal to its
// width (no padding) — the same assumption the teacher's FrameSnapshot and
// ScreenBuffer make.
type Buffer struct {
	Width, Height int
	Pix           []byte // len == Width*Height*BytesPerPixel
}

// NewBuffer allocates a zeroed (transparent black) buffer.
func NewBuffer(w, h int) *Buffer {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Buffer{Width: w, Height: h, Pix: make([]byte, w*h*BytesPerPixel)}
}

// Resize reallocates Pix if the dimensions changed, discarding old content.
func (b *Buffer) Resize(w, h int) {
	if w == b.Width && h == b.Height {
		return
	}
	b.Width, b.Height = w, h
	b.Pix = make([]byte, w*h*BytesPerPixel)
}

// At reads the pixel at (x, y). Out-of-bounds reads return transparent black.
func (b *Buffer) At(x, y int) ARGB {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return 0
	}
	off := (y*b.Width + x) * BytesPerPixel
	return ARGB(binary.BigEndian.Uint32(b.Pix[off : off+4]))
}

// Set writes the pixel at (x, y). Out-of-bounds writes are silently dropped
// — compose-time pixel math is impossible to get wrong by construction per
// spec §7, because every caller clips to bounds via geom.Rect.Intersect
// before reaching here.
func (b *Buffer) Set(x, y int, p ARGB) {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return
	}
	off := (y*b.Width + x) * BytesPerPixel
	binary.BigEndian.PutUint32(b.Pix[off:off+4], uint32(p))
}

// Fill paints the entire buffer with a solid color.
func Fill(b *Buffer, c ARGB) {
	FillRect(b, 0, 0, b.Width, b.Height, c)
}

// FillRect paints a w x h solid rectangle at (x, y), clipped to the buffer.
func FillRect(b *Buffer, x, y, w, h int, c ARGB) {
	x0, y0, x1, y1 := clip(b, x, y, w, h)
	for yy := y0; yy < y1; yy++ {
		for xx := x0; xx < x1; xx++ {
			b.Set(xx, yy, c)
		}
	}
}

func clip(b *Buffer, x, y, w, h int) (x0, y0, x1, y1 int) {
	x0, y0 = max(x, 0), max(y, 0)
	x1, y1 = min(x+w, b.Width), min(y+h, b.Height)
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return
}

// Over blends src atop dst using straight-alpha, non-associative "over"
// math per spec §4.11: out = src + dst*(1-src.a), computed component-wise
// on un-premultiplied channels with the result alpha clamped to 255.
func Over(dst, src ARGB) ARGB {
	sa := float64(src.A()) / 255
	if sa >= 1 {
		return src
	}
	if sa <= 0 {
		return dst
	}
	da := 1 - sa
	blend := func(s, d uint8) uint8 {
		v := float64(s)*sa + float64(d)*da
		if v > 255 {
			v = 255
		}
		return uint8(math.Round(v))
	}
	outA := uint16(src.A()) + uint16(float64(dst.A())*da)
	if outA > 255 {
		outA = 255
	}
	return NewARGB(uint8(outA), blend(src.R(), dst.R()), blend(src.G(), dst.G()), blend(src.B(), dst.B()))
}

// BlendInto alpha-composites src onto dst at (dstX, dstY), clipped to dst's
// bounds. Opaque source pixels (alpha 255) are copied directly; this is the
// fast path the compose engine takes for opaque layers per spec §4.11.
func BlendInto(dst *Buffer, dstX, dstY int, src *Buffer) {
	x0, y0, x1, y1 := clip(dst, dstX, dstY, src.Width, src.Height)
	for yy := y0; yy < y1; yy++ {
		srcY := yy - dstY
		for xx := x0; xx < x1; xx++ {
			srcX := xx - dstX
			s := src.At(srcX, srcY)
			if s.A() == 0 {
				continue
			}
			if s.A() == 255 {
				dst.Set(xx, yy, s)
				continue
			}
			dst.Set(xx, yy, Over(dst.At(xx, yy), s))
		}
	}
}

// CopyInto copies src onto dst at (dstX, dstY) verbatim, ignoring alpha —
// used for opaque layers (the background, opaque window content).
func CopyInto(dst *Buffer, dstX, dstY int, src *Buffer) {
	x0, y0, x1, y1 := clip(dst, dstX, dstY, src.Width, src.Height)
	if x1 <= x0 {
		return
	}
	rowBytes := (x1 - x0) * BytesPerPixel
	for yy := y0; yy < y1; yy++ {
		srcY := yy - dstY
		srcOff := (srcY*src.Width + (x0 - dstX)) * BytesPerPixel
		dstOff := (yy*dst.Width + x0) * BytesPerPixel
		copy(dst.Pix[dstOff:dstOff+rowBytes], src.Pix[srcOff:srcOff+rowBytes])
	}
}

// CopyIntoRect copies the region r verbatim from src into dst, both
// assumed to share the same coordinate space and dimensions (two views of
// the same screen) — the row-restricted update a CPU presentation path
// does for each dirty rect rather than re-copying the whole surface.
func CopyIntoRect(dst, src *Buffer, r geom.Rect) {
	x0, y0, x1, y1 := clip(dst, int(r.X), int(r.Y), int(r.Width), int(r.Height))
	if x1 <= x0 {
		return
	}
	rowBytes := (x1 - x0) * BytesPerPixel
	for yy := y0; yy < y1; yy++ {
		off := (yy*dst.Width + x0) * BytesPerPixel
		srcOff := (yy*src.Width + x0) * BytesPerPixel
		if srcOff+rowBytes > len(src.Pix) || off+rowBytes > len(dst.Pix) {
			continue
		}
		copy(dst.Pix[off:off+rowBytes], src.Pix[srcOff:srcOff+rowBytes])
	}
}

// Outline draws a 1px rectangular border.
func Outline(b *Buffer, x, y, w, h int, c ARGB) {
	if w <= 0 || h <= 0 {
		return
	}
	FillRect(b, x, y, w, 1, c)
	FillRect(b, x, y+h-1, w, 1, c)
	FillRect(b, x, y, 1, h, c)
	FillRect(b, x+w-1, y, 1, h, c)
}

// RoundedRect fills a rectangle with its four corners cut to an approximate
// radius-r circle, matching the chrome/menu-selection style described in
// spec §4.4 and §4.7.
func RoundedRect(b *Buffer, x, y, w, h, r int, c ARGB) {
	if r <= 0 {
		FillRect(b, x, y, w, h, c)
		return
	}
	if r*2 > w {
		r = w / 2
	}
	if r*2 > h {
		r = h / 2
	}
	for yy := 0; yy < h; yy++ {
		for xx := 0; xx < w; xx++ {
			if inRoundedRect(xx, yy, w, h, r) {
				b.Set(x+xx, y+yy, c)
			}
		}
	}
}

func inRoundedRect(x, y, w, h, r int) bool {
	cx, cy := 0, 0
	switch {
	case x < r && y < r:
		cx, cy = r, r
	case x >= w-r && y < r:
		cx, cy = w-r-1, r
	case x < r && y >= h-r:
		cx, cy = r, h-r-1
	case x >= w-r && y >= h-r:
		cx, cy = w-r-1, h-r-1
	default:
		return true
	}
	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy <= r*r
}

// Circle fills a filled disc of the given radius centered at (cx, cy),
// used for window-chrome traffic-light buttons.
func Circle(b *Buffer, cx, cy, radius int, c ARGB) {
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y <= radius*radius {
				b.Set(cx+x, cy+y, c)
			}
		}
	}
}
