package desktopicons

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/brianmayclone/anyos-sub003/pixel"
)

var (
	selectionFill   = pixel.NewARGB(0x50, 0x30, 0x7a, 0xd8)
	selectionBorder = pixel.NewARGB(0xa0, 0x30, 0x7a, 0xd8)
	labelShadow     = pixel.NewARGB(0xc0, 0, 0, 0)
	labelColor      = pixel.NewARGB(255, 255, 255, 255)

	ctxBG       = pixel.NewARGB(0xf0, 0x30, 0x30, 0x35)
	ctxBorder   = pixel.NewARGB(255, 0x50, 0x50, 0x55)
	ctxHover    = pixel.NewARGB(255, 0x00, 0x58, 0xd0)
	ctxText     = pixel.NewARGB(255, 0xe0, 0xe0, 0xe0)
	ctxDisabled = pixel.NewARGB(255, 0x70, 0x70, 0x75)
	ctxSep      = pixel.NewARGB(255, 0x50, 0x50, 0x55)
)

// Render paints every icon (selection highlight, bitmap, label) and any
// open context menu onto the destination buffer — normally the background
// layer's own buffer, per spec §4.7.
func (m *Manager) Render(buf *pixel.Buffer) {
	for i, ic := range m.icons {
		m.renderIcon(buf, ic, i == m.selected)
	}
	if m.contextMenu != nil {
		m.renderContextMenu(buf)
	}
}

func (m *Manager) renderIcon(buf *pixel.Buffer, ic Icon, selected bool) {
	if selected {
		pixel.RoundedRect(buf, int(ic.X), int(ic.Y-2), CellWidth, CellHeight, 6, selectionFill)
		outlineRounded(buf, int(ic.X), int(ic.Y-2), CellWidth, CellHeight, selectionBorder)
	}

	iconX := int(ic.X) + (CellWidth-IconSize)/2
	iconY := int(ic.Y)
	blitRGBA(buf, ic.Pixels, IconSize, IconSize, iconX, iconY)

	if ic.Label == "" {
		return
	}
	face := basicfont.Face7x13
	w := font.MeasureString(face, ic.Label).Round()
	labelX := int(ic.X) + (CellWidth-w)/2
	labelY := iconY + IconSize + 4
	drawLabel(buf, ic.Label, labelX+1, labelY+1, labelShadow)
	drawLabel(buf, ic.Label, labelX, labelY, labelColor)
}

func blitRGBA(buf *pixel.Buffer, pix []byte, w, h, dstX, dstY int) {
	if len(pix) < w*h*4 {
		return
	}
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			off := (row*w + col) * 4
			a := pix[off+3]
			if a == 0 {
				continue
			}
			src := pixel.NewARGB(a, pix[off], pix[off+1], pix[off+2])
			x, y := dstX+col, dstY+row
			if a == 255 {
				buf.Set(x, y, src)
				continue
			}
			buf.Set(x, y, pixel.Over(buf.At(x, y), src))
		}
	}
}

func drawLabel(buf *pixel.Buffer, s string, x, y int, c pixel.ARGB) {
	face := basicfont.Face7x13
	advance := font.MeasureString(face, s).Round()
	if advance <= 0 {
		return
	}
	h := face.Metrics().Height.Round()
	img := image.NewNRGBA(image.Rect(0, 0, advance, h))
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.NRGBA{R: c.R(), G: c.G(), B: c.B(), A: c.A()}),
		Face: face,
		Dot:  fixed.P(0, face.Metrics().Ascent.Round()),
	}
	d.DrawString(s)
	for row := 0; row < h; row++ {
		for col := 0; col < advance; col++ {
			_, _, _, a := img.At(col, row).RGBA()
			if a == 0 {
				continue
			}
			dstX, dstY := x+col, y+row
			src := pixel.NewARGB(uint8(a>>8), c.R(), c.G(), c.B())
			buf.Set(dstX, dstY, pixel.Over(buf.At(dstX, dstY), src))
		}
	}
}

func outlineRounded(buf *pixel.Buffer, x, y, w, h int, c pixel.ARGB) {
	pixel.Outline(buf, x, y, w, h, c)
}

func (m *Manager) renderContextMenu(buf *pixel.Buffer) {
	cm := m.contextMenu
	x, y, w, h := int(cm.X), int(cm.Y), int(cm.Width), int(cm.Height)

	pixel.RoundedRect(buf, x, y, w, h, 6, ctxBG)
	pixel.Outline(buf, x, y, w, h, ctxBorder)

	for i, it := range cm.Items {
		iy := y + int(cm.ItemsY[i])
		if it.IsSeparator {
			pixel.FillRect(buf, x+8, iy+ctxSeparatorHeight/2, w-16, 1, ctxSep)
			continue
		}
		if cm.HoverIndex == i && it.Enabled {
			pixel.FillRect(buf, x+4, iy, w-8, ctxItemHeight, ctxHover)
		}
		c := ctxText
		switch {
		case !it.Enabled:
			c = ctxDisabled
		case cm.HoverIndex == i:
			c = pixel.NewARGB(255, 255, 255, 255)
		}
		face := basicfont.Face7x13
		th := face.Metrics().Height.Round()
		textY := iy + (ctxItemHeight-th)/2
		if textY < iy {
			textY = iy
		}
		drawLabel(buf, it.Label, x+16, textY+th, c)
	}
}
