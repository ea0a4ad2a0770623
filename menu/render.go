package menu

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/brianmayclone/anyos-sub003/pixel"
)

var (
	barColor       = pixel.NewARGB(255, 0xe8, 0xe8, 0xe8)
	titleTextColor = pixel.NewARGB(255, 0x20, 0x20, 0x20)
	dropdownColor  = pixel.NewARGB(255, 0xf4, 0xf4, 0xf4)
	hoverColor     = pixel.NewARGB(255, 0x3a, 0x7b, 0xd5)
	hoverTextColor = pixel.NewARGB(255, 0xff, 0xff, 0xff)
	disabledColor  = pixel.NewARGB(255, 0xa0, 0xa0, 0xa0)
	separatorColor = pixel.NewARGB(255, 0xc8, 0xc8, 0xc8)
)

func titleTextWidth(s string) int {
	return font.MeasureString(basicfont.Face7x13, s).Round()
}

// Render paints the menu bar strip, any open dropdown, and the status icon
// tray into buf, a full-screen destination buffer.
func (b *Bar) Render(buf *pixel.Buffer) {
	pixel.FillRect(buf, 0, 0, int(b.screenWidth), BarHeight, barColor)

	def := b.defs[b.active]
	for _, tl := range b.layouts[b.active] {
		if def == nil || tl.menuIndex >= len(def.Menus) {
			continue
		}
		title := def.Menus[tl.menuIndex].Title
		c := titleTextColor
		if b.open != nil && b.open.WindowID == b.active && b.open.MenuIndex == tl.menuIndex {
			pixel.FillRect(buf, int(tl.x0), 0, int(tl.x1-tl.x0), BarHeight, hoverColor)
			c = hoverTextColor
		}
		drawText(buf, title, int(tl.x0)+titlePadding, BarHeight, c)
	}

	for _, ic := range b.statusIcons {
		drawIcon(buf, ic, (BarHeight-statusIconSize)/2)
	}

	if b.open != nil {
		b.renderDropdown(buf)
	}
}

func (b *Bar) renderDropdown(buf *pixel.Buffer) {
	def := b.defs[b.open.WindowID]
	if def == nil || b.open.MenuIndex >= len(def.Menus) {
		return
	}
	items := def.Menus[b.open.MenuIndex].Items
	h := int(b.dropdownHeight())
	x, y := int(b.open.X), int(b.open.Y)
	w := dropdownWidth

	pixel.FillRect(buf, x, y, w, h, dropdownColor)
	pixel.Outline(buf, x, y, w, h, separatorColor)

	cursorY := y
	for i, it := range items {
		if it.IsSeparator() {
			pixel.FillRect(buf, x+4, cursorY+separatorHeight/2, w-8, 1, separatorColor)
			cursorY += separatorHeight
			continue
		}
		c := titleTextColor
		if it.IsDisabled() {
			c = disabledColor
		} else if i == b.open.HoverItem {
			pixel.FillRect(buf, x, cursorY, w, itemHeight, hoverColor)
			c = hoverTextColor
		}
		label := it.Label
		if it.IsChecked() {
			label = "✓ " + label
		}
		drawText(buf, label, x+titlePadding, cursorY+itemHeight, c)
		cursorY += itemHeight
	}
}

func drawIcon(buf *pixel.Buffer, ic StatusIcon, y int) {
	if len(ic.Pixels) < statusIconSize*statusIconSize*4 {
		return
	}
	for row := 0; row < statusIconSize; row++ {
		for col := 0; col < statusIconSize; col++ {
			off := (row*statusIconSize + col) * 4
			src := pixel.NewARGB(ic.Pixels[off+3], ic.Pixels[off], ic.Pixels[off+1], ic.Pixels[off+2])
			dstX, dstY := int(ic.X)+col, y+row
			buf.Set(dstX, dstY, pixel.Over(buf.At(dstX, dstY), src))
		}
	}
}

// drawText rasterizes s left-aligned with its baseline at (x, baselineY),
// matching window/chrome.go's drawCenteredTitle but without the centering.
func drawText(buf *pixel.Buffer, s string, x, baselineY int, c pixel.ARGB) {
	if s == "" {
		return
	}
	face := basicfont.Face7x13
	advance := font.MeasureString(face, s).Round()
	if advance <= 0 {
		return
	}
	textH := face.Metrics().Height.Round()
	img := image.NewNRGBA(image.Rect(0, 0, advance, textH))
	drawer := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.NRGBA{R: c.R(), G: c.G(), B: c.B(), A: c.A()}),
		Face: face,
		Dot:  fixed.P(0, face.Metrics().Ascent.Round()),
	}
	drawer.DrawString(s)

	originY := baselineY - textH
	for row := 0; row < textH; row++ {
		for col := 0; col < advance; col++ {
			r, g, bl, a := img.At(col, row).RGBA()
			if a == 0 {
				continue
			}
			src := pixel.NewARGB(uint8(a>>8), uint8(r>>8), uint8(g>>8), uint8(bl>>8))
			dstX, dstY := x+col, originY+row
			buf.Set(dstX, dstY, pixel.Over(buf.At(dstX, dstY), src))
		}
	}
}
