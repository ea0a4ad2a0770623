package crashdialog

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/brianmayclone/anyos-sub003/pixel"
)

var (
	dialogBG    = pixel.NewARGB(255, 0xee, 0xee, 0xee)
	dialogBorder = pixel.NewARGB(255, 0x80, 0x80, 0x80)
	titleColor  = pixel.NewARGB(255, 0x20, 0x20, 0x20)
	messageColor = pixel.NewARGB(255, 0x40, 0x40, 0x40)
	buttonFill  = pixel.NewARGB(255, 0xd8, 0x3a, 0x3a)
	buttonText  = pixel.NewARGB(255, 0xff, 0xff, 0xff)
	iconFill    = pixel.NewARGB(255, 0xd8, 0x3a, 0x3a)
	iconGlyph   = pixel.NewARGB(255, 0xff, 0xff, 0xff)
)

func renderDialog(d *Dialog) *pixel.Buffer {
	buf := pixel.NewBuffer(int(d.width), int(d.height))
	pixel.RoundedRect(buf, 0, 0, int(d.width), int(d.height), 8, dialogBG)
	pixel.Outline(buf, 0, 0, int(d.width), int(d.height), dialogBorder)

	cx, cy := padding+iconSize/2, padding+iconSize/2
	pixel.Circle(buf, cx, cy, iconSize/2, iconFill)
	drawText(buf, "!", cx-3, cy+5, iconGlyph)

	textX := padding*2 + iconSize
	drawText(buf, d.Report.Title, textX, padding+14, titleColor)
	drawWrapped(buf, d.Report.Message, textX, padding+34, int(d.width)-textX-padding, messageColor)

	bx, by, bw, bh := d.quitButtonRect()
	pixel.RoundedRect(buf, int(bx), int(by), int(bw), int(bh), 4, buttonFill)
	label := "Quit"
	w := font.MeasureString(basicfont.Face7x13, label).Round()
	drawText(buf, label, int(bx)+(int(bw)-w)/2, int(by)+int(bh)/2+4, buttonText)

	return buf
}

func drawText(buf *pixel.Buffer, s string, x, baselineY int, c pixel.ARGB) {
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
	top := baselineY - face.Metrics().Ascent.Round()
	for row := 0; row < h; row++ {
		for col := 0; col < advance; col++ {
			_, _, _, a := img.At(col, row).RGBA()
			if a == 0 {
				continue
			}
			dstX, dstY := x+col, top+row
			src := pixel.NewARGB(uint8(a>>8), c.R(), c.G(), c.B())
			buf.Set(dstX, dstY, pixel.Over(buf.At(dstX, dstY), src))
		}
	}
}

// drawWrapped breaks s on spaces into lines no wider than maxWidth pixels,
// drawing each on its own 16px-tall row starting at (x, y).
func drawWrapped(buf *pixel.Buffer, s string, x, y, maxWidth int, c pixel.ARGB) {
	face := basicfont.Face7x13
	words := splitWords(s)
	line := ""
	row := 0
	flush := func() {
		if line == "" {
			return
		}
		drawText(buf, line, x, y+row*16, c)
		row++
		line = ""
	}
	for _, w := range words {
		candidate := w
		if line != "" {
			candidate = line + " " + w
		}
		if font.MeasureString(face, candidate).Round() > maxWidth && line != "" {
			flush()
			candidate = w
		}
		line = candidate
	}
	flush()
}

func splitWords(s string) []string {
	var words []string
	start := -1
	for i, r := range s {
		if r == ' ' {
			if start >= 0 {
				words = append(words, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, s[start:])
	}
	return words
}
