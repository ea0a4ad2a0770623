package window

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/brianmayclone/anyos-sub003/pixel"
)

// Theme is the small palette chrome rendering draws from. The compositor
// owns one theme and passes it in by value on every chrome render, so a
// live theme change just invalidates every chrome cache (see session's
// broadcast-and-cache approach, recorded in DESIGN.md).
type Theme struct {
	TitleBarActive   pixel.ARGB
	TitleBarInactive pixel.ARGB
	Border           pixel.ARGB
	TitleText        pixel.ARGB
	ButtonClose      pixel.ARGB
	ButtonMinimize   pixel.ARGB
	ButtonMaximize   pixel.ARGB
	ButtonDisabled   pixel.ARGB
}

// DefaultTheme is used until the session loop loads a user theme.
var DefaultTheme = Theme{
	TitleBarActive:   pixel.NewARGB(255, 60, 63, 68),
	TitleBarInactive: pixel.NewARGB(255, 40, 42, 46),
	Border:           pixel.NewARGB(255, 20, 20, 22),
	TitleText:        pixel.NewARGB(255, 230, 230, 230),
	ButtonClose:      pixel.NewARGB(255, 232, 90, 86),
	ButtonMinimize:   pixel.NewARGB(255, 241, 191, 71),
	ButtonMaximize:   pixel.NewARGB(255, 100, 200, 96),
	ButtonDisabled:   pixel.NewARGB(255, 100, 100, 100),
}

// LightTheme is used whenever state.Shared reports the light theme,
// selected by SET_THEME's 0=dark/1=light argument.
var LightTheme = Theme{
	TitleBarActive:   pixel.NewARGB(255, 225, 225, 228),
	TitleBarInactive: pixel.NewARGB(255, 242, 242, 244),
	Border:           pixel.NewARGB(255, 190, 190, 192),
	TitleText:        pixel.NewARGB(255, 20, 20, 20),
	ButtonClose:      pixel.NewARGB(255, 232, 90, 86),
	ButtonMinimize:   pixel.NewARGB(255, 241, 191, 71),
	ButtonMaximize:   pixel.NewARGB(255, 100, 200, 96),
	ButtonDisabled:   pixel.NewARGB(255, 180, 180, 180),
}

const (
	buttonRadius  = 6
	buttonSpacing = 20
	buttonMargin  = 10
)

// Chrome returns the cached chrome bitmap for w, rendering it first if the
// cache was invalidated. focused selects the active/inactive title-bar
// color. Borderless windows have no chrome; Chrome returns nil for them.
func (s *Store) Chrome(id ID, theme Theme) (*pixel.Buffer, error) {
	w, ok := s.windows[id]
	if !ok {
		return nil, ErrNotFound
	}
	if w.Flags.has(Borderless) {
		return nil, nil
	}
	if w.chromeValid && w.chrome != nil {
		return w.chrome, nil
	}

	width, height := int(w.OuterRect.Width), int(w.OuterRect.Height)
	buf := pixel.NewBuffer(width, height)

	barColor := theme.TitleBarActive
	if s.focused != id {
		barColor = theme.TitleBarInactive
	}
	pixel.FillRect(buf, 0, 0, width, TitleBarHeight, barColor)
	pixel.Outline(buf, 0, 0, width, height, theme.Border)

	cy := TitleBarHeight / 2
	drawButton(buf, width-buttonMargin, cy, theme.ButtonClose, w.Flags.has(NoClose), theme.ButtonDisabled)
	drawButton(buf, width-buttonMargin-buttonSpacing, cy, theme.ButtonMaximize, w.Flags.has(NoMax), theme.ButtonDisabled)
	drawButton(buf, width-buttonMargin-2*buttonSpacing, cy, theme.ButtonMinimize, w.Flags.has(NoMin), theme.ButtonDisabled)

	drawCenteredTitle(buf, w.Title, width, TitleBarHeight, theme.TitleText)

	w.chrome = buf
	w.chromeValid = true
	return buf, nil
}

func drawButton(buf *pixel.Buffer, cx, cy int, c pixel.ARGB, disabled bool, disabledColor pixel.ARGB) {
	if disabled {
		c = disabledColor
	}
	pixel.Circle(buf, cx, cy, buttonRadius, c)
}

// drawCenteredTitle rasterizes title with a fixed 7x13 bitmap font,
// horizontally centered, and alpha-blends it into buf's title-bar band.
// Grounded on x/image's own font-rendering idiom (font.Drawer over an
// image.Image); the intermediate image.NRGBA is copied pixel-by-pixel into
// the ARGB buffer since pixel.Buffer is not an image.Image.
func drawCenteredTitle(buf *pixel.Buffer, title string, width, barHeight int, c pixel.ARGB) {
	if title == "" {
		return
	}
	face := basicfont.Face7x13
	advance := font.MeasureString(face, title).Round()
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
	drawer.DrawString(title)

	originX := (width - advance) / 2
	if originX < 0 {
		originX = 0
	}
	originY := (barHeight - textH) / 2
	for y := 0; y < textH; y++ {
		for x := 0; x < advance; x++ {
			r, g, b, a := img.At(x, y).RGBA()
			if a == 0 {
				continue
			}
			src := pixel.NewARGB(uint8(a>>8), uint8(r>>8), uint8(g>>8), uint8(b>>8))
			dstX, dstY := originX+x, originY+y
			buf.Set(dstX, dstY, pixel.Over(buf.At(dstX, dstY), src))
		}
	}
}

// HitButton reports which chrome button (if any) contains the local point
// (lx, ly) within an outer-rect-relative coordinate, or "" if none.
func HitButton(w *Window, lx, ly int32) string {
	if w.Flags.has(Borderless) {
		return ""
	}
	width := int32(w.OuterRect.Width)
	cy := int32(TitleBarHeight / 2)
	if ly < 0 || ly >= TitleBarHeight {
		return ""
	}
	hit := func(cx int32) bool {
		dx, dy := lx-cx, ly-cy
		return dx*dx+dy*dy <= buttonRadius*buttonRadius
	}
	switch {
	case !w.Flags.has(NoClose) && hit(width-buttonMargin):
		return "close"
	case !w.Flags.has(NoMax) && hit(width-buttonMargin-buttonSpacing):
		return "maximize"
	case !w.Flags.has(NoMin) && hit(width-buttonMargin-2*buttonSpacing):
		return "minimize"
	}
	return ""
}
