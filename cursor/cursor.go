package cursor

import (
	"time"

	"github.com/brianmayclone/anyos-sub003/geom"
	"github.com/brianmayclone/anyos-sub003/pixel"
)

// Cursor tracks pointer position and, on the software path, the pixels it
// currently occludes so they can be restored before the next move.
type Cursor struct {
	bitmap     *pixel.Buffer
	hotX, hotY int32
	x, y       int32
	visible    bool

	hw HardwareCursor

	underBuf   *pixel.Buffer
	underValid bool
	underX     int32
	underY     int32

	blinkEnabled bool
	blinkOn      bool
	blinkRect    geom.Rect
	lastBlink    time.Time
}

// New creates a software cursor with the given bitmap and hotspot. Call
// SetHardware to switch it onto the hardware-cursor fast path.
func New(bitmap *pixel.Buffer, hotX, hotY int32) *Cursor {
	return &Cursor{
		bitmap:   bitmap,
		hotX:     hotX,
		hotY:     hotY,
		visible:  true,
		underBuf: pixel.NewBuffer(bitmap.Width, bitmap.Height),
	}
}

// SetHardware wires in a hardware cursor plane. Once set, Move and
// SetVisible push state to it and never touch the framebuffer.
func (c *Cursor) SetHardware(hw HardwareCursor) { c.hw = hw }

// Hardware reports whether a hardware cursor plane is in use.
func (c *Cursor) Hardware() bool { return c.hw != nil }

// Rect returns the cursor's current screen-space rectangle (bitmap size,
// positioned by its hotspot).
func (c *Cursor) Rect() geom.Rect {
	return geom.Rect{
		X:      c.x - c.hotX,
		Y:      c.y - c.hotY,
		Width:  uint32(c.bitmap.Width),
		Height: uint32(c.bitmap.Height),
	}
}

// Move updates the cursor position. On the hardware path this only pushes
// position and returns no damage. On the software path it restores the
// pixels under the old position, saves the pixels under the new one, blends
// the bitmap in, and returns the old and new rects as damage.
func (c *Cursor) Move(fb *pixel.Buffer, x, y int32) []geom.Rect {
	c.x, c.y = x, y
	if c.hw != nil {
		c.hw.SetCursorPosition(x, y)
		return nil
	}
	if !c.visible {
		return nil
	}

	var damaged []geom.Rect
	if c.underValid {
		pixel.CopyInto(fb, int(c.underX), int(c.underY), c.underBuf)
		damaged = append(damaged, geom.Rect{X: c.underX, Y: c.underY, Width: uint32(c.bitmap.Width), Height: uint32(c.bitmap.Height)})
	}

	r := c.Rect()
	c.saveUnder(fb, r.X, r.Y)
	pixel.BlendInto(fb, int(r.X), int(r.Y), c.bitmap)
	return append(damaged, r)
}

func (c *Cursor) saveUnder(fb *pixel.Buffer, x, y int32) {
	c.underBuf.Resize(c.bitmap.Width, c.bitmap.Height)
	for row := 0; row < c.bitmap.Height; row++ {
		for col := 0; col < c.bitmap.Width; col++ {
			c.underBuf.Set(col, row, fb.At(int(x)+col, int(y)+row))
		}
	}
	c.underX, c.underY = x, y
	c.underValid = true
}

// RestoreUnder paints back whatever the cursor currently occludes without
// moving it, for callers that need it off the framebuffer ahead of a full
// redraw. No-op on the hardware path or if nothing has been saved yet.
func (c *Cursor) RestoreUnder(fb *pixel.Buffer) *geom.Rect {
	if c.hw != nil || !c.underValid {
		return nil
	}
	pixel.CopyInto(fb, int(c.underX), int(c.underY), c.underBuf)
	r := geom.Rect{X: c.underX, Y: c.underY, Width: uint32(c.bitmap.Width), Height: uint32(c.bitmap.Height)}
	c.underValid = false
	return &r
}

// SetVisible toggles cursor visibility, returning the rect damaged by the
// change (nil on the hardware path, where visibility is pushed directly).
func (c *Cursor) SetVisible(fb *pixel.Buffer, visible bool) *geom.Rect {
	if c.hw != nil {
		c.hw.SetCursorVisible(visible)
		c.visible = visible
		return nil
	}
	if visible == c.visible {
		return nil
	}
	c.visible = visible
	if !visible {
		return c.RestoreUnder(fb)
	}
	r := c.Rect()
	c.saveUnder(fb, r.X, r.Y)
	pixel.BlendInto(fb, int(r.X), int(r.Y), c.bitmap)
	return &r
}

// EnableBlink arms the caret blink cycle over rect r, starting lit, as of
// now.
func (c *Cursor) EnableBlink(r geom.Rect, now time.Time) {
	c.blinkEnabled = true
	c.blinkRect = r
	c.blinkOn = true
	c.lastBlink = now
}

// DisableBlink stops the blink cycle (the dialog that wanted a caret closed
// or lost focus).
func (c *Cursor) DisableBlink() { c.blinkEnabled = false }

// BlinkOn reports the caret's current on/off phase.
func (c *Cursor) BlinkOn() bool { return c.blinkOn }

// Tick advances the blink state if BlinkInterval has elapsed since the last
// toggle, returning the caret rect as damage when it flipped.
func (c *Cursor) Tick(now time.Time) *geom.Rect {
	if !c.blinkEnabled {
		return nil
	}
	if now.Sub(c.lastBlink) < BlinkInterval {
		return nil
	}
	c.blinkOn = !c.blinkOn
	c.lastBlink = now
	r := c.blinkRect
	return &r
}
