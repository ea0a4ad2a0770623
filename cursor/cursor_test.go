package cursor

import (
	"testing"
	"time"

	"github.com/brianmayclone/anyos-sub003/geom"
	"github.com/brianmayclone/anyos-sub003/pixel"
)

func solidBitmap(w, h int, c pixel.ARGB) *pixel.Buffer {
	b := pixel.NewBuffer(w, h)
	pixel.Fill(b, c)
	return b
}

func TestSoftwareMoveRestoresPreviousPixels(t *testing.T) {
	fb := pixel.NewBuffer(64, 64)
	bg := pixel.NewARGB(255, 5, 5, 5)
	pixel.Fill(fb, bg)

	c := New(solidBitmap(4, 4, pixel.NewARGB(255, 200, 0, 0)), 0, 0)
	c.Move(fb, 10, 10)
	if got := fb.At(10, 10); got.R() != 200 {
		t.Fatalf("cursor bitmap should be blended at (10,10), got %v", got)
	}

	c.Move(fb, 30, 30)
	if got := fb.At(10, 10); got != bg {
		t.Fatalf("old cursor position should be restored to background, got %v want %v", got, bg)
	}
	if got := fb.At(30, 30); got.R() != 200 {
		t.Fatalf("cursor bitmap should now be at the new position, got %v", got)
	}
}

func TestMoveReturnsOldAndNewDamage(t *testing.T) {
	fb := pixel.NewBuffer(64, 64)
	c := New(solidBitmap(4, 4, pixel.NewARGB(255, 1, 1, 1)), 0, 0)
	c.Move(fb, 5, 5)
	damaged := c.Move(fb, 20, 20)
	if len(damaged) != 2 {
		t.Fatalf("want 2 damage rects (old+new) on a move after the first, got %d", len(damaged))
	}
}

func TestFirstMoveReturnsOnlyNewDamage(t *testing.T) {
	fb := pixel.NewBuffer(64, 64)
	c := New(solidBitmap(4, 4, pixel.NewARGB(255, 1, 1, 1)), 0, 0)
	damaged := c.Move(fb, 5, 5)
	if len(damaged) != 1 {
		t.Fatalf("the first move has nothing to restore, want 1 damage rect, got %d", len(damaged))
	}
}

type fakeHW struct {
	posX, posY int32
	visible    bool
	calls      int
}

func (f *fakeHW) SetCursorPosition(x, y int32) error { f.posX, f.posY = x, y; f.calls++; return nil }
func (f *fakeHW) SetCursorVisible(v bool) error      { f.visible = v; return nil }

func TestHardwareCursorNeverTouchesFramebuffer(t *testing.T) {
	fb := pixel.NewBuffer(64, 64)
	hw := &fakeHW{}
	c := New(solidBitmap(4, 4, pixel.NewARGB(255, 9, 9, 9)), 0, 0)
	c.SetHardware(hw)

	damaged := c.Move(fb, 12, 12)
	if damaged != nil {
		t.Fatal("the hardware path should report no framebuffer damage")
	}
	if hw.posX != 12 || hw.posY != 12 {
		t.Fatalf("hardware cursor position not pushed, got (%d,%d)", hw.posX, hw.posY)
	}
	if got := fb.At(12, 12); got != 0 {
		t.Fatal("the framebuffer must be untouched on the hardware path")
	}
}

func TestSetVisibleHidesAndRestores(t *testing.T) {
	fb := pixel.NewBuffer(64, 64)
	bg := pixel.NewARGB(255, 3, 3, 3)
	pixel.Fill(fb, bg)
	c := New(solidBitmap(4, 4, pixel.NewARGB(255, 250, 0, 0)), 0, 0)
	c.Move(fb, 10, 10)

	c.SetVisible(fb, false)
	if got := fb.At(10, 10); got != bg {
		t.Fatalf("hiding the cursor should restore the background, got %v", got)
	}

	c.SetVisible(fb, true)
	if got := fb.At(10, 10); got.R() != 250 {
		t.Fatal("showing the cursor again should re-blend it at its last position")
	}
}

func TestBlinkTogglesAfterInterval(t *testing.T) {
	c := New(solidBitmap(2, 2, 0), 0, 0)
	start := time.Unix(0, 0)
	c.EnableBlink(geom.Rect{X: 0, Y: 0, Width: 2, Height: 2}, start)
	if !c.BlinkOn() {
		t.Fatal("blink should start lit")
	}
	if r := c.Tick(start.Add(100 * time.Millisecond)); r != nil {
		t.Fatal("ticking before the interval elapses should not flip or damage")
	}
	r := c.Tick(start.Add(BlinkInterval + time.Millisecond))
	if r == nil {
		t.Fatal("ticking past the interval should flip and report damage")
	}
	if c.BlinkOn() {
		t.Fatal("blink should have flipped off")
	}
}

func TestDisableBlinkStopsTicking(t *testing.T) {
	c := New(solidBitmap(2, 2, 0), 0, 0)
	start := time.Unix(0, 0)
	c.EnableBlink(geom.Rect{}, start)
	c.DisableBlink()
	if r := c.Tick(start.Add(time.Hour)); r != nil {
		t.Fatal("a disabled blink should never report damage")
	}
}
