package gpu

import (
	"testing"

	"github.com/brianmayclone/anyos-sub003/geom"
	"github.com/brianmayclone/anyos-sub003/pixel"
)

func TestNullDevicePresentCopiesDirtyRectOnly(t *testing.T) {
	d := NewNullDevice(4, 4)
	fb := pixel.NewBuffer(4, 4)
	pixel.Fill(fb, pixel.NewARGB(255, 9, 9, 9))

	if err := d.Present(fb, []geom.Rect{{X: 1, Y: 1, Width: 2, Height: 2}}); err != nil {
		t.Fatalf("Present returned an error: %v", err)
	}

	snap := d.Snapshot()
	if got := snap.At(1, 1); got != pixel.NewARGB(255, 9, 9, 9) {
		t.Fatalf("dirty rect should have been copied, got %08x", uint32(got))
	}
	if got := snap.At(0, 0); got != 0 {
		t.Fatalf("pixel outside the dirty rect must be untouched, got %08x", uint32(got))
	}
}

func TestNullDeviceResizesToMatchFramebuffer(t *testing.T) {
	d := NewNullDevice(2, 2)
	fb := pixel.NewBuffer(8, 6)
	pixel.Fill(fb, pixel.NewARGB(255, 1, 1, 1))

	_ = d.Present(fb, []geom.Rect{{X: 0, Y: 0, Width: 8, Height: 6}})

	snap := d.Snapshot()
	if snap.Width != 8 || snap.Height != 6 {
		t.Fatalf("NullDevice should resize its primary surface to match fb, got %dx%d", snap.Width, snap.Height)
	}
}

func TestNullDeviceCountsPresents(t *testing.T) {
	d := NewNullDevice(2, 2)
	fb := pixel.NewBuffer(2, 2)
	_ = d.Present(fb, []geom.Rect{{X: 0, Y: 0, Width: 2, Height: 2}})
	_ = d.Present(fb, nil)
	if got := d.Presents(); got != 2 {
		t.Fatalf("Presents() = %d, want 2", got)
	}
}

func TestNullDeviceSkipsRectOutsideBounds(t *testing.T) {
	d := NewNullDevice(2, 2)
	fb := pixel.NewBuffer(2, 2)
	pixel.Fill(fb, pixel.NewARGB(255, 5, 5, 5))
	// A rect entirely outside the buffer must not panic.
	if err := d.Present(fb, []geom.Rect{{X: 10, Y: 10, Width: 2, Height: 2}}); err != nil {
		t.Fatalf("out-of-bounds rect should be a no-op, not an error: %v", err)
	}
}
