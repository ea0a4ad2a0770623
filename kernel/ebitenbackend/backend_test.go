package ebitenbackend

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/brianmayclone/anyos-sub003/geom"
	"github.com/brianmayclone/anyos-sub003/input"
	"github.com/brianmayclone/anyos-sub003/kernel"
	"github.com/brianmayclone/anyos-sub003/pixel"
)

var _ kernel.Interface = (*Backend)(nil)

func TestScancodeForModifierKeysMatchWellKnownConstants(t *testing.T) {
	if got := scancodeFor(ebiten.KeyShiftLeft); got != input.ScLeftShift {
		t.Fatalf("KeyShiftLeft = %d, want %d", got, input.ScLeftShift)
	}
	if got := scancodeFor(ebiten.KeyControlRight); got != input.ScRightCtrl {
		t.Fatalf("KeyControlRight = %d, want %d", got, input.ScRightCtrl)
	}
}

func TestScancodeForOrdinaryKeyDoesNotCollideWithModifierRange(t *testing.T) {
	sc := scancodeFor(ebiten.KeyA)
	if sc >= input.ScLeftShift {
		t.Fatalf("ordinary key scancode %d collides with the modifier range starting at %d", sc, input.ScLeftShift)
	}
}

func TestArgbToRGBAConvertsOnlyGivenRect(t *testing.T) {
	buf := pixel.NewBuffer(4, 4)
	pixel.Fill(buf, pixel.NewARGB(0x80, 0x10, 0x20, 0x30))
	dst := make([]byte, 4*4*pixel.BytesPerPixel)

	argbToRGBA(dst, buf, geom.Rect{X: 1, Y: 1, Width: 2, Height: 2})

	off := (1*4 + 1) * pixel.BytesPerPixel
	if dst[off] != 0x10 || dst[off+1] != 0x20 || dst[off+2] != 0x30 || dst[off+3] != 0x80 {
		t.Fatalf("pixel (1,1) not converted to RGBA order, got % x", dst[off:off+4])
	}
	if dst[0] != 0 {
		t.Fatalf("pixel (0,0) outside the rect must be untouched, got %d", dst[0])
	}
}

func TestArgbToRGBAClipsToBufferBounds(t *testing.T) {
	buf := pixel.NewBuffer(2, 2)
	pixel.Fill(buf, pixel.NewARGB(255, 1, 1, 1))
	dst := make([]byte, 2*2*pixel.BytesPerPixel)
	// Must not panic when the rect runs off the buffer.
	argbToRGBA(dst, buf, geom.Rect{X: 0, Y: 0, Width: 10, Height: 10})
	if dst[0] != 1 {
		t.Fatalf("in-bounds pixel should still convert, got %d", dst[0])
	}
}
