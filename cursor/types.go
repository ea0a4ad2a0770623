// Package cursor implements the pointer and text-caret rendering of spec
// §4.8: a hardware-cursor fast path when the kernel exposes one, and a
// restore-under software path otherwise, plus the 500ms caret blink used by
// certain dialogs.
//
// No teacher equivalent exists — the teacher's video backends have no
// notion of a compositor-owned cursor — so this is new code, grounded on
// the SpriteCapable/PaletteCapable shape of video_interface.go's optional
// capability interfaces for HardwareCursor, and on pixel's existing
// blend/copy primitives for the software path.
package cursor

import "time"

// BlinkInterval is the 500ms toggle period spec §4.8 mandates for the
// text-caret carrier.
const BlinkInterval = 500 * time.Millisecond

// HardwareCursor is implemented by a kernel backend that owns a real cursor
// plane. When wired in, the compositor only ever pushes position and
// visibility; it never paints a cursor into the framebuffer.
type HardwareCursor interface {
	SetCursorPosition(x, y int32) error
	SetCursorVisible(visible bool) error
}
