// Package input implements the Input Router of spec §4.5: keymap
// translation, modifier tracking, cursor motion routing, and the
// click/drag/double-click state machine that turns raw kernel events into
// targeted window/menu/desktop events.
//
// Grounded on video_backend_ebiten.go's handleKeyboardInput /
// translateSpecialKey / handleClipboardPaste for the shape of a
// scancode-to-bytes translation pass with a modifier-gated special path,
// generalized from "always emit to one PTY" to "route to whichever layer
// currently owns the cursor or focus". The routing decision order follows
// original_source's input_poll → process_input flow in
// system/compositor/compositor/src/main.rs.
package input

// Type is the kind of a raw kernel input event.
type Type uint8

const (
	KeyDown Type = iota
	KeyUp
	MouseDown
	MouseUp
	MouseMove
	MouseScroll
)

// Event is the kernel-provided {type, a, b, c, d} tuple from spec §4.5.
// Field meaning depends on Type:
//   - Key{Down,Up}: A = scancode
//   - Mouse{Down,Up}: A = button, B = x, C = y
//   - MouseMove: A = x, B = y
//   - MouseScroll: A = delta
type Event struct {
	Type       Type
	A, B, C, D int32
}

// Button identifies a mouse button.
type Button int32

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
)
