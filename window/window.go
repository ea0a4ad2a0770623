// Package window implements the Window Store and chrome cache of spec
// §4.4: client-owned rectangles with chrome (title bar, buttons, border),
// resize handoff, and focus.
//
// Grounded on video_chip.go's double-buffer-plus-dirty-region discipline,
// generalized from "one dirty bitmap for the whole framebuffer" to "one
// cached chrome bitmap per window, invalidated on the fields that can
// change its pixels". The field layout follows original_source's window
// struct in libs/stdlib/src/ui/window.rs.
package window

import (
	"errors"

	"github.com/brianmayclone/anyos-sub003/geom"
	"github.com/brianmayclone/anyos-sub003/layer"
	"github.com/brianmayclone/anyos-sub003/pixel"
	"github.com/brianmayclone/anyos-sub003/shm"
)

// ErrNotFound is returned by operations referencing an unknown window id.
var ErrNotFound = errors.New("window: not found")

// ErrInvalidWindow is returned by Create when the requested rect is empty
// or the initial shared-memory handle cannot be mapped.
var ErrInvalidWindow = errors.New("window: invalid window")

// ID identifies a window. It doubles as the window's layer id, since every
// window is exactly one layer.
type ID = layer.ID

// Subscription is the kernel-issued event-channel receiver handle a client
// holds. Zero means no subscription.
type Subscription uint32

// ProcessID identifies the client process that created a window.
type ProcessID uint32

// Flags are the per-window chrome/behaviour bits from spec §3.
type Flags uint8

const (
	Borderless Flags = 1 << iota
	NotResizable
	AlwaysOnTop
	NoClose
	NoMin
	NoMax
)

func (f Flags) has(bit Flags) bool { return f&bit != 0 }

// TitleBarHeight is the fixed height, in pixels, of the chrome title-bar
// band at the top of a non-borderless window.
const TitleBarHeight = 24

// ResizePending is the bookkeeping a client's resize request leaves for
// the compose engine to apply atomically at the top of the next frame.
type ResizePending struct {
	NewSHM    shm.Handle
	NewClient geom.Size
}

// Window is one client-owned rectangle.
type Window struct {
	ID                ID
	OwnerSubscription Subscription
	OwnerProcess      ProcessID
	OuterRect         geom.Rect
	ClientSize        geom.Size
	Flags             Flags
	SHM               shm.Handle
	MenuBarDef        []byte
	Title             string
	Visible           bool
	Minimized         bool
	ResizePending     *ResizePending

	chrome      *pixel.Buffer
	chromeValid bool
}

// ClientRect returns the interior paint rectangle in outer-rect-local
// coordinates: the full outer rect when borderless, otherwise inset by
// the title-bar band.
func (w *Window) ClientRect() geom.Rect {
	r := geom.Rect{Width: w.OuterRect.Width, Height: w.OuterRect.Height}
	if w.Flags.has(Borderless) {
		return r
	}
	return r.Inset(TitleBarHeight, 0, 0, 0)
}

// invalidateChrome drops the cached chrome bitmap; it is rebuilt lazily by
// Store.Chrome on next use.
func (w *Window) invalidateChrome() {
	w.chromeValid = false
}
