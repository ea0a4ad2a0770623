// Package gpu implements spec §4.11 step 6b's "GPU blit dirty rectangle"
// primitive: a Presenter that receives the composed framebuffer and the
// list of rects that changed this frame, and gets them onto the display.
//
// Grounded on voodoo_vulkan.go and voodoo_vulkan_headless.go's pattern of
// a hardware-backed device that always carries a software fallback, used
// unconditionally when no GPU is available rather than failing outright.
package gpu

import (
	"sync"

	"github.com/brianmayclone/anyos-sub003/geom"
	"github.com/brianmayclone/anyos-sub003/pixel"
)

// NullDevice is the CPU path spec §4.11 step 6b calls out explicitly:
// "otherwise a CPU memcpy from framebuffer back-buffer to primary is
// implied (single-buffered on the CPU path)". It keeps its own copy of the
// primary surface and updates only the rows touched by each dirty rect,
// the same row-restricted copy voodoo_vulkan.go's software backend falls
// back to when Vulkan init fails. Used directly by headless backends and
// tests, and as VulkanDevice's fallback when no Vulkan-capable GPU exists.
type NullDevice struct {
	mu       sync.Mutex
	primary  *pixel.Buffer
	presents uint64
}

// NewNullDevice creates a CPU presenter for a w x h screen.
func NewNullDevice(w, h int) *NullDevice {
	return &NullDevice{primary: pixel.NewBuffer(w, h)}
}

// Present copies each dirty rect from fb into the primary surface.
// Clipped to fb's own bounds; a rect outside fb is silently skipped, the
// same "never panic on a stale rect" guarantee geom.Rect.Intersect gives
// the rest of the compositor.
func (d *NullDevice) Present(fb *pixel.Buffer, dirty []geom.Rect) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.primary.Width != fb.Width || d.primary.Height != fb.Height {
		d.primary.Resize(fb.Width, fb.Height)
	}
	for _, r := range dirty {
		pixel.CopyIntoRect(d.primary, fb, r)
	}
	d.presents++
	return nil
}

// Snapshot returns the current primary surface, for tests and a headless
// kernel backend to read what would have reached the display.
func (d *NullDevice) Snapshot() *pixel.Buffer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.primary
}

// Presents reports how many frames have been handed to this device.
func (d *NullDevice) Presents() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.presents
}
