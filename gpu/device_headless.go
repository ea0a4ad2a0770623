//go:build headless

package gpu

import (
	"github.com/brianmayclone/anyos-sub003/geom"
	"github.com/brianmayclone/anyos-sub003/pixel"
)

// VulkanDevice wraps NullDevice in headless builds, same type name so the
// rest of the codebase compiles unchanged — the same trick
// voodoo_vulkan_headless.go plays on VulkanBackend.
type VulkanDevice struct {
	fallback *NullDevice
}

// NewVulkanDevice creates a headless blit device that always runs the CPU
// path.
func NewVulkanDevice(w, h int) (*VulkanDevice, error) {
	return &VulkanDevice{fallback: NewNullDevice(w, h)}, nil
}

func (d *VulkanDevice) Present(fb *pixel.Buffer, dirty []geom.Rect) error {
	return d.fallback.Present(fb, dirty)
}

func (d *VulkanDevice) Destroy() {}
