//go:build !headless

package gpu

import (
	"fmt"
	"sync"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/brianmayclone/anyos-sub003/geom"
	"github.com/brianmayclone/anyos-sub003/pixel"
)

var vulkanInitialized bool
var vulkanInitMutex sync.Mutex

// VulkanDevice is spec §4.11 step 6b's GPU path: it uploads dirty rects
// into a staging buffer and blits them into a device-local color image
// one command-buffer submission per frame. If no Vulkan-capable GPU is
// present, Init leaves it running on NullDevice instead of failing,
// mirroring voodoo_vulkan.go's VulkanBackend, which always carries a
// VoodooSoftwareBackend and transparently falls back to it.
type VulkanDevice struct {
	mu sync.Mutex

	width, height int
	initialized   bool
	fallback      *NullDevice

	instance       vk.Instance
	physicalDevice vk.PhysicalDevice
	device         vk.Device
	queue          vk.Queue
	queueFamily    uint32

	colorImage       vk.Image
	colorImageMemory vk.DeviceMemory

	stagingBuffer       vk.Buffer
	stagingBufferMemory vk.DeviceMemory
	stagingMapped       unsafe.Pointer

	commandPool   vk.CommandPool
	commandBuffer vk.CommandBuffer
	fence         vk.Fence
}

// NewVulkanDevice creates a blit device for a w x h screen. It never
// returns an error: a failed Vulkan probe just leaves the device running
// on its NullDevice fallback, same as the teacher's Init never failing
// the caller outright.
func NewVulkanDevice(w, h int) (*VulkanDevice, error) {
	d := &VulkanDevice{width: w, height: h, fallback: NewNullDevice(w, h)}
	if err := d.initVulkan(); err != nil {
		d.initialized = false
		return d, nil
	}
	d.initialized = true
	return d, nil
}

// Present uploads each dirty rect into the staging buffer and issues one
// buffer-to-image copy per rect, submitting a single command buffer and
// waiting on its fence — the upload-side mirror of readbackFramebuffer's
// copy-then-map pattern. Falls through to the CPU path entirely when no
// GPU was found.
func (d *VulkanDevice) Present(fb *pixel.Buffer, dirty []geom.Rect) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return d.fallback.Present(fb, dirty)
	}
	if len(dirty) == 0 {
		return nil
	}

	for _, r := range dirty {
		d.stageRect(fb, r)
	}

	vk.ResetFences(d.device, 1, []vk.Fence{d.fence})
	vk.ResetCommandBuffer(d.commandBuffer, 0)

	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if res := vk.BeginCommandBuffer(d.commandBuffer, &beginInfo); res != vk.Success {
		return fmt.Errorf("vkBeginCommandBuffer failed: %d", res)
	}

	regions := make([]vk.BufferImageCopy, 0, len(dirty))
	for _, r := range dirty {
		regions = append(regions, vk.BufferImageCopy{
			BufferOffset:      vk.DeviceSize((int(r.Y)*d.width + int(r.X)) * pixel.BytesPerPixel),
			BufferRowLength:   uint32(d.width),
			BufferImageHeight: uint32(d.height),
			ImageSubresource: vk.ImageSubresourceLayers{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				MipLevel:       0,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
			ImageOffset: vk.Offset3D{X: r.X, Y: r.Y, Z: 0},
			ImageExtent: vk.Extent3D{Width: r.Width, Height: r.Height, Depth: 1},
		})
	}
	vk.CmdCopyBufferToImage(d.commandBuffer, d.stagingBuffer, d.colorImage, vk.ImageLayoutGeneral, uint32(len(regions)), regions)

	if res := vk.EndCommandBuffer(d.commandBuffer); res != vk.Success {
		return fmt.Errorf("vkEndCommandBuffer failed: %d", res)
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{d.commandBuffer},
	}
	if res := vk.QueueSubmit(d.queue, 1, []vk.SubmitInfo{submitInfo}, d.fence); res != vk.Success {
		return fmt.Errorf("vkQueueSubmit failed: %d", res)
	}
	vk.WaitForFences(d.device, 1, []vk.Fence{d.fence}, vk.True, ^uint64(0))
	return nil
}

// stageRect writes one rect's rows into the persistently-mapped staging
// buffer at the same (y*width+x) offsets the BufferImageCopy regions in
// Present read from, so the CPU-side layout always matches what the GPU
// is told to pull.
func (d *VulkanDevice) stageRect(fb *pixel.Buffer, r geom.Rect) {
	rowBytes := int(r.Width) * pixel.BytesPerPixel
	dst := (*[1 << 30]byte)(d.stagingMapped)[: d.width*d.height*pixel.BytesPerPixel : d.width*d.height*pixel.BytesPerPixel]
	for row := 0; row < int(r.Height); row++ {
		y := int(r.Y) + row
		srcOff := (y*fb.Width + int(r.X)) * pixel.BytesPerPixel
		dstOff := (y*d.width + int(r.X)) * pixel.BytesPerPixel
		if srcOff+rowBytes > len(fb.Pix) || dstOff+rowBytes > len(dst) {
			continue
		}
		copy(dst[dstOff:dstOff+rowBytes], fb.Pix[srcOff:srcOff+rowBytes])
	}
}

// Destroy releases every Vulkan resource this device owns. Safe to call
// on a device that never found a GPU.
func (d *VulkanDevice) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return
	}
	vk.DeviceWaitIdle(d.device)
	if d.fence != vk.NullFence {
		vk.DestroyFence(d.device, d.fence, nil)
	}
	if d.stagingMapped != nil {
		vk.UnmapMemory(d.device, d.stagingBufferMemory)
	}
	if d.stagingBuffer != vk.NullBuffer {
		vk.DestroyBuffer(d.device, d.stagingBuffer, nil)
	}
	if d.stagingBufferMemory != vk.NullDeviceMemory {
		vk.FreeMemory(d.device, d.stagingBufferMemory, nil)
	}
	if d.colorImage != vk.NullImage {
		vk.DestroyImage(d.device, d.colorImage, nil)
	}
	if d.colorImageMemory != vk.NullDeviceMemory {
		vk.FreeMemory(d.device, d.colorImageMemory, nil)
	}
	if d.commandPool != vk.NullCommandPool {
		vk.DestroyCommandPool(d.device, d.commandPool, nil)
	}
	if d.device != nil {
		vk.DestroyDevice(d.device, nil)
	}
	if d.instance != nil {
		vk.DestroyInstance(d.instance, nil)
	}
	d.initialized = false
}

func (d *VulkanDevice) initVulkan() error {
	vulkanInitMutex.Lock()
	defer vulkanInitMutex.Unlock()

	if !vulkanInitialized {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return fmt.Errorf("failed to load Vulkan library: %w", err)
		}
		if err := vk.Init(); err != nil {
			return fmt.Errorf("failed to initialize Vulkan loader: %w", err)
		}
		vulkanInitialized = true
	}

	if err := d.createInstance(); err != nil {
		return err
	}
	if err := d.selectPhysicalDevice(); err != nil {
		d.destroyInstanceOnly()
		return err
	}
	if err := d.createDevice(); err != nil {
		d.destroyInstanceOnly()
		return err
	}
	if err := d.createCommandPool(); err != nil {
		d.destroyDeviceAndInstance()
		return err
	}
	if err := d.createColorImage(); err != nil {
		d.destroyDeviceAndInstance()
		return err
	}
	if err := d.createStagingBuffer(); err != nil {
		d.destroyDeviceAndInstance()
		return err
	}
	if err := d.createCommandBuffer(); err != nil {
		d.destroyDeviceAndInstance()
		return err
	}
	if err := d.createFence(); err != nil {
		d.destroyDeviceAndInstance()
		return err
	}
	return nil
}

func (d *VulkanDevice) createInstance() error {
	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   safeString("anyOS Compositor"),
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PEngineName:        safeString("anyOS Compose"),
		EngineVersion:      vk.MakeVersion(1, 0, 0),
		ApiVersion:         vk.MakeVersion(1, 1, 0),
	}
	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &appInfo,
	}
	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, nil, &instance); res != vk.Success {
		return fmt.Errorf("vkCreateInstance failed: %d", res)
	}
	d.instance = instance
	vk.InitInstance(instance)
	return nil
}

func (d *VulkanDevice) selectPhysicalDevice() error {
	var count uint32
	vk.EnumeratePhysicalDevices(d.instance, &count, nil)
	if count == 0 {
		return fmt.Errorf("no Vulkan-capable GPUs found")
	}
	devices := make([]vk.PhysicalDevice, count)
	vk.EnumeratePhysicalDevices(d.instance, &count, devices)

	for _, dev := range devices {
		var qfCount uint32
		vk.GetPhysicalDeviceQueueFamilyProperties(dev, &qfCount, nil)
		families := make([]vk.QueueFamilyProperties, qfCount)
		vk.GetPhysicalDeviceQueueFamilyProperties(dev, &qfCount, families)
		for i, qf := range families {
			qf.Deref()
			if qf.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
				d.physicalDevice = dev
				d.queueFamily = uint32(i)
				return nil
			}
		}
	}
	return fmt.Errorf("no suitable GPU with a graphics queue found")
}

func (d *VulkanDevice) createDevice() error {
	priority := float32(1.0)
	queueInfo := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: d.queueFamily,
		QueueCount:       1,
		PQueuePriorities: []float32{priority},
	}
	deviceInfo := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: 1,
		PQueueCreateInfos:    []vk.DeviceQueueCreateInfo{queueInfo},
	}
	var device vk.Device
	if res := vk.CreateDevice(d.physicalDevice, &deviceInfo, nil, &device); res != vk.Success {
		return fmt.Errorf("vkCreateDevice failed: %d", res)
	}
	d.device = device
	var queue vk.Queue
	vk.GetDeviceQueue(device, d.queueFamily, 0, &queue)
	d.queue = queue
	return nil
}

func (d *VulkanDevice) createCommandPool() error {
	poolInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: d.queueFamily,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(d.device, &poolInfo, nil, &pool); res != vk.Success {
		return fmt.Errorf("vkCreateCommandPool failed: %d", res)
	}
	d.commandPool = pool
	return nil
}

// createColorImage allocates the single device-local image Present blits
// into. Unlike voodoo_vulkan.go's offscreen render target, there is no
// depth buffer or render pass: this image is never rendered to, only
// copied into and out of, so it has transfer-destination and
// transfer-source usage only.
func (d *VulkanDevice) createColorImage() error {
	imageInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    vk.FormatR8g8b8a8Unorm,
		Extent:    vk.Extent3D{Width: uint32(d.width), Height: uint32(d.height), Depth: 1},
		MipLevels:   1,
		ArrayLayers: 1,
		Samples:     vk.SampleCount1Bit,
		Tiling:      vk.ImageTilingOptimal,
		Usage:       vk.ImageUsageFlags(vk.ImageUsageTransferDstBit | vk.ImageUsageTransferSrcBit),
		InitialLayout: vk.ImageLayoutUndefined,
	}
	var image vk.Image
	if res := vk.CreateImage(d.device, &imageInfo, nil, &image); res != vk.Success {
		return fmt.Errorf("vkCreateImage failed: %d", res)
	}
	d.colorImage = image

	var memReqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.device, image, &memReqs)
	memReqs.Deref()
	memTypeIndex, err := d.findMemoryType(memReqs.MemoryTypeBits, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return err
	}
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memTypeIndex,
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(d.device, &allocInfo, nil, &memory); res != vk.Success {
		return fmt.Errorf("vkAllocateMemory (color image) failed: %d", res)
	}
	d.colorImageMemory = memory
	vk.BindImageMemory(d.device, image, memory, 0)
	return nil
}

// createStagingBuffer allocates a host-visible buffer sized for the whole
// screen and keeps it mapped for the device's lifetime, so Present only
// ever does a CPU copy into already-mapped memory, never a map/unmap pair
// per frame.
func (d *VulkanDevice) createStagingBuffer() error {
	size := vk.DeviceSize(d.width * d.height * pixel.BytesPerPixel)
	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		SharingMode: vk.SharingModeExclusive,
	}
	var buffer vk.Buffer
	if res := vk.CreateBuffer(d.device, &bufferInfo, nil, &buffer); res != vk.Success {
		return fmt.Errorf("vkCreateBuffer (staging) failed: %d", res)
	}
	d.stagingBuffer = buffer

	var memReqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.device, buffer, &memReqs)
	memReqs.Deref()
	memTypeIndex, err := d.findMemoryType(memReqs.MemoryTypeBits, vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return err
	}
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memTypeIndex,
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(d.device, &allocInfo, nil, &memory); res != vk.Success {
		return fmt.Errorf("vkAllocateMemory (staging) failed: %d", res)
	}
	d.stagingBufferMemory = memory
	vk.BindBufferMemory(d.device, buffer, memory, 0)

	var mapped unsafe.Pointer
	if res := vk.MapMemory(d.device, memory, 0, size, 0, &mapped); res != vk.Success {
		return fmt.Errorf("vkMapMemory (staging) failed: %d", res)
	}
	d.stagingMapped = mapped
	return nil
}

func (d *VulkanDevice) createCommandBuffer() error {
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	buffers := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(d.device, &allocInfo, buffers); res != vk.Success {
		return fmt.Errorf("vkAllocateCommandBuffers failed: %d", res)
	}
	d.commandBuffer = buffers[0]
	return nil
}

func (d *VulkanDevice) createFence() error {
	fenceInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}
	var fence vk.Fence
	if res := vk.CreateFence(d.device, &fenceInfo, nil, &fence); res != vk.Success {
		return fmt.Errorf("vkCreateFence failed: %d", res)
	}
	d.fence = fence
	return nil
}

func (d *VulkanDevice) findMemoryType(typeFilter uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	var memProps vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(d.physicalDevice, &memProps)
	memProps.Deref()
	for i := uint32(0); i < memProps.MemoryTypeCount; i++ {
		memProps.MemoryTypes[i].Deref()
		if (typeFilter&(1<<i)) != 0 && (memProps.MemoryTypes[i].PropertyFlags&properties) == properties {
			return i, nil
		}
	}
	return 0, fmt.Errorf("failed to find suitable memory type")
}

func (d *VulkanDevice) destroyInstanceOnly() {
	if d.instance != nil {
		vk.DestroyInstance(d.instance, nil)
		d.instance = nil
	}
}

// destroyDeviceAndInstance is the unwind path for a late init failure
// (out of device memory, missing transfer queue support). It destroys only
// the logical device and the instance; a command pool, image or staging
// buffer created before the failing step is not released separately.
func (d *VulkanDevice) destroyDeviceAndInstance() {
	if d.device != nil {
		vk.DestroyDevice(d.device, nil)
		d.device = nil
	}
	d.destroyInstanceOnly()
}

// safeString null-terminates s for Vulkan's C-string fields.
func safeString(s string) string {
	return s + "\x00"
}
