// Package vkdriver implements native.API on top of github.com/vulkan-go/vulkan.
//
// vulkan-go handles are cgo pointers, so the driver keeps a table mapping
// native handles to them. Staged descriptors are converted to vulkan-go
// structs for the duration of each call; vulkan-go copies them to C memory
// itself.
package vkdriver

import (
	"sync"
	"unsafe"

	"github.com/mxplusb/epsilon/src/native"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Init loads the Vulkan loader through the given vkGetInstanceProcAddr. It
// must run once before New.
func Init(procAddr unsafe.Pointer) error {
	if procAddr == nil {
		return errors.New("vkdriver: nil vkGetInstanceProcAddr")
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return errors.Wrap(err, "vkdriver: loading vulkan")
	}
	return nil
}

// Driver implements native.API.
type Driver struct {
	handles *table

	mu        sync.Mutex
	callbacks map[native.Instance]vk.DebugReportCallback
	images    map[native.Swapchain][]native.Handle
	queues    map[native.Device][]native.Handle
}

var _ native.API = (*Driver)(nil)

func New() *Driver {
	return &Driver{
		handles:   newTable(),
		callbacks: map[native.Instance]vk.DebugReportCallback{},
		images:    map[native.Swapchain][]native.Handle{},
		queues:    map[native.Device][]native.Handle{},
	}
}

func status(ret vk.Result) native.Status {
	return native.Status(ret)
}

// Typed lookups. A handle that is null or unknown yields the null value.

func (d *Driver) instance(h native.Instance) vk.Instance {
	return lookup[vk.Instance](d.handles, native.Handle(h))
}

func (d *Driver) physical(h native.PhysicalDevice) vk.PhysicalDevice {
	return lookup[vk.PhysicalDevice](d.handles, native.Handle(h))
}

func (d *Driver) surface(h native.Surface) vk.Surface {
	return lookup[vk.Surface](d.handles, native.Handle(h))
}

func (d *Driver) device(h native.Device) vk.Device {
	return lookup[vk.Device](d.handles, native.Handle(h))
}

func (d *Driver) queue(h native.Queue) vk.Queue {
	return lookup[vk.Queue](d.handles, native.Handle(h))
}

func (d *Driver) swapchain(h native.Swapchain) vk.Swapchain {
	return lookup[vk.Swapchain](d.handles, native.Handle(h))
}

func (d *Driver) image(h native.Image) vk.Image {
	return lookup[vk.Image](d.handles, native.Handle(h))
}

func (d *Driver) memory(h native.DeviceMemory) vk.DeviceMemory {
	return lookup[vk.DeviceMemory](d.handles, native.Handle(h))
}

func (d *Driver) imageView(h native.ImageView) vk.ImageView {
	return lookup[vk.ImageView](d.handles, native.Handle(h))
}

func (d *Driver) renderPass(h native.RenderPass) vk.RenderPass {
	return lookup[vk.RenderPass](d.handles, native.Handle(h))
}

func (d *Driver) shaderModule(h native.ShaderModule) vk.ShaderModule {
	return lookup[vk.ShaderModule](d.handles, native.Handle(h))
}

func (d *Driver) pipelineLayout(h native.PipelineLayout) vk.PipelineLayout {
	return lookup[vk.PipelineLayout](d.handles, native.Handle(h))
}

func (d *Driver) pipeline(h native.Pipeline) vk.Pipeline {
	return lookup[vk.Pipeline](d.handles, native.Handle(h))
}

func (d *Driver) framebuffer(h native.Framebuffer) vk.Framebuffer {
	return lookup[vk.Framebuffer](d.handles, native.Handle(h))
}

func (d *Driver) commandPool(h native.CommandPool) vk.CommandPool {
	return lookup[vk.CommandPool](d.handles, native.Handle(h))
}

func (d *Driver) commandBuffer(h native.CommandBuffer) vk.CommandBuffer {
	return lookup[vk.CommandBuffer](d.handles, native.Handle(h))
}

func (d *Driver) semaphore(h native.Semaphore) vk.Semaphore {
	return lookup[vk.Semaphore](d.handles, native.Handle(h))
}

func (d *Driver) fence(h native.Fence) vk.Fence {
	return lookup[vk.Fence](d.handles, native.Handle(h))
}

// cstring converts a staged C string to the NUL-terminated Go string
// vulkan-go expects.
func cstring(p *byte) string {
	return native.GoString(p) + "\x00"
}

func cstrings(pp **byte, count uint32) []string {
	names := native.GoStrings(pp, count)
	for i := range names {
		names[i] += "\x00"
	}
	return names
}

func extent2D(e native.Extent2D) vk.Extent2D {
	return vk.Extent2D{Width: e.Width, Height: e.Height}
}

func rect2D(r native.Rect2D) vk.Rect2D {
	return vk.Rect2D{
		Offset: vk.Offset2D{X: r.Offset.X, Y: r.Offset.Y},
		Extent: extent2D(r.Extent),
	}
}

func derefExtent(e vk.Extent2D) native.Extent2D {
	e.Deref()
	return native.Extent2D{Width: e.Width, Height: e.Height}
}
