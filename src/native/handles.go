package native

// Handle is an opaque native object reference. Zero is the null handle.
type Handle uint64

const NullHandle Handle = 0

type (
	Instance       Handle
	PhysicalDevice Handle
	Surface        Handle
	Device         Handle
	Queue          Handle
	Swapchain      Handle
	Image          Handle
	DeviceMemory   Handle
	ImageView      Handle
	RenderPass     Handle
	ShaderModule   Handle
	PipelineLayout Handle
	Pipeline       Handle
	Framebuffer    Handle
	CommandPool    Handle
	CommandBuffer  Handle
	Semaphore      Handle
	Fence          Handle
)

// MaxTimeout is the "wait forever" value for fence waits and image acquisition.
const MaxTimeout = ^uint64(0)

// SubpassExternal refers to operations outside a render pass in a subpass dependency.
const SubpassExternal = ^uint32(0)

// Bool32 is the native boolean.
type Bool32 uint32

const (
	False Bool32 = 0
	True  Bool32 = 1
)

func BoolOf(b bool) Bool32 {
	if b {
		return True
	}
	return False
}

func (b Bool32) B() bool {
	return b != False
}
