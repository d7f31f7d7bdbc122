// Package native describes the boundary to the C-style GPU API: opaque
// handles, status codes, integer flags and pointer-bearing descriptor structs.
// Implementations live in sub-packages (vkdriver for Vulkan, nativetest for
// an instrumented in-process device used by tests).
package native

// API is the set of native entry points used by the render core. Every method
// mirrors one native call. Descriptor arguments are only read for the duration
// of the call; implementations must not retain them.
type API interface {
	CreateInstance(info *InstanceCreateInfo, out *Instance) Status
	DestroyInstance(instance Instance)
	EnumeratePhysicalDevices(instance Instance) ([]PhysicalDevice, Status)
	GetPhysicalDeviceProperties(pd PhysicalDevice) PhysicalDeviceProperties
	GetPhysicalDeviceQueueFamilyProperties(pd PhysicalDevice) []QueueFamilyProperties
	GetPhysicalDeviceMemoryTypes(pd PhysicalDevice) []MemoryType
	EnumerateDeviceExtensions(pd PhysicalDevice) ([]string, Status)

	CreateSurface(instance Instance, info *SurfaceCreateInfo, out *Surface) Status
	DestroySurface(instance Instance, surface Surface)
	GetPhysicalDeviceSurfaceSupport(pd PhysicalDevice, family uint32, surface Surface) (bool, Status)
	GetPhysicalDeviceSurfaceCapabilities(pd PhysicalDevice, surface Surface) (SurfaceCapabilities, Status)
	GetPhysicalDeviceSurfaceFormats(pd PhysicalDevice, surface Surface) ([]SurfaceFormat, Status)
	GetPhysicalDeviceSurfacePresentModes(pd PhysicalDevice, surface Surface) ([]PresentMode, Status)

	CreateDevice(pd PhysicalDevice, info *DeviceCreateInfo, out *Device) Status
	DestroyDevice(device Device)
	GetDeviceQueue(device Device, family, index uint32) Queue
	DeviceWaitIdle(device Device) Status

	CreateSwapchain(device Device, info *SwapchainCreateInfo, out *Swapchain) Status
	DestroySwapchain(device Device, swapchain Swapchain)
	GetSwapchainImages(device Device, swapchain Swapchain) ([]Image, Status)
	AcquireNextImage(device Device, swapchain Swapchain, timeout uint64, semaphore Semaphore, fence Fence, index *uint32) Status

	CreateImage(device Device, info *ImageCreateInfo, out *Image) Status
	DestroyImage(device Device, image Image)
	GetImageMemoryRequirements(device Device, image Image) MemoryRequirements
	AllocateMemory(device Device, info *MemoryAllocateInfo, out *DeviceMemory) Status
	FreeMemory(device Device, memory DeviceMemory)
	BindImageMemory(device Device, image Image, memory DeviceMemory, offset uint64) Status
	CreateImageView(device Device, info *ImageViewCreateInfo, out *ImageView) Status
	DestroyImageView(device Device, view ImageView)

	CreateRenderPass(device Device, info *RenderPassCreateInfo, out *RenderPass) Status
	DestroyRenderPass(device Device, renderPass RenderPass)
	CreateShaderModule(device Device, info *ShaderModuleCreateInfo, out *ShaderModule) Status
	DestroyShaderModule(device Device, module ShaderModule)
	CreatePipelineLayout(device Device, info *PipelineLayoutCreateInfo, out *PipelineLayout) Status
	DestroyPipelineLayout(device Device, layout PipelineLayout)
	CreateGraphicsPipeline(device Device, info *GraphicsPipelineCreateInfo, out *Pipeline) Status
	DestroyPipeline(device Device, pipeline Pipeline)
	CreateFramebuffer(device Device, info *FramebufferCreateInfo, out *Framebuffer) Status
	DestroyFramebuffer(device Device, framebuffer Framebuffer)

	CreateCommandPool(device Device, info *CommandPoolCreateInfo, out *CommandPool) Status
	DestroyCommandPool(device Device, pool CommandPool)
	// AllocateCommandBuffers writes CommandBufferCount handles starting at out.
	AllocateCommandBuffers(device Device, info *CommandBufferAllocateInfo, out *CommandBuffer) Status
	FreeCommandBuffers(device Device, pool CommandPool, count uint32, buffers *CommandBuffer)
	BeginCommandBuffer(cmd CommandBuffer, info *CommandBufferBeginInfo) Status
	EndCommandBuffer(cmd CommandBuffer) Status
	ResetCommandBuffer(cmd CommandBuffer) Status
	CmdBeginRenderPass(cmd CommandBuffer, info *RenderPassBeginInfo, contents SubpassContents)
	CmdEndRenderPass(cmd CommandBuffer)
	CmdBindPipeline(cmd CommandBuffer, bindPoint PipelineBindPoint, pipeline Pipeline)
	CmdSetViewport(cmd CommandBuffer, first, count uint32, viewports *Viewport)
	CmdSetScissor(cmd CommandBuffer, first, count uint32, scissors *Rect2D)
	CmdDraw(cmd CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32)

	CreateSemaphore(device Device, info *SemaphoreCreateInfo, out *Semaphore) Status
	DestroySemaphore(device Device, semaphore Semaphore)
	CreateFence(device Device, info *FenceCreateInfo, out *Fence) Status
	DestroyFence(device Device, fence Fence)
	WaitForFences(device Device, count uint32, fences *Fence, waitAll bool, timeout uint64) Status
	ResetFences(device Device, count uint32, fences *Fence) Status
	GetFenceStatus(device Device, fence Fence) Status

	QueueSubmit(queue Queue, count uint32, submits *SubmitInfo, fence Fence) Status
	QueuePresent(queue Queue, info *PresentInfo) Status
	QueueWaitIdle(queue Queue) Status
}
