package native

// Descriptor structs follow the C layout of the native API: arrays are passed
// as a count plus a pointer to the first element and strings as pointers to
// NUL-terminated bytes. The memory behind every pointer field is owned by the
// caller and only has to stay valid for the duration of the call it is passed to.

type Extent2D struct {
	Width, Height uint32
}

type Extent3D struct {
	Width, Height, Depth uint32
}

type Offset2D struct {
	X, Y int32
}

type Rect2D struct {
	Offset Offset2D
	Extent Extent2D
}

type Viewport struct {
	X, Y, Width, Height, MinDepth, MaxDepth float32
}

// DebugCallback receives validation and driver messages. It is invoked
// synchronously from inside native calls.
type DebugCallback func(severity DebugSeverity, prefix, message string)

type InstanceCreateInfo struct {
	PApplicationName        *byte
	ApplicationVersion      uint32
	PEngineName             *byte
	EngineVersion           uint32
	APIVersion              uint32
	EnabledLayerCount       uint32
	PpEnabledLayerNames     **byte
	EnabledExtensionCount   uint32
	PpEnabledExtensionNames **byte
	PfnDebugCallback        DebugCallback
}

// SurfaceSource is implemented by windows able to produce a native surface
// for an instance. The instance argument is the driver's own instance value.
type SurfaceSource interface {
	CreateWindowSurface(instance interface{}) (uintptr, error)
}

type SurfaceCreateInfo struct {
	Window SurfaceSource
}

type PhysicalDeviceProperties struct {
	APIVersion    uint32
	DriverVersion uint32
	VendorID      uint32
	DeviceID      uint32
	DeviceType    PhysicalDeviceType
	DeviceName    string
}

type QueueFamilyProperties struct {
	QueueFlags QueueFlags
	QueueCount uint32
}

type MemoryType struct {
	PropertyFlags MemoryPropertyFlags
	HeapIndex     uint32
}

type MemoryRequirements struct {
	Size           uint64
	Alignment      uint64
	MemoryTypeBits uint32
}

type SurfaceCapabilities struct {
	MinImageCount           uint32
	MaxImageCount           uint32
	CurrentExtent           Extent2D
	MinImageExtent          Extent2D
	MaxImageExtent          Extent2D
	CurrentTransform        SurfaceTransformFlags
	SupportedTransforms     SurfaceTransformFlags
	SupportedCompositeAlpha CompositeAlphaFlags
	SupportedUsageFlags     ImageUsageFlags
}

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

type DeviceQueueCreateInfo struct {
	QueueFamilyIndex uint32
	QueueCount       uint32
	PQueuePriorities *float32
}

type DeviceCreateInfo struct {
	QueueCreateInfoCount    uint32
	PQueueCreateInfos       *DeviceQueueCreateInfo
	EnabledLayerCount       uint32
	PpEnabledLayerNames     **byte
	EnabledExtensionCount   uint32
	PpEnabledExtensionNames **byte
}

type SwapchainCreateInfo struct {
	Surface               Surface
	MinImageCount         uint32
	ImageFormat           Format
	ImageColorSpace       ColorSpace
	ImageExtent           Extent2D
	ImageArrayLayers      uint32
	ImageUsage            ImageUsageFlags
	ImageSharingMode      SharingMode
	QueueFamilyIndexCount uint32
	PQueueFamilyIndices   *uint32
	PreTransform          SurfaceTransformFlags
	CompositeAlpha        CompositeAlphaFlags
	PresentMode           PresentMode
	Clipped               Bool32
	OldSwapchain          Swapchain
}

type ImageCreateInfo struct {
	ImageType     ImageType
	Format        Format
	Extent        Extent3D
	MipLevels     uint32
	ArrayLayers   uint32
	Samples       SampleCountFlags
	Tiling        ImageTiling
	Usage         ImageUsageFlags
	SharingMode   SharingMode
	InitialLayout ImageLayout
}

type MemoryAllocateInfo struct {
	AllocationSize  uint64
	MemoryTypeIndex uint32
}

type ImageSubresourceRange struct {
	AspectMask     ImageAspectFlags
	BaseMipLevel   uint32
	LevelCount     uint32
	BaseArrayLayer uint32
	LayerCount     uint32
}

type ImageViewCreateInfo struct {
	Image            Image
	ViewType         ImageViewType
	Format           Format
	SubresourceRange ImageSubresourceRange
}

type AttachmentDescription struct {
	Format         Format
	Samples        SampleCountFlags
	LoadOp         AttachmentLoadOp
	StoreOp        AttachmentStoreOp
	StencilLoadOp  AttachmentLoadOp
	StencilStoreOp AttachmentStoreOp
	InitialLayout  ImageLayout
	FinalLayout    ImageLayout
}

type AttachmentReference struct {
	Attachment uint32
	Layout     ImageLayout
}

type SubpassDescription struct {
	PipelineBindPoint       PipelineBindPoint
	ColorAttachmentCount    uint32
	PColorAttachments       *AttachmentReference
	PDepthStencilAttachment *AttachmentReference
}

type SubpassDependency struct {
	SrcSubpass    uint32
	DstSubpass    uint32
	SrcStageMask  PipelineStageFlags
	DstStageMask  PipelineStageFlags
	SrcAccessMask AccessFlags
	DstAccessMask AccessFlags
}

type RenderPassCreateInfo struct {
	AttachmentCount uint32
	PAttachments    *AttachmentDescription
	SubpassCount    uint32
	PSubpasses      *SubpassDescription
	DependencyCount uint32
	PDependencies   *SubpassDependency
}

type ShaderModuleCreateInfo struct {
	CodeSize uint64
	PCode    *uint32
}

type PushConstantRange struct {
	StageFlags ShaderStageFlags
	Offset     uint32
	Size       uint32
}

type PipelineLayoutCreateInfo struct {
	PushConstantRangeCount uint32
	PPushConstantRanges    *PushConstantRange
}

type PipelineShaderStageCreateInfo struct {
	Stage  ShaderStageFlags
	Module ShaderModule
	PName  *byte
}

type VertexInputBindingDescription struct {
	Binding   uint32
	Stride    uint32
	InputRate int32
}

type VertexInputAttributeDescription struct {
	Location uint32
	Binding  uint32
	Format   Format
	Offset   uint32
}

type PipelineVertexInputStateCreateInfo struct {
	VertexBindingDescriptionCount   uint32
	PVertexBindingDescriptions      *VertexInputBindingDescription
	VertexAttributeDescriptionCount uint32
	PVertexAttributeDescriptions    *VertexInputAttributeDescription
}

type PipelineInputAssemblyStateCreateInfo struct {
	Topology               PrimitiveTopology
	PrimitiveRestartEnable Bool32
}

type PipelineViewportStateCreateInfo struct {
	ViewportCount uint32
	PViewports    *Viewport
	ScissorCount  uint32
	PScissors     *Rect2D
}

type PipelineRasterizationStateCreateInfo struct {
	PolygonMode PolygonMode
	CullMode    CullModeFlags
	FrontFace   FrontFace
	LineWidth   float32
}

type PipelineMultisampleStateCreateInfo struct {
	RasterizationSamples SampleCountFlags
}

type PipelineDepthStencilStateCreateInfo struct {
	DepthTestEnable  Bool32
	DepthWriteEnable Bool32
	DepthCompareOp   CompareOp
}

type PipelineColorBlendAttachmentState struct {
	BlendEnable    Bool32
	ColorWriteMask ColorComponentFlags
}

type PipelineColorBlendStateCreateInfo struct {
	AttachmentCount uint32
	PAttachments    *PipelineColorBlendAttachmentState
}

type PipelineDynamicStateCreateInfo struct {
	DynamicStateCount uint32
	PDynamicStates    *DynamicState
}

type GraphicsPipelineCreateInfo struct {
	StageCount          uint32
	PStages             *PipelineShaderStageCreateInfo
	PVertexInputState   *PipelineVertexInputStateCreateInfo
	PInputAssemblyState *PipelineInputAssemblyStateCreateInfo
	PViewportState      *PipelineViewportStateCreateInfo
	PRasterizationState *PipelineRasterizationStateCreateInfo
	PMultisampleState   *PipelineMultisampleStateCreateInfo
	PDepthStencilState  *PipelineDepthStencilStateCreateInfo
	PColorBlendState    *PipelineColorBlendStateCreateInfo
	PDynamicState       *PipelineDynamicStateCreateInfo
	Layout              PipelineLayout
	RenderPass          RenderPass
	Subpass             uint32
}

type FramebufferCreateInfo struct {
	RenderPass      RenderPass
	AttachmentCount uint32
	PAttachments    *ImageView
	Width           uint32
	Height          uint32
	Layers          uint32
}

type CommandPoolCreateInfo struct {
	Flags            CommandPoolCreateFlags
	QueueFamilyIndex uint32
}

type CommandBufferAllocateInfo struct {
	CommandPool        CommandPool
	Level              CommandBufferLevel
	CommandBufferCount uint32
}

type CommandBufferBeginInfo struct {
	Flags CommandBufferUsageFlags
}

// ClearValue is the union of a color and a depth/stencil clear value.
type ClearValue [4]uint32

type RenderPassBeginInfo struct {
	RenderPass      RenderPass
	Framebuffer     Framebuffer
	RenderArea      Rect2D
	ClearValueCount uint32
	PClearValues    *ClearValue
}

type SemaphoreCreateInfo struct {
	Flags uint32
}

type FenceCreateInfo struct {
	Flags FenceCreateFlags
}

type SubmitInfo struct {
	WaitSemaphoreCount   uint32
	PWaitSemaphores      *Semaphore
	PWaitDstStageMask    *PipelineStageFlags
	CommandBufferCount   uint32
	PCommandBuffers      *CommandBuffer
	SignalSemaphoreCount uint32
	PSignalSemaphores    *Semaphore
}

type PresentInfo struct {
	WaitSemaphoreCount uint32
	PWaitSemaphores    *Semaphore
	SwapchainCount     uint32
	PSwapchains        *Swapchain
	PImageIndices      *uint32
	PResults           *Status
}
