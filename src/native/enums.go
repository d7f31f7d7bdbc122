package native

// Enumerations and flag types. Values mirror Vulkan so a driver can cast them.

type Format int32

const (
	FormatUndefined       Format = 0
	FormatR8G8B8A8Unorm   Format = 37
	FormatR8G8B8A8Srgb    Format = 43
	FormatB8G8R8A8Unorm   Format = 44
	FormatB8G8R8A8Srgb    Format = 50
	FormatD16Unorm        Format = 124
	FormatD32Sfloat       Format = 126
	FormatD24UnormS8Uint  Format = 129
	FormatD32SfloatS8Uint Format = 130
)

// HasStencil reports whether a depth format carries a stencil aspect.
func (f Format) HasStencil() bool {
	return f == FormatD24UnormS8Uint || f == FormatD32SfloatS8Uint
}

type ColorSpace int32

const ColorSpaceSrgbNonlinear ColorSpace = 0

type PresentMode int32

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFifo        PresentMode = 2
	PresentModeFifoRelaxed PresentMode = 3
)

type PhysicalDeviceType int32

const (
	PhysicalDeviceTypeOther         PhysicalDeviceType = 0
	PhysicalDeviceTypeIntegratedGPU PhysicalDeviceType = 1
	PhysicalDeviceTypeDiscreteGPU   PhysicalDeviceType = 2
	PhysicalDeviceTypeVirtualGPU    PhysicalDeviceType = 3
	PhysicalDeviceTypeCPU           PhysicalDeviceType = 4
)

func (t PhysicalDeviceType) String() string {
	switch t {
	case PhysicalDeviceTypeIntegratedGPU:
		return "integrated"
	case PhysicalDeviceTypeDiscreteGPU:
		return "discrete"
	case PhysicalDeviceTypeVirtualGPU:
		return "virtual"
	case PhysicalDeviceTypeCPU:
		return "cpu"
	}
	return "other"
}

type QueueFlags uint32

const (
	QueueGraphicsBit QueueFlags = 0x1
	QueueComputeBit  QueueFlags = 0x2
	QueueTransferBit QueueFlags = 0x4
)

type ImageUsageFlags uint32

const (
	ImageUsageTransferSrcBit            ImageUsageFlags = 0x1
	ImageUsageTransferDstBit            ImageUsageFlags = 0x2
	ImageUsageSampledBit                ImageUsageFlags = 0x4
	ImageUsageStorageBit                ImageUsageFlags = 0x8
	ImageUsageColorAttachmentBit        ImageUsageFlags = 0x10
	ImageUsageDepthStencilAttachmentBit ImageUsageFlags = 0x20
)

type ImageAspectFlags uint32

const (
	ImageAspectColorBit   ImageAspectFlags = 0x1
	ImageAspectDepthBit   ImageAspectFlags = 0x2
	ImageAspectStencilBit ImageAspectFlags = 0x4
)

type ImageLayout int32

const (
	ImageLayoutUndefined                     ImageLayout = 0
	ImageLayoutGeneral                       ImageLayout = 1
	ImageLayoutColorAttachmentOptimal        ImageLayout = 2
	ImageLayoutDepthStencilAttachmentOptimal ImageLayout = 3
	ImageLayoutShaderReadOnlyOptimal         ImageLayout = 5
	ImageLayoutPresentSrc                    ImageLayout = 1000001002
)

type ImageType int32

const ImageType2D ImageType = 1

type ImageViewType int32

const ImageViewType2D ImageViewType = 1

type ImageTiling int32

const (
	ImageTilingOptimal ImageTiling = 0
	ImageTilingLinear  ImageTiling = 1
)

type SharingMode int32

const (
	SharingModeExclusive  SharingMode = 0
	SharingModeConcurrent SharingMode = 1
)

type SampleCountFlags uint32

const SampleCount1Bit SampleCountFlags = 0x1

type AttachmentLoadOp int32

const (
	AttachmentLoadOpLoad     AttachmentLoadOp = 0
	AttachmentLoadOpClear    AttachmentLoadOp = 1
	AttachmentLoadOpDontCare AttachmentLoadOp = 2
)

type AttachmentStoreOp int32

const (
	AttachmentStoreOpStore    AttachmentStoreOp = 0
	AttachmentStoreOpDontCare AttachmentStoreOp = 1
)

type PipelineBindPoint int32

const (
	PipelineBindPointGraphics PipelineBindPoint = 0
	PipelineBindPointCompute  PipelineBindPoint = 1
)

type PipelineStageFlags uint32

const (
	PipelineStageTopOfPipeBit             PipelineStageFlags = 0x1
	PipelineStageEarlyFragmentTestsBit    PipelineStageFlags = 0x100
	PipelineStageLateFragmentTestsBit     PipelineStageFlags = 0x200
	PipelineStageColorAttachmentOutputBit PipelineStageFlags = 0x400
	PipelineStageBottomOfPipeBit          PipelineStageFlags = 0x2000
)

type AccessFlags uint32

const (
	AccessColorAttachmentWriteBit        AccessFlags = 0x100
	AccessDepthStencilAttachmentWriteBit AccessFlags = 0x400
)

type SurfaceTransformFlags uint32

const SurfaceTransformIdentityBit SurfaceTransformFlags = 0x1

type CompositeAlphaFlags uint32

const (
	CompositeAlphaOpaqueBit         CompositeAlphaFlags = 0x1
	CompositeAlphaPreMultipliedBit  CompositeAlphaFlags = 0x2
	CompositeAlphaPostMultipliedBit CompositeAlphaFlags = 0x4
	CompositeAlphaInheritBit        CompositeAlphaFlags = 0x8
)

type MemoryPropertyFlags uint32

const (
	MemoryPropertyDeviceLocalBit  MemoryPropertyFlags = 0x1
	MemoryPropertyHostVisibleBit  MemoryPropertyFlags = 0x2
	MemoryPropertyHostCoherentBit MemoryPropertyFlags = 0x4
)

type ShaderStageFlags uint32

const (
	ShaderStageVertexBit   ShaderStageFlags = 0x1
	ShaderStageFragmentBit ShaderStageFlags = 0x10
	ShaderStageComputeBit  ShaderStageFlags = 0x20
)

type PrimitiveTopology int32

const (
	PrimitiveTopologyPointList    PrimitiveTopology = 0
	PrimitiveTopologyLineList     PrimitiveTopology = 1
	PrimitiveTopologyTriangleList PrimitiveTopology = 3
)

type PolygonMode int32

const (
	PolygonModeFill PolygonMode = 0
	PolygonModeLine PolygonMode = 1
)

type CullModeFlags uint32

const (
	CullModeNone     CullModeFlags = 0
	CullModeFrontBit CullModeFlags = 0x1
	CullModeBackBit  CullModeFlags = 0x2
)

type FrontFace int32

const (
	FrontFaceCounterClockwise FrontFace = 0
	FrontFaceClockwise        FrontFace = 1
)

type CompareOp int32

const (
	CompareOpNever       CompareOp = 0
	CompareOpLess        CompareOp = 1
	CompareOpLessOrEqual CompareOp = 3
	CompareOpAlways      CompareOp = 7
)

type DynamicState int32

const (
	DynamicStateViewport DynamicState = 0
	DynamicStateScissor  DynamicState = 1
)

type ColorComponentFlags uint32

const ColorComponentRGBA ColorComponentFlags = 0xF

type FenceCreateFlags uint32

const FenceCreateSignaledBit FenceCreateFlags = 0x1

type CommandPoolCreateFlags uint32

const (
	CommandPoolCreateTransientBit          CommandPoolCreateFlags = 0x1
	CommandPoolCreateResetCommandBufferBit CommandPoolCreateFlags = 0x2
)

type CommandBufferLevel int32

const (
	CommandBufferLevelPrimary   CommandBufferLevel = 0
	CommandBufferLevelSecondary CommandBufferLevel = 1
)

type CommandBufferUsageFlags uint32

const CommandBufferUsageOneTimeSubmitBit CommandBufferUsageFlags = 0x1

type SubpassContents int32

const SubpassContentsInline SubpassContents = 0

// DebugSeverity classifies messages delivered to a DebugCallback.
type DebugSeverity uint32

const (
	DebugSeverityInfo    DebugSeverity = 0x1
	DebugSeverityWarning DebugSeverity = 0x2
	DebugSeverityPerf    DebugSeverity = 0x4
	DebugSeverityError   DebugSeverity = 0x8
	DebugSeverityDebug   DebugSeverity = 0x10
)
