package render

import (
	"encoding/binary"

	"github.com/mxplusb/epsilon/src/native"
	"github.com/mxplusb/epsilon/src/staging"
)

// Translation from configuration values to native descriptors. Every function
// here is pure: it reads its arguments, allocates the backing storage of each
// pointer field in the arena, and returns the descriptor. The descriptor is
// only valid until the arena is released.

func instanceInfo(a *staging.Arena, cfg InstanceConfig) *native.InstanceCreateInfo {
	info := staging.Alloc[native.InstanceCreateInfo](a)
	if cfg.ApplicationName != "" {
		info.PApplicationName = a.CString(cfg.ApplicationName)
	}
	info.ApplicationVersion = cfg.ApplicationVersion
	if cfg.EngineName != "" {
		info.PEngineName = a.CString(cfg.EngineName)
	}
	info.EngineVersion = cfg.EngineVersion
	info.APIVersion = cfg.APIVersion
	info.EnabledLayerCount = uint32(len(cfg.Layers))
	info.PpEnabledLayerNames = a.CStrings(cfg.Layers)
	info.EnabledExtensionCount = uint32(len(cfg.Extensions))
	info.PpEnabledExtensionNames = a.CStrings(cfg.Extensions)
	info.PfnDebugCallback = cfg.DebugCallback
	return info
}

func deviceInfo(a *staging.Arena, cfg DeviceConfig) *native.DeviceCreateInfo {
	info := staging.Alloc[native.DeviceCreateInfo](a)
	queues := staging.Slice[native.DeviceQueueCreateInfo](a, len(cfg.Queues))
	for i, q := range cfg.Queues {
		queues[i] = native.DeviceQueueCreateInfo{
			QueueFamilyIndex: q.Family,
			QueueCount:       uint32(q.Count),
			PQueuePriorities: staging.Copy(a, q.priorities()),
		}
	}
	info.QueueCreateInfoCount = uint32(len(queues))
	if len(queues) > 0 {
		info.PQueueCreateInfos = &queues[0]
	}
	info.EnabledLayerCount = uint32(len(cfg.Layers))
	info.PpEnabledLayerNames = a.CStrings(cfg.Layers)
	info.EnabledExtensionCount = uint32(len(cfg.Extensions))
	info.PpEnabledExtensionNames = a.CStrings(cfg.Extensions)
	return info
}

// swapchainParams is a swapchain request after negotiation with the surface.
type swapchainParams struct {
	surface      native.Surface
	minImages    uint32
	format       native.SurfaceFormat
	extent       native.Extent2D
	usage        native.ImageUsageFlags
	families     []uint32
	transform    native.SurfaceTransformFlags
	alpha        native.CompositeAlphaFlags
	presentMode  native.PresentMode
	oldSwapchain native.Swapchain
}

func swapchainInfo(a *staging.Arena, p swapchainParams) *native.SwapchainCreateInfo {
	info := staging.Alloc[native.SwapchainCreateInfo](a)
	*info = native.SwapchainCreateInfo{
		Surface:          p.surface,
		MinImageCount:    p.minImages,
		ImageFormat:      p.format.Format,
		ImageColorSpace:  p.format.ColorSpace,
		ImageExtent:      p.extent,
		ImageArrayLayers: 1,
		ImageUsage:       p.usage,
		ImageSharingMode: native.SharingModeExclusive,
		PreTransform:     p.transform,
		CompositeAlpha:   p.alpha,
		PresentMode:      p.presentMode,
		Clipped:          native.True,
		OldSwapchain:     p.oldSwapchain,
	}
	if len(p.families) > 1 {
		info.ImageSharingMode = native.SharingModeConcurrent
		info.QueueFamilyIndexCount = uint32(len(p.families))
		info.PQueueFamilyIndices = staging.Copy(a, p.families)
	}
	return info
}

func imageInfo(a *staging.Arena, cfg ImageConfig) *native.ImageCreateInfo {
	info := staging.Alloc[native.ImageCreateInfo](a)
	*info = native.ImageCreateInfo{
		ImageType:     native.ImageType2D,
		Format:        cfg.Format,
		Extent:        native.Extent3D{Width: cfg.Extent.Width, Height: cfg.Extent.Height, Depth: 1},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       native.SampleCount1Bit,
		Tiling:        cfg.Tiling,
		Usage:         cfg.Usage,
		SharingMode:   native.SharingModeExclusive,
		InitialLayout: native.ImageLayoutUndefined,
	}
	return info
}

func imageViewInfo(a *staging.Arena, image native.Image, format native.Format, aspect native.ImageAspectFlags) *native.ImageViewCreateInfo {
	info := staging.Alloc[native.ImageViewCreateInfo](a)
	*info = native.ImageViewCreateInfo{
		Image:    image,
		ViewType: native.ImageViewType2D,
		Format:   format,
		SubresourceRange: native.ImageSubresourceRange{
			AspectMask: aspect,
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	return info
}

func renderPassInfo(a *staging.Arena, cfg RenderPassConfig) *native.RenderPassCreateInfo {
	info := staging.Alloc[native.RenderPassCreateInfo](a)

	attachments := staging.Slice[native.AttachmentDescription](a, len(cfg.Attachments))
	for i, at := range cfg.Attachments {
		attachments[i] = native.AttachmentDescription{
			Format:         at.Format,
			Samples:        native.SampleCount1Bit,
			LoadOp:         at.LoadOp,
			StoreOp:        at.StoreOp,
			StencilLoadOp:  native.AttachmentLoadOpDontCare,
			StencilStoreOp: native.AttachmentStoreOpDontCare,
			InitialLayout:  at.InitialLayout,
			FinalLayout:    at.FinalLayout,
		}
	}
	info.AttachmentCount = uint32(len(attachments))
	if len(attachments) > 0 {
		info.PAttachments = &attachments[0]
	}

	subpasses := staging.Slice[native.SubpassDescription](a, len(cfg.Subpasses))
	for i, sp := range cfg.Subpasses {
		subpasses[i] = native.SubpassDescription{
			PipelineBindPoint:    native.PipelineBindPointGraphics,
			ColorAttachmentCount: uint32(len(sp.Color)),
			PColorAttachments:    staging.Copy(a, sp.Color),
		}
		if sp.Depth != nil {
			depth := staging.Alloc[native.AttachmentReference](a)
			*depth = *sp.Depth
			subpasses[i].PDepthStencilAttachment = depth
		}
	}
	info.SubpassCount = uint32(len(subpasses))
	if len(subpasses) > 0 {
		info.PSubpasses = &subpasses[0]
	}

	info.DependencyCount = uint32(len(cfg.Dependencies))
	info.PDependencies = staging.Copy(a, cfg.Dependencies)
	return info
}

// shaderModuleInfo repacks SPIR-V bytes as little-endian words. The caller
// has checked that len(code) is a non-zero multiple of four.
func shaderModuleInfo(a *staging.Arena, code []byte) *native.ShaderModuleCreateInfo {
	info := staging.Alloc[native.ShaderModuleCreateInfo](a)
	words := staging.Slice[uint32](a, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	info.CodeSize = uint64(len(code))
	if len(words) > 0 {
		info.PCode = &words[0]
	}
	return info
}

func pipelineLayoutInfo(a *staging.Arena, cfg PipelineLayoutConfig) *native.PipelineLayoutCreateInfo {
	info := staging.Alloc[native.PipelineLayoutCreateInfo](a)
	info.PushConstantRangeCount = uint32(len(cfg.PushConstants))
	info.PPushConstantRanges = staging.Copy(a, cfg.PushConstants)
	return info
}

// pipelineDesc is a GraphicsPipelineConfig with every resource resolved to
// its native handle.
type pipelineDesc struct {
	stages           []stageDesc
	bindings         []native.VertexInputBindingDescription
	attributes       []native.VertexInputAttributeDescription
	topology         native.PrimitiveTopology
	polygonMode      native.PolygonMode
	cullMode         native.CullModeFlags
	frontFace        native.FrontFace
	depthTest        bool
	colorAttachments int
	layout           native.PipelineLayout
	renderPass       native.RenderPass
	subpass          uint32
}

type stageDesc struct {
	stage  native.ShaderStageFlags
	module native.ShaderModule
	entry  string
}

func graphicsPipelineInfo(a *staging.Arena, d pipelineDesc) *native.GraphicsPipelineCreateInfo {
	info := staging.Alloc[native.GraphicsPipelineCreateInfo](a)

	stages := staging.Slice[native.PipelineShaderStageCreateInfo](a, len(d.stages))
	for i, s := range d.stages {
		entry := s.entry
		if entry == "" {
			entry = "main"
		}
		stages[i] = native.PipelineShaderStageCreateInfo{
			Stage:  s.stage,
			Module: s.module,
			PName:  a.CString(entry),
		}
	}
	info.StageCount = uint32(len(stages))
	if len(stages) > 0 {
		info.PStages = &stages[0]
	}

	vertexInput := staging.Alloc[native.PipelineVertexInputStateCreateInfo](a)
	vertexInput.VertexBindingDescriptionCount = uint32(len(d.bindings))
	vertexInput.PVertexBindingDescriptions = staging.Copy(a, d.bindings)
	vertexInput.VertexAttributeDescriptionCount = uint32(len(d.attributes))
	vertexInput.PVertexAttributeDescriptions = staging.Copy(a, d.attributes)
	info.PVertexInputState = vertexInput

	assembly := staging.Alloc[native.PipelineInputAssemblyStateCreateInfo](a)
	assembly.Topology = d.topology
	info.PInputAssemblyState = assembly

	// viewport and scissor are dynamic; only the counts are fixed here
	viewport := staging.Alloc[native.PipelineViewportStateCreateInfo](a)
	viewport.ViewportCount = 1
	viewport.ScissorCount = 1
	info.PViewportState = viewport

	raster := staging.Alloc[native.PipelineRasterizationStateCreateInfo](a)
	*raster = native.PipelineRasterizationStateCreateInfo{
		PolygonMode: d.polygonMode,
		CullMode:    d.cullMode,
		FrontFace:   d.frontFace,
		LineWidth:   1,
	}
	info.PRasterizationState = raster

	multisample := staging.Alloc[native.PipelineMultisampleStateCreateInfo](a)
	multisample.RasterizationSamples = native.SampleCount1Bit
	info.PMultisampleState = multisample

	if d.depthTest {
		depth := staging.Alloc[native.PipelineDepthStencilStateCreateInfo](a)
		*depth = native.PipelineDepthStencilStateCreateInfo{
			DepthTestEnable:  native.True,
			DepthWriteEnable: native.True,
			DepthCompareOp:   native.CompareOpLess,
		}
		info.PDepthStencilState = depth
	}

	blend := staging.Alloc[native.PipelineColorBlendStateCreateInfo](a)
	blendAttachments := staging.Slice[native.PipelineColorBlendAttachmentState](a, d.colorAttachments)
	for i := range blendAttachments {
		blendAttachments[i].ColorWriteMask = native.ColorComponentRGBA
	}
	blend.AttachmentCount = uint32(len(blendAttachments))
	if len(blendAttachments) > 0 {
		blend.PAttachments = &blendAttachments[0]
	}
	info.PColorBlendState = blend

	dynamic := staging.Alloc[native.PipelineDynamicStateCreateInfo](a)
	dynamic.DynamicStateCount = 2
	dynamic.PDynamicStates = staging.Copy(a, []native.DynamicState{native.DynamicStateViewport, native.DynamicStateScissor})
	info.PDynamicState = dynamic

	info.Layout = d.layout
	info.RenderPass = d.renderPass
	info.Subpass = d.subpass
	return info
}

func framebufferInfo(a *staging.Arena, rp native.RenderPass, views []native.ImageView, extent native.Extent2D, layers uint32) *native.FramebufferCreateInfo {
	info := staging.Alloc[native.FramebufferCreateInfo](a)
	*info = native.FramebufferCreateInfo{
		RenderPass:      rp,
		AttachmentCount: uint32(len(views)),
		PAttachments:    staging.Copy(a, views),
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          layers,
	}
	return info
}

func renderPassBeginInfo(a *staging.Arena, rp native.RenderPass, fb native.Framebuffer, area native.Rect2D, clears []native.ClearValue) *native.RenderPassBeginInfo {
	info := staging.Alloc[native.RenderPassBeginInfo](a)
	*info = native.RenderPassBeginInfo{
		RenderPass:      rp,
		Framebuffer:     fb,
		RenderArea:      area,
		ClearValueCount: uint32(len(clears)),
		PClearValues:    staging.Copy(a, clears),
	}
	return info
}

// submitDesc is a Submission resolved to native handles.
type submitDesc struct {
	wait       []native.Semaphore
	waitStages []native.PipelineStageFlags
	commands   []native.CommandBuffer
	signal     []native.Semaphore
}

func submitInfos(a *staging.Arena, subs []submitDesc) (*native.SubmitInfo, uint32) {
	infos := staging.Slice[native.SubmitInfo](a, len(subs))
	for i, s := range subs {
		infos[i] = native.SubmitInfo{
			WaitSemaphoreCount:   uint32(len(s.wait)),
			PWaitSemaphores:      staging.Copy(a, s.wait),
			PWaitDstStageMask:    staging.Copy(a, s.waitStages),
			CommandBufferCount:   uint32(len(s.commands)),
			PCommandBuffers:      staging.Copy(a, s.commands),
			SignalSemaphoreCount: uint32(len(s.signal)),
			PSignalSemaphores:    staging.Copy(a, s.signal),
		}
	}
	if len(infos) == 0 {
		return nil, 0
	}
	return &infos[0], uint32(len(infos))
}

func presentInfo(a *staging.Arena, wait []native.Semaphore, swapchain native.Swapchain, index uint32) *native.PresentInfo {
	info := staging.Alloc[native.PresentInfo](a)
	*info = native.PresentInfo{
		WaitSemaphoreCount: uint32(len(wait)),
		PWaitSemaphores:    staging.Copy(a, wait),
		SwapchainCount:     1,
		PSwapchains:        staging.Copy(a, []native.Swapchain{swapchain}),
		PImageIndices:      staging.Copy(a, []uint32{index}),
	}
	return info
}
