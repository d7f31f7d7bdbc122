package vkdriver

import (
	"github.com/mxplusb/epsilon/src/native"
	vk "github.com/vulkan-go/vulkan"
)

func (d *Driver) CreateRenderPass(device native.Device, info *native.RenderPassCreateInfo, out *native.RenderPass) native.Status {
	var attachments []vk.AttachmentDescription
	for _, a := range native.Slice(info.PAttachments, info.AttachmentCount) {
		attachments = append(attachments, vk.AttachmentDescription{
			Format:         vk.Format(a.Format),
			Samples:        vk.SampleCountFlagBits(a.Samples),
			LoadOp:         vk.AttachmentLoadOp(a.LoadOp),
			StoreOp:        vk.AttachmentStoreOp(a.StoreOp),
			StencilLoadOp:  vk.AttachmentLoadOp(a.StencilLoadOp),
			StencilStoreOp: vk.AttachmentStoreOp(a.StencilStoreOp),
			InitialLayout:  vk.ImageLayout(a.InitialLayout),
			FinalLayout:    vk.ImageLayout(a.FinalLayout),
		})
	}
	var subpasses []vk.SubpassDescription
	for _, sp := range native.Slice(info.PSubpasses, info.SubpassCount) {
		desc := vk.SubpassDescription{
			PipelineBindPoint:    vk.PipelineBindPoint(sp.PipelineBindPoint),
			ColorAttachmentCount: sp.ColorAttachmentCount,
		}
		for _, ref := range native.Slice(sp.PColorAttachments, sp.ColorAttachmentCount) {
			desc.PColorAttachments = append(desc.PColorAttachments, attachmentRef(ref))
		}
		if sp.PDepthStencilAttachment != nil {
			ref := attachmentRef(*sp.PDepthStencilAttachment)
			desc.PDepthStencilAttachment = &ref
		}
		subpasses = append(subpasses, desc)
	}
	var deps []vk.SubpassDependency
	for _, dep := range native.Slice(info.PDependencies, info.DependencyCount) {
		deps = append(deps, vk.SubpassDependency{
			SrcSubpass:    dep.SrcSubpass,
			DstSubpass:    dep.DstSubpass,
			SrcStageMask:  vk.PipelineStageFlags(dep.SrcStageMask),
			DstStageMask:  vk.PipelineStageFlags(dep.DstStageMask),
			SrcAccessMask: vk.AccessFlags(dep.SrcAccessMask),
			DstAccessMask: vk.AccessFlags(dep.DstAccessMask),
		})
	}

	var rp vk.RenderPass
	ret := vk.CreateRenderPass(d.device(device), &vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    uint32(len(subpasses)),
		PSubpasses:      subpasses,
		DependencyCount: uint32(len(deps)),
		PDependencies:   deps,
	}, nil, &rp)
	if ret != vk.Success {
		return status(ret)
	}
	*out = native.RenderPass(d.handles.put(rp))
	return native.Success
}

func attachmentRef(ref native.AttachmentReference) vk.AttachmentReference {
	return vk.AttachmentReference{Attachment: ref.Attachment, Layout: vk.ImageLayout(ref.Layout)}
}

func (d *Driver) DestroyRenderPass(device native.Device, renderPass native.RenderPass) {
	vk.DestroyRenderPass(d.device(device), d.renderPass(renderPass), nil)
	d.handles.drop(native.Handle(renderPass))
}

func (d *Driver) CreateShaderModule(device native.Device, info *native.ShaderModuleCreateInfo, out *native.ShaderModule) native.Status {
	code := append([]uint32(nil), native.Slice(info.PCode, uint32(info.CodeSize/4))...)
	var module vk.ShaderModule
	ret := vk.CreateShaderModule(d.device(device), &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(info.CodeSize),
		PCode:    code,
	}, nil, &module)
	if ret != vk.Success {
		return status(ret)
	}
	*out = native.ShaderModule(d.handles.put(module))
	return native.Success
}

func (d *Driver) DestroyShaderModule(device native.Device, module native.ShaderModule) {
	vk.DestroyShaderModule(d.device(device), d.shaderModule(module), nil)
	d.handles.drop(native.Handle(module))
}

func (d *Driver) CreatePipelineLayout(device native.Device, info *native.PipelineLayoutCreateInfo, out *native.PipelineLayout) native.Status {
	var ranges []vk.PushConstantRange
	for _, r := range native.Slice(info.PPushConstantRanges, info.PushConstantRangeCount) {
		ranges = append(ranges, vk.PushConstantRange{
			StageFlags: vk.ShaderStageFlags(r.StageFlags),
			Offset:     r.Offset,
			Size:       r.Size,
		})
	}
	var layout vk.PipelineLayout
	ret := vk.CreatePipelineLayout(d.device(device), &vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		PushConstantRangeCount: uint32(len(ranges)),
		PPushConstantRanges:    ranges,
	}, nil, &layout)
	if ret != vk.Success {
		return status(ret)
	}
	*out = native.PipelineLayout(d.handles.put(layout))
	return native.Success
}

func (d *Driver) DestroyPipelineLayout(device native.Device, layout native.PipelineLayout) {
	vk.DestroyPipelineLayout(d.device(device), d.pipelineLayout(layout), nil)
	d.handles.drop(native.Handle(layout))
}

func (d *Driver) CreateGraphicsPipeline(device native.Device, info *native.GraphicsPipelineCreateInfo, out *native.Pipeline) native.Status {
	ci := vk.GraphicsPipelineCreateInfo{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		Layout:     d.pipelineLayout(info.Layout),
		RenderPass: d.renderPass(info.RenderPass),
		Subpass:    info.Subpass,
	}
	for _, s := range native.Slice(info.PStages, info.StageCount) {
		ci.PStages = append(ci.PStages, vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFlagBits(s.Stage),
			Module: d.shaderModule(s.Module),
			PName:  cstring(s.PName),
		})
	}
	ci.StageCount = uint32(len(ci.PStages))

	if vi := info.PVertexInputState; vi != nil {
		state := &vk.PipelineVertexInputStateCreateInfo{SType: vk.StructureTypePipelineVertexInputStateCreateInfo}
		for _, b := range native.Slice(vi.PVertexBindingDescriptions, vi.VertexBindingDescriptionCount) {
			state.PVertexBindingDescriptions = append(state.PVertexBindingDescriptions, vk.VertexInputBindingDescription{
				Binding:   b.Binding,
				Stride:    b.Stride,
				InputRate: vk.VertexInputRate(b.InputRate),
			})
		}
		for _, a := range native.Slice(vi.PVertexAttributeDescriptions, vi.VertexAttributeDescriptionCount) {
			state.PVertexAttributeDescriptions = append(state.PVertexAttributeDescriptions, vk.VertexInputAttributeDescription{
				Location: a.Location,
				Binding:  a.Binding,
				Format:   vk.Format(a.Format),
				Offset:   a.Offset,
			})
		}
		state.VertexBindingDescriptionCount = uint32(len(state.PVertexBindingDescriptions))
		state.VertexAttributeDescriptionCount = uint32(len(state.PVertexAttributeDescriptions))
		ci.PVertexInputState = state
	}
	if ia := info.PInputAssemblyState; ia != nil {
		ci.PInputAssemblyState = &vk.PipelineInputAssemblyStateCreateInfo{
			SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology:               vk.PrimitiveTopology(ia.Topology),
			PrimitiveRestartEnable: vk.Bool32(ia.PrimitiveRestartEnable),
		}
	}
	if vp := info.PViewportState; vp != nil {
		state := &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: vp.ViewportCount,
			ScissorCount:  vp.ScissorCount,
		}
		for _, v := range native.Slice(vp.PViewports, vp.ViewportCount) {
			state.PViewports = append(state.PViewports, viewport(v))
		}
		for _, r := range native.Slice(vp.PScissors, vp.ScissorCount) {
			state.PScissors = append(state.PScissors, rect2D(r))
		}
		ci.PViewportState = state
	}
	if rs := info.PRasterizationState; rs != nil {
		ci.PRasterizationState = &vk.PipelineRasterizationStateCreateInfo{
			SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode: vk.PolygonMode(rs.PolygonMode),
			CullMode:    vk.CullModeFlags(rs.CullMode),
			FrontFace:   vk.FrontFace(rs.FrontFace),
			LineWidth:   rs.LineWidth,
		}
	}
	if ms := info.PMultisampleState; ms != nil {
		samples := vk.SampleCountFlagBits(ms.RasterizationSamples)
		if samples == 0 {
			samples = vk.SampleCount1Bit
		}
		ci.PMultisampleState = &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: samples,
		}
	}
	if ds := info.PDepthStencilState; ds != nil {
		ci.PDepthStencilState = &vk.PipelineDepthStencilStateCreateInfo{
			SType:            vk.StructureTypePipelineDepthStencilStateCreateInfo,
			DepthTestEnable:  vk.Bool32(ds.DepthTestEnable),
			DepthWriteEnable: vk.Bool32(ds.DepthWriteEnable),
			DepthCompareOp:   vk.CompareOp(ds.DepthCompareOp),
		}
	}
	if cb := info.PColorBlendState; cb != nil {
		state := &vk.PipelineColorBlendStateCreateInfo{SType: vk.StructureTypePipelineColorBlendStateCreateInfo}
		for _, a := range native.Slice(cb.PAttachments, cb.AttachmentCount) {
			state.PAttachments = append(state.PAttachments, vk.PipelineColorBlendAttachmentState{
				BlendEnable:    vk.Bool32(a.BlendEnable),
				ColorWriteMask: vk.ColorComponentFlags(a.ColorWriteMask),
			})
		}
		state.AttachmentCount = uint32(len(state.PAttachments))
		ci.PColorBlendState = state
	}
	if dy := info.PDynamicState; dy != nil {
		state := &vk.PipelineDynamicStateCreateInfo{SType: vk.StructureTypePipelineDynamicStateCreateInfo}
		for _, s := range native.Slice(dy.PDynamicStates, dy.DynamicStateCount) {
			state.PDynamicStates = append(state.PDynamicStates, vk.DynamicState(s))
		}
		state.DynamicStateCount = uint32(len(state.PDynamicStates))
		ci.PDynamicState = state
	}

	var cache vk.PipelineCache
	pipelines := make([]vk.Pipeline, 1)
	ret := vk.CreateGraphicsPipelines(d.device(device), cache, 1, []vk.GraphicsPipelineCreateInfo{ci}, nil, pipelines)
	if ret != vk.Success {
		return status(ret)
	}
	*out = native.Pipeline(d.handles.put(pipelines[0]))
	return native.Success
}

func viewport(v native.Viewport) vk.Viewport {
	return vk.Viewport{
		X:        v.X,
		Y:        v.Y,
		Width:    v.Width,
		Height:   v.Height,
		MinDepth: v.MinDepth,
		MaxDepth: v.MaxDepth,
	}
}

func (d *Driver) DestroyPipeline(device native.Device, pipeline native.Pipeline) {
	vk.DestroyPipeline(d.device(device), d.pipeline(pipeline), nil)
	d.handles.drop(native.Handle(pipeline))
}

func (d *Driver) CreateFramebuffer(device native.Device, info *native.FramebufferCreateInfo, out *native.Framebuffer) native.Status {
	var views []vk.ImageView
	for _, v := range native.Slice(info.PAttachments, info.AttachmentCount) {
		views = append(views, d.imageView(v))
	}
	var fb vk.Framebuffer
	ret := vk.CreateFramebuffer(d.device(device), &vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      d.renderPass(info.RenderPass),
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           info.Width,
		Height:          info.Height,
		Layers:          info.Layers,
	}, nil, &fb)
	if ret != vk.Success {
		return status(ret)
	}
	*out = native.Framebuffer(d.handles.put(fb))
	return native.Success
}

func (d *Driver) DestroyFramebuffer(device native.Device, framebuffer native.Framebuffer) {
	vk.DestroyFramebuffer(d.device(device), d.framebuffer(framebuffer), nil)
	d.handles.drop(native.Handle(framebuffer))
}
