package nativetest

import (
	"github.com/mxplusb/epsilon/src/native"
)

type swapchain struct {
	surface    native.Surface
	extent     native.Extent2D
	images     []native.Image
	acquired   map[uint32]bool
	next       uint32
	stale      bool
	suboptimal bool
}

// chainDerived reports whether destroying an object of kind requires the
// device to be idle.
func chainDerived(kind string) bool {
	switch kind {
	case "Swapchain", "ImageView", "Framebuffer", "Image", "DeviceMemory":
		return true
	}
	return false
}

// checkIdle records a violation if h is destroyed while a fence is unsignaled.
func (g *GPU) checkIdle(call string, h native.Handle) {
	o, ok := g.objects[h]
	if !ok || !chainDerived(o.kind) {
		return
	}
	for fh, f := range g.fences {
		if g.objects[native.Handle(fh)].live && !f.signaled {
			g.violate("%s: %s %#x destroyed while fence %#x is unsignaled", call, o.kind, uint64(h), uint64(fh))
			return
		}
	}
}

func (g *GPU) CreateSwapchain(device native.Device, info *native.SwapchainCreateInfo, out *native.Swapchain) native.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("CreateSwapchain"); failed {
		return status
	}
	d := g.capture("CreateSwapchain", func() interface{} { return decodeSwapchain(info) })
	defer g.verify(d)

	if !g.use("CreateSwapchain", native.Handle(info.Surface), "Surface") {
		return native.ErrorSurfaceLost
	}
	if info.ImageExtent.Width == 0 || info.ImageExtent.Height == 0 {
		g.violate("CreateSwapchain: zero extent")
		return native.ErrorInitializationFailed
	}
	if info.OldSwapchain != 0 {
		g.use("CreateSwapchain", native.Handle(info.OldSwapchain), "Swapchain")
	}
	h := native.Swapchain(g.alloc("Swapchain", native.Handle(device), native.Handle(info.Surface)))
	sc := &swapchain{surface: info.Surface, extent: info.ImageExtent, acquired: map[uint32]bool{}}
	for i := uint32(0); i < info.MinImageCount; i++ {
		sc.images = append(sc.images, native.Image(g.alloc("SwapchainImage")))
	}
	g.swapchains[h] = sc
	*out = h
	return native.Success
}

func (g *GPU) DestroySwapchain(device native.Device, h native.Swapchain) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enter("DestroySwapchain")
	g.checkIdle("DestroySwapchain", native.Handle(h))
	if sc, ok := g.swapchains[h]; ok {
		for _, img := range sc.images {
			o := g.objects[native.Handle(img)]
			if o.users > 0 {
				g.violate("DestroySwapchain: image %#x still has %d dependents", uint64(img), o.users)
			}
			o.live = false
		}
		delete(g.swapchains, h)
	}
	g.destroy("DestroySwapchain", native.Handle(h), "Swapchain")
}

func (g *GPU) GetSwapchainImages(device native.Device, h native.Swapchain) ([]native.Image, native.Status) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("GetSwapchainImages"); failed {
		return nil, status
	}
	sc, ok := g.swapchains[h]
	if !ok {
		g.violate("GetSwapchainImages: unknown swapchain %#x", uint64(h))
		return nil, native.ErrorUnknown
	}
	return append([]native.Image(nil), sc.images...), native.Success
}

func (g *GPU) AcquireNextImage(device native.Device, h native.Swapchain, timeout uint64, sem native.Semaphore, fence native.Fence, index *uint32) native.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("AcquireNextImage"); failed {
		return status
	}
	sc, ok := g.swapchains[h]
	if !ok || !g.use("AcquireNextImage", native.Handle(h), "Swapchain") {
		return native.ErrorUnknown
	}
	if sc.stale || sc.extent != g.extent(sc.surface) {
		return native.ErrorOutOfDate
	}
	if len(sc.acquired) >= len(sc.images) {
		g.violate("AcquireNextImage: all %d images are acquired", len(sc.images))
		return native.NotReady
	}
	for sc.acquired[sc.next] {
		sc.next = (sc.next + 1) % uint32(len(sc.images))
	}
	*index = sc.next
	sc.acquired[sc.next] = true
	sc.next = (sc.next + 1) % uint32(len(sc.images))

	if sem != 0 && g.use("AcquireNextImage", native.Handle(sem), "Semaphore") {
		g.semaphores[sem].signals++
	}
	if fence != 0 && g.use("AcquireNextImage", native.Handle(fence), "Fence") {
		g.fences[fence].signaled = true
	}
	if sc.suboptimal {
		sc.suboptimal = false
		return native.Suboptimal
	}
	return native.Success
}

func (g *GPU) CreateImage(device native.Device, info *native.ImageCreateInfo, out *native.Image) native.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("CreateImage"); failed {
		return status
	}
	d := g.capture("CreateImage", func() interface{} { return *info })
	defer g.verify(d)
	*out = native.Image(g.alloc("Image", native.Handle(device)))
	return native.Success
}

func (g *GPU) DestroyImage(device native.Device, image native.Image) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enter("DestroyImage")
	g.checkIdle("DestroyImage", native.Handle(image))
	g.destroy("DestroyImage", native.Handle(image), "Image")
	delete(g.memory, image)
}

func (g *GPU) GetImageMemoryRequirements(device native.Device, image native.Image) native.MemoryRequirements {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enter("GetImageMemoryRequirements")
	g.use("GetImageMemoryRequirements", native.Handle(image), "Image")
	return native.MemoryRequirements{Size: 1 << 20, Alignment: 256, MemoryTypeBits: 0x3}
}

func (g *GPU) AllocateMemory(device native.Device, info *native.MemoryAllocateInfo, out *native.DeviceMemory) native.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("AllocateMemory"); failed {
		return status
	}
	d := g.capture("AllocateMemory", func() interface{} { return *info })
	defer g.verify(d)
	*out = native.DeviceMemory(g.alloc("DeviceMemory", native.Handle(device)))
	return native.Success
}

func (g *GPU) FreeMemory(device native.Device, memory native.DeviceMemory) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enter("FreeMemory")
	g.checkIdle("FreeMemory", native.Handle(memory))
	g.destroy("FreeMemory", native.Handle(memory), "DeviceMemory")
}

func (g *GPU) BindImageMemory(device native.Device, image native.Image, memory native.DeviceMemory, offset uint64) native.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("BindImageMemory"); failed {
		return status
	}
	if !g.use("BindImageMemory", native.Handle(image), "Image") || !g.use("BindImageMemory", native.Handle(memory), "DeviceMemory") {
		return native.ErrorUnknown
	}
	if _, bound := g.memory[image]; bound {
		g.violate("BindImageMemory: image %#x bound twice", uint64(image))
	}
	g.memory[image] = memory
	g.addDep(native.Handle(image), native.Handle(memory))
	return native.Success
}

func (g *GPU) CreateImageView(device native.Device, info *native.ImageViewCreateInfo, out *native.ImageView) native.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("CreateImageView"); failed {
		return status
	}
	d := g.capture("CreateImageView", func() interface{} { return *info })
	defer g.verify(d)
	if !g.use("CreateImageView", native.Handle(info.Image), "") {
		return native.ErrorUnknown
	}
	*out = native.ImageView(g.alloc("ImageView", native.Handle(device), native.Handle(info.Image)))
	return native.Success
}

func (g *GPU) DestroyImageView(device native.Device, view native.ImageView) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enter("DestroyImageView")
	g.checkIdle("DestroyImageView", native.Handle(view))
	g.destroy("DestroyImageView", native.Handle(view), "ImageView")
}

func (g *GPU) CreateRenderPass(device native.Device, info *native.RenderPassCreateInfo, out *native.RenderPass) native.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("CreateRenderPass"); failed {
		return status
	}
	d := g.capture("CreateRenderPass", func() interface{} { return decodeRenderPass(info) })
	defer g.verify(d)
	*out = native.RenderPass(g.alloc("RenderPass", native.Handle(device)))
	return native.Success
}

func (g *GPU) DestroyRenderPass(device native.Device, rp native.RenderPass) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enter("DestroyRenderPass")
	g.destroy("DestroyRenderPass", native.Handle(rp), "RenderPass")
}

func (g *GPU) CreateShaderModule(device native.Device, info *native.ShaderModuleCreateInfo, out *native.ShaderModule) native.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("CreateShaderModule"); failed {
		return status
	}
	d := g.capture("CreateShaderModule", func() interface{} { return decodeShaderModule(info) })
	defer g.verify(d)
	if info.CodeSize == 0 || info.CodeSize%4 != 0 {
		g.violate("CreateShaderModule: code size %d", info.CodeSize)
		return native.ErrorInitializationFailed
	}
	*out = native.ShaderModule(g.alloc("ShaderModule", native.Handle(device)))
	return native.Success
}

func (g *GPU) DestroyShaderModule(device native.Device, m native.ShaderModule) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enter("DestroyShaderModule")
	g.destroy("DestroyShaderModule", native.Handle(m), "ShaderModule")
}

func (g *GPU) CreatePipelineLayout(device native.Device, info *native.PipelineLayoutCreateInfo, out *native.PipelineLayout) native.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("CreatePipelineLayout"); failed {
		return status
	}
	d := g.capture("CreatePipelineLayout", func() interface{} {
		return native.Slice(info.PPushConstantRanges, info.PushConstantRangeCount)
	})
	defer g.verify(d)
	*out = native.PipelineLayout(g.alloc("PipelineLayout", native.Handle(device)))
	return native.Success
}

func (g *GPU) DestroyPipelineLayout(device native.Device, l native.PipelineLayout) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enter("DestroyPipelineLayout")
	g.destroy("DestroyPipelineLayout", native.Handle(l), "PipelineLayout")
}

func (g *GPU) CreateGraphicsPipeline(device native.Device, info *native.GraphicsPipelineCreateInfo, out *native.Pipeline) native.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("CreateGraphicsPipeline"); failed {
		return status
	}
	d := g.capture("CreateGraphicsPipeline", func() interface{} { return decodePipeline(info) })
	defer g.verify(d)
	for _, st := range native.Slice(info.PStages, info.StageCount) {
		if !g.use("CreateGraphicsPipeline", native.Handle(st.Module), "ShaderModule") {
			return native.ErrorInitializationFailed
		}
	}
	*out = native.Pipeline(g.alloc("Pipeline", native.Handle(device), native.Handle(info.Layout), native.Handle(info.RenderPass)))
	return native.Success
}

func (g *GPU) DestroyPipeline(device native.Device, p native.Pipeline) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enter("DestroyPipeline")
	g.destroy("DestroyPipeline", native.Handle(p), "Pipeline")
}

func (g *GPU) CreateFramebuffer(device native.Device, info *native.FramebufferCreateInfo, out *native.Framebuffer) native.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("CreateFramebuffer"); failed {
		return status
	}
	d := g.capture("CreateFramebuffer", func() interface{} { return decodeFramebuffer(info) })
	defer g.verify(d)
	deps := []native.Handle{native.Handle(device), native.Handle(info.RenderPass)}
	for _, v := range native.Slice(info.PAttachments, info.AttachmentCount) {
		deps = append(deps, native.Handle(v))
	}
	*out = native.Framebuffer(g.alloc("Framebuffer", deps...))
	return native.Success
}

func (g *GPU) DestroyFramebuffer(device native.Device, fb native.Framebuffer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enter("DestroyFramebuffer")
	g.checkIdle("DestroyFramebuffer", native.Handle(fb))
	g.destroy("DestroyFramebuffer", native.Handle(fb), "Framebuffer")
}
