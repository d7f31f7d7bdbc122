package vkdriver

import (
	"github.com/mxplusb/epsilon/src/native"
	vk "github.com/vulkan-go/vulkan"
)

func (d *Driver) CreateCommandPool(device native.Device, info *native.CommandPoolCreateInfo, out *native.CommandPool) native.Status {
	var pool vk.CommandPool
	ret := vk.CreateCommandPool(d.device(device), &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(info.Flags),
		QueueFamilyIndex: info.QueueFamilyIndex,
	}, nil, &pool)
	if ret != vk.Success {
		return status(ret)
	}
	*out = native.CommandPool(d.handles.put(pool))
	return native.Success
}

func (d *Driver) DestroyCommandPool(device native.Device, pool native.CommandPool) {
	vk.DestroyCommandPool(d.device(device), d.commandPool(pool), nil)
	d.handles.drop(native.Handle(pool))
}

func (d *Driver) AllocateCommandBuffers(device native.Device, info *native.CommandBufferAllocateInfo, out *native.CommandBuffer) native.Status {
	n := info.CommandBufferCount
	buffers := make([]vk.CommandBuffer, n)
	ret := vk.AllocateCommandBuffers(d.device(device), &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.commandPool(info.CommandPool),
		Level:              vk.CommandBufferLevel(info.Level),
		CommandBufferCount: n,
	}, buffers)
	if ret != vk.Success {
		return status(ret)
	}
	dst := native.Slice(out, n)
	for i, b := range buffers {
		dst[i] = native.CommandBuffer(d.handles.put(b))
	}
	return native.Success
}

func (d *Driver) FreeCommandBuffers(device native.Device, pool native.CommandPool, count uint32, buffers *native.CommandBuffer) {
	handles := native.Slice(buffers, count)
	cmds := make([]vk.CommandBuffer, 0, len(handles))
	for _, h := range handles {
		cmds = append(cmds, d.commandBuffer(h))
	}
	vk.FreeCommandBuffers(d.device(device), d.commandPool(pool), uint32(len(cmds)), cmds)
	for _, h := range handles {
		d.handles.drop(native.Handle(h))
	}
}

func (d *Driver) BeginCommandBuffer(cmd native.CommandBuffer, info *native.CommandBufferBeginInfo) native.Status {
	return status(vk.BeginCommandBuffer(d.commandBuffer(cmd), &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(info.Flags),
	}))
}

func (d *Driver) EndCommandBuffer(cmd native.CommandBuffer) native.Status {
	return status(vk.EndCommandBuffer(d.commandBuffer(cmd)))
}

func (d *Driver) ResetCommandBuffer(cmd native.CommandBuffer) native.Status {
	return status(vk.ResetCommandBuffer(d.commandBuffer(cmd), 0))
}

func (d *Driver) CmdBeginRenderPass(cmd native.CommandBuffer, info *native.RenderPassBeginInfo, contents native.SubpassContents) {
	clears := native.Slice(info.PClearValues, info.ClearValueCount)
	values := make([]vk.ClearValue, len(clears))
	for i, c := range clears {
		// Color and depth/stencil share the layout, so the raw words carry either.
		rgba := c.Color()
		values[i].SetColor(rgba[:])
	}
	vk.CmdBeginRenderPass(d.commandBuffer(cmd), &vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      d.renderPass(info.RenderPass),
		Framebuffer:     d.framebuffer(info.Framebuffer),
		RenderArea:      rect2D(info.RenderArea),
		ClearValueCount: uint32(len(values)),
		PClearValues:    values,
	}, vk.SubpassContents(contents))
}

func (d *Driver) CmdEndRenderPass(cmd native.CommandBuffer) {
	vk.CmdEndRenderPass(d.commandBuffer(cmd))
}

func (d *Driver) CmdBindPipeline(cmd native.CommandBuffer, bindPoint native.PipelineBindPoint, pipeline native.Pipeline) {
	vk.CmdBindPipeline(d.commandBuffer(cmd), vk.PipelineBindPoint(bindPoint), d.pipeline(pipeline))
}

func (d *Driver) CmdSetViewport(cmd native.CommandBuffer, first, count uint32, viewports *native.Viewport) {
	vs := make([]vk.Viewport, 0, count)
	for _, v := range native.Slice(viewports, count) {
		vs = append(vs, viewport(v))
	}
	vk.CmdSetViewport(d.commandBuffer(cmd), first, uint32(len(vs)), vs)
}

func (d *Driver) CmdSetScissor(cmd native.CommandBuffer, first, count uint32, scissors *native.Rect2D) {
	rs := make([]vk.Rect2D, 0, count)
	for _, r := range native.Slice(scissors, count) {
		rs = append(rs, rect2D(r))
	}
	vk.CmdSetScissor(d.commandBuffer(cmd), first, uint32(len(rs)), rs)
}

func (d *Driver) CmdDraw(cmd native.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(d.commandBuffer(cmd), vertexCount, instanceCount, firstVertex, firstInstance)
}

func (d *Driver) CreateSemaphore(device native.Device, info *native.SemaphoreCreateInfo, out *native.Semaphore) native.Status {
	var sem vk.Semaphore
	ret := vk.CreateSemaphore(d.device(device), &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, nil, &sem)
	if ret != vk.Success {
		return status(ret)
	}
	*out = native.Semaphore(d.handles.put(sem))
	return native.Success
}

func (d *Driver) DestroySemaphore(device native.Device, semaphore native.Semaphore) {
	vk.DestroySemaphore(d.device(device), d.semaphore(semaphore), nil)
	d.handles.drop(native.Handle(semaphore))
}

func (d *Driver) CreateFence(device native.Device, info *native.FenceCreateInfo, out *native.Fence) native.Status {
	var fence vk.Fence
	ret := vk.CreateFence(d.device(device), &vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(info.Flags),
	}, nil, &fence)
	if ret != vk.Success {
		return status(ret)
	}
	*out = native.Fence(d.handles.put(fence))
	return native.Success
}

func (d *Driver) DestroyFence(device native.Device, fence native.Fence) {
	vk.DestroyFence(d.device(device), d.fence(fence), nil)
	d.handles.drop(native.Handle(fence))
}

func (d *Driver) fences(handles *native.Fence, count uint32) []vk.Fence {
	out := make([]vk.Fence, 0, count)
	for _, h := range native.Slice(handles, count) {
		out = append(out, d.fence(h))
	}
	return out
}

func (d *Driver) WaitForFences(device native.Device, count uint32, fences *native.Fence, waitAll bool, timeout uint64) native.Status {
	fs := d.fences(fences, count)
	return status(vk.WaitForFences(d.device(device), uint32(len(fs)), fs, vk.Bool32(native.BoolOf(waitAll)), timeout))
}

func (d *Driver) ResetFences(device native.Device, count uint32, fences *native.Fence) native.Status {
	fs := d.fences(fences, count)
	return status(vk.ResetFences(d.device(device), uint32(len(fs)), fs))
}

func (d *Driver) GetFenceStatus(device native.Device, fence native.Fence) native.Status {
	return status(vk.GetFenceStatus(d.device(device), d.fence(fence)))
}

func (d *Driver) semaphores(handles *native.Semaphore, count uint32) []vk.Semaphore {
	out := make([]vk.Semaphore, 0, count)
	for _, h := range native.Slice(handles, count) {
		out = append(out, d.semaphore(h))
	}
	return out
}

func (d *Driver) QueueSubmit(queue native.Queue, count uint32, submits *native.SubmitInfo, fence native.Fence) native.Status {
	infos := make([]vk.SubmitInfo, 0, count)
	for _, s := range native.Slice(submits, count) {
		info := vk.SubmitInfo{
			SType:                vk.StructureTypeSubmitInfo,
			WaitSemaphoreCount:   s.WaitSemaphoreCount,
			PWaitSemaphores:      d.semaphores(s.PWaitSemaphores, s.WaitSemaphoreCount),
			CommandBufferCount:   s.CommandBufferCount,
			SignalSemaphoreCount: s.SignalSemaphoreCount,
			PSignalSemaphores:    d.semaphores(s.PSignalSemaphores, s.SignalSemaphoreCount),
		}
		for _, st := range native.Slice(s.PWaitDstStageMask, s.WaitSemaphoreCount) {
			info.PWaitDstStageMask = append(info.PWaitDstStageMask, vk.PipelineStageFlags(st))
		}
		for _, c := range native.Slice(s.PCommandBuffers, s.CommandBufferCount) {
			info.PCommandBuffers = append(info.PCommandBuffers, d.commandBuffer(c))
		}
		infos = append(infos, info)
	}
	return status(vk.QueueSubmit(d.queue(queue), uint32(len(infos)), infos, d.fence(fence)))
}

func (d *Driver) QueuePresent(queue native.Queue, info *native.PresentInfo) native.Status {
	var swapchains []vk.Swapchain
	for _, sc := range native.Slice(info.PSwapchains, info.SwapchainCount) {
		swapchains = append(swapchains, d.swapchain(sc))
	}
	ret := status(vk.QueuePresent(d.queue(queue), &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: info.WaitSemaphoreCount,
		PWaitSemaphores:    d.semaphores(info.PWaitSemaphores, info.WaitSemaphoreCount),
		SwapchainCount:     uint32(len(swapchains)),
		PSwapchains:        swapchains,
		PImageIndices:      append([]uint32(nil), native.Slice(info.PImageIndices, info.SwapchainCount)...),
	}))
	// Per-swapchain results are not read back; every entry gets the overall status.
	results := native.Slice(info.PResults, info.SwapchainCount)
	for i := range results {
		results[i] = ret
	}
	return ret
}

func (d *Driver) QueueWaitIdle(queue native.Queue) native.Status {
	return status(vk.QueueWaitIdle(d.queue(queue)))
}
