package render

import (
	"github.com/mxplusb/epsilon/src/native"
	"github.com/mxplusb/epsilon/src/staging"
)

type CommandPoolConfig struct {
	Family uint32
	Flags  native.CommandPoolCreateFlags
}

type CommandPool struct {
	object[native.CommandPool, CommandPoolConfig]
	dev *Device
}

func NewCommandPool(dev *Device, cfg CommandPoolConfig) Result[*CommandPool] {
	api, dh := dev.api, dev.Handle()
	var handle native.CommandPool
	status := staging.Call(func(a *staging.Arena) native.Status {
		info := staging.Alloc[native.CommandPoolCreateInfo](a)
		info.Flags = cfg.Flags
		info.QueueFamilyIndex = cfg.Family
		return api.CreateCommandPool(dh, info, &handle)
	})
	if IsError(status) {
		return Fail[*CommandPool](constructionError("CreateCommandPool", status))
	}
	pool := &CommandPool{dev: dev}
	pool.init(dev.reg, "CommandPool", handle, cfg, func(h native.CommandPool) {
		api.DestroyCommandPool(dh, h)
	}, dev)
	return Ok(pool)
}

// Allocate returns n primary command buffers. Each one retains the pool and
// is freed back to it on its last release.
func (p *CommandPool) Allocate(n int) Result[[]*CommandBuffer] {
	if n <= 0 {
		return Fail[[]*CommandBuffer](configError("AllocateCommandBuffers", "count %d", n))
	}
	api, dh, ph := p.dev.api, p.dev.Handle(), p.Handle()
	handles := make([]native.CommandBuffer, n)
	status := staging.Call(func(a *staging.Arena) native.Status {
		info := staging.Alloc[native.CommandBufferAllocateInfo](a)
		info.CommandPool = ph
		info.Level = native.CommandBufferLevelPrimary
		info.CommandBufferCount = uint32(n)
		return api.AllocateCommandBuffers(dh, info, &handles[0])
	})
	if IsError(status) {
		return Fail[[]*CommandBuffer](constructionError("AllocateCommandBuffers", status))
	}
	out := make([]*CommandBuffer, n)
	for i, h := range handles {
		cb := &CommandBuffer{api: api}
		cb.init(p.dev.reg, "CommandBuffer", h, struct{}{}, func(h native.CommandBuffer) {
			api.FreeCommandBuffers(dh, ph, 1, &h)
		}, p)
		out[i] = cb
	}
	return Ok(out)
}

// CommandBuffer records commands for one submission at a time.
type CommandBuffer struct {
	object[native.CommandBuffer, struct{}]
	api native.API
}

// Begin starts recording for a single submission.
func (c *CommandBuffer) Begin() error {
	status := staging.Call(func(a *staging.Arena) native.Status {
		info := staging.Alloc[native.CommandBufferBeginInfo](a)
		info.Flags = native.CommandBufferUsageOneTimeSubmitBit
		return c.api.BeginCommandBuffer(c.Handle(), info)
	})
	return NewError("BeginCommandBuffer", status)
}

func (c *CommandBuffer) End() error {
	return NewError("EndCommandBuffer", c.api.EndCommandBuffer(c.Handle()))
}

// Reset drops previously recorded commands. The pool must have been created
// with CommandPoolCreateResetCommandBufferBit.
func (c *CommandBuffer) Reset() error {
	return NewError("ResetCommandBuffer", c.api.ResetCommandBuffer(c.Handle()))
}

type RenderPassBegin struct {
	RenderPass  *RenderPass
	Framebuffer *Framebuffer
	Area        native.Rect2D
	Clear       []native.ClearValue
}

func (c *CommandBuffer) BeginRenderPass(b RenderPassBegin) {
	rp, fb := b.RenderPass.Handle(), b.Framebuffer.Handle()
	staging.Call(func(a *staging.Arena) struct{} {
		c.api.CmdBeginRenderPass(c.Handle(), renderPassBeginInfo(a, rp, fb, b.Area, b.Clear), native.SubpassContentsInline)
		return struct{}{}
	})
}

func (c *CommandBuffer) EndRenderPass() {
	c.api.CmdEndRenderPass(c.Handle())
}

func (c *CommandBuffer) BindPipeline(p *Pipeline) {
	c.api.CmdBindPipeline(c.Handle(), native.PipelineBindPointGraphics, p.Handle())
}

func (c *CommandBuffer) SetViewport(vp native.Viewport) {
	c.api.CmdSetViewport(c.Handle(), 0, 1, &vp)
}

func (c *CommandBuffer) SetScissor(r native.Rect2D) {
	c.api.CmdSetScissor(c.Handle(), 0, 1, &r)
}

func (c *CommandBuffer) Draw(vertices, instances, firstVertex, firstInstance uint32) {
	c.api.CmdDraw(c.Handle(), vertices, instances, firstVertex, firstInstance)
}
