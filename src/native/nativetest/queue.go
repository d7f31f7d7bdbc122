package nativetest

import (
	"time"

	"github.com/mxplusb/epsilon/src/native"
)

type fence struct {
	signaled bool
	pending  bool
}

type semaphore struct {
	// signals counts signal operations that no wait has consumed yet.
	signals int
}

type cmdState int

const (
	cmdInitial cmdState = iota
	cmdRecording
	cmdExecutable
	cmdPending
)

type commandBuffer struct {
	pool     native.CommandPool
	state    cmdState
	recorded []string
}

// job is one submission executing on the queue goroutine.
type job struct {
	fence    native.Fence
	commands []native.CommandBuffer
}

func (g *GPU) startQueue() {
	if g.work != nil {
		return
	}
	work := make(chan job, 1024)
	g.work = work
	go g.execute(work)
}

func (g *GPU) stopQueue() {
	if g.work != nil {
		close(g.work)
		g.work = nil
	}
}

// execute completes jobs in submission order, each after ExecTime.
func (g *GPU) execute(work <-chan job) {
	for j := range work {
		if g.ExecTime > 0 {
			time.Sleep(g.ExecTime)
		}
		g.mu.Lock()
		for _, c := range j.commands {
			if cb, ok := g.commands[c]; ok && cb.state == cmdPending {
				cb.state = cmdExecutable
			}
		}
		if f, ok := g.fences[j.fence]; ok {
			f.signaled = true
			f.pending = false
		}
		g.inFlight--
		g.cond.Broadcast()
		g.mu.Unlock()
	}
}

// drain blocks until the queue has no work left. g.mu is held.
func (g *GPU) drain() {
	for g.inFlight > 0 {
		g.cond.Wait()
	}
}

func (g *GPU) CreateCommandPool(device native.Device, info *native.CommandPoolCreateInfo, out *native.CommandPool) native.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("CreateCommandPool"); failed {
		return status
	}
	d := g.capture("CreateCommandPool", func() interface{} { return *info })
	defer g.verify(d)
	*out = native.CommandPool(g.alloc("CommandPool", native.Handle(device)))
	return native.Success
}

func (g *GPU) DestroyCommandPool(device native.Device, pool native.CommandPool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enter("DestroyCommandPool")
	g.destroy("DestroyCommandPool", native.Handle(pool), "CommandPool")
}

func (g *GPU) AllocateCommandBuffers(device native.Device, info *native.CommandBufferAllocateInfo, out *native.CommandBuffer) native.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("AllocateCommandBuffers"); failed {
		return status
	}
	d := g.capture("AllocateCommandBuffers", func() interface{} { return *info })
	defer g.verify(d)
	if !g.use("AllocateCommandBuffers", native.Handle(info.CommandPool), "CommandPool") {
		return native.ErrorUnknown
	}
	handles := native.Slice(out, info.CommandBufferCount)
	for i := range handles {
		h := native.CommandBuffer(g.alloc("CommandBuffer", native.Handle(info.CommandPool)))
		g.commands[h] = &commandBuffer{pool: info.CommandPool}
		handles[i] = h
	}
	return native.Success
}

func (g *GPU) FreeCommandBuffers(device native.Device, pool native.CommandPool, count uint32, buffers *native.CommandBuffer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enter("FreeCommandBuffers")
	for _, h := range native.Slice(buffers, count) {
		if cb, ok := g.commands[h]; ok && cb.state == cmdPending {
			g.violate("FreeCommandBuffers: %#x is still executing", uint64(h))
		}
		g.destroy("FreeCommandBuffers", native.Handle(h), "CommandBuffer")
		delete(g.commands, h)
	}
}

func (g *GPU) command(call string, h native.CommandBuffer) *commandBuffer {
	if !g.use(call, native.Handle(h), "CommandBuffer") {
		return nil
	}
	return g.commands[h]
}

func (g *GPU) BeginCommandBuffer(h native.CommandBuffer, info *native.CommandBufferBeginInfo) native.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("BeginCommandBuffer"); failed {
		return status
	}
	cb := g.command("BeginCommandBuffer", h)
	if cb == nil {
		return native.ErrorUnknown
	}
	if cb.state == cmdPending || cb.state == cmdRecording {
		g.violate("BeginCommandBuffer: %#x is pending or recording", uint64(h))
	}
	cb.state = cmdRecording
	cb.recorded = nil
	return native.Success
}

func (g *GPU) EndCommandBuffer(h native.CommandBuffer) native.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("EndCommandBuffer"); failed {
		return status
	}
	cb := g.command("EndCommandBuffer", h)
	if cb == nil {
		return native.ErrorUnknown
	}
	if cb.state != cmdRecording {
		g.violate("EndCommandBuffer: %#x is not recording", uint64(h))
	}
	cb.state = cmdExecutable
	return native.Success
}

func (g *GPU) ResetCommandBuffer(h native.CommandBuffer) native.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("ResetCommandBuffer"); failed {
		return status
	}
	cb := g.command("ResetCommandBuffer", h)
	if cb == nil {
		return native.ErrorUnknown
	}
	if cb.state == cmdPending {
		g.violate("ResetCommandBuffer: %#x is still executing", uint64(h))
	}
	cb.state = cmdInitial
	cb.recorded = nil
	return native.Success
}

// record appends a command to h. g.mu is held.
func (g *GPU) record(call string, h native.CommandBuffer) {
	g.enter(call)
	cb := g.command(call, h)
	if cb == nil {
		return
	}
	if cb.state != cmdRecording {
		g.violate("%s: %#x is not recording", call, uint64(h))
	}
	cb.recorded = append(cb.recorded, call)
}

// Recorded returns the commands recorded into h since its last begin or reset.
func (g *GPU) Recorded(h native.CommandBuffer) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cb, ok := g.commands[h]; ok {
		return append([]string(nil), cb.recorded...)
	}
	return nil
}

func (g *GPU) CmdBeginRenderPass(h native.CommandBuffer, info *native.RenderPassBeginInfo, contents native.SubpassContents) {
	g.mu.Lock()
	defer g.mu.Unlock()
	d := g.capture("CmdBeginRenderPass", func() interface{} { return decodeRenderPassBegin(info) })
	defer g.verify(d)
	g.record("CmdBeginRenderPass", h)
	g.use("CmdBeginRenderPass", native.Handle(info.RenderPass), "RenderPass")
	g.use("CmdBeginRenderPass", native.Handle(info.Framebuffer), "Framebuffer")
}

func (g *GPU) CmdEndRenderPass(h native.CommandBuffer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("CmdEndRenderPass", h)
}

func (g *GPU) CmdBindPipeline(h native.CommandBuffer, bindPoint native.PipelineBindPoint, p native.Pipeline) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("CmdBindPipeline", h)
	g.use("CmdBindPipeline", native.Handle(p), "Pipeline")
}

func (g *GPU) CmdSetViewport(h native.CommandBuffer, first, count uint32, viewports *native.Viewport) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("CmdSetViewport", h)
}

func (g *GPU) CmdSetScissor(h native.CommandBuffer, first, count uint32, scissors *native.Rect2D) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("CmdSetScissor", h)
}

func (g *GPU) CmdDraw(h native.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.record("CmdDraw", h)
}

func (g *GPU) CreateSemaphore(device native.Device, info *native.SemaphoreCreateInfo, out *native.Semaphore) native.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("CreateSemaphore"); failed {
		return status
	}
	h := native.Semaphore(g.alloc("Semaphore", native.Handle(device)))
	g.semaphores[h] = &semaphore{}
	*out = h
	return native.Success
}

func (g *GPU) DestroySemaphore(device native.Device, s native.Semaphore) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enter("DestroySemaphore")
	g.destroy("DestroySemaphore", native.Handle(s), "Semaphore")
}

func (g *GPU) CreateFence(device native.Device, info *native.FenceCreateInfo, out *native.Fence) native.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("CreateFence"); failed {
		return status
	}
	h := native.Fence(g.alloc("Fence", native.Handle(device)))
	g.fences[h] = &fence{signaled: info.Flags&native.FenceCreateSignaledBit != 0}
	*out = h
	return native.Success
}

func (g *GPU) DestroyFence(device native.Device, f native.Fence) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enter("DestroyFence")
	if st, ok := g.fences[f]; ok && st.pending {
		g.violate("DestroyFence: %#x is still pending", uint64(f))
	}
	g.destroy("DestroyFence", native.Handle(f), "Fence")
	delete(g.fences, f)
}

func (g *GPU) WaitForFences(device native.Device, count uint32, fences *native.Fence, waitAll bool, timeout uint64) native.Status {
	handles := append([]native.Fence(nil), native.Slice(fences, count)...)

	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("WaitForFences"); failed {
		return status
	}
	var deadline *time.Timer
	expired := false
	if timeout != native.MaxTimeout {
		deadline = time.AfterFunc(time.Duration(timeout), func() {
			g.mu.Lock()
			expired = true
			g.cond.Broadcast()
			g.mu.Unlock()
		})
		defer deadline.Stop()
	}
	for {
		done, any, stuck := 0, false, false
		for _, h := range handles {
			f, ok := g.fences[h]
			if !ok {
				g.violate("WaitForFences: unknown fence %#x", uint64(h))
				return native.ErrorUnknown
			}
			switch {
			case f.signaled:
				done++
				any = true
			case !f.pending:
				stuck = true
			}
		}
		if (waitAll && done == len(handles)) || (!waitAll && any) {
			return native.Success
		}
		if timeout == 0 || expired {
			return native.Timeout
		}
		if stuck {
			g.violate("WaitForFences: waiting on a fence that was never submitted")
			return native.Timeout
		}
		g.cond.Wait()
	}
}

func (g *GPU) ResetFences(device native.Device, count uint32, fences *native.Fence) native.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("ResetFences"); failed {
		return status
	}
	for _, h := range native.Slice(fences, count) {
		f, ok := g.fences[h]
		if !ok {
			g.violate("ResetFences: unknown fence %#x", uint64(h))
			continue
		}
		if f.pending {
			g.violate("ResetFences: %#x is still pending", uint64(h))
		}
		f.signaled = false
	}
	return native.Success
}

func (g *GPU) GetFenceStatus(device native.Device, h native.Fence) native.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("GetFenceStatus"); failed {
		return status
	}
	f, ok := g.fences[h]
	if !ok {
		return native.ErrorUnknown
	}
	if f.signaled {
		return native.Success
	}
	return native.NotReady
}

// wait consumes one signal of each semaphore. g.mu is held.
func (g *GPU) wait(call string, sems []native.Semaphore) {
	for _, h := range sems {
		if !g.use(call, native.Handle(h), "Semaphore") {
			continue
		}
		s := g.semaphores[h]
		if s.signals == 0 {
			g.violate("%s: wait on semaphore %#x that has no pending signal", call, uint64(h))
			continue
		}
		s.signals--
	}
}

func (g *GPU) QueueSubmit(queue native.Queue, count uint32, submits *native.SubmitInfo, f native.Fence) native.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("QueueSubmit"); failed {
		return status
	}
	d := g.capture("QueueSubmit", func() interface{} { return decodeSubmits(submits, count) })
	defer g.verify(d)

	if f != 0 {
		st, ok := g.fences[f]
		switch {
		case !ok:
			g.violate("QueueSubmit: unknown fence %#x", uint64(f))
			return native.ErrorUnknown
		case st.pending:
			g.violate("QueueSubmit: fence %#x reused while pending", uint64(f))
		case st.signaled:
			g.violate("QueueSubmit: fence %#x submitted while signaled", uint64(f))
		}
		st.signaled = false
		st.pending = true
	}

	j := job{fence: f}
	for _, s := range native.Slice(submits, count) {
		g.wait("QueueSubmit", native.Slice(s.PWaitSemaphores, s.WaitSemaphoreCount))
		for _, c := range native.Slice(s.PCommandBuffers, s.CommandBufferCount) {
			cb := g.command("QueueSubmit", c)
			if cb == nil {
				continue
			}
			if cb.state != cmdExecutable {
				g.violate("QueueSubmit: command buffer %#x is not executable", uint64(c))
			}
			cb.state = cmdPending
			j.commands = append(j.commands, c)
		}
		for _, h := range native.Slice(s.PSignalSemaphores, s.SignalSemaphoreCount) {
			if g.use("QueueSubmit", native.Handle(h), "Semaphore") {
				g.semaphores[h].signals++
			}
		}
	}
	if g.work == nil {
		g.violate("QueueSubmit: no device")
		return native.ErrorDeviceLost
	}
	g.inFlight++
	g.submitted++
	g.work <- j
	return native.Success
}

func (g *GPU) QueuePresent(queue native.Queue, info *native.PresentInfo) native.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("QueuePresent"); failed {
		return status
	}
	d := g.capture("QueuePresent", func() interface{} { return decodePresent(info) })
	defer g.verify(d)

	g.wait("QueuePresent", native.Slice(info.PWaitSemaphores, info.WaitSemaphoreCount))
	status := native.Success
	indices := native.Slice(info.PImageIndices, info.SwapchainCount)
	for i, h := range native.Slice(info.PSwapchains, info.SwapchainCount) {
		sc, ok := g.swapchains[h]
		if !ok {
			g.violate("QueuePresent: unknown swapchain %#x", uint64(h))
			return native.ErrorUnknown
		}
		if !sc.acquired[indices[i]] {
			g.violate("QueuePresent: image %d was not acquired", indices[i])
		}
		delete(sc.acquired, indices[i])
		g.presented++
		switch {
		case sc.stale || sc.extent != g.extent(sc.surface):
			status = native.ErrorOutOfDate
		case sc.suboptimal:
			sc.suboptimal = false
			status = native.Suboptimal
		}
	}
	return status
}

func (g *GPU) QueueWaitIdle(queue native.Queue) native.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("QueueWaitIdle"); failed {
		return status
	}
	g.drain()
	return native.Success
}

// Submissions counts accepted queue submissions.
func (g *GPU) Submissions() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.submitted
}

// Presentations counts presents that reached a swapchain, stale or not.
func (g *GPU) Presentations() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.presented
}
