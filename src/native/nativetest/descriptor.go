package nativetest

import (
	"reflect"

	"github.com/mxplusb/epsilon/src/native"
)

// Descriptor is a staged descriptor seen by a call. The GPU keeps the
// caller's raw pointers so the memory can be inspected after the call
// returned.
type Descriptor struct {
	Call string
	// Snapshot is the decoded descriptor at the start of the call.
	Snapshot interface{}
	decode   func() interface{}
}

// Current decodes the descriptor again from the caller's memory.
func (d *Descriptor) Current() interface{} {
	return d.decode()
}

// Zero reports whether the snapshot is the zero value, in which case
// poisoning cannot be observed.
func (d *Descriptor) Zero() bool {
	return d.Snapshot == nil || reflect.ValueOf(d.Snapshot).IsZero()
}

// Poisoned reports whether the caller's memory no longer holds what the call
// read.
func (d *Descriptor) Poisoned() bool {
	return !reflect.DeepEqual(d.Snapshot, d.decode())
}

func (g *GPU) capture(call string, decode func() interface{}) *Descriptor {
	d := &Descriptor{Call: call, Snapshot: decode(), decode: decode}
	g.descriptors = append(g.descriptors, d)
	return d
}

// verify checks that the descriptor did not change while the call ran.
func (g *GPU) verify(d *Descriptor) {
	if !reflect.DeepEqual(d.Snapshot, d.decode()) {
		g.violate("%s: staged descriptor changed during the call", d.Call)
	}
}

// Descriptors returns every descriptor captured so far.
func (g *GPU) Descriptors() []*Descriptor {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*Descriptor(nil), g.descriptors...)
}

type instanceDesc struct {
	Application string
	Engine      string
	APIVersion  uint32
	Layers      []string
	Extensions  []string
}

func decodeInstance(info *native.InstanceCreateInfo) interface{} {
	return instanceDesc{
		Application: native.GoString(info.PApplicationName),
		Engine:      native.GoString(info.PEngineName),
		APIVersion:  info.APIVersion,
		Layers:      native.GoStrings(info.PpEnabledLayerNames, info.EnabledLayerCount),
		Extensions:  native.GoStrings(info.PpEnabledExtensionNames, info.EnabledExtensionCount),
	}
}

type queueDesc struct {
	Family     uint32
	Priorities []float32
}

type deviceDesc struct {
	Queues     []queueDesc
	Layers     []string
	Extensions []string
}

func decodeDevice(info *native.DeviceCreateInfo) interface{} {
	d := deviceDesc{
		Layers:     native.GoStrings(info.PpEnabledLayerNames, info.EnabledLayerCount),
		Extensions: native.GoStrings(info.PpEnabledExtensionNames, info.EnabledExtensionCount),
	}
	for _, q := range native.Slice(info.PQueueCreateInfos, info.QueueCreateInfoCount) {
		d.Queues = append(d.Queues, queueDesc{
			Family:     q.QueueFamilyIndex,
			Priorities: copyOf(native.Slice(q.PQueuePriorities, q.QueueCount)),
		})
	}
	return d
}

type swapchainDesc struct {
	Info     native.SwapchainCreateInfo
	Families []uint32
}

func decodeSwapchain(info *native.SwapchainCreateInfo) interface{} {
	d := swapchainDesc{Info: *info, Families: copyOf(native.Slice(info.PQueueFamilyIndices, info.QueueFamilyIndexCount))}
	d.Info.PQueueFamilyIndices = nil
	return d
}

type subpassDesc struct {
	BindPoint native.PipelineBindPoint
	Color     []native.AttachmentReference
	Depth     *native.AttachmentReference
}

type renderPassDesc struct {
	Attachments  []native.AttachmentDescription
	Subpasses    []subpassDesc
	Dependencies []native.SubpassDependency
}

func decodeRenderPass(info *native.RenderPassCreateInfo) interface{} {
	d := renderPassDesc{
		Attachments:  copyOf(native.Slice(info.PAttachments, info.AttachmentCount)),
		Dependencies: copyOf(native.Slice(info.PDependencies, info.DependencyCount)),
	}
	for _, sp := range native.Slice(info.PSubpasses, info.SubpassCount) {
		s := subpassDesc{
			BindPoint: sp.PipelineBindPoint,
			Color:     copyOf(native.Slice(sp.PColorAttachments, sp.ColorAttachmentCount)),
		}
		if sp.PDepthStencilAttachment != nil {
			ref := *sp.PDepthStencilAttachment
			s.Depth = &ref
		}
		d.Subpasses = append(d.Subpasses, s)
	}
	return d
}

func decodeShaderModule(info *native.ShaderModuleCreateInfo) interface{} {
	return copyOf(native.Slice(info.PCode, uint32(info.CodeSize/4)))
}

type stageDesc struct {
	Stage  native.ShaderStageFlags
	Module native.ShaderModule
	Entry  string
}

type pipelineDesc struct {
	Stages        []stageDesc
	Bindings      []native.VertexInputBindingDescription
	Attributes    []native.VertexInputAttributeDescription
	Topology      native.PrimitiveTopology
	Raster        native.PipelineRasterizationStateCreateInfo
	Depth         *native.PipelineDepthStencilStateCreateInfo
	Blend         []native.PipelineColorBlendAttachmentState
	DynamicStates []native.DynamicState
	Layout        native.PipelineLayout
	RenderPass    native.RenderPass
	Subpass       uint32
}

func decodePipeline(info *native.GraphicsPipelineCreateInfo) interface{} {
	d := pipelineDesc{Layout: info.Layout, RenderPass: info.RenderPass, Subpass: info.Subpass}
	for _, s := range native.Slice(info.PStages, info.StageCount) {
		d.Stages = append(d.Stages, stageDesc{Stage: s.Stage, Module: s.Module, Entry: native.GoString(s.PName)})
	}
	if vi := info.PVertexInputState; vi != nil {
		d.Bindings = copyOf(native.Slice(vi.PVertexBindingDescriptions, vi.VertexBindingDescriptionCount))
		d.Attributes = copyOf(native.Slice(vi.PVertexAttributeDescriptions, vi.VertexAttributeDescriptionCount))
	}
	if ia := info.PInputAssemblyState; ia != nil {
		d.Topology = ia.Topology
	}
	if rs := info.PRasterizationState; rs != nil {
		d.Raster = *rs
	}
	if ds := info.PDepthStencilState; ds != nil {
		depth := *ds
		d.Depth = &depth
	}
	if cb := info.PColorBlendState; cb != nil {
		d.Blend = copyOf(native.Slice(cb.PAttachments, cb.AttachmentCount))
	}
	if dy := info.PDynamicState; dy != nil {
		d.DynamicStates = copyOf(native.Slice(dy.PDynamicStates, dy.DynamicStateCount))
	}
	return d
}

type framebufferDesc struct {
	RenderPass    native.RenderPass
	Attachments   []native.ImageView
	Width, Height uint32
	Layers        uint32
}

func decodeFramebuffer(info *native.FramebufferCreateInfo) interface{} {
	return framebufferDesc{
		RenderPass:  info.RenderPass,
		Attachments: copyOf(native.Slice(info.PAttachments, info.AttachmentCount)),
		Width:       info.Width,
		Height:      info.Height,
		Layers:      info.Layers,
	}
}

type renderPassBeginDesc struct {
	RenderPass  native.RenderPass
	Framebuffer native.Framebuffer
	Area        native.Rect2D
	Clears      []native.ClearValue
}

func decodeRenderPassBegin(info *native.RenderPassBeginInfo) interface{} {
	return renderPassBeginDesc{
		RenderPass:  info.RenderPass,
		Framebuffer: info.Framebuffer,
		Area:        info.RenderArea,
		Clears:      copyOf(native.Slice(info.PClearValues, info.ClearValueCount)),
	}
}

type submitDesc struct {
	Wait       []native.Semaphore
	WaitStages []native.PipelineStageFlags
	Commands   []native.CommandBuffer
	Signal     []native.Semaphore
}

func decodeSubmits(submits *native.SubmitInfo, count uint32) interface{} {
	var out []submitDesc
	for _, s := range native.Slice(submits, count) {
		out = append(out, submitDesc{
			Wait:       copyOf(native.Slice(s.PWaitSemaphores, s.WaitSemaphoreCount)),
			WaitStages: copyOf(native.Slice(s.PWaitDstStageMask, s.WaitSemaphoreCount)),
			Commands:   copyOf(native.Slice(s.PCommandBuffers, s.CommandBufferCount)),
			Signal:     copyOf(native.Slice(s.PSignalSemaphores, s.SignalSemaphoreCount)),
		})
	}
	return out
}

type presentDesc struct {
	Wait       []native.Semaphore
	Swapchains []native.Swapchain
	Indices    []uint32
}

func decodePresent(info *native.PresentInfo) interface{} {
	return presentDesc{
		Wait:       copyOf(native.Slice(info.PWaitSemaphores, info.WaitSemaphoreCount)),
		Swapchains: copyOf(native.Slice(info.PSwapchains, info.SwapchainCount)),
		Indices:    copyOf(native.Slice(info.PImageIndices, info.SwapchainCount)),
	}
}

func copyOf[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append([]T(nil), s...)
}
