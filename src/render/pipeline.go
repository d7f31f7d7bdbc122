package render

import (
	"github.com/mxplusb/epsilon/src/native"
	"github.com/mxplusb/epsilon/src/staging"
)

type ShaderModuleConfig struct {
	// Code is SPIR-V bytecode. Its length must be a non-zero multiple of four.
	Code []byte
}

type ShaderModule struct {
	object[native.ShaderModule, ShaderModuleConfig]
}

func NewShaderModule(dev *Device, cfg ShaderModuleConfig) Result[*ShaderModule] {
	if len(cfg.Code) == 0 || len(cfg.Code)%4 != 0 {
		return Fail[*ShaderModule](configError("NewShaderModule", "bytecode length %d is not a non-zero multiple of 4", len(cfg.Code)))
	}
	api, dh := dev.api, dev.Handle()
	var handle native.ShaderModule
	status := staging.Call(func(a *staging.Arena) native.Status {
		return api.CreateShaderModule(dh, shaderModuleInfo(a, cfg.Code), &handle)
	})
	if IsError(status) {
		return Fail[*ShaderModule](constructionError("CreateShaderModule", status))
	}
	// the bytecode is not needed once the module exists
	sm := &ShaderModule{}
	sm.init(dev.reg, "ShaderModule", handle, ShaderModuleConfig{}, func(h native.ShaderModule) {
		api.DestroyShaderModule(dh, h)
	}, dev)
	return Ok(sm)
}

type PipelineLayoutConfig struct {
	PushConstants []native.PushConstantRange
}

type PipelineLayout struct {
	object[native.PipelineLayout, PipelineLayoutConfig]
}

func NewPipelineLayout(dev *Device, cfg PipelineLayoutConfig) Result[*PipelineLayout] {
	for i, pc := range cfg.PushConstants {
		if pc.Size == 0 || pc.Size%4 != 0 || pc.Offset%4 != 0 {
			return Fail[*PipelineLayout](configError("NewPipelineLayout", "push constant range %d: offset %d size %d", i, pc.Offset, pc.Size))
		}
	}
	cfg.PushConstants = append([]native.PushConstantRange(nil), cfg.PushConstants...)
	api, dh := dev.api, dev.Handle()
	var handle native.PipelineLayout
	status := staging.Call(func(a *staging.Arena) native.Status {
		return api.CreatePipelineLayout(dh, pipelineLayoutInfo(a, cfg), &handle)
	})
	if IsError(status) {
		return Fail[*PipelineLayout](constructionError("CreatePipelineLayout", status))
	}
	pl := &PipelineLayout{}
	pl.init(dev.reg, "PipelineLayout", handle, cfg, func(h native.PipelineLayout) {
		api.DestroyPipelineLayout(dh, h)
	}, dev)
	return Ok(pl)
}

type ShaderStage struct {
	Stage  native.ShaderStageFlags
	Module *ShaderModule
	// Entry defaults to "main".
	Entry string
}

type GraphicsPipelineConfig struct {
	RenderPass       *RenderPass
	Layout           *PipelineLayout
	Subpass          uint32
	Stages           []ShaderStage
	VertexBindings   []native.VertexInputBindingDescription
	VertexAttributes []native.VertexInputAttributeDescription
	Topology         native.PrimitiveTopology
	PolygonMode      native.PolygonMode
	CullMode         native.CullModeFlags
	FrontFace        native.FrontFace
	DepthTest        bool
}

// Pipeline is a graphics pipeline. Viewport and scissor are dynamic state set
// while recording.
type Pipeline struct {
	object[native.Pipeline, GraphicsPipelineConfig]
}

func (c GraphicsPipelineConfig) validate() error {
	if c.RenderPass == nil || c.Layout == nil {
		return configError("NewGraphicsPipeline", "render pass and layout are required")
	}
	if int(c.Subpass) >= len(c.RenderPass.Config().Subpasses) {
		return configError("NewGraphicsPipeline", "subpass %d of %d", c.Subpass, len(c.RenderPass.Config().Subpasses))
	}
	if len(c.Stages) == 0 {
		return configError("NewGraphicsPipeline", "no shader stages")
	}
	seen := native.ShaderStageFlags(0)
	for i, s := range c.Stages {
		if s.Module == nil {
			return configError("NewGraphicsPipeline", "stage %d has no module", i)
		}
		if seen&s.Stage != 0 {
			return configError("NewGraphicsPipeline", "stage %#x given twice", s.Stage)
		}
		seen |= s.Stage
	}
	if seen&native.ShaderStageVertexBit == 0 {
		return configError("NewGraphicsPipeline", "no vertex stage")
	}
	if c.DepthTest && c.RenderPass.Config().Subpasses[c.Subpass].Depth == nil {
		return configError("NewGraphicsPipeline", "depth test on a subpass without depth attachment")
	}
	return nil
}

// NewGraphicsPipeline builds a pipeline. The pipeline keeps its render pass
// and layout alive; shader modules are only held for the creation call and
// may be released by the caller afterwards.
func NewGraphicsPipeline(dev *Device, cfg GraphicsPipelineConfig) Result[*Pipeline] {
	if err := cfg.validate(); err != nil {
		return Fail[*Pipeline](err)
	}

	desc := pipelineDesc{
		bindings:         cfg.VertexBindings,
		attributes:       cfg.VertexAttributes,
		topology:         cfg.Topology,
		polygonMode:      cfg.PolygonMode,
		cullMode:         cfg.CullMode,
		frontFace:        cfg.FrontFace,
		depthTest:        cfg.DepthTest,
		colorAttachments: len(cfg.RenderPass.Config().Subpasses[cfg.Subpass].Color),
		layout:           cfg.Layout.Handle(),
		renderPass:       cfg.RenderPass.Handle(),
		subpass:          cfg.Subpass,
	}
	for _, s := range cfg.Stages {
		s.Module.Retain()
		defer s.Module.Release()
		desc.stages = append(desc.stages, stageDesc{stage: s.Stage, module: s.Module.Handle(), entry: s.Entry})
	}

	api, dh := dev.api, dev.Handle()
	var handle native.Pipeline
	status := staging.Call(func(a *staging.Arena) native.Status {
		return api.CreateGraphicsPipeline(dh, graphicsPipelineInfo(a, desc), &handle)
	})
	if IsError(status) {
		return Fail[*Pipeline](constructionError("CreateGraphicsPipeline", status))
	}

	snapshot := cfg
	snapshot.Stages = make([]ShaderStage, len(cfg.Stages))
	for i, s := range cfg.Stages {
		snapshot.Stages[i] = ShaderStage{Stage: s.Stage, Entry: s.Entry}
	}
	snapshot.VertexBindings = append([]native.VertexInputBindingDescription(nil), cfg.VertexBindings...)
	snapshot.VertexAttributes = append([]native.VertexInputAttributeDescription(nil), cfg.VertexAttributes...)

	p := &Pipeline{}
	p.init(dev.reg, "Pipeline", handle, snapshot, func(h native.Pipeline) {
		api.DestroyPipeline(dh, h)
	}, dev, cfg.RenderPass, cfg.Layout)
	return Ok(p)
}

type FramebufferConfig struct {
	RenderPass  *RenderPass
	Attachments []*ImageView
	Extent      native.Extent2D
	// Layers defaults to 1.
	Layers uint32
}

type Framebuffer struct {
	object[native.Framebuffer, FramebufferConfig]
}

func NewFramebuffer(dev *Device, cfg FramebufferConfig) Result[*Framebuffer] {
	if cfg.RenderPass == nil {
		return Fail[*Framebuffer](configError("NewFramebuffer", "nil render pass"))
	}
	if want := cfg.RenderPass.Attachments(); len(cfg.Attachments) != want {
		return Fail[*Framebuffer](configError("NewFramebuffer", "%d attachments for a pass with %d", len(cfg.Attachments), want))
	}
	if cfg.Extent.Width == 0 || cfg.Extent.Height == 0 {
		return Fail[*Framebuffer](configError("NewFramebuffer", "zero extent %dx%d", cfg.Extent.Width, cfg.Extent.Height))
	}
	if cfg.Layers == 0 {
		cfg.Layers = 1
	}
	views := make([]native.ImageView, len(cfg.Attachments))
	for i, v := range cfg.Attachments {
		if v == nil {
			return Fail[*Framebuffer](configError("NewFramebuffer", "attachment %d is nil", i))
		}
		views[i] = v.Handle()
	}
	cfg.Attachments = append([]*ImageView(nil), cfg.Attachments...)

	api, dh := dev.api, dev.Handle()
	var handle native.Framebuffer
	status := staging.Call(func(a *staging.Arena) native.Status {
		return api.CreateFramebuffer(dh, framebufferInfo(a, cfg.RenderPass.Handle(), views, cfg.Extent, cfg.Layers), &handle)
	})
	if IsError(status) {
		return Fail[*Framebuffer](constructionError("CreateFramebuffer", status))
	}
	deps := []Owner{dev, cfg.RenderPass}
	for _, v := range cfg.Attachments {
		deps = append(deps, v)
	}
	fb := &Framebuffer{}
	fb.init(dev.reg, "Framebuffer", handle, cfg, func(h native.Framebuffer) {
		api.DestroyFramebuffer(dh, h)
	}, deps...)
	return Ok(fb)
}
