package render

import (
	"github.com/mxplusb/epsilon/src/native"
	"github.com/mxplusb/epsilon/src/staging"
)

type AttachmentConfig struct {
	Format        native.Format
	LoadOp        native.AttachmentLoadOp
	StoreOp       native.AttachmentStoreOp
	InitialLayout native.ImageLayout
	FinalLayout   native.ImageLayout
}

type SubpassConfig struct {
	Color []native.AttachmentReference
	Depth *native.AttachmentReference
}

type RenderPassConfig struct {
	Attachments  []AttachmentConfig
	Subpasses    []SubpassConfig
	Dependencies []native.SubpassDependency
}

type RenderPass struct {
	object[native.RenderPass, RenderPassConfig]
}

// ColorDepthPass describes a single-subpass pass rendering to one presentable
// color attachment and, when depth is not FormatUndefined, a depth attachment.
func ColorDepthPass(color, depth native.Format) RenderPassConfig {
	cfg := RenderPassConfig{
		Attachments: []AttachmentConfig{{
			Format:        color,
			LoadOp:        native.AttachmentLoadOpClear,
			StoreOp:       native.AttachmentStoreOpStore,
			InitialLayout: native.ImageLayoutUndefined,
			FinalLayout:   native.ImageLayoutPresentSrc,
		}},
		Subpasses: []SubpassConfig{{
			Color: []native.AttachmentReference{{Attachment: 0, Layout: native.ImageLayoutColorAttachmentOptimal}},
		}},
	}
	dep := native.SubpassDependency{
		SrcSubpass:    native.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  native.PipelineStageColorAttachmentOutputBit,
		DstStageMask:  native.PipelineStageColorAttachmentOutputBit,
		DstAccessMask: native.AccessColorAttachmentWriteBit,
	}
	if depth != native.FormatUndefined {
		cfg.Attachments = append(cfg.Attachments, AttachmentConfig{
			Format:        depth,
			LoadOp:        native.AttachmentLoadOpClear,
			StoreOp:       native.AttachmentStoreOpDontCare,
			InitialLayout: native.ImageLayoutUndefined,
			FinalLayout:   native.ImageLayoutDepthStencilAttachmentOptimal,
		})
		cfg.Subpasses[0].Depth = &native.AttachmentReference{Attachment: 1, Layout: native.ImageLayoutDepthStencilAttachmentOptimal}
		dep.SrcStageMask |= native.PipelineStageEarlyFragmentTestsBit
		dep.DstStageMask |= native.PipelineStageEarlyFragmentTestsBit
		dep.DstAccessMask |= native.AccessDepthStencilAttachmentWriteBit
	}
	cfg.Dependencies = []native.SubpassDependency{dep}
	return cfg
}

func (c RenderPassConfig) validate() error {
	if len(c.Attachments) == 0 {
		return configError("NewRenderPass", "no attachments")
	}
	if len(c.Subpasses) == 0 {
		return configError("NewRenderPass", "no subpasses")
	}
	n := uint32(len(c.Attachments))
	for i, sp := range c.Subpasses {
		for _, ref := range sp.Color {
			if ref.Attachment >= n {
				return configError("NewRenderPass", "subpass %d: color attachment %d of %d", i, ref.Attachment, n)
			}
		}
		if sp.Depth != nil && sp.Depth.Attachment >= n {
			return configError("NewRenderPass", "subpass %d: depth attachment %d of %d", i, sp.Depth.Attachment, n)
		}
	}
	for i, d := range c.Dependencies {
		for _, s := range []uint32{d.SrcSubpass, d.DstSubpass} {
			if s != native.SubpassExternal && int(s) >= len(c.Subpasses) {
				return configError("NewRenderPass", "dependency %d: subpass %d of %d", i, s, len(c.Subpasses))
			}
		}
	}
	return nil
}

func (c RenderPassConfig) clone() RenderPassConfig {
	out := RenderPassConfig{
		Attachments:  append([]AttachmentConfig(nil), c.Attachments...),
		Subpasses:    make([]SubpassConfig, len(c.Subpasses)),
		Dependencies: append([]native.SubpassDependency(nil), c.Dependencies...),
	}
	for i, sp := range c.Subpasses {
		out.Subpasses[i].Color = append([]native.AttachmentReference(nil), sp.Color...)
		if sp.Depth != nil {
			d := *sp.Depth
			out.Subpasses[i].Depth = &d
		}
	}
	return out
}

func NewRenderPass(dev *Device, cfg RenderPassConfig) Result[*RenderPass] {
	if err := cfg.validate(); err != nil {
		return Fail[*RenderPass](err)
	}
	cfg = cfg.clone()
	api, dh := dev.api, dev.Handle()
	var handle native.RenderPass
	status := staging.Call(func(a *staging.Arena) native.Status {
		return api.CreateRenderPass(dh, renderPassInfo(a, cfg), &handle)
	})
	if IsError(status) {
		return Fail[*RenderPass](constructionError("CreateRenderPass", status))
	}
	rp := &RenderPass{}
	rp.init(dev.reg, "RenderPass", handle, cfg, func(h native.RenderPass) {
		api.DestroyRenderPass(dh, h)
	}, dev)
	return Ok(rp)
}

// Attachments is the number of attachments a framebuffer for this pass needs.
func (r *RenderPass) Attachments() int {
	return len(r.config.Attachments)
}
