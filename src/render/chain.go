package render

import (
	"context"

	"github.com/mxplusb/epsilon/src/native"
)

type ChainConfig struct {
	Surface     *Surface
	Window      Window
	Format      native.SurfaceFormat
	PresentMode native.PresentMode
	MinImages   uint32
	// DepthFormat adds a depth attachment to every framebuffer unless it is
	// FormatUndefined.
	DepthFormat   native.Format
	QueueFamilies []uint32
}

// PresentationChain is a swapchain together with everything derived from its
// images: views, the optional depth attachment and framebuffers. All of it is
// replaced as a unit by Recreate.
type PresentationChain struct {
	dev *Device
	cfg ChainConfig

	swapchain    *Swapchain
	images       []*Image
	views        []*ImageView
	depth        *Image
	depthView    *ImageView
	renderPass   *RenderPass
	framebuffers []*Framebuffer

	generation int
	hooks      []func(*PresentationChain) error
	released   bool
}

func NewPresentationChain(dev *Device, cfg ChainConfig) Result[*PresentationChain] {
	if cfg.Surface == nil || cfg.Window == nil {
		return Fail[*PresentationChain](configError("NewPresentationChain", "surface and window are required"))
	}
	cfg.QueueFamilies = append([]uint32(nil), cfg.QueueFamilies...)
	c := &PresentationChain{dev: dev, cfg: cfg}
	if err := c.build(); err != nil {
		if c.renderPass != nil {
			c.renderPass.Release()
		}
		return Fail[*PresentationChain](err)
	}
	dev.Retain()
	cfg.Surface.Retain()
	return Ok(c)
}

func (c *PresentationChain) drawableExtent() native.Extent2D {
	w, h := c.cfg.Window.FramebufferSize()
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return native.Extent2D{Width: uint32(w), Height: uint32(h)}
}

// build creates the swapchain and its dependents. On failure whatever was
// built is torn down again.
func (c *PresentationChain) build() (err error) {
	defer func() {
		if err != nil {
			c.teardown()
		}
	}()

	sc, err := NewSwapchain(c.dev, SwapchainConfig{
		Surface:       c.cfg.Surface,
		Extent:        c.drawableExtent(),
		MinImages:     c.cfg.MinImages,
		Format:        c.cfg.Format,
		PresentMode:   c.cfg.PresentMode,
		Usage:         native.ImageUsageColorAttachmentBit,
		QueueFamilies: c.cfg.QueueFamilies,
	}).Get()
	if err != nil {
		return err
	}
	c.swapchain = sc

	if c.renderPass != nil && c.renderPass.Config().Attachments[0].Format != sc.Format().Format {
		Logger().Info("surface format changed, rebuilding render pass", "format", sc.Format().Format)
		c.renderPass.Release()
		c.renderPass = nil
	}
	if c.renderPass == nil {
		rp, err := NewRenderPass(c.dev, ColorDepthPass(sc.Format().Format, c.cfg.DepthFormat)).Get()
		if err != nil {
			return err
		}
		c.renderPass = rp
	}

	c.images = sc.Images()
	for _, img := range c.images {
		view, err := NewImageView(c.dev, ImageViewConfig{Image: img}).Get()
		if err != nil {
			return err
		}
		c.views = append(c.views, view)
	}

	if c.cfg.DepthFormat != native.FormatUndefined {
		depth, err := NewImage(c.dev, ImageConfig{
			Format: c.cfg.DepthFormat,
			Extent: sc.Extent(),
			Usage:  native.ImageUsageDepthStencilAttachmentBit,
			Tiling: native.ImageTilingOptimal,
		}).Get()
		if err != nil {
			return err
		}
		c.depth = depth
		view, err := NewImageView(c.dev, ImageViewConfig{Image: depth}).Get()
		if err != nil {
			return err
		}
		c.depthView = view
	}

	for _, view := range c.views {
		attachments := []*ImageView{view}
		if c.depthView != nil {
			attachments = append(attachments, c.depthView)
		}
		fb, err := NewFramebuffer(c.dev, FramebufferConfig{
			RenderPass:  c.renderPass,
			Attachments: attachments,
			Extent:      sc.Extent(),
		}).Get()
		if err != nil {
			return err
		}
		c.framebuffers = append(c.framebuffers, fb)
	}
	return nil
}

// teardown releases everything derived from the swapchain, dependents first.
// The render pass survives; it only depends on the surface format.
func (c *PresentationChain) teardown() {
	releaseAll(c.framebuffers)
	c.framebuffers = nil
	if c.depthView != nil {
		c.depthView.Release()
		c.depthView = nil
	}
	if c.depth != nil {
		c.depth.Release()
		c.depth = nil
	}
	releaseAll(c.views)
	c.views = nil
	releaseAll(c.images)
	c.images = nil
	if c.swapchain != nil {
		c.swapchain.Release()
		c.swapchain = nil
	}
}

// waitDrawable blocks on window events while the drawable area is empty. It
// gives up when ctx is done or the window asks to close.
func (c *PresentationChain) waitDrawable(ctx context.Context) error {
	for {
		e := c.drawableExtent()
		if e.Width > 0 && e.Height > 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.cfg.Window.ShouldClose() {
			return ErrWindowClosed
		}
		Logger().Debug("drawable area is empty, waiting for events")
		c.cfg.Window.WaitEvents()
	}
}

// Recreate replaces the swapchain and its dependents. It waits for a
// non-empty drawable, waits for the device to go idle, tears the old chain
// down and builds a new one against the current surface. OnRecreate hooks run
// afterwards. If the window asks to close during the wait, Recreate returns
// ErrWindowClosed and the old chain is left untouched.
func (c *PresentationChain) Recreate(ctx context.Context) error {
	if c.released {
		return configError("Recreate", "chain was released")
	}
	if err := c.waitDrawable(ctx); err != nil {
		return err
	}
	if err := c.dev.WaitIdle(); err != nil {
		return err
	}
	c.teardown()
	if err := c.build(); err != nil {
		return err
	}
	c.generation++
	Logger().Info("presentation chain recreated", "generation", c.generation, "extent", c.Extent())
	for _, hook := range c.hooks {
		if err := hook(c); err != nil {
			return err
		}
	}
	return nil
}

// OnRecreate registers fn to rebuild application resources that depend on
// the chain's size or images.
func (c *PresentationChain) OnRecreate(fn func(*PresentationChain) error) {
	c.hooks = append(c.hooks, fn)
}

func (c *PresentationChain) Device() *Device {
	return c.dev
}

func (c *PresentationChain) Window() Window {
	return c.cfg.Window
}

func (c *PresentationChain) Swapchain() *Swapchain {
	return c.swapchain
}

func (c *PresentationChain) RenderPass() *RenderPass {
	return c.renderPass
}

func (c *PresentationChain) Extent() native.Extent2D {
	if c.swapchain == nil {
		return native.Extent2D{}
	}
	return c.swapchain.Extent()
}

func (c *PresentationChain) Format() native.SurfaceFormat {
	if c.swapchain == nil {
		return native.SurfaceFormat{}
	}
	return c.swapchain.Format()
}

func (c *PresentationChain) ImageCount() int {
	return len(c.images)
}

func (c *PresentationChain) View(i int) *ImageView {
	return c.views[i]
}

func (c *PresentationChain) Framebuffer(i int) *Framebuffer {
	return c.framebuffers[i]
}

// Generation counts completed recreations.
func (c *PresentationChain) Generation() int {
	return c.generation
}

// Release tears the chain down. The device must be idle.
func (c *PresentationChain) Release() {
	if c.released {
		panic("render: presentation chain released twice")
	}
	c.released = true
	c.teardown()
	if c.renderPass != nil {
		c.renderPass.Release()
		c.renderPass = nil
	}
	c.cfg.Surface.Release()
	c.dev.Release()
}
