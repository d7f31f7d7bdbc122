package render

import (
	"github.com/mxplusb/epsilon/src/native"
	"github.com/mxplusb/epsilon/src/staging"
)

type SwapchainConfig struct {
	Surface *Surface
	// Extent is used when the surface leaves the size to the swapchain,
	// normally the window's drawable size.
	Extent      native.Extent2D
	MinImages   uint32
	Format      native.SurfaceFormat
	PresentMode native.PresentMode
	Usage       native.ImageUsageFlags
	// QueueFamilies that access the images. Two or more distinct families
	// switch the images to concurrent sharing.
	QueueFamilies []uint32
	// Old is handed to the driver for resource reuse. It is not released.
	Old *Swapchain
}

// Swapchain is the native presentable image chain. Its config snapshot holds
// the negotiated values, not the requested ones.
type Swapchain struct {
	object[native.Swapchain, SwapchainConfig]
	dev    *Device
	images []native.Image
}

// negotiate resolves cfg against what the surface supports.
func negotiate(cfg SwapchainConfig, caps native.SurfaceCapabilities, formats []native.SurfaceFormat, modes []native.PresentMode) (SwapchainConfig, error) {
	if len(formats) == 0 {
		return cfg, lookupError("NewSwapchain", "surface reports no formats")
	}
	format := formats[0]
	if len(formats) == 1 && formats[0].Format == native.FormatUndefined {
		format = cfg.Format
		if format.Format == native.FormatUndefined {
			format = native.SurfaceFormat{Format: native.FormatB8G8R8A8Unorm, ColorSpace: native.ColorSpaceSrgbNonlinear}
		}
	} else {
		for _, f := range formats {
			if f == cfg.Format {
				format = f
				break
			}
		}
	}
	cfg.Format = format

	mode := native.PresentModeFifo
	for _, m := range modes {
		if m == cfg.PresentMode {
			mode = m
			break
		}
	}
	cfg.PresentMode = mode

	images := cfg.MinImages
	if images == 0 {
		images = caps.MinImageCount + 1
	}
	if images < caps.MinImageCount {
		images = caps.MinImageCount
	}
	if caps.MaxImageCount > 0 && images > caps.MaxImageCount {
		images = caps.MaxImageCount
	}
	cfg.MinImages = images

	extent := caps.CurrentExtent
	if extent.Width == ^uint32(0) {
		extent = native.Extent2D{
			Width:  clamp(cfg.Extent.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
			Height: clamp(cfg.Extent.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
		}
	}
	if extent.Width == 0 || extent.Height == 0 {
		return cfg, configError("NewSwapchain", "zero extent %dx%d", extent.Width, extent.Height)
	}
	cfg.Extent = extent

	if cfg.Usage == 0 {
		cfg.Usage = native.ImageUsageColorAttachmentBit
	}
	if caps.SupportedUsageFlags&cfg.Usage != cfg.Usage {
		return cfg, configError("NewSwapchain", "usage %#x not supported (%#x)", cfg.Usage, caps.SupportedUsageFlags)
	}
	cfg.QueueFamilies = distinct(cfg.QueueFamilies)
	return cfg, nil
}

func compositeAlpha(supported native.CompositeAlphaFlags) native.CompositeAlphaFlags {
	for _, a := range []native.CompositeAlphaFlags{
		native.CompositeAlphaOpaqueBit,
		native.CompositeAlphaPreMultipliedBit,
		native.CompositeAlphaPostMultipliedBit,
		native.CompositeAlphaInheritBit,
	} {
		if supported&a != 0 {
			return a
		}
	}
	return native.CompositeAlphaOpaqueBit
}

func NewSwapchain(dev *Device, cfg SwapchainConfig) Result[*Swapchain] {
	if cfg.Surface == nil {
		return Fail[*Swapchain](configError("NewSwapchain", "nil surface"))
	}
	pd := dev.Physical()
	caps, err := pd.SurfaceCapabilities(cfg.Surface)
	if err != nil {
		return Fail[*Swapchain](err)
	}
	formats, err := pd.SurfaceFormats(cfg.Surface)
	if err != nil {
		return Fail[*Swapchain](err)
	}
	modes, err := pd.PresentModes(cfg.Surface)
	if err != nil {
		return Fail[*Swapchain](err)
	}
	cfg, err = negotiate(cfg, caps, formats, modes)
	if err != nil {
		return Fail[*Swapchain](err)
	}

	params := swapchainParams{
		surface:     cfg.Surface.Handle(),
		minImages:   cfg.MinImages,
		format:      cfg.Format,
		extent:      cfg.Extent,
		usage:       cfg.Usage,
		families:    cfg.QueueFamilies,
		transform:   caps.CurrentTransform,
		alpha:       compositeAlpha(caps.SupportedCompositeAlpha),
		presentMode: cfg.PresentMode,
	}
	if cfg.Old != nil {
		params.oldSwapchain = cfg.Old.Handle()
	}
	cfg.Old = nil

	api, dh := dev.api, dev.Handle()
	var undo rollback
	defer undo.run()

	var handle native.Swapchain
	status := staging.Call(func(a *staging.Arena) native.Status {
		return api.CreateSwapchain(dh, swapchainInfo(a, params), &handle)
	})
	if IsError(status) {
		return Fail[*Swapchain](constructionError("CreateSwapchain", status))
	}
	undo.push(func() { api.DestroySwapchain(dh, handle) })

	images, status := api.GetSwapchainImages(dh, handle)
	if IsError(status) {
		return Fail[*Swapchain](constructionError("GetSwapchainImages", status))
	}
	if len(images) == 0 {
		return Fail[*Swapchain](lookupError("GetSwapchainImages", "swapchain has no images"))
	}
	undo.disarm()

	sc := &Swapchain{dev: dev, images: images}
	sc.init(dev.reg, "Swapchain", handle, cfg, func(h native.Swapchain) {
		api.DestroySwapchain(dh, h)
	}, dev, cfg.Surface)
	Logger().Info("swapchain created",
		"extent", cfg.Extent,
		"format", cfg.Format.Format,
		"present_mode", cfg.PresentMode,
		"images", len(images))
	return Ok(sc)
}

func (s *Swapchain) Extent() native.Extent2D {
	return s.config.Extent
}

func (s *Swapchain) Format() native.SurfaceFormat {
	return s.config.Format
}

func (s *Swapchain) ImageCount() int {
	return len(s.images)
}

// Images wraps the swapchain images. The wrappers retain the swapchain and
// must be released before it can go away.
func (s *Swapchain) Images() []*Image {
	out := make([]*Image, len(s.images))
	for i, h := range s.images {
		out[i] = wrapSwapchainImage(s, h)
	}
	return out
}

// AcquireNextImage returns the index of the next presentable image and
// arranges for sem and fence (either may be nil) to be signaled once it is
// ready. An out-of-date swapchain yields a KindStaleSurface error; suboptimal
// reports an acquired image that no longer matches the surface exactly.
func (s *Swapchain) AcquireNextImage(timeout uint64, sem *Semaphore, fence *Fence) (index uint32, suboptimal bool, err error) {
	var sh native.Semaphore
	var fh native.Fence
	if sem != nil {
		sh = sem.Handle()
	}
	if fence != nil {
		fh = fence.Handle()
	}
	status := s.dev.api.AcquireNextImage(s.dev.Handle(), s.Handle(), timeout, sh, fh, &index)
	switch status {
	case native.Success:
		return index, false, nil
	case native.Suboptimal:
		return index, true, nil
	case native.Timeout, native.NotReady:
		return 0, false, fatalError("AcquireNextImage", status)
	}
	return 0, false, NewError("AcquireNextImage", status)
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}

func distinct(families []uint32) []uint32 {
	var out []uint32
	seen := map[uint32]bool{}
	for _, f := range families {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}
