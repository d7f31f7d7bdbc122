package render

import (
	"github.com/mxplusb/epsilon/src/native"
	"github.com/mxplusb/epsilon/src/staging"
)

type ImageConfig struct {
	Format native.Format
	Extent native.Extent2D
	Usage  native.ImageUsageFlags
	Tiling native.ImageTiling
	// Memory is the required property set of the backing allocation.
	// Zero means device local.
	Memory native.MemoryPropertyFlags
}

// DeviceMemory is an allocation bound to exactly one image.
type DeviceMemory struct {
	object[native.DeviceMemory, native.MemoryAllocateInfo]
}

// Image is a 2D image. Images created by NewImage own their memory; images of
// a swapchain are owned by the swapchain and only retain it.
type Image struct {
	object[native.Image, ImageConfig]
	memory *DeviceMemory
}

func (c ImageConfig) validate() error {
	if c.Format == native.FormatUndefined {
		return configError("NewImage", "undefined format")
	}
	if c.Extent.Width == 0 || c.Extent.Height == 0 {
		return configError("NewImage", "zero extent %dx%d", c.Extent.Width, c.Extent.Height)
	}
	if c.Usage == 0 {
		return configError("NewImage", "no usage flags")
	}
	return nil
}

// NewImage creates an image and binds freshly allocated memory to it. If any
// step fails, everything created by earlier steps is destroyed.
func NewImage(dev *Device, cfg ImageConfig) Result[*Image] {
	if err := cfg.validate(); err != nil {
		return Fail[*Image](err)
	}
	if cfg.Memory == 0 {
		cfg.Memory = native.MemoryPropertyDeviceLocalBit
	}
	api, dh := dev.api, dev.Handle()

	var undo rollback
	defer undo.run()

	var img native.Image
	status := staging.Call(func(a *staging.Arena) native.Status {
		return api.CreateImage(dh, imageInfo(a, cfg), &img)
	})
	if IsError(status) {
		return Fail[*Image](constructionError("CreateImage", status))
	}
	undo.push(func() { api.DestroyImage(dh, img) })

	req := api.GetImageMemoryRequirements(dh, img)
	typeIndex, ok := dev.memoryTypeIndex(req.MemoryTypeBits, cfg.Memory)
	if !ok {
		return Fail[*Image](lookupError("NewImage", "no memory type in %#x with properties %#x", req.MemoryTypeBits, cfg.Memory))
	}

	alloc := native.MemoryAllocateInfo{AllocationSize: req.Size, MemoryTypeIndex: typeIndex}
	var mem native.DeviceMemory
	status = staging.Call(func(a *staging.Arena) native.Status {
		info := staging.Alloc[native.MemoryAllocateInfo](a)
		*info = alloc
		return api.AllocateMemory(dh, info, &mem)
	})
	if IsError(status) {
		return Fail[*Image](constructionError("AllocateMemory", status))
	}
	undo.push(func() { api.FreeMemory(dh, mem) })

	if status := api.BindImageMemory(dh, img, mem, 0); IsError(status) {
		return Fail[*Image](constructionError("BindImageMemory", status))
	}
	undo.disarm()

	memory := &DeviceMemory{}
	memory.init(dev.reg, "DeviceMemory", mem, alloc, func(h native.DeviceMemory) {
		api.FreeMemory(dh, h)
	}, dev)
	image := &Image{memory: memory}
	image.init(dev.reg, "Image", img, cfg, func(h native.Image) {
		api.DestroyImage(dh, h)
	}, dev, memory)
	// the image now holds the only reference to its memory
	memory.Release()
	return Ok(image)
}

// wrapSwapchainImage exposes an image owned by sc. Destroying the wrapper
// never destroys the native image.
func wrapSwapchainImage(sc *Swapchain, handle native.Image) *Image {
	cfg := sc.Config()
	img := &Image{}
	img.init(sc.dev.reg, "SwapchainImage", handle, ImageConfig{
		Format: cfg.Format.Format,
		Extent: cfg.Extent,
		Usage:  cfg.Usage,
	}, nil, sc)
	return img
}

func (i *Image) Memory() *DeviceMemory {
	return i.memory
}

type ImageViewConfig struct {
	Image *Image
	// Format defaults to the image format.
	Format native.Format
	Aspect native.ImageAspectFlags
}

type ImageView struct {
	object[native.ImageView, ImageViewConfig]
}

func NewImageView(dev *Device, cfg ImageViewConfig) Result[*ImageView] {
	if cfg.Image == nil {
		return Fail[*ImageView](configError("NewImageView", "nil image"))
	}
	if cfg.Format == native.FormatUndefined {
		cfg.Format = cfg.Image.Config().Format
	}
	if cfg.Aspect == 0 {
		cfg.Aspect = aspectOf(cfg.Format)
	}
	api, dh := dev.api, dev.Handle()
	var handle native.ImageView
	status := staging.Call(func(a *staging.Arena) native.Status {
		return api.CreateImageView(dh, imageViewInfo(a, cfg.Image.Handle(), cfg.Format, cfg.Aspect), &handle)
	})
	if IsError(status) {
		return Fail[*ImageView](constructionError("CreateImageView", status))
	}
	view := &ImageView{}
	view.init(dev.reg, "ImageView", handle, cfg, func(h native.ImageView) {
		api.DestroyImageView(dh, h)
	}, dev, cfg.Image)
	return Ok(view)
}

func aspectOf(f native.Format) native.ImageAspectFlags {
	switch f {
	case native.FormatD16Unorm, native.FormatD32Sfloat:
		return native.ImageAspectDepthBit
	case native.FormatD24UnormS8Uint, native.FormatD32SfloatS8Uint:
		return native.ImageAspectDepthBit | native.ImageAspectStencilBit
	}
	return native.ImageAspectColorBit
}
