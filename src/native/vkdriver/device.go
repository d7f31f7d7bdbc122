package vkdriver

import (
	"github.com/mxplusb/epsilon/src/native"
	vk "github.com/vulkan-go/vulkan"
)

func (d *Driver) CreateDevice(pd native.PhysicalDevice, info *native.DeviceCreateInfo, out *native.Device) native.Status {
	queues := native.Slice(info.PQueueCreateInfos, info.QueueCreateInfoCount)
	queueInfos := make([]vk.DeviceQueueCreateInfo, 0, len(queues))
	for _, q := range queues {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: q.QueueFamilyIndex,
			QueueCount:       q.QueueCount,
			PQueuePriorities: append([]float32(nil), native.Slice(q.PQueuePriorities, q.QueueCount)...),
		})
	}
	var dev vk.Device
	ret := vk.CreateDevice(d.physical(pd), &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledLayerCount:       info.EnabledLayerCount,
		PpEnabledLayerNames:     cstrings(info.PpEnabledLayerNames, info.EnabledLayerCount),
		EnabledExtensionCount:   info.EnabledExtensionCount,
		PpEnabledExtensionNames: cstrings(info.PpEnabledExtensionNames, info.EnabledExtensionCount),
	}, nil, &dev)
	if ret != vk.Success {
		return status(ret)
	}
	*out = native.Device(d.handles.put(dev))
	return native.Success
}

func (d *Driver) DestroyDevice(device native.Device) {
	vk.DestroyDevice(d.device(device), nil)
	d.mu.Lock()
	queues := d.queues[device]
	delete(d.queues, device)
	d.mu.Unlock()
	for _, q := range queues {
		d.handles.drop(q)
	}
	d.handles.drop(native.Handle(device))
}

func (d *Driver) GetDeviceQueue(device native.Device, family, index uint32) native.Queue {
	var q vk.Queue
	vk.GetDeviceQueue(d.device(device), family, index, &q)
	if q == nil {
		return native.Queue(native.NullHandle)
	}
	h := d.handles.put(q)
	d.mu.Lock()
	d.queues[device] = append(d.queues[device], h)
	d.mu.Unlock()
	return native.Queue(h)
}

func (d *Driver) DeviceWaitIdle(device native.Device) native.Status {
	return status(vk.DeviceWaitIdle(d.device(device)))
}

func (d *Driver) CreateSwapchain(device native.Device, info *native.SwapchainCreateInfo, out *native.Swapchain) native.Status {
	var sc vk.Swapchain
	ret := vk.CreateSwapchain(d.device(device), &vk.SwapchainCreateInfo{
		SType:                 vk.StructureTypeSwapchainCreateInfo,
		Surface:               d.surface(info.Surface),
		MinImageCount:         info.MinImageCount,
		ImageFormat:           vk.Format(info.ImageFormat),
		ImageColorSpace:       vk.ColorSpace(info.ImageColorSpace),
		ImageExtent:           extent2D(info.ImageExtent),
		ImageArrayLayers:      info.ImageArrayLayers,
		ImageUsage:            vk.ImageUsageFlags(info.ImageUsage),
		ImageSharingMode:      vk.SharingMode(info.ImageSharingMode),
		QueueFamilyIndexCount: info.QueueFamilyIndexCount,
		PQueueFamilyIndices:   append([]uint32(nil), native.Slice(info.PQueueFamilyIndices, info.QueueFamilyIndexCount)...),
		PreTransform:          vk.SurfaceTransformFlagBits(info.PreTransform),
		CompositeAlpha:        vk.CompositeAlphaFlagBits(info.CompositeAlpha),
		PresentMode:           vk.PresentMode(info.PresentMode),
		Clipped:               vk.Bool32(info.Clipped),
		OldSwapchain:          d.swapchain(info.OldSwapchain),
	}, nil, &sc)
	if ret != vk.Success {
		return status(ret)
	}
	*out = native.Swapchain(d.handles.put(sc))
	return native.Success
}

func (d *Driver) DestroySwapchain(device native.Device, swapchain native.Swapchain) {
	vk.DestroySwapchain(d.device(device), d.swapchain(swapchain), nil)
	d.mu.Lock()
	images := d.images[swapchain]
	delete(d.images, swapchain)
	d.mu.Unlock()
	for _, h := range images {
		d.handles.drop(h)
	}
	d.handles.drop(native.Handle(swapchain))
}

func (d *Driver) GetSwapchainImages(device native.Device, swapchain native.Swapchain) ([]native.Image, native.Status) {
	dev, sc := d.device(device), d.swapchain(swapchain)
	var count uint32
	if ret := vk.GetSwapchainImages(dev, sc, &count, nil); ret != vk.Success {
		return nil, status(ret)
	}
	images := make([]vk.Image, count)
	if ret := vk.GetSwapchainImages(dev, sc, &count, images); ret != vk.Success {
		return nil, status(ret)
	}
	out := make([]native.Image, 0, count)
	handles := make([]native.Handle, 0, count)
	for _, img := range images[:count] {
		h := d.handles.put(img)
		handles = append(handles, h)
		out = append(out, native.Image(h))
	}
	d.mu.Lock()
	d.images[swapchain] = handles
	d.mu.Unlock()
	return out, native.Success
}

func (d *Driver) AcquireNextImage(device native.Device, swapchain native.Swapchain, timeout uint64, semaphore native.Semaphore, fence native.Fence, index *uint32) native.Status {
	return status(vk.AcquireNextImage(d.device(device), d.swapchain(swapchain), timeout,
		d.semaphore(semaphore), d.fence(fence), index))
}

func (d *Driver) CreateImage(device native.Device, info *native.ImageCreateInfo, out *native.Image) native.Status {
	var img vk.Image
	ret := vk.CreateImage(d.device(device), &vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType(info.ImageType),
		Format:    vk.Format(info.Format),
		Extent: vk.Extent3D{
			Width:  info.Extent.Width,
			Height: info.Extent.Height,
			Depth:  info.Extent.Depth,
		},
		MipLevels:     info.MipLevels,
		ArrayLayers:   info.ArrayLayers,
		Samples:       vk.SampleCountFlagBits(info.Samples),
		Tiling:        vk.ImageTiling(info.Tiling),
		Usage:         vk.ImageUsageFlags(info.Usage),
		SharingMode:   vk.SharingMode(info.SharingMode),
		InitialLayout: vk.ImageLayout(info.InitialLayout),
	}, nil, &img)
	if ret != vk.Success {
		return status(ret)
	}
	*out = native.Image(d.handles.put(img))
	return native.Success
}

func (d *Driver) DestroyImage(device native.Device, image native.Image) {
	vk.DestroyImage(d.device(device), d.image(image), nil)
	d.handles.drop(native.Handle(image))
}

func (d *Driver) GetImageMemoryRequirements(device native.Device, image native.Image) native.MemoryRequirements {
	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.device(device), d.image(image), &req)
	req.Deref()
	return native.MemoryRequirements{
		Size:           uint64(req.Size),
		Alignment:      uint64(req.Alignment),
		MemoryTypeBits: req.MemoryTypeBits,
	}
}

func (d *Driver) AllocateMemory(device native.Device, info *native.MemoryAllocateInfo, out *native.DeviceMemory) native.Status {
	var mem vk.DeviceMemory
	ret := vk.AllocateMemory(d.device(device), &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(info.AllocationSize),
		MemoryTypeIndex: info.MemoryTypeIndex,
	}, nil, &mem)
	if ret != vk.Success {
		return status(ret)
	}
	*out = native.DeviceMemory(d.handles.put(mem))
	return native.Success
}

func (d *Driver) FreeMemory(device native.Device, memory native.DeviceMemory) {
	vk.FreeMemory(d.device(device), d.memory(memory), nil)
	d.handles.drop(native.Handle(memory))
}

func (d *Driver) BindImageMemory(device native.Device, image native.Image, memory native.DeviceMemory, offset uint64) native.Status {
	return status(vk.BindImageMemory(d.device(device), d.image(image), d.memory(memory), vk.DeviceSize(offset)))
}

func (d *Driver) CreateImageView(device native.Device, info *native.ImageViewCreateInfo, out *native.ImageView) native.Status {
	r := info.SubresourceRange
	var view vk.ImageView
	ret := vk.CreateImageView(d.device(device), &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    d.image(info.Image),
		ViewType: vk.ImageViewType(info.ViewType),
		Format:   vk.Format(info.Format),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(r.AspectMask),
			BaseMipLevel:   r.BaseMipLevel,
			LevelCount:     r.LevelCount,
			BaseArrayLayer: r.BaseArrayLayer,
			LayerCount:     r.LayerCount,
		},
	}, nil, &view)
	if ret != vk.Success {
		return status(ret)
	}
	*out = native.ImageView(d.handles.put(view))
	return native.Success
}

func (d *Driver) DestroyImageView(device native.Device, view native.ImageView) {
	vk.DestroyImageView(d.device(device), d.imageView(view), nil)
	d.handles.drop(native.Handle(view))
}
