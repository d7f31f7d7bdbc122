package nativetest

import (
	"github.com/mxplusb/epsilon/src/native"
)

type surface struct {
	window sizer
	stale  bool
}

type sizer interface {
	FramebufferSize() (int, int)
}

func (g *GPU) CreateInstance(info *native.InstanceCreateInfo, out *native.Instance) native.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("CreateInstance"); failed {
		return status
	}
	d := g.capture("CreateInstance", func() interface{} { return decodeInstance(info) })
	defer g.verify(d)

	h := g.alloc("Instance")
	g.physical = g.physical[:0]
	for i := range g.Adapters {
		pd := native.PhysicalDevice(g.alloc("PhysicalDevice"))
		g.physical = append(g.physical, pd)
		g.adapters[pd] = i
	}
	if info.PfnDebugCallback != nil {
		info.PfnDebugCallback(native.DebugSeverityInfo, "nativetest", "instance created")
	}
	*out = native.Instance(h)
	return native.Success
}

func (g *GPU) DestroyInstance(instance native.Instance) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enter("DestroyInstance")
	for _, pd := range g.physical {
		g.objects[native.Handle(pd)].live = false
	}
	g.destroy("DestroyInstance", native.Handle(instance), "Instance")
}

func (g *GPU) EnumeratePhysicalDevices(instance native.Instance) ([]native.PhysicalDevice, native.Status) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("EnumeratePhysicalDevices"); failed {
		return nil, status
	}
	g.use("EnumeratePhysicalDevices", native.Handle(instance), "Instance")
	return append([]native.PhysicalDevice(nil), g.physical...), native.Success
}

func (g *GPU) adapter(pd native.PhysicalDevice) Adapter {
	return g.Adapters[g.adapters[pd]]
}

func (g *GPU) GetPhysicalDeviceProperties(pd native.PhysicalDevice) native.PhysicalDeviceProperties {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enter("GetPhysicalDeviceProperties")
	a := g.adapter(pd)
	return native.PhysicalDeviceProperties{
		APIVersion: 1<<22 | 3<<12,
		VendorID:   0x10de,
		DeviceID:   uint32(g.adapters[pd]),
		DeviceType: a.Type,
		DeviceName: a.Name,
	}
}

func (g *GPU) GetPhysicalDeviceQueueFamilyProperties(pd native.PhysicalDevice) []native.QueueFamilyProperties {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enter("GetPhysicalDeviceQueueFamilyProperties")
	return append([]native.QueueFamilyProperties(nil), g.adapter(pd).QueueFamilies...)
}

func (g *GPU) GetPhysicalDeviceMemoryTypes(pd native.PhysicalDevice) []native.MemoryType {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enter("GetPhysicalDeviceMemoryTypes")
	return append([]native.MemoryType(nil), g.adapter(pd).MemoryTypes...)
}

func (g *GPU) EnumerateDeviceExtensions(pd native.PhysicalDevice) ([]string, native.Status) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("EnumerateDeviceExtensions"); failed {
		return nil, status
	}
	return append([]string(nil), g.adapter(pd).Extensions...), native.Success
}

func (g *GPU) CreateSurface(instance native.Instance, info *native.SurfaceCreateInfo, out *native.Surface) native.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("CreateSurface"); failed {
		return status
	}
	if _, err := info.Window.CreateWindowSurface(instance); err != nil {
		return native.ErrorInitializationFailed
	}
	s := &surface{}
	if w, ok := info.Window.(sizer); ok {
		s.window = w
	}
	h := native.Surface(g.alloc("Surface", native.Handle(instance)))
	g.surfaces[h] = s
	*out = h
	return native.Success
}

func (g *GPU) DestroySurface(instance native.Instance, s native.Surface) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enter("DestroySurface")
	g.destroy("DestroySurface", native.Handle(s), "Surface")
}

func (g *GPU) GetPhysicalDeviceSurfaceSupport(pd native.PhysicalDevice, family uint32, s native.Surface) (bool, native.Status) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("GetPhysicalDeviceSurfaceSupport"); failed {
		return false, status
	}
	g.use("GetPhysicalDeviceSurfaceSupport", native.Handle(s), "Surface")
	a := g.adapter(pd)
	if int(family) >= len(a.QueueFamilies) {
		return false, native.Success
	}
	if a.PresentFamilies == nil {
		return true, native.Success
	}
	for _, f := range a.PresentFamilies {
		if f == family {
			return true, native.Success
		}
	}
	return false, native.Success
}

// extent is the current drawable size of s.
func (g *GPU) extent(s native.Surface) native.Extent2D {
	st := g.surfaces[s]
	if st == nil || st.window == nil {
		return native.Extent2D{Width: 640, Height: 480}
	}
	w, h := st.window.FramebufferSize()
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return native.Extent2D{Width: uint32(w), Height: uint32(h)}
}

func (g *GPU) GetPhysicalDeviceSurfaceCapabilities(pd native.PhysicalDevice, s native.Surface) (native.SurfaceCapabilities, native.Status) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("GetPhysicalDeviceSurfaceCapabilities"); failed {
		return native.SurfaceCapabilities{}, status
	}
	if !g.use("GetPhysicalDeviceSurfaceCapabilities", native.Handle(s), "Surface") {
		return native.SurfaceCapabilities{}, native.ErrorSurfaceLost
	}
	return native.SurfaceCapabilities{
		MinImageCount:           2,
		MaxImageCount:           8,
		CurrentExtent:           g.extent(s),
		MinImageExtent:          native.Extent2D{Width: 1, Height: 1},
		MaxImageExtent:          native.Extent2D{Width: 16384, Height: 16384},
		CurrentTransform:        native.SurfaceTransformIdentityBit,
		SupportedTransforms:     native.SurfaceTransformIdentityBit,
		SupportedCompositeAlpha: native.CompositeAlphaOpaqueBit,
		SupportedUsageFlags: native.ImageUsageColorAttachmentBit |
			native.ImageUsageTransferDstBit |
			native.ImageUsageTransferSrcBit |
			native.ImageUsageSampledBit,
	}, native.Success
}

func (g *GPU) GetPhysicalDeviceSurfaceFormats(pd native.PhysicalDevice, s native.Surface) ([]native.SurfaceFormat, native.Status) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("GetPhysicalDeviceSurfaceFormats"); failed {
		return nil, status
	}
	return append([]native.SurfaceFormat(nil), g.SurfaceFormats...), native.Success
}

func (g *GPU) GetPhysicalDeviceSurfacePresentModes(pd native.PhysicalDevice, s native.Surface) ([]native.PresentMode, native.Status) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("GetPhysicalDeviceSurfacePresentModes"); failed {
		return nil, status
	}
	return append([]native.PresentMode(nil), g.PresentModes...), native.Success
}

// MarkSurfaceStale makes every swapchain of s report out of date until it is
// replaced.
func (g *GPU) MarkSurfaceStale(s native.Surface) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, sc := range g.swapchains {
		if sc.surface == s {
			sc.stale = true
		}
	}
}

// MarkSuboptimal makes the next acquire or present on any live swapchain of
// s report suboptimal.
func (g *GPU) MarkSuboptimal(s native.Surface) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, sc := range g.swapchains {
		if sc.surface == s {
			sc.suboptimal = true
		}
	}
}

func (g *GPU) CreateDevice(pd native.PhysicalDevice, info *native.DeviceCreateInfo, out *native.Device) native.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("CreateDevice"); failed {
		return status
	}
	d := g.capture("CreateDevice", func() interface{} { return decodeDevice(info) })
	defer g.verify(d)

	a := g.adapter(pd)
	for _, q := range native.Slice(info.PQueueCreateInfos, info.QueueCreateInfoCount) {
		if int(q.QueueFamilyIndex) >= len(a.QueueFamilies) || q.QueueCount > a.QueueFamilies[q.QueueFamilyIndex].QueueCount {
			g.violate("CreateDevice: invalid queue request family %d count %d", q.QueueFamilyIndex, q.QueueCount)
			return native.ErrorInitializationFailed
		}
		if len(native.Slice(q.PQueuePriorities, q.QueueCount)) != int(q.QueueCount) {
			g.violate("CreateDevice: family %d has no priorities", q.QueueFamilyIndex)
		}
	}
	have := map[string]bool{}
	for _, e := range a.Extensions {
		have[e] = true
	}
	for _, e := range native.GoStrings(info.PpEnabledExtensionNames, info.EnabledExtensionCount) {
		if !have[e] {
			return native.ErrorExtensionNotPresent
		}
	}

	var instance native.Handle
	for _, o := range g.objects {
		if o.kind == "Instance" && o.live {
			instance = o.handle
		}
	}
	*out = native.Device(g.alloc("Device", instance))
	g.startQueue()
	return native.Success
}

func (g *GPU) DestroyDevice(device native.Device) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enter("DestroyDevice")
	if g.inFlight > 0 {
		g.violate("DestroyDevice: %d submissions still executing", g.inFlight)
	}
	g.destroy("DestroyDevice", native.Handle(device), "Device")
	g.stopQueue()
}

func (g *GPU) GetDeviceQueue(device native.Device, family, index uint32) native.Queue {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enter("GetDeviceQueue")
	g.use("GetDeviceQueue", native.Handle(device), "Device")
	// queues are not destroyed and are not tracked as dependents
	return native.Queue(g.alloc("Queue"))
}

func (g *GPU) DeviceWaitIdle(device native.Device) native.Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, failed := g.enter("DeviceWaitIdle"); failed {
		return status
	}
	g.use("DeviceWaitIdle", native.Handle(device), "Device")
	g.drain()
	return native.Success
}
