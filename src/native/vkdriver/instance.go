package vkdriver

import (
	"unsafe"

	"github.com/mxplusb/epsilon/src/native"
	vk "github.com/vulkan-go/vulkan"
)

const debugReportFlags = vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit |
	vk.DebugReportPerformanceWarningBit | vk.DebugReportInformationBit)

func (d *Driver) CreateInstance(info *native.InstanceCreateInfo, out *native.Instance) native.Status {
	var inst vk.Instance
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			PApplicationName:   cstring(info.PApplicationName),
			ApplicationVersion: info.ApplicationVersion,
			PEngineName:        cstring(info.PEngineName),
			EngineVersion:      info.EngineVersion,
			ApiVersion:         info.APIVersion,
		},
		EnabledLayerCount:       info.EnabledLayerCount,
		PpEnabledLayerNames:     cstrings(info.PpEnabledLayerNames, info.EnabledLayerCount),
		EnabledExtensionCount:   info.EnabledExtensionCount,
		PpEnabledExtensionNames: cstrings(info.PpEnabledExtensionNames, info.EnabledExtensionCount),
	}, nil, &inst)
	if ret != vk.Success {
		return status(ret)
	}
	if err := vk.InitInstance(inst); err != nil {
		vk.DestroyInstance(inst, nil)
		return native.ErrorInitializationFailed
	}
	h := native.Instance(d.handles.put(inst))

	if fn := info.PfnDebugCallback; fn != nil {
		var cb vk.DebugReportCallback
		ret = vk.CreateDebugReportCallback(inst, &vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       debugReportFlags,
			PfnCallback: debugReporter(fn),
		}, nil, &cb)
		if ret != vk.Success {
			d.handles.drop(native.Handle(h))
			vk.DestroyInstance(inst, nil)
			return status(ret)
		}
		d.mu.Lock()
		d.callbacks[h] = cb
		d.mu.Unlock()
	}
	*out = h
	return native.Success
}

func debugReporter(fn native.DebugCallback) vk.DebugReportCallbackFunc {
	return func(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64,
		location uint, messageCode int32, prefix, message string, userData unsafe.Pointer) vk.Bool32 {
		fn(native.DebugSeverity(flags), prefix, message)
		return vk.False
	}
}

func (d *Driver) DestroyInstance(instance native.Instance) {
	inst := d.instance(instance)
	d.mu.Lock()
	cb, ok := d.callbacks[instance]
	delete(d.callbacks, instance)
	d.mu.Unlock()
	if ok {
		vk.DestroyDebugReportCallback(inst, cb, nil)
	}
	vk.DestroyInstance(inst, nil)
	// physical devices belong to the instance and die with it
	d.handles.dropOwned(native.Handle(instance))
}

func (d *Driver) EnumeratePhysicalDevices(instance native.Instance) ([]native.PhysicalDevice, native.Status) {
	inst := d.instance(instance)
	var count uint32
	if ret := vk.EnumeratePhysicalDevices(inst, &count, nil); ret != vk.Success {
		return nil, status(ret)
	}
	gpus := make([]vk.PhysicalDevice, count)
	if ret := vk.EnumeratePhysicalDevices(inst, &count, gpus); ret != vk.Success {
		return nil, status(ret)
	}
	out := make([]native.PhysicalDevice, 0, count)
	for _, gpu := range gpus[:count] {
		h := d.handles.put(gpu)
		d.handles.own(native.Handle(instance), h)
		out = append(out, native.PhysicalDevice(h))
	}
	return out, native.Success
}

func (d *Driver) GetPhysicalDeviceProperties(pd native.PhysicalDevice) native.PhysicalDeviceProperties {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(d.physical(pd), &props)
	props.Deref()
	return native.PhysicalDeviceProperties{
		APIVersion:    props.ApiVersion,
		DriverVersion: props.DriverVersion,
		VendorID:      props.VendorID,
		DeviceID:      props.DeviceID,
		DeviceType:    native.PhysicalDeviceType(props.DeviceType),
		DeviceName:    vk.ToString(props.DeviceName[:]),
	}
}

func (d *Driver) GetPhysicalDeviceQueueFamilyProperties(pd native.PhysicalDevice) []native.QueueFamilyProperties {
	gpu := d.physical(pd)
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, props)
	out := make([]native.QueueFamilyProperties, 0, count)
	for _, p := range props[:count] {
		p.Deref()
		out = append(out, native.QueueFamilyProperties{
			QueueFlags: native.QueueFlags(p.QueueFlags),
			QueueCount: p.QueueCount,
		})
	}
	return out
}

func (d *Driver) GetPhysicalDeviceMemoryTypes(pd native.PhysicalDevice) []native.MemoryType {
	var props vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(d.physical(pd), &props)
	props.Deref()
	out := make([]native.MemoryType, 0, props.MemoryTypeCount)
	for i := uint32(0); i < props.MemoryTypeCount; i++ {
		t := props.MemoryTypes[i]
		t.Deref()
		out = append(out, native.MemoryType{
			PropertyFlags: native.MemoryPropertyFlags(t.PropertyFlags),
			HeapIndex:     t.HeapIndex,
		})
	}
	return out
}

func (d *Driver) EnumerateDeviceExtensions(pd native.PhysicalDevice) ([]string, native.Status) {
	gpu := d.physical(pd)
	var count uint32
	if ret := vk.EnumerateDeviceExtensionProperties(gpu, "", &count, nil); ret != vk.Success {
		return nil, status(ret)
	}
	list := make([]vk.ExtensionProperties, count)
	if ret := vk.EnumerateDeviceExtensionProperties(gpu, "", &count, list); ret != vk.Success {
		return nil, status(ret)
	}
	names := make([]string, 0, count)
	for _, ext := range list[:count] {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, native.Success
}

func (d *Driver) CreateSurface(instance native.Instance, info *native.SurfaceCreateInfo, out *native.Surface) native.Status {
	if info.Window == nil {
		return native.ErrorInitializationFailed
	}
	ptr, err := info.Window.CreateWindowSurface(d.instance(instance))
	if err != nil {
		return native.ErrorExtensionNotPresent
	}
	*out = native.Surface(d.handles.put(vk.SurfaceFromPointer(ptr)))
	return native.Success
}

func (d *Driver) DestroySurface(instance native.Instance, surface native.Surface) {
	vk.DestroySurface(d.instance(instance), d.surface(surface), nil)
	d.handles.drop(native.Handle(surface))
}

func (d *Driver) GetPhysicalDeviceSurfaceSupport(pd native.PhysicalDevice, family uint32, surface native.Surface) (bool, native.Status) {
	var supported vk.Bool32
	ret := vk.GetPhysicalDeviceSurfaceSupport(d.physical(pd), family, d.surface(surface), &supported)
	return supported.B(), status(ret)
}

func (d *Driver) GetPhysicalDeviceSurfaceCapabilities(pd native.PhysicalDevice, surface native.Surface) (native.SurfaceCapabilities, native.Status) {
	var caps vk.SurfaceCapabilities
	if ret := vk.GetPhysicalDeviceSurfaceCapabilities(d.physical(pd), d.surface(surface), &caps); ret != vk.Success {
		return native.SurfaceCapabilities{}, status(ret)
	}
	caps.Deref()
	return native.SurfaceCapabilities{
		MinImageCount:           caps.MinImageCount,
		MaxImageCount:           caps.MaxImageCount,
		CurrentExtent:           derefExtent(caps.CurrentExtent),
		MinImageExtent:          derefExtent(caps.MinImageExtent),
		MaxImageExtent:          derefExtent(caps.MaxImageExtent),
		CurrentTransform:        native.SurfaceTransformFlags(caps.CurrentTransform),
		SupportedTransforms:     native.SurfaceTransformFlags(caps.SupportedTransforms),
		SupportedCompositeAlpha: native.CompositeAlphaFlags(caps.SupportedCompositeAlpha),
		SupportedUsageFlags:     native.ImageUsageFlags(caps.SupportedUsageFlags),
	}, native.Success
}

func (d *Driver) GetPhysicalDeviceSurfaceFormats(pd native.PhysicalDevice, surface native.Surface) ([]native.SurfaceFormat, native.Status) {
	gpu, surf := d.physical(pd), d.surface(surface)
	var count uint32
	if ret := vk.GetPhysicalDeviceSurfaceFormats(gpu, surf, &count, nil); ret != vk.Success {
		return nil, status(ret)
	}
	formats := make([]vk.SurfaceFormat, count)
	if ret := vk.GetPhysicalDeviceSurfaceFormats(gpu, surf, &count, formats); ret != vk.Success {
		return nil, status(ret)
	}
	out := make([]native.SurfaceFormat, 0, count)
	for _, f := range formats[:count] {
		f.Deref()
		out = append(out, native.SurfaceFormat{
			Format:     native.Format(f.Format),
			ColorSpace: native.ColorSpace(f.ColorSpace),
		})
	}
	return out, native.Success
}

func (d *Driver) GetPhysicalDeviceSurfacePresentModes(pd native.PhysicalDevice, surface native.Surface) ([]native.PresentMode, native.Status) {
	gpu, surf := d.physical(pd), d.surface(surface)
	var count uint32
	if ret := vk.GetPhysicalDeviceSurfacePresentModes(gpu, surf, &count, nil); ret != vk.Success {
		return nil, status(ret)
	}
	modes := make([]vk.PresentMode, count)
	if ret := vk.GetPhysicalDeviceSurfacePresentModes(gpu, surf, &count, modes); ret != vk.Success {
		return nil, status(ret)
	}
	out := make([]native.PresentMode, 0, count)
	for _, m := range modes[:count] {
		out = append(out, native.PresentMode(m))
	}
	return out, native.Success
}
