package render

import (
	"sort"

	"github.com/mxplusb/epsilon/src/native"
	"github.com/mxplusb/epsilon/src/staging"
)

type InstanceConfig struct {
	ApplicationName    string
	ApplicationVersion uint32
	EngineName         string
	EngineVersion      uint32
	APIVersion         uint32
	Layers             []string
	Extensions         []string
	// DebugCallback receives driver and validation messages. It is called
	// synchronously from inside native calls and must outlive the instance.
	DebugCallback native.DebugCallback
}

// Instance is the root of every resource graph. It owns the live-object
// registry shared by everything created under it.
type Instance struct {
	object[native.Instance, InstanceConfig]
	api native.API
	reg *registry
}

func NewInstance(api native.API, cfg InstanceConfig) Result[*Instance] {
	if api == nil {
		return Fail[*Instance](configError("NewInstance", "nil native API"))
	}
	cfg.Layers = append([]string(nil), cfg.Layers...)
	cfg.Extensions = append([]string(nil), cfg.Extensions...)

	var handle native.Instance
	status := staging.Call(func(a *staging.Arena) native.Status {
		return api.CreateInstance(instanceInfo(a, cfg), &handle)
	})
	if IsError(status) {
		return Fail[*Instance](constructionError("CreateInstance", status))
	}

	inst := &Instance{api: api, reg: newRegistry()}
	inst.init(inst.reg, "Instance", handle, cfg, func(h native.Instance) {
		if live := inst.reg.snapshot(); len(live) > 1 {
			Logger().Warn("instance destroyed with live objects", "live", inst.reg.String())
		}
		api.DestroyInstance(h)
	})
	Logger().Info("instance created",
		"application", cfg.ApplicationName,
		"layers", cfg.Layers,
		"extensions", cfg.Extensions)
	return Ok(inst)
}

func (i *Instance) API() native.API {
	return i.api
}

// LiveObjects counts live resources by kind across the whole instance.
func (i *Instance) LiveObjects() map[string]int {
	return i.reg.snapshot()
}

// PhysicalDevices lists the adapters visible to the instance.
func (i *Instance) PhysicalDevices() ([]*PhysicalDevice, error) {
	handles, status := i.api.EnumeratePhysicalDevices(i.Handle())
	if IsError(status) {
		return nil, NewError("EnumeratePhysicalDevices", status)
	}
	out := make([]*PhysicalDevice, 0, len(handles))
	for _, h := range handles {
		out = append(out, &PhysicalDevice{
			inst:          i,
			handle:        h,
			Properties:    i.api.GetPhysicalDeviceProperties(h),
			QueueFamilies: i.api.GetPhysicalDeviceQueueFamilyProperties(h),
			MemoryTypes:   i.api.GetPhysicalDeviceMemoryTypes(h),
		})
	}
	return out, nil
}

// LogDebugCallback forwards debug messages to the render logger.
func LogDebugCallback(severity native.DebugSeverity, prefix, message string) {
	l := Logger()
	switch {
	case severity&native.DebugSeverityError != 0:
		l.Error(message, "source", prefix)
	case severity&(native.DebugSeverityWarning|native.DebugSeverityPerf) != 0:
		l.Warn(message, "source", prefix)
	case severity&native.DebugSeverityInfo != 0:
		l.Info(message, "source", prefix)
	default:
		l.Debug(message, "source", prefix)
	}
}

// PhysicalDevice is a non-owning view of an adapter. Its lifetime is that of
// the instance it was enumerated from.
type PhysicalDevice struct {
	inst          *Instance
	handle        native.PhysicalDevice
	Properties    native.PhysicalDeviceProperties
	QueueFamilies []native.QueueFamilyProperties
	MemoryTypes   []native.MemoryType
}

func (p *PhysicalDevice) Handle() native.PhysicalDevice {
	return p.handle
}

func (p *PhysicalDevice) Instance() *Instance {
	return p.inst
}

func (p *PhysicalDevice) Name() string {
	return p.Properties.DeviceName
}

func (p *PhysicalDevice) Extensions() ([]string, error) {
	exts, status := p.inst.api.EnumerateDeviceExtensions(p.handle)
	if IsError(status) {
		return nil, NewError("EnumerateDeviceExtensions", status)
	}
	return exts, nil
}

func (p *PhysicalDevice) SupportsPresent(family uint32, surface *Surface) (bool, error) {
	ok, status := p.inst.api.GetPhysicalDeviceSurfaceSupport(p.handle, family, surface.Handle())
	if IsError(status) {
		return false, NewError("GetPhysicalDeviceSurfaceSupport", status)
	}
	return ok, nil
}

func (p *PhysicalDevice) SurfaceCapabilities(surface *Surface) (native.SurfaceCapabilities, error) {
	caps, status := p.inst.api.GetPhysicalDeviceSurfaceCapabilities(p.handle, surface.Handle())
	if IsError(status) {
		return caps, NewError("GetPhysicalDeviceSurfaceCapabilities", status)
	}
	return caps, nil
}

func (p *PhysicalDevice) SurfaceFormats(surface *Surface) ([]native.SurfaceFormat, error) {
	formats, status := p.inst.api.GetPhysicalDeviceSurfaceFormats(p.handle, surface.Handle())
	if IsError(status) {
		return nil, NewError("GetPhysicalDeviceSurfaceFormats", status)
	}
	return formats, nil
}

func (p *PhysicalDevice) PresentModes(surface *Surface) ([]native.PresentMode, error) {
	modes, status := p.inst.api.GetPhysicalDeviceSurfacePresentModes(p.handle, surface.Handle())
	if IsError(status) {
		return nil, NewError("GetPhysicalDeviceSurfacePresentModes", status)
	}
	return modes, nil
}

// Requirements describe what SelectPhysicalDevice looks for.
type Requirements struct {
	// QueueFlags must all be set on the chosen graphics family. Graphics is
	// always required.
	QueueFlags native.QueueFlags
	Extensions []string
}

// Selection is a device that satisfied Requirements together with the queue
// families to use on it.
type Selection struct {
	Device         *PhysicalDevice
	GraphicsFamily uint32
	PresentFamily  uint32
}

// Families lists the distinct queue families of the selection.
func (s Selection) Families() []uint32 {
	if s.GraphicsFamily == s.PresentFamily {
		return []uint32{s.GraphicsFamily}
	}
	return []uint32{s.GraphicsFamily, s.PresentFamily}
}

// SelectPhysicalDevice picks the adapter best suited to render to surface.
// Discrete GPUs win over integrated ones; a family able to both render and
// present wins over a split pair.
func SelectPhysicalDevice(inst *Instance, surface *Surface, req Requirements) Result[Selection] {
	devices, err := inst.PhysicalDevices()
	if err != nil {
		return Fail[Selection](err)
	}

	type candidate struct {
		sel   Selection
		score int
	}
	var candidates []candidate
	for _, pd := range devices {
		sel, ok, err := evaluate(pd, surface, req)
		if err != nil {
			return Fail[Selection](err)
		}
		if !ok {
			Logger().Debug("physical device rejected", "device", pd.Name())
			continue
		}
		candidates = append(candidates, candidate{sel: sel, score: score(pd, sel)})
	}
	if len(candidates) == 0 {
		return Fail[Selection](lookupError("SelectPhysicalDevice",
			"none of %d devices can render and present with extensions %v", len(devices), req.Extensions))
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})
	best := candidates[0].sel
	Logger().Info("physical device selected",
		"device", best.Device.Name(),
		"type", best.Device.Properties.DeviceType,
		"graphics_family", best.GraphicsFamily,
		"present_family", best.PresentFamily)
	return Ok(best)
}

func evaluate(pd *PhysicalDevice, surface *Surface, req Requirements) (Selection, bool, error) {
	if len(req.Extensions) > 0 {
		have, err := pd.Extensions()
		if err != nil {
			return Selection{}, false, err
		}
		set := make(map[string]bool, len(have))
		for _, e := range have {
			set[e] = true
		}
		for _, e := range req.Extensions {
			if !set[e] {
				return Selection{}, false, nil
			}
		}
	}

	want := req.QueueFlags | native.QueueGraphicsBit
	graphics, present := -1, -1
	for i, qf := range pd.QueueFamilies {
		family := uint32(i)
		canPresent := false
		if surface != nil {
			ok, err := pd.SupportsPresent(family, surface)
			if err != nil {
				return Selection{}, false, err
			}
			canPresent = ok
		}
		renders := qf.QueueCount > 0 && qf.QueueFlags&want == want
		if renders && (canPresent || surface == nil) {
			return Selection{Device: pd, GraphicsFamily: family, PresentFamily: family}, true, nil
		}
		if renders && graphics < 0 {
			graphics = i
		}
		if canPresent && present < 0 {
			present = i
		}
	}
	if graphics < 0 || present < 0 {
		return Selection{}, false, nil
	}
	return Selection{Device: pd, GraphicsFamily: uint32(graphics), PresentFamily: uint32(present)}, true, nil
}

func score(pd *PhysicalDevice, sel Selection) int {
	s := 0
	switch pd.Properties.DeviceType {
	case native.PhysicalDeviceTypeDiscreteGPU:
		s += 1000
	case native.PhysicalDeviceTypeIntegratedGPU:
		s += 100
	case native.PhysicalDeviceTypeVirtualGPU:
		s += 10
	}
	if sel.GraphicsFamily == sel.PresentFamily {
		s += 50
	}
	return s
}
