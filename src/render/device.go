package render

import (
	"github.com/mxplusb/epsilon/src/native"
	"github.com/mxplusb/epsilon/src/staging"
)

// QueueRequest asks for Count queues from one family. Priorities must have
// Count entries in [0, 1]; nil means 1.0 for every queue.
type QueueRequest struct {
	Family     uint32
	Count      int
	Priorities []float32
}

func (q QueueRequest) priorities() []float32 {
	if q.Priorities != nil {
		return q.Priorities
	}
	p := make([]float32, q.Count)
	for i := range p {
		p[i] = 1
	}
	return p
}

type DeviceConfig struct {
	Queues     []QueueRequest
	Extensions []string
	Layers     []string
}

// Device is the logical device. Every other device-level resource retains it.
type Device struct {
	object[native.Device, DeviceConfig]
	api      native.API
	physical *PhysicalDevice
	reg      *registry
	queues   map[[2]uint32]*Queue
}

func (c DeviceConfig) validate(pd *PhysicalDevice) error {
	if len(c.Queues) == 0 {
		return configError("NewDevice", "no queues requested")
	}
	seen := map[uint32]bool{}
	for _, q := range c.Queues {
		if q.Count <= 0 {
			return configError("NewDevice", "family %d: queue count %d", q.Family, q.Count)
		}
		if q.Priorities != nil && len(q.Priorities) != q.Count {
			return configError("NewDevice", "family %d: %d priorities for %d queues", q.Family, len(q.Priorities), q.Count)
		}
		for _, p := range q.Priorities {
			if p < 0 || p > 1 {
				return configError("NewDevice", "family %d: priority %v outside [0, 1]", q.Family, p)
			}
		}
		if seen[q.Family] {
			return configError("NewDevice", "family %d requested twice", q.Family)
		}
		seen[q.Family] = true
		if int(q.Family) >= len(pd.QueueFamilies) {
			return configError("NewDevice", "family %d does not exist (%d families)", q.Family, len(pd.QueueFamilies))
		}
		if avail := pd.QueueFamilies[q.Family].QueueCount; uint32(q.Count) > avail {
			return configError("NewDevice", "family %d: %d queues requested, %d available", q.Family, q.Count, avail)
		}
	}
	return nil
}

func NewDevice(pd *PhysicalDevice, cfg DeviceConfig) Result[*Device] {
	if err := cfg.validate(pd); err != nil {
		return Fail[*Device](err)
	}
	queues := make([]QueueRequest, len(cfg.Queues))
	for i, q := range cfg.Queues {
		q.Priorities = append([]float32(nil), q.priorities()...)
		queues[i] = q
	}
	cfg.Queues = queues
	cfg.Extensions = append([]string(nil), cfg.Extensions...)
	cfg.Layers = append([]string(nil), cfg.Layers...)

	inst := pd.Instance()
	api := inst.api
	var handle native.Device
	status := staging.Call(func(a *staging.Arena) native.Status {
		return api.CreateDevice(pd.Handle(), deviceInfo(a, cfg), &handle)
	})
	if IsError(status) {
		return Fail[*Device](constructionError("CreateDevice", status))
	}

	dev := &Device{api: api, physical: pd, reg: inst.reg, queues: map[[2]uint32]*Queue{}}
	dev.init(inst.reg, "Device", handle, cfg, api.DestroyDevice, inst)
	Logger().Info("device created", "device", pd.Name(), "queues", len(cfg.Queues))
	return Ok(dev)
}

// Queue returns queue index of family. Queues belong to the device and are
// never destroyed on their own.
func (d *Device) Queue(family, index uint32) (*Queue, error) {
	key := [2]uint32{family, index}
	if q, ok := d.queues[key]; ok {
		return q, nil
	}
	found := false
	for _, r := range d.config.Queues {
		if r.Family == family && int(index) < r.Count {
			found = true
			break
		}
	}
	if !found {
		return nil, lookupError("Queue", "queue %d of family %d was not requested", index, family)
	}
	q := &Queue{dev: d, family: family, index: index, handle: d.api.GetDeviceQueue(d.Handle(), family, index)}
	d.queues[key] = q
	return q, nil
}

// WaitIdle blocks until all work submitted to the device has completed.
func (d *Device) WaitIdle() error {
	return NewError("DeviceWaitIdle", d.api.DeviceWaitIdle(d.Handle()))
}

func (d *Device) API() native.API {
	return d.api
}

func (d *Device) Physical() *PhysicalDevice {
	return d.physical
}

func (d *Device) LiveObjects() map[string]int {
	return d.reg.snapshot()
}

// memoryTypeIndex finds a memory type allowed by bits that has all of props.
func (d *Device) memoryTypeIndex(bits uint32, props native.MemoryPropertyFlags) (uint32, bool) {
	for i, mt := range d.physical.MemoryTypes {
		if bits&(1<<uint(i)) != 0 && mt.PropertyFlags&props == props {
			return uint32(i), true
		}
	}
	return 0, false
}
