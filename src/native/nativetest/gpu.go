// Package nativetest provides an instrumented in-process implementation of
// native.API. It tracks every object and its dependencies, executes submitted
// work on a single in-order queue goroutine, and records violations of the
// native API's lifetime and synchronization rules instead of crashing.
package nativetest

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mxplusb/epsilon/src/native"
)

// Adapter describes one physical device exposed by the GPU.
type Adapter struct {
	Name          string
	Type          native.PhysicalDeviceType
	QueueFamilies []native.QueueFamilyProperties
	// PresentFamilies lists the families able to present. nil means all.
	PresentFamilies []uint32
	Extensions      []string
	MemoryTypes     []native.MemoryType
}

// DefaultAdapter is a discrete GPU with a general purpose family and a
// transfer-only family.
func DefaultAdapter() Adapter {
	return Adapter{
		Name: "nativetest discrete",
		Type: native.PhysicalDeviceTypeDiscreteGPU,
		QueueFamilies: []native.QueueFamilyProperties{
			{QueueFlags: native.QueueGraphicsBit | native.QueueComputeBit | native.QueueTransferBit, QueueCount: 4},
			{QueueFlags: native.QueueTransferBit, QueueCount: 2},
		},
		Extensions: []string{"VK_KHR_swapchain"},
		MemoryTypes: []native.MemoryType{
			{PropertyFlags: native.MemoryPropertyDeviceLocalBit, HeapIndex: 0},
			{PropertyFlags: native.MemoryPropertyHostVisibleBit | native.MemoryPropertyHostCoherentBit, HeapIndex: 1},
		},
	}
}

type object struct {
	handle native.Handle
	kind   string
	deps   []native.Handle
	users  int
	live   bool
}

// GPU implements native.API. Exported fields configure it and must be set
// before the first call.
type GPU struct {
	Adapters       []Adapter
	SurfaceFormats []native.SurfaceFormat
	PresentModes   []native.PresentMode
	// ExecTime is how long the queue takes to execute one submission.
	ExecTime time.Duration

	mu   sync.Mutex
	cond *sync.Cond

	next       native.Handle
	objects    map[native.Handle]*object
	calls      []string
	counts     map[string]int
	failures   map[string][]native.Status
	violations []string

	physical   []native.PhysicalDevice
	adapters   map[native.PhysicalDevice]int
	surfaces   map[native.Surface]*surface
	swapchains map[native.Swapchain]*swapchain
	fences     map[native.Fence]*fence
	semaphores map[native.Semaphore]*semaphore
	commands   map[native.CommandBuffer]*commandBuffer
	memory     map[native.Image]native.DeviceMemory

	work      chan job
	inFlight  int
	submitted int
	presented int

	descriptors []*Descriptor
}

func New() *GPU {
	g := &GPU{
		Adapters: []Adapter{DefaultAdapter()},
		SurfaceFormats: []native.SurfaceFormat{
			{Format: native.FormatB8G8R8A8Srgb, ColorSpace: native.ColorSpaceSrgbNonlinear},
			{Format: native.FormatB8G8R8A8Unorm, ColorSpace: native.ColorSpaceSrgbNonlinear},
		},
		PresentModes: []native.PresentMode{native.PresentModeFifo, native.PresentModeMailbox, native.PresentModeImmediate},
		next:         0x1000,
		objects:      map[native.Handle]*object{},
		counts:       map[string]int{},
		failures:     map[string][]native.Status{},
		adapters:     map[native.PhysicalDevice]int{},
		surfaces:     map[native.Surface]*surface{},
		swapchains:   map[native.Swapchain]*swapchain{},
		fences:       map[native.Fence]*fence{},
		semaphores:   map[native.Semaphore]*semaphore{},
		commands:     map[native.CommandBuffer]*commandBuffer{},
		memory:       map[native.Image]native.DeviceMemory{},
	}
	g.cond = sync.NewCond(&g.mu)
	return g
}

var _ native.API = (*GPU)(nil)

// FailOn makes the next call named call return status. Repeated calls queue
// further failures.
func (g *GPU) FailOn(call string, status native.Status) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[call] = append(g.failures[call], status)
}

// enter logs a call and returns an injected failure, if any. g.mu is held.
func (g *GPU) enter(call string) (native.Status, bool) {
	g.calls = append(g.calls, call)
	g.counts[call]++
	if q := g.failures[call]; len(q) > 0 {
		g.failures[call] = q[1:]
		return q[0], true
	}
	return native.Success, false
}

func (g *GPU) violate(format string, args ...interface{}) {
	g.violations = append(g.violations, fmt.Sprintf(format, args...))
}

func (g *GPU) alloc(kind string, deps ...native.Handle) native.Handle {
	g.next++
	h := g.next
	o := &object{handle: h, kind: kind, live: true}
	for _, d := range deps {
		if d == native.NullHandle {
			continue
		}
		dep, ok := g.objects[d]
		if !ok || !dep.live {
			g.violate("%s created from dead or unknown %#x", kind, uint64(d))
			continue
		}
		dep.users++
		o.deps = append(o.deps, d)
	}
	g.objects[h] = o
	return h
}

// addDep makes h depend on dep after creation.
func (g *GPU) addDep(h, dep native.Handle) {
	o, d := g.objects[h], g.objects[dep]
	if o == nil || d == nil || !d.live {
		g.violate("dependency on dead or unknown %#x", uint64(dep))
		return
	}
	d.users++
	o.deps = append(o.deps, dep)
}

// use checks that h is a live object of kind.
func (g *GPU) use(call string, h native.Handle, kind string) bool {
	o, ok := g.objects[h]
	switch {
	case !ok:
		g.violate("%s: unknown %s %#x", call, kind, uint64(h))
		return false
	case !o.live:
		g.violate("%s: use of destroyed %s %#x", call, o.kind, uint64(h))
		return false
	case kind != "" && o.kind != kind:
		g.violate("%s: %#x is a %s, not a %s", call, uint64(h), o.kind, kind)
		return false
	}
	return true
}

func (g *GPU) destroy(call string, h native.Handle, kind string) {
	if h == native.NullHandle {
		return
	}
	if !g.use(call, h, kind) {
		return
	}
	o := g.objects[h]
	if o.users > 0 {
		g.violate("%s: %s %#x destroyed while %d objects depend on it", call, o.kind, uint64(h), o.users)
	}
	o.live = false
	for _, d := range o.deps {
		g.objects[d].users--
	}
}

// Calls returns the names of all calls made so far, in order.
func (g *GPU) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

// Count returns how often call was made.
func (g *GPU) Count(call string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counts[call]
}

// Violations returns every rule violation observed so far.
func (g *GPU) Violations() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.violations...)
}

// Live counts live objects of kind.
func (g *GPU) Live(kind string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, o := range g.objects {
		if o.live && o.kind == kind {
			n++
		}
	}
	return n
}

// Leaks lists live objects that the API user is responsible for destroying.
func (g *GPU) Leaks() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []string
	for _, o := range g.objects {
		if !o.live {
			continue
		}
		switch o.kind {
		case "PhysicalDevice", "Queue", "SwapchainImage":
			continue
		}
		out = append(out, fmt.Sprintf("%s#%x", o.kind, uint64(o.handle)))
	}
	sort.Strings(out)
	return out
}

// Kind returns the kind of object h.
func (g *GPU) Kind(h native.Handle) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if o, ok := g.objects[h]; ok {
		return o.kind
	}
	return ""
}

// Alive reports whether h is a live object.
func (g *GPU) Alive(h native.Handle) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.objects[h]
	return ok && o.live
}
