package nativetest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mxplusb/epsilon/src/native"
)

func newInstance(t *testing.T, g *GPU) native.Instance {
	t.Helper()
	var inst native.Instance
	require.Equal(t, native.Success, g.CreateInstance(&native.InstanceCreateInfo{}, &inst))
	return inst
}

func TestGPUTracksLifetimes(t *testing.T) {
	g := New()
	inst := newInstance(t, g)
	var s native.Surface
	require.Equal(t, native.Success, g.CreateSurface(inst, &native.SurfaceCreateInfo{Window: NewWindow(8, 8)}, &s))

	require.Equal(t, []string{
		"Instance#1001",
		"Surface#1003",
	}, g.Leaks(), "physical devices are not leaks")
	require.Equal(t, 1, g.Live("Surface"))

	g.DestroyInstance(inst)
	require.Len(t, g.Violations(), 1)
	require.Contains(t, g.Violations()[0], "destroyed while 1 objects depend on it")

	g.DestroySurface(inst, s)
	require.False(t, g.Alive(native.Handle(s)))
	g.DestroySurface(inst, s)
	require.Contains(t, g.Violations()[1], "use of destroyed Surface")
	require.Empty(t, g.Leaks())
	require.Equal(t, "Surface", g.Kind(native.Handle(s)))
}

func TestGPUFailOnQueues(t *testing.T) {
	g := New()
	g.FailOn("CreateInstance", native.ErrorOutOfHostMemory)
	g.FailOn("CreateInstance", native.ErrorIncompatibleDriver)

	var inst native.Instance
	require.Equal(t, native.ErrorOutOfHostMemory, g.CreateInstance(&native.InstanceCreateInfo{}, &inst))
	require.Equal(t, native.ErrorIncompatibleDriver, g.CreateInstance(&native.InstanceCreateInfo{}, &inst))
	require.Equal(t, native.Success, g.CreateInstance(&native.InstanceCreateInfo{}, &inst))
	require.Equal(t, 3, g.Count("CreateInstance"))
	require.Equal(t, []string{"CreateInstance", "CreateInstance", "CreateInstance"}, g.Calls())

	g.DestroyInstance(inst)
	require.Empty(t, g.Leaks())
	require.Empty(t, g.Violations())
}

func TestGPUDebugCallback(t *testing.T) {
	g := New()
	var got []string
	var inst native.Instance
	require.Equal(t, native.Success, g.CreateInstance(&native.InstanceCreateInfo{
		PfnDebugCallback: func(severity native.DebugSeverity, prefix, message string) {
			require.Equal(t, native.DebugSeverityInfo, severity)
			got = append(got, prefix+": "+message)
		},
	}, &inst))
	require.Equal(t, []string{"nativetest: instance created"}, got)
	g.DestroyInstance(inst)
}

func TestGPUPhysicalDevices(t *testing.T) {
	g := New()
	integrated := DefaultAdapter()
	integrated.Name = "second"
	integrated.Type = native.PhysicalDeviceTypeIntegratedGPU
	g.Adapters = append(g.Adapters, integrated)

	inst := newInstance(t, g)
	devices, status := g.EnumeratePhysicalDevices(inst)
	require.Equal(t, native.Success, status)
	require.Len(t, devices, 2)
	require.Len(t, g.GetPhysicalDeviceMemoryTypes(devices[0]), 2)
	require.Equal(t, 1, g.Live("Instance"))
	require.Equal(t, 2, g.Live("PhysicalDevice"))

	g.DestroyInstance(inst)
	require.Zero(t, g.Live("PhysicalDevice"))
	require.Empty(t, g.Violations())
}

func TestWindowHooks(t *testing.T) {
	w := NewWindow(10, 20)
	var sizes [][2]int
	w.SetFramebufferSizeCallback(func(width, height int) {
		sizes = append(sizes, [2]int{width, height})
	})
	w.OnPollEvents = func(w *Window) {
		if w.Polls() == 2 {
			w.RequestClose()
		}
	}

	w.Resize(30, 40)
	width, height := w.FramebufferSize()
	require.Equal(t, 30, width)
	require.Equal(t, 40, height)
	require.Equal(t, [][2]int{{30, 40}}, sizes)

	w.PollEvents()
	require.False(t, w.ShouldClose())
	w.PollEvents()
	require.True(t, w.ShouldClose())
	w.WaitEvents()
	require.Equal(t, 1, w.Waits())
	require.Equal(t, 2, w.Polls())
}
