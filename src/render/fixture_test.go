package render

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mxplusb/epsilon/src/native"
	"github.com/mxplusb/epsilon/src/native/nativetest"
)

const swapchainExt = "VK_KHR_swapchain"

type fixture struct {
	gpu      *nativetest.GPU
	win      *nativetest.Window
	inst     *Instance
	surface  *Surface
	sel      Selection
	dev      *Device
	graphics *Queue
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, nativetest.New())
}

func newFixtureWith(t *testing.T, gpu *nativetest.GPU) *fixture {
	t.Helper()
	f := &fixture{gpu: gpu, win: nativetest.NewWindow(320, 240)}
	f.inst = Must(NewInstance(gpu, InstanceConfig{ApplicationName: "render-test"}))
	f.surface = Must(NewSurface(f.inst, f.win))
	f.sel = Must(SelectPhysicalDevice(f.inst, f.surface, Requirements{Extensions: []string{swapchainExt}}))
	f.dev = Must(NewDevice(f.sel.Device, DeviceConfig{
		Queues:     []QueueRequest{{Family: f.sel.GraphicsFamily, Count: 1}},
		Extensions: []string{swapchainExt},
	}))
	q, err := f.dev.Queue(f.sel.GraphicsFamily, 0)
	require.NoError(t, err)
	f.graphics = q
	return f
}

func (f *fixture) chainConfig() ChainConfig {
	return ChainConfig{
		Surface:       f.surface,
		Window:        f.win,
		Format:        native.SurfaceFormat{Format: native.FormatB8G8R8A8Srgb, ColorSpace: native.ColorSpaceSrgbNonlinear},
		PresentMode:   native.PresentModeFifo,
		QueueFamilies: f.sel.Families(),
	}
}

// close releases the fixture's own objects and checks that nothing leaked and
// no rule of the native API was broken.
func (f *fixture) close(t *testing.T) {
	t.Helper()
	require.NoError(t, f.dev.WaitIdle())
	f.dev.Release()
	f.surface.Release()
	f.inst.Release()
	require.Empty(t, f.gpu.Leaks())
	require.Empty(t, f.gpu.Violations())
}
