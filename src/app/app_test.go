package app

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/mxplusb/epsilon/src/config"
	"github.com/mxplusb/epsilon/src/native"
	"github.com/mxplusb/epsilon/src/native/nativetest"
	"github.com/mxplusb/epsilon/src/render"
)

var spirv = []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00}

func stubShaders(path string) ([]byte, error) {
	return spirv, nil
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Window.Width, cfg.Window.Height = 320, 240
	cfg.MaxFrames = 5
	return cfg
}

func requireClean(t *testing.T, gpu *nativetest.GPU) {
	t.Helper()
	require.Empty(t, gpu.Leaks())
	require.Empty(t, gpu.Violations())
}

func TestAppRunsClearFrames(t *testing.T) {
	gpu := nativetest.New()
	win := nativetest.NewWindow(320, 240)

	a, err := New(gpu, win, testConfig())
	require.NoError(t, err)
	require.NoError(t, a.Run(context.Background()))
	require.Equal(t, 5, a.Scheduler().Frames())
	require.Equal(t, 5, gpu.Presentations())
	require.Zero(t, gpu.Count("CreateGraphicsPipeline"))
	require.Zero(t, gpu.Count("CmdDraw"))

	require.NoError(t, a.Close())
	requireClean(t, gpu)
	require.Nil(t, a.Instance())
}

func TestAppDrawsWithShaders(t *testing.T) {
	gpu := nativetest.New()
	win := nativetest.NewWindow(320, 240)
	cfg := testConfig()
	cfg.Depth = true
	cfg.Shaders = config.Shaders{Vertex: "tri.vert.spv", Fragment: "tri.frag.spv", Vertices: 3}

	var loaded []string
	a, err := New(gpu, win, cfg, WithShaderLoader(func(path string) ([]byte, error) {
		loaded = append(loaded, path)
		return spirv, nil
	}))
	require.NoError(t, err)
	require.Equal(t, []string{"tri.vert.spv", "tri.frag.spv"}, loaded)
	require.Equal(t, 1, gpu.Count("CreateGraphicsPipeline"))
	require.Equal(t, 1, gpu.Live("Image"), "depth image")

	require.NoError(t, a.Run(context.Background()))
	require.Equal(t, 5, gpu.Count("CmdDraw"))
	require.Equal(t, 5, gpu.Count("CmdBindPipeline"))

	require.NoError(t, a.Close())
	requireClean(t, gpu)
}

func TestAppSurvivesResize(t *testing.T) {
	gpu := nativetest.New()
	win := nativetest.NewWindow(320, 240)
	cfg := testConfig()
	cfg.MaxFrames = 6
	cfg.Shaders = config.Shaders{Vertex: "a", Fragment: "b", Vertices: 3}

	a, err := New(gpu, win, cfg, WithShaderLoader(stubShaders))
	require.NoError(t, err)
	polls := 0
	win.OnPollEvents = func(w *nativetest.Window) {
		polls++
		if polls == 2 {
			w.Resize(640, 480)
		}
	}

	require.NoError(t, a.Run(context.Background()))
	require.Equal(t, 1, a.Scheduler().Recreations())
	require.Equal(t, native.Extent2D{Width: 640, Height: 480}, a.Chain().Extent())
	require.Same(t, a.Chain().RenderPass(), a.pipeline.Config().RenderPass, "pipeline targets the live render pass")

	require.NoError(t, a.Close())
	requireClean(t, gpu)
}

func TestAppStopsWhenWindowCloses(t *testing.T) {
	gpu := nativetest.New()
	win := nativetest.NewWindow(320, 240)
	cfg := testConfig()
	cfg.MaxFrames = 0

	a, err := New(gpu, win, cfg)
	require.NoError(t, err)
	win.OnPollEvents = func(w *nativetest.Window) {
		if w.Polls() == 3 {
			w.RequestClose()
		}
	}
	require.NoError(t, a.Run(context.Background()))
	require.Equal(t, 3, a.Scheduler().Frames())
	require.NoError(t, a.Close())
	requireClean(t, gpu)
}

func TestAppValidationWiring(t *testing.T) {
	gpu := nativetest.New()
	win := nativetest.NewWindow(320, 240)
	cfg := testConfig()
	cfg.Validation = true

	a, err := New(gpu, win, cfg)
	require.NoError(t, err)
	ic := a.Instance().Config()
	require.Equal(t, []string{validationLayer}, ic.Layers)
	require.Contains(t, ic.Extensions, debugReportExtension)
	require.NotNil(t, ic.DebugCallback)
	require.Equal(t, []string{validationLayer}, a.Device().Config().Layers)

	require.NoError(t, a.Close())
	requireClean(t, gpu)
}

func TestAppRollsBackOnFailure(t *testing.T) {
	for idx, tc := range []struct {
		name   string
		call   string
		shader bool
		kind   render.Kind
	}{
		{name: "instance", call: "CreateInstance", kind: render.KindConstruction},
		{name: "surface", call: "CreateSurface", kind: render.KindConstruction},
		{name: "device", call: "CreateDevice", kind: render.KindConstruction},
		{name: "swapchain", call: "CreateSwapchain", kind: render.KindConstruction},
		{name: "render pass", call: "CreateRenderPass", kind: render.KindConstruction},
		{name: "pipeline", call: "CreateGraphicsPipeline", shader: true, kind: render.KindConstruction},
		{name: "command pool", call: "CreateCommandPool", kind: render.KindConstruction},
		{name: "fence", call: "CreateFence", kind: render.KindConstruction},
	} {
		t.Run(tc.name, func(t *testing.T) {
			gpu := nativetest.New()
			gpu.FailOn(tc.call, native.ErrorOutOfDeviceMemory)
			win := nativetest.NewWindow(320, 240)
			cfg := testConfig()
			if tc.shader {
				cfg.Shaders = config.Shaders{Vertex: "a", Fragment: "b", Vertices: 3}
			}

			a, err := New(gpu, win, cfg, WithShaderLoader(stubShaders))
			require.Error(t, err, "case %d", idx)
			require.Nil(t, a)
			require.Equal(t, tc.kind, render.KindOf(err))
			requireClean(t, gpu)
		})
	}
}

func TestAppShaderLoadFailure(t *testing.T) {
	gpu := nativetest.New()
	win := nativetest.NewWindow(320, 240)
	cfg := testConfig()
	cfg.Shaders = config.Shaders{Vertex: "missing.spv", Fragment: "b", Vertices: 3}

	_, err := New(gpu, win, cfg, WithShaderLoader(func(path string) ([]byte, error) {
		return nil, errors.New("no such file")
	}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "loading shader missing.spv")
	requireClean(t, gpu)
}

func TestAppRejectsInvalidConfig(t *testing.T) {
	gpu := nativetest.New()
	cfg := testConfig()
	cfg.FramesInFlight = 0

	_, err := New(gpu, nativetest.NewWindow(320, 240), cfg)
	require.Error(t, err)
	require.Zero(t, gpu.Count("CreateInstance"))
}
