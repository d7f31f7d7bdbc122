// Package app assembles the render stack described by a config.Config on top
// of a native API and a window: instance, surface, device, presentation chain,
// an optional demo pipeline and the frame scheduler.
package app

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"github.com/mxplusb/epsilon/src/config"
	"github.com/mxplusb/epsilon/src/native"
	"github.com/mxplusb/epsilon/src/render"
)

const (
	swapchainExtension   = "VK_KHR_swapchain"
	debugReportExtension = "VK_EXT_debug_report"
	validationLayer      = "VK_LAYER_KHRONOS_validation"
)

// APIVersion is the native API version requested from the instance.
var APIVersion = makeVersion(1, 0, 0)

func makeVersion(major, minor, patch uint32) uint32 {
	return major<<22 | minor<<12 | patch
}

// ExtensionSource is implemented by windows that need instance extensions to
// create surfaces.
type ExtensionSource interface {
	RequiredInstanceExtensions() []string
}

// ShaderLoader returns SPIR-V bytecode for a path.
type ShaderLoader func(path string) ([]byte, error)

type App struct {
	cfg    config.Config
	window render.Window
	load   ShaderLoader

	instance  *render.Instance
	surface   *render.Surface
	selection render.Selection
	device    *render.Device
	chain     *render.PresentationChain
	vertex    *render.ShaderModule
	fragment  *render.ShaderModule
	layout    *render.PipelineLayout
	pipeline  *render.Pipeline
	scheduler *render.FrameScheduler
}

type Option func(*App)

// WithShaderLoader replaces os.ReadFile for loading shader files.
func WithShaderLoader(load ShaderLoader) Option {
	return func(a *App) {
		a.load = load
	}
}

// New builds the stack. On error everything created so far is released.
func New(api native.API, window render.Window, cfg config.Config, opts ...Option) (_ *App, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, window: window, load: os.ReadFile}
	for _, opt := range opts {
		opt(a)
	}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if a.instance, err = render.NewInstance(api, a.instanceConfig()).Get(); err != nil {
		return nil, err
	}
	if a.surface, err = render.NewSurface(a.instance, window).Get(); err != nil {
		return nil, err
	}
	if a.selection, err = render.SelectPhysicalDevice(a.instance, a.surface, render.Requirements{
		Extensions: []string{swapchainExtension},
	}).Get(); err != nil {
		return nil, err
	}

	devCfg := render.DeviceConfig{Extensions: []string{swapchainExtension}}
	if cfg.Validation {
		devCfg.Layers = []string{validationLayer}
	}
	for _, family := range a.selection.Families() {
		devCfg.Queues = append(devCfg.Queues, render.QueueRequest{Family: family, Count: 1})
	}
	if a.device, err = render.NewDevice(a.selection.Device, devCfg).Get(); err != nil {
		return nil, err
	}
	graphics, err := a.device.Queue(a.selection.GraphicsFamily, 0)
	if err != nil {
		return nil, err
	}
	present, err := a.device.Queue(a.selection.PresentFamily, 0)
	if err != nil {
		return nil, err
	}

	depth := native.FormatUndefined
	if cfg.Depth {
		depth = native.FormatD32Sfloat
	}
	if a.chain, err = render.NewPresentationChain(a.device, render.ChainConfig{
		Surface:       a.surface,
		Window:        window,
		Format:        native.SurfaceFormat{Format: native.FormatB8G8R8A8Srgb, ColorSpace: native.ColorSpaceSrgbNonlinear},
		PresentMode:   cfg.NativePresentMode(),
		DepthFormat:   depth,
		QueueFamilies: a.selection.Families(),
	}).Get(); err != nil {
		return nil, err
	}

	record := render.ClearRecorder(cfg.ClearColor)
	if cfg.Shaders.Vertex != "" {
		if err := a.buildPipeline(); err != nil {
			return nil, err
		}
		a.chain.OnRecreate(a.rebuildPipeline)
		record = func(cmd *render.CommandBuffer, t render.FrameTarget) error {
			return render.PipelineRecorder(a.pipeline, cfg.Shaders.Vertices, cfg.ClearColor)(cmd, t)
		}
	}

	if a.scheduler, err = render.NewFrameScheduler(a.chain, render.SchedulerConfig{
		FramesInFlight: cfg.FramesInFlight,
		GraphicsQueue:  graphics,
		PresentQueue:   present,
		Record:         record,
		ClearColor:     cfg.ClearColor,
		MaxFrames:      cfg.MaxFrames,
	}).Get(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) instanceConfig() render.InstanceConfig {
	ic := render.InstanceConfig{
		ApplicationName: a.cfg.AppName,
		EngineName:      "epsilon",
		APIVersion:      APIVersion,
	}
	if src, ok := a.window.(ExtensionSource); ok {
		ic.Extensions = append(ic.Extensions, src.RequiredInstanceExtensions()...)
	}
	if a.cfg.Validation {
		ic.Layers = []string{validationLayer}
		ic.Extensions = append(ic.Extensions, debugReportExtension)
		ic.DebugCallback = render.LogDebugCallback
	}
	return ic
}

func (a *App) loadModule(path string) (*render.ShaderModule, error) {
	code, err := a.load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "app: loading shader %s", path)
	}
	return render.NewShaderModule(a.device, render.ShaderModuleConfig{Code: code}).Get()
}

func (a *App) buildPipeline() (err error) {
	if a.vertex, err = a.loadModule(a.cfg.Shaders.Vertex); err != nil {
		return err
	}
	if a.fragment, err = a.loadModule(a.cfg.Shaders.Fragment); err != nil {
		return err
	}
	if a.layout, err = render.NewPipelineLayout(a.device, render.PipelineLayoutConfig{}).Get(); err != nil {
		return err
	}
	a.pipeline, err = a.newPipeline()
	return err
}

func (a *App) newPipeline() (*render.Pipeline, error) {
	return render.NewGraphicsPipeline(a.device, render.GraphicsPipelineConfig{
		RenderPass: a.chain.RenderPass(),
		Layout:     a.layout,
		Stages: []render.ShaderStage{
			{Stage: native.ShaderStageVertexBit, Module: a.vertex},
			{Stage: native.ShaderStageFragmentBit, Module: a.fragment},
		},
		Topology:  native.PrimitiveTopologyTriangleList,
		CullMode:  native.CullModeNone,
		FrontFace: native.FrontFaceClockwise,
		DepthTest: a.cfg.Depth,
	}).Get()
}

// rebuildPipeline replaces the pipeline when recreation produced a new render
// pass. Viewport and scissor are dynamic, so a size change alone keeps it.
func (a *App) rebuildPipeline(chain *render.PresentationChain) error {
	if a.pipeline.Config().RenderPass == chain.RenderPass() {
		return nil
	}
	p, err := a.newPipeline()
	if err != nil {
		return err
	}
	a.pipeline.Release()
	a.pipeline = p
	return nil
}

// Run drives frames until the window closes, ctx is done or MaxFrames is
// reached.
func (a *App) Run(ctx context.Context) error {
	return a.scheduler.Run(ctx)
}

func (a *App) Scheduler() *render.FrameScheduler {
	return a.scheduler
}

func (a *App) Chain() *render.PresentationChain {
	return a.chain
}

func (a *App) Device() *render.Device {
	return a.device
}

func (a *App) Instance() *render.Instance {
	return a.instance
}

// Close releases the stack in reverse creation order. It is safe on a
// partially built App.
func (a *App) Close() error {
	var err error
	if a.scheduler != nil {
		err = a.scheduler.Close()
		a.scheduler = nil
	} else if a.device != nil {
		err = a.device.WaitIdle()
	}
	if a.pipeline != nil {
		a.pipeline.Release()
		a.pipeline = nil
	}
	if a.layout != nil {
		a.layout.Release()
		a.layout = nil
	}
	if a.fragment != nil {
		a.fragment.Release()
		a.fragment = nil
	}
	if a.vertex != nil {
		a.vertex.Release()
		a.vertex = nil
	}
	if a.chain != nil {
		a.chain.Release()
		a.chain = nil
	}
	if a.device != nil {
		a.device.Release()
		a.device = nil
	}
	if a.surface != nil {
		a.surface.Release()
		a.surface = nil
	}
	if a.instance != nil {
		a.instance.Release()
		a.instance = nil
	}
	return err
}
