// Package platform owns the desktop windowing layer. It wraps GLFW windows so
// they can back a presentation surface, and loads the Vulkan entry points
// through GLFW's loader.
//
// GLFW must be driven from the main OS thread; callers lock it before Init.
package platform

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"

	"github.com/mxplusb/epsilon/src/native/vkdriver"
	"github.com/mxplusb/epsilon/src/render"
)

// Init starts GLFW and loads Vulkan through it.
func Init() error {
	if err := glfw.Init(); err != nil {
		return errors.Wrap(err, "platform: glfw init")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return errors.New("platform: no vulkan loader found")
	}
	if err := vkdriver.Init(glfw.GetVulkanGetInstanceProcAddress()); err != nil {
		glfw.Terminate()
		return err
	}
	return nil
}

// Terminate shuts GLFW down. Every window must be destroyed first.
func Terminate() {
	glfw.Terminate()
}

type WindowConfig struct {
	Title     string
	Width     int
	Height    int
	Resizable bool
}

// Window is a GLFW window without a client API, suitable for Vulkan.
type Window struct {
	win *glfw.Window
}

var _ render.Window = (*Window)(nil)

func NewWindow(cfg WindowConfig) (*Window, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.Errorf("platform: invalid window size %dx%d", cfg.Width, cfg.Height)
	}
	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	resizable := glfw.False
	if cfg.Resizable {
		resizable = glfw.True
	}
	glfw.WindowHint(glfw.Resizable, resizable)

	win, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "platform: creating window")
	}
	w := &Window{win: win}
	win.SetKeyCallback(func(win *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			win.SetShouldClose(true)
		}
	})
	return w, nil
}

// RequiredInstanceExtensions lists the instance extensions surfaces need.
func (w *Window) RequiredInstanceExtensions() []string {
	return w.win.GetRequiredInstanceExtensions()
}

func (w *Window) CreateWindowSurface(instance interface{}) (uintptr, error) {
	surface, err := w.win.CreateWindowSurface(instance, nil)
	return surface, errors.Wrap(err, "platform: creating surface")
}

func (w *Window) FramebufferSize() (int, int) {
	return w.win.GetFramebufferSize()
}

func (w *Window) WaitEvents() {
	glfw.WaitEvents()
}

func (w *Window) PollEvents() {
	glfw.PollEvents()
}

// PostEmptyEvent wakes WaitEvents. glfw allows it from any goroutine.
func (w *Window) PostEmptyEvent() {
	glfw.PostEmptyEvent()
}

func (w *Window) ShouldClose() bool {
	return w.win.ShouldClose()
}

// Close asks the event loop to stop.
func (w *Window) Close() {
	w.win.SetShouldClose(true)
}

func (w *Window) SetFramebufferSizeCallback(fn func(width, height int)) {
	if fn == nil {
		w.win.SetFramebufferSizeCallback(nil)
		return
	}
	w.win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		fn(width, height)
	})
}

func (w *Window) SetTitle(title string) {
	w.win.SetTitle(title)
}

// Destroy releases the window. Surfaces created from it must be released first.
func (w *Window) Destroy() {
	w.win.Destroy()
}
