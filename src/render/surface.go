package render

import (
	"github.com/mxplusb/epsilon/src/native"
)

// Window is the windowing collaborator of the presentation layer. The
// drawable size it reports is authoritative during chain recreation.
type Window interface {
	native.SurfaceSource
	FramebufferSize() (width, height int)
	// WaitEvents blocks until at least one window event arrives.
	WaitEvents()
	// PostEmptyEvent wakes a blocked WaitEvents. It is safe to call from any
	// goroutine.
	PostEmptyEvent()
	PollEvents()
	ShouldClose() bool
	SetFramebufferSizeCallback(fn func(width, height int))
}

type Surface struct {
	object[native.Surface, struct{}]
}

func NewSurface(inst *Instance, window native.SurfaceSource) Result[*Surface] {
	if window == nil {
		return Fail[*Surface](configError("NewSurface", "nil window"))
	}
	api, ih := inst.api, inst.Handle()
	var handle native.Surface
	status := api.CreateSurface(ih, &native.SurfaceCreateInfo{Window: window}, &handle)
	if IsError(status) {
		return Fail[*Surface](constructionError("CreateSurface", status))
	}
	s := &Surface{}
	s.init(inst.reg, "Surface", handle, struct{}{}, func(h native.Surface) {
		api.DestroySurface(ih, h)
	}, inst)
	return Ok(s)
}
