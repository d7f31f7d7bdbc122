package render

import (
	"github.com/mxplusb/epsilon/src/native"
	"github.com/mxplusb/epsilon/src/staging"
)

// Semaphore orders GPU work against other GPU work. The CPU only passes it
// to submissions and presents.
type Semaphore struct {
	object[native.Semaphore, struct{}]
}

func NewSemaphore(dev *Device) Result[*Semaphore] {
	var handle native.Semaphore
	status := staging.Call(func(a *staging.Arena) native.Status {
		return dev.api.CreateSemaphore(dev.Handle(), staging.Alloc[native.SemaphoreCreateInfo](a), &handle)
	})
	if IsError(status) {
		return Fail[*Semaphore](constructionError("CreateSemaphore", status))
	}
	s := &Semaphore{}
	s.init(dev.reg, "Semaphore", handle, struct{}{}, func(h native.Semaphore) {
		dev.api.DestroySemaphore(dev.Handle(), h)
	}, dev)
	return Ok(s)
}

type FenceConfig struct {
	Signaled bool
}

// Fence lets the CPU wait for submitted work to retire.
type Fence struct {
	object[native.Fence, FenceConfig]
	dev *Device
}

func NewFence(dev *Device, cfg FenceConfig) Result[*Fence] {
	var handle native.Fence
	status := staging.Call(func(a *staging.Arena) native.Status {
		info := staging.Alloc[native.FenceCreateInfo](a)
		if cfg.Signaled {
			info.Flags = native.FenceCreateSignaledBit
		}
		return dev.api.CreateFence(dev.Handle(), info, &handle)
	})
	if IsError(status) {
		return Fail[*Fence](constructionError("CreateFence", status))
	}
	f := &Fence{dev: dev}
	f.init(dev.reg, "Fence", handle, cfg, func(h native.Fence) {
		dev.api.DestroyFence(dev.Handle(), h)
	}, dev)
	return Ok(f)
}

// Wait blocks until the fence is signaled or timeout nanoseconds pass. A
// timeout is reported as a fatal error.
func (f *Fence) Wait(timeout uint64) error {
	h := f.Handle()
	status := f.dev.api.WaitForFences(f.dev.Handle(), 1, &h, true, timeout)
	if status == native.Timeout {
		return fatalError("WaitForFences", status)
	}
	return NewError("WaitForFences", status)
}

func (f *Fence) Reset() error {
	h := f.Handle()
	return NewError("ResetFences", f.dev.api.ResetFences(f.dev.Handle(), 1, &h))
}

func (f *Fence) Signaled() (bool, error) {
	status := f.dev.api.GetFenceStatus(f.dev.Handle(), f.Handle())
	switch status {
	case native.Success:
		return true, nil
	case native.NotReady:
		return false, nil
	}
	return false, NewError("GetFenceStatus", status)
}
