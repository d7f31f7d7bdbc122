package render

import (
	"context"

	"github.com/mxplusb/epsilon/src/native"
)

// Context is the per-frame view an application renders through. Between
// AcquireNextImage and PresentImage the application records into
// CommandBuffer, beginning and ending it itself.
type Context interface {
	SetOnPrepare(onPrepare func() error)
	SetOnCleanup(onCleanup func() error)
	SetOnInvalidate(onInvalidate func(imageIndex int) error)
	Device() *Device
	CommandBuffer() *CommandBuffer
	Platform() Window
	SwapchainDimensions() *SwapchainDimensions
	SwapchainImageDimensions() []*SwapchainImageDimensions
	AcquireNextImage() (imageIndex int, outdated bool, err error)
	PresentImage(imageIndex int) (outdated bool, err error)
}

type SwapchainDimensions struct {
	Width      uint32
	Height     uint32
	Format     native.Format
	ColorSpace native.ColorSpace
}

type SwapchainImageDimensions struct {
	Index  int
	Width  uint32
	Height uint32
	View   *ImageView
}

var _ Context = (*FrameScheduler)(nil)

// SetOnPrepare runs fn after every chain recreation, before the per-image
// invalidation callbacks.
func (s *FrameScheduler) SetOnPrepare(fn func() error) {
	s.onPrepare = fn
}

// SetOnCleanup runs fn before every chain recreation.
func (s *FrameScheduler) SetOnCleanup(fn func() error) {
	s.onCleanup = fn
}

// SetOnInvalidate runs fn for every image of a recreated chain.
func (s *FrameScheduler) SetOnInvalidate(fn func(imageIndex int) error) {
	s.onInvalidate = fn
}

func (s *FrameScheduler) Device() *Device {
	return s.dev
}

// CommandBuffer is the command buffer of the current slot, or nil once the
// scheduler is closed.
func (s *FrameScheduler) CommandBuffer() *CommandBuffer {
	if s.closed {
		return nil
	}
	return s.slots[s.current].Commands
}

func (s *FrameScheduler) Platform() Window {
	return s.chain.Window()
}

func (s *FrameScheduler) SwapchainDimensions() *SwapchainDimensions {
	e, f := s.chain.Extent(), s.chain.Format()
	return &SwapchainDimensions{
		Width:      e.Width,
		Height:     e.Height,
		Format:     f.Format,
		ColorSpace: f.ColorSpace,
	}
}

func (s *FrameScheduler) SwapchainImageDimensions() []*SwapchainImageDimensions {
	e := s.chain.Extent()
	out := make([]*SwapchainImageDimensions, s.chain.ImageCount())
	for i := range out {
		out[i] = &SwapchainImageDimensions{Index: i, Width: e.Width, Height: e.Height, View: s.chain.View(i)}
	}
	return out
}

// AcquireNextImage waits for the current slot and acquires an image for it.
// outdated reports that the chain was recreated instead; call again.
func (s *FrameScheduler) AcquireNextImage() (imageIndex int, outdated bool, err error) {
	if s.closed {
		return 0, false, configError("AcquireNextImage", "scheduler is closed")
	}
	if s.acquired {
		return int(s.acquiredIndex), false, nil
	}
	var stats FrameStats
	stale, err := s.acquire(context.Background(), &stats)
	if err != nil || stale {
		return 0, stale, err
	}
	s.enter(s.slots[s.current], FrameRecording)
	return int(s.acquiredIndex), false, nil
}

// PresentImage submits CommandBuffer and presents imageIndex, which must be
// the index returned by the last AcquireNextImage. outdated reports that the
// chain was recreated after presenting.
func (s *FrameScheduler) PresentImage(imageIndex int) (outdated bool, err error) {
	if s.closed {
		return false, configError("PresentImage", "scheduler is closed")
	}
	if !s.acquired || uint32(imageIndex) != s.acquiredIndex {
		return false, configError("PresentImage", "image %d was not acquired", imageIndex)
	}
	var stats FrameStats
	if err := s.present(context.Background(), &stats); err != nil {
		return false, err
	}
	return stats.Recreated, nil
}
