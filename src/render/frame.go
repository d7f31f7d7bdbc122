package render

import (
	"fmt"
	"time"

	"github.com/mxplusb/epsilon/src/native"
)

// FrameState is the position of a frame slot in the per-iteration protocol.
type FrameState int

const (
	FrameIdle FrameState = iota
	FrameWaitingOnFence
	FrameAcquiring
	FrameStaleSurface
	FrameRecording
	FrameSubmitting
	FramePresenting
)

var frameStateNames = [...]string{
	FrameIdle:           "idle",
	FrameWaitingOnFence: "waiting-on-fence",
	FrameAcquiring:      "acquiring",
	FrameStaleSurface:   "stale-surface",
	FrameRecording:      "recording",
	FrameSubmitting:     "submitting",
	FramePresenting:     "presenting",
}

func (s FrameState) String() string {
	if s >= 0 && int(s) < len(frameStateNames) {
		return frameStateNames[s]
	}
	return fmt.Sprintf("FrameState(%d)", int(s))
}

// FrameSlot is one of the reusable per-frame resource sets. InFlight is
// created signaled so the first wait on a fresh slot returns at once.
type FrameSlot struct {
	Index          int
	Commands       *CommandBuffer
	ImageAvailable *Semaphore
	RenderFinished *Semaphore
	InFlight       *Fence
}

func newFrameSlot(dev *Device, cmd *CommandBuffer, index int) (slot *FrameSlot, err error) {
	var owned []Owner
	defer func() {
		if err != nil {
			releaseAll(owned)
		}
	}()
	imageAvailable, err := NewSemaphore(dev).Get()
	if err != nil {
		return nil, err
	}
	owned = append(owned, imageAvailable)
	renderFinished, err := NewSemaphore(dev).Get()
	if err != nil {
		return nil, err
	}
	owned = append(owned, renderFinished)
	inFlight, err := NewFence(dev, FenceConfig{Signaled: true}).Get()
	if err != nil {
		return nil, err
	}
	return &FrameSlot{
		Index:          index,
		Commands:       cmd,
		ImageAvailable: imageAvailable,
		RenderFinished: renderFinished,
		InFlight:       inFlight,
	}, nil
}

func (s *FrameSlot) release() {
	s.InFlight.Release()
	s.RenderFinished.Release()
	s.ImageAvailable.Release()
	s.Commands.Release()
}

// FrameStats describes one Frame call.
type FrameStats struct {
	Slot       int
	ImageIndex uint32
	// FenceWait is how long the CPU blocked on the slot's in-flight fence.
	FenceWait time.Duration
	Stale     bool
	Recreated bool
	Submitted bool
	Presented bool
	// Closed reports that the window asked to close while the chain waited
	// for a drawable area. Nothing was submitted or presented afterwards.
	Closed bool
}

// FrameTarget is what a RecordFunc renders into.
type FrameTarget struct {
	Slot        int
	ImageIndex  uint32
	RenderPass  *RenderPass
	Framebuffer *Framebuffer
	View        *ImageView
	Extent      native.Extent2D
	// Depth reports whether the render pass has a depth attachment.
	Depth bool
}

// RecordFunc records the commands of one frame. cmd is already begun and is
// ended by the caller.
type RecordFunc func(cmd *CommandBuffer, target FrameTarget) error

func (t FrameTarget) beginPass(cmd *CommandBuffer, color [4]float32) {
	clears := []native.ClearValue{native.ClearColor(color[0], color[1], color[2], color[3])}
	if t.Depth {
		clears = append(clears, native.ClearDepthStencil(1, 0))
	}
	area := native.Rect2D{Extent: t.Extent}
	cmd.BeginRenderPass(RenderPassBegin{
		RenderPass:  t.RenderPass,
		Framebuffer: t.Framebuffer,
		Area:        area,
		Clear:       clears,
	})
	cmd.SetViewport(native.Viewport{
		Width:    float32(t.Extent.Width),
		Height:   float32(t.Extent.Height),
		MaxDepth: 1,
	})
	cmd.SetScissor(area)
}

// ClearRecorder clears the target to color.
func ClearRecorder(color [4]float32) RecordFunc {
	return func(cmd *CommandBuffer, t FrameTarget) error {
		t.beginPass(cmd, color)
		cmd.EndRenderPass()
		return nil
	}
}

// PipelineRecorder clears the target and draws vertices with p. The vertex
// data is expected to come from the shaders themselves.
func PipelineRecorder(p *Pipeline, vertices uint32, color [4]float32) RecordFunc {
	return func(cmd *CommandBuffer, t FrameTarget) error {
		t.beginPass(cmd, color)
		cmd.BindPipeline(p)
		cmd.Draw(vertices, 1, 0, 0)
		cmd.EndRenderPass()
		return nil
	}
}
