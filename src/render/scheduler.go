package render

import (
	"context"
	"errors"
	"time"

	"github.com/mxplusb/epsilon/src/native"
)

type SchedulerConfig struct {
	// FramesInFlight is the number of frame slots. Defaults to 2.
	FramesInFlight int
	GraphicsQueue  *Queue
	// PresentQueue defaults to GraphicsQueue.
	PresentQueue *Queue
	// Record defaults to ClearRecorder(ClearColor).
	Record     RecordFunc
	ClearColor [4]float32
	// Observer, if set, sees every state transition of every slot.
	Observer func(slot int, state FrameState)
	// FenceTimeout bounds the in-flight fence wait in nanoseconds. Zero
	// means no bound.
	FenceTimeout uint64
	// MaxFrames stops Run after that many presented frames when positive.
	MaxFrames int
}

// FrameScheduler drives the ring of frame slots: it waits for a slot's
// previous work, acquires an image, records, submits and presents, and
// recreates the presentation chain whenever it goes stale or the window is
// resized. It is used from a single goroutine.
type FrameScheduler struct {
	chain *PresentationChain
	dev   *Device
	cfg   SchedulerConfig
	pool  *CommandPool
	slots []*FrameSlot
	state []FrameState

	current       int
	frames        int
	recreations   int
	resizePending bool
	acquired      bool
	acquiredIndex uint32
	suboptimal    bool
	closed        bool

	onPrepare    func() error
	onCleanup    func() error
	onInvalidate func(imageIndex int) error
}

func NewFrameScheduler(chain *PresentationChain, cfg SchedulerConfig) Result[*FrameScheduler] {
	if chain == nil {
		return Fail[*FrameScheduler](configError("NewFrameScheduler", "nil presentation chain"))
	}
	if cfg.FramesInFlight == 0 {
		cfg.FramesInFlight = 2
	}
	if cfg.FramesInFlight < 0 {
		return Fail[*FrameScheduler](configError("NewFrameScheduler", "%d frames in flight", cfg.FramesInFlight))
	}
	if cfg.GraphicsQueue == nil {
		return Fail[*FrameScheduler](configError("NewFrameScheduler", "nil graphics queue"))
	}
	if cfg.PresentQueue == nil {
		cfg.PresentQueue = cfg.GraphicsQueue
	}
	if cfg.Record == nil {
		cfg.Record = ClearRecorder(cfg.ClearColor)
	}
	if cfg.FenceTimeout == 0 {
		cfg.FenceTimeout = native.MaxTimeout
	}

	dev := chain.Device()
	pool, err := NewCommandPool(dev, CommandPoolConfig{
		Family: cfg.GraphicsQueue.Family(),
		Flags:  native.CommandPoolCreateResetCommandBufferBit,
	}).Get()
	if err != nil {
		return Fail[*FrameScheduler](err)
	}
	cmds, err := pool.Allocate(cfg.FramesInFlight).Get()
	if err != nil {
		pool.Release()
		return Fail[*FrameScheduler](err)
	}

	s := &FrameScheduler{
		chain: chain,
		dev:   dev,
		cfg:   cfg,
		pool:  pool,
		state: make([]FrameState, cfg.FramesInFlight),
	}
	for i, cmd := range cmds {
		slot, err := newFrameSlot(dev, cmd, i)
		if err != nil {
			for _, sl := range s.slots {
				sl.release()
			}
			releaseAll(cmds[i:])
			pool.Release()
			return Fail[*FrameScheduler](err)
		}
		s.slots = append(s.slots, slot)
	}
	chain.Window().SetFramebufferSizeCallback(s.NotifyResize)
	Logger().Info("frame scheduler ready", "frames_in_flight", cfg.FramesInFlight, "images", chain.ImageCount())
	return Ok(s)
}

func (s *FrameScheduler) enter(slot *FrameSlot, st FrameState) {
	s.state[slot.Index] = st
	if s.cfg.Observer != nil {
		s.cfg.Observer(slot.Index, st)
	}
}

// NotifyResize records a resize. It is observed at the next Presenting step.
func (s *FrameScheduler) NotifyResize(width, height int) {
	Logger().Debug("resize notified", "width", width, "height", height)
	s.resizePending = true
}

// Current is the index of the slot the next iteration uses.
func (s *FrameScheduler) Current() int {
	return s.current
}

// State is the last state slot entered. A closed scheduler reports every
// slot as idle.
func (s *FrameScheduler) State(slot int) FrameState {
	if s.closed {
		return FrameIdle
	}
	return s.state[slot]
}

// Frames counts presented frames.
func (s *FrameScheduler) Frames() int {
	return s.frames
}

// Recreations counts presentation chain recreations.
func (s *FrameScheduler) Recreations() int {
	return s.recreations
}

func (s *FrameScheduler) Chain() *PresentationChain {
	return s.chain
}

// acquire waits for the current slot to retire and acquires the next image.
// stale reports that the chain was recreated instead and the iteration is over.
func (s *FrameScheduler) acquire(ctx context.Context, stats *FrameStats) (stale bool, err error) {
	slot := s.slots[s.current]
	s.enter(slot, FrameWaitingOnFence)
	start := time.Now()
	if err := slot.InFlight.Wait(s.cfg.FenceTimeout); err != nil {
		return false, err
	}
	stats.FenceWait = time.Since(start)

	s.enter(slot, FrameAcquiring)
	index, suboptimal, err := s.chain.Swapchain().AcquireNextImage(native.MaxTimeout, slot.ImageAvailable, nil)
	if IsStale(err) {
		s.enter(slot, FrameStaleSurface)
		stats.Stale = true
		Logger().Warn("surface went stale on acquire, recreating", "slot", slot.Index)
		if err := s.recreate(ctx); err != nil {
			return true, err
		}
		stats.Recreated = true
		s.enter(slot, FrameIdle)
		return true, nil
	}
	if err != nil {
		return false, err
	}
	s.acquired = true
	s.acquiredIndex = index
	s.suboptimal = suboptimal
	stats.ImageIndex = index
	return false, nil
}

// present submits the current slot's commands, presents the acquired image
// and advances to the next slot.
func (s *FrameScheduler) present(ctx context.Context, stats *FrameStats) error {
	slot := s.slots[s.current]
	s.acquired = false

	s.enter(slot, FrameSubmitting)
	if err := slot.InFlight.Reset(); err != nil {
		return err
	}
	err := s.cfg.GraphicsQueue.Submit(slot.InFlight, Submission{
		Wait:       []*Semaphore{slot.ImageAvailable},
		WaitStages: []native.PipelineStageFlags{native.PipelineStageColorAttachmentOutputBit},
		Commands:   []*CommandBuffer{slot.Commands},
		Signal:     []*Semaphore{slot.RenderFinished},
	})
	if err != nil {
		return err
	}
	stats.Submitted = true

	s.enter(slot, FramePresenting)
	stale, err := s.cfg.PresentQueue.Present(PresentRequest{
		Wait:       []*Semaphore{slot.RenderFinished},
		Swapchain:  s.chain.Swapchain(),
		ImageIndex: s.acquiredIndex,
	})
	if err != nil {
		return err
	}
	stats.Presented = true
	s.frames++

	s.current = (s.current + 1) % len(s.slots)
	if stale || s.suboptimal || s.resizePending {
		stats.Stale = stale || s.suboptimal
		if err := s.recreate(ctx); err != nil {
			return err
		}
		stats.Recreated = true
	}
	s.enter(slot, FrameIdle)
	return nil
}

func (s *FrameScheduler) record(index uint32) error {
	slot := s.slots[s.current]
	s.enter(slot, FrameRecording)
	cmd := slot.Commands
	if err := cmd.Reset(); err != nil {
		return err
	}
	if err := cmd.Begin(); err != nil {
		return err
	}
	target := FrameTarget{
		Slot:        slot.Index,
		ImageIndex:  index,
		RenderPass:  s.chain.RenderPass(),
		Framebuffer: s.chain.Framebuffer(int(index)),
		View:        s.chain.View(int(index)),
		Extent:      s.chain.Extent(),
		Depth:       s.chain.RenderPass().Attachments() > 1,
	}
	if err := s.cfg.Record(cmd, target); err != nil {
		return err
	}
	return cmd.End()
}

// Frame runs one loop iteration for the current slot. A stale surface at
// acquisition recreates the chain and ends the iteration without submitting
// or presenting; the same slot is used again next time.
func (s *FrameScheduler) Frame(ctx context.Context) (FrameStats, error) {
	if s.closed {
		return FrameStats{}, configError("Frame", "scheduler is closed")
	}
	stats := FrameStats{Slot: s.current}
	stale, err := s.acquire(ctx, &stats)
	if err != nil || stale {
		return s.closing(stats, err)
	}
	if err := s.record(s.acquiredIndex); err != nil {
		return stats, err
	}
	if err := s.present(ctx, &stats); err != nil {
		return s.closing(stats, err)
	}
	Logger().Debug("frame", "slot", stats.Slot, "image", stats.ImageIndex, "fence_wait", stats.FenceWait)
	return stats, nil
}

// closing turns ErrWindowClosed from a recreation into a clean stop.
func (s *FrameScheduler) closing(stats FrameStats, err error) (FrameStats, error) {
	if errors.Is(err, ErrWindowClosed) {
		Logger().Info("window closed while minimized", "frames", s.frames)
		stats.Closed = true
		return stats, nil
	}
	return stats, err
}

// Run calls Frame until the window asks to close, ctx is done, MaxFrames
// frames were presented or a frame fails. Window events are polled once per
// iteration. Cancelling ctx wakes a Run blocked on window events. The device
// is idle when Run returns.
func (s *FrameScheduler) Run(ctx context.Context) (err error) {
	defer func() {
		if idleErr := s.dev.WaitIdle(); err == nil {
			err = idleErr
		}
	}()
	window := s.chain.Window()
	stop := context.AfterFunc(ctx, window.PostEmptyEvent)
	defer stop()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if window.ShouldClose() {
			Logger().Info("window closed", "frames", s.frames)
			return nil
		}
		if s.cfg.MaxFrames > 0 && s.frames >= s.cfg.MaxFrames {
			Logger().Info("frame limit reached", "frames", s.frames)
			return nil
		}
		stats, err := s.Frame(ctx)
		if err != nil {
			return err
		}
		if stats.Closed {
			return nil
		}
		window.PollEvents()
	}
}

func (s *FrameScheduler) recreate(ctx context.Context) error {
	if s.onCleanup != nil {
		if err := s.onCleanup(); err != nil {
			return err
		}
	}
	if err := s.chain.Recreate(ctx); err != nil {
		return err
	}
	s.resizePending = false
	s.suboptimal = false
	s.recreations++
	if s.onPrepare != nil {
		if err := s.onPrepare(); err != nil {
			return err
		}
	}
	if s.onInvalidate != nil {
		for i := 0; i < s.chain.ImageCount(); i++ {
			if err := s.onInvalidate(i); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close waits for the device to go idle and releases the frame slots and the
// command pool. The presentation chain stays with its owner.
func (s *FrameScheduler) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.dev.WaitIdle()
	for _, slot := range s.slots {
		slot.release()
	}
	s.slots = nil
	s.pool.Release()
	s.chain.Window().SetFramebufferSizeCallback(nil)
	return err
}
