package render

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mxplusb/epsilon/src/native"
	"github.com/mxplusb/epsilon/src/native/nativetest"
)

type schedulerFixture struct {
	*fixture
	chain *PresentationChain
	sched *FrameScheduler
}

func newScheduler(t *testing.T, gpu *nativetest.GPU, cfg SchedulerConfig) *schedulerFixture {
	t.Helper()
	f := newFixtureWith(t, gpu)
	chain := Must(NewPresentationChain(f.dev, f.chainConfig()))
	cfg.GraphicsQueue = f.graphics
	return &schedulerFixture{fixture: f, chain: chain, sched: Must(NewFrameScheduler(chain, cfg))}
}

func (s *schedulerFixture) close(t *testing.T) {
	t.Helper()
	require.NoError(t, s.sched.Close())
	s.chain.Release()
	s.fixture.close(t)
}

func TestSchedulerCyclesSlots(t *testing.T) {
	type transition struct {
		slot  int
		state FrameState
	}
	var log []transition
	s := newScheduler(t, nativetest.New(), SchedulerConfig{
		FramesInFlight: 2,
		Observer: func(slot int, state FrameState) {
			log = append(log, transition{slot, state})
		},
	})
	ctx := context.Background()

	var slots []int
	var images []uint32
	for i := 0; i < 6; i++ {
		stats, err := s.sched.Frame(ctx)
		require.NoError(t, err)
		require.True(t, stats.Submitted)
		require.True(t, stats.Presented)
		require.False(t, stats.Stale)
		slots = append(slots, stats.Slot)
		images = append(images, stats.ImageIndex)
	}
	require.Equal(t, []int{0, 1, 0, 1, 0, 1}, slots)
	require.Equal(t, []uint32{0, 1, 2, 0, 1, 2}, images)
	require.Equal(t, 6, s.sched.Frames())
	require.Equal(t, 6, s.gpu.Submissions())
	require.Equal(t, 6, s.gpu.Presentations())

	require.Equal(t, []transition{
		{0, FrameWaitingOnFence},
		{0, FrameAcquiring},
		{0, FrameRecording},
		{0, FrameSubmitting},
		{0, FramePresenting},
		{0, FrameIdle},
	}, log[:6])
	require.Equal(t, 1, log[6].slot)
	for i := 0; i < 2; i++ {
		require.Equal(t, FrameIdle, s.sched.State(i))
	}

	for _, slot := range s.sched.slots {
		require.Equal(t, []string{"CmdBeginRenderPass", "CmdSetViewport", "CmdSetScissor", "CmdEndRenderPass"}, s.gpu.Recorded(slot.Commands.Handle()))
	}
	s.close(t)
}

func TestSchedulerFenceWaitPipelines(t *testing.T) {
	gpu := nativetest.New()
	gpu.ExecTime = 20 * time.Millisecond
	s := newScheduler(t, gpu, SchedulerConfig{FramesInFlight: 2})
	ctx := context.Background()

	var slots []int
	for i := 0; i < 5; i++ {
		stats, err := s.sched.Frame(ctx)
		require.NoError(t, err)
		slots = append(slots, stats.Slot)
		if i >= 2 {
			// both slots have work outstanding, so the fence must be waited on
			require.GreaterOrEqual(t, stats.FenceWait, gpu.ExecTime/2, "iteration %d", i)
		}
	}
	require.Equal(t, []int{0, 1, 0, 1, 0}, slots)
	s.close(t)
}

func TestSchedulerRecoversFromStaleAcquire(t *testing.T) {
	s := newScheduler(t, nativetest.New(), SchedulerConfig{})
	ctx := context.Background()

	stats, err := s.sched.Frame(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, stats.Slot)

	s.gpu.MarkSurfaceStale(s.surface.Handle())
	stats, err = s.sched.Frame(ctx)
	require.NoError(t, err)
	require.True(t, stats.Stale)
	require.True(t, stats.Recreated)
	require.False(t, stats.Submitted)
	require.False(t, stats.Presented)
	require.Equal(t, 1, stats.Slot)
	require.Equal(t, FrameIdle, s.sched.State(1))

	stats, err = s.sched.Frame(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Slot, "the slot that saw the stale surface is used again")
	require.True(t, stats.Presented)
	require.Equal(t, 1, s.sched.Recreations())
	require.Equal(t, 2, s.sched.Frames())
	require.Equal(t, 1, s.chain.Generation())
	s.close(t)
}

func TestSchedulerRecreatesAfterPresent(t *testing.T) {
	for idx, tc := range []struct {
		name   string
		during func(s *schedulerFixture)
		stale  bool
		extent native.Extent2D
	}{
		{
			name:   "suboptimal present",
			during: func(s *schedulerFixture) { s.gpu.MarkSuboptimal(s.surface.Handle()) },
			stale:  true,
			extent: native.Extent2D{Width: 320, Height: 240},
		},
		{
			name:   "resize while recording",
			during: func(s *schedulerFixture) { s.win.Resize(640, 360) },
			stale:  true,
			extent: native.Extent2D{Width: 640, Height: 360},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var s *schedulerFixture
			armed := false
			s = newScheduler(t, nativetest.New(), SchedulerConfig{
				Record: func(cmd *CommandBuffer, target FrameTarget) error {
					if armed {
						armed = false
						tc.during(s)
					}
					return ClearRecorder([4]float32{})(cmd, target)
				},
			})
			ctx := context.Background()
			_, err := s.sched.Frame(ctx)
			require.NoError(t, err)

			armed = true
			stats, err := s.sched.Frame(ctx)
			require.NoError(t, err, "case %d", idx)
			require.True(t, stats.Presented)
			require.True(t, stats.Recreated)
			require.Equal(t, tc.stale, stats.Stale)
			require.Equal(t, 1, s.sched.Recreations())
			require.Equal(t, tc.extent, s.chain.Extent())

			stats, err = s.sched.Frame(ctx)
			require.NoError(t, err)
			require.False(t, stats.Recreated)
			s.close(t)
		})
	}
}

func TestSchedulerResizeNotification(t *testing.T) {
	s := newScheduler(t, nativetest.New(), SchedulerConfig{})
	ctx := context.Background()
	_, err := s.sched.Frame(ctx)
	require.NoError(t, err)

	// the size is unchanged, so only the notification forces recreation
	s.sched.NotifyResize(320, 240)
	stats, err := s.sched.Frame(ctx)
	require.NoError(t, err)
	require.True(t, stats.Recreated)
	require.False(t, stats.Stale)
	require.Equal(t, 1, s.sched.Recreations())
	s.close(t)
}

func TestSchedulerWaitsWhileMinimized(t *testing.T) {
	s := newScheduler(t, nativetest.New(), SchedulerConfig{})
	var submitted []int
	s.win.OnWaitEvents = func(w *nativetest.Window) {
		submitted = append(submitted, s.gpu.Submissions())
		if w.Waits() == 3 {
			w.Resize(800, 600)
		}
	}
	ctx := context.Background()
	_, err := s.sched.Frame(ctx)
	require.NoError(t, err)

	s.win.Resize(0, 0)
	stats, err := s.sched.Frame(ctx)
	require.NoError(t, err)
	require.True(t, stats.Stale)
	require.True(t, stats.Recreated)
	require.False(t, stats.Submitted)
	require.Equal(t, 3, s.win.Waits())
	require.Equal(t, []int{1, 1, 1}, submitted, "nothing is submitted while minimized")
	require.Equal(t, native.Extent2D{Width: 800, Height: 600}, s.chain.Extent())
	require.Equal(t, 1, s.sched.Recreations())

	stats, err = s.sched.Frame(ctx)
	require.NoError(t, err)
	require.True(t, stats.Presented)
	require.Equal(t, 2, s.gpu.Submissions())
	s.close(t)
}

func TestSchedulerRunStopsWhenClosedWhileMinimized(t *testing.T) {
	s := newScheduler(t, nativetest.New(), SchedulerConfig{})
	s.win.OnPollEvents = func(w *nativetest.Window) {
		if w.Polls() == 1 {
			w.Resize(0, 0)
		}
	}
	s.win.OnWaitEvents = func(w *nativetest.Window) {
		if w.Waits() == 2 {
			w.RequestClose()
		}
	}

	require.NoError(t, s.sched.Run(context.Background()))
	require.Equal(t, 2, s.win.Waits())
	require.Equal(t, 1, s.sched.Frames())
	require.Equal(t, 1, s.gpu.Submissions())
	require.Equal(t, 1, s.gpu.Presentations())
	require.Zero(t, s.sched.Recreations())
	require.Zero(t, s.chain.Generation())
	s.close(t)
}

func TestSchedulerRunWakesOnCancel(t *testing.T) {
	s := newScheduler(t, nativetest.New(), SchedulerConfig{})
	s.win.Blocking = true
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.win.OnPollEvents = func(w *nativetest.Window) {
		if w.Polls() == 1 {
			w.Resize(0, 0)
		}
	}
	s.win.OnWaitEvents = func(w *nativetest.Window) {
		if w.Waits() == 1 {
			go func() {
				time.Sleep(10 * time.Millisecond)
				cancel()
			}()
		}
	}

	done := make(chan error, 1)
	go func() { done <- s.sched.Run(ctx) }()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run stayed blocked on window events after cancellation")
	}
	require.Equal(t, 1, s.win.Wakes())
	require.Equal(t, 1, s.gpu.Submissions())
	s.close(t)
}

func TestSchedulerRun(t *testing.T) {
	s := newScheduler(t, nativetest.New(), SchedulerConfig{MaxFrames: 4, FramesInFlight: 3})
	require.NoError(t, s.sched.Run(context.Background()))
	require.Equal(t, 4, s.sched.Frames())
	require.Equal(t, 4, s.win.Polls())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, s.sched.Run(ctx), context.Canceled)

	s.close(t)
}

func TestSchedulerRunStopsOnClose(t *testing.T) {
	s := newScheduler(t, nativetest.New(), SchedulerConfig{})
	s.win.OnPollEvents = func(w *nativetest.Window) {
		if w.Polls() == 2 {
			w.RequestClose()
		}
	}
	require.NoError(t, s.sched.Run(context.Background()))
	require.Equal(t, 2, s.sched.Frames())
	s.close(t)
}

func TestSchedulerFatalErrors(t *testing.T) {
	for idx, tc := range []struct {
		name   string
		call   string
		status native.Status
	}{
		{name: "device lost on submit", call: "QueueSubmit", status: native.ErrorDeviceLost},
		{name: "surface lost on acquire", call: "AcquireNextImage", status: native.ErrorSurfaceLost},
		{name: "device lost on present", call: "QueuePresent", status: native.ErrorDeviceLost},
	} {
		t.Run(tc.name, func(t *testing.T) {
			gpu := nativetest.New()
			s := newScheduler(t, gpu, SchedulerConfig{})
			gpu.FailOn(tc.call, tc.status)
			_, err := s.sched.Frame(context.Background())
			require.Error(t, err, "case %d", idx)
			require.Equal(t, KindFatal, KindOf(err))
			status, ok := StatusOf(err)
			require.True(t, ok)
			require.Equal(t, tc.status, status)
			require.Zero(t, s.sched.Recreations())
			s.close(t)
		})
	}
}

func TestSchedulerFenceTimeout(t *testing.T) {
	gpu := nativetest.New()
	gpu.ExecTime = 200 * time.Millisecond
	s := newScheduler(t, gpu, SchedulerConfig{FramesInFlight: 1, FenceTimeout: uint64(time.Millisecond)})
	ctx := context.Background()

	_, err := s.sched.Frame(ctx)
	require.NoError(t, err)
	_, err = s.sched.Frame(ctx)
	require.Error(t, err)
	require.Equal(t, KindFatal, KindOf(err))
	status, _ := StatusOf(err)
	require.Equal(t, native.Timeout, status)
	s.close(t)
}

func TestSchedulerClose(t *testing.T) {
	s := newScheduler(t, nativetest.New(), SchedulerConfig{})
	_, err := s.sched.Frame(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.sched.Close())
	require.Zero(t, s.gpu.Live("Fence"))
	require.Zero(t, s.gpu.Live("CommandPool"))
	require.Equal(t, 1, s.gpu.Live("Swapchain"), "the chain stays with its owner")

	_, err = s.sched.Frame(context.Background())
	require.Equal(t, KindConfiguration, KindOf(err))
	require.Nil(t, s.sched.CommandBuffer())
	require.Equal(t, FrameIdle, s.sched.State(0))
	_, _, err = s.sched.AcquireNextImage()
	require.Equal(t, KindConfiguration, KindOf(err))
	_, err = s.sched.PresentImage(0)
	require.Equal(t, KindConfiguration, KindOf(err))
	s.close(t)
}

func TestSchedulerConfigErrors(t *testing.T) {
	f := newFixture(t)
	chain := Must(NewPresentationChain(f.dev, f.chainConfig()))

	_, err := NewFrameScheduler(nil, SchedulerConfig{}).Get()
	require.Equal(t, KindConfiguration, KindOf(err))
	_, err = NewFrameScheduler(chain, SchedulerConfig{}).Get()
	require.Equal(t, KindConfiguration, KindOf(err), "no graphics queue")
	_, err = NewFrameScheduler(chain, SchedulerConfig{GraphicsQueue: f.graphics, FramesInFlight: -1}).Get()
	require.Equal(t, KindConfiguration, KindOf(err))

	f.gpu.FailOn("CreateSemaphore", native.ErrorOutOfHostMemory)
	_, err = NewFrameScheduler(chain, SchedulerConfig{GraphicsQueue: f.graphics, FramesInFlight: 3}).Get()
	require.Equal(t, KindConstruction, KindOf(err))
	require.Zero(t, f.gpu.Live("CommandPool"))
	require.Zero(t, f.gpu.Live("CommandBuffer"))

	chain.Release()
	f.close(t)
}

func TestSchedulerContext(t *testing.T) {
	s := newScheduler(t, nativetest.New(), SchedulerConfig{})
	var cleanups, prepares int
	var invalidated []int
	s.sched.SetOnCleanup(func() error { cleanups++; return nil })
	s.sched.SetOnPrepare(func() error { prepares++; return nil })
	s.sched.SetOnInvalidate(func(i int) error { invalidated = append(invalidated, i); return nil })

	dims := s.sched.SwapchainDimensions()
	require.Equal(t, uint32(320), dims.Width)
	require.Equal(t, native.FormatB8G8R8A8Srgb, dims.Format)
	require.Len(t, s.sched.SwapchainImageDimensions(), 3)
	require.Same(t, s.dev, s.sched.Device())

	idx, outdated, err := s.sched.AcquireNextImage()
	require.NoError(t, err)
	require.False(t, outdated)
	again, _, err := s.sched.AcquireNextImage()
	require.NoError(t, err)
	require.Equal(t, idx, again, "a pending acquisition is returned as is")

	cmd := s.sched.CommandBuffer()
	require.NoError(t, cmd.Begin())
	require.NoError(t, ClearRecorder([4]float32{1, 0, 0, 1})(cmd, FrameTarget{
		RenderPass:  s.chain.RenderPass(),
		Framebuffer: s.chain.Framebuffer(idx),
		Extent:      s.chain.Extent(),
	}))
	require.NoError(t, cmd.End())

	_, err = s.sched.PresentImage(idx + 1)
	require.Equal(t, KindConfiguration, KindOf(err))

	s.win.Resize(400, 300)
	outdated, err = s.sched.PresentImage(idx)
	require.NoError(t, err)
	require.True(t, outdated)
	require.Equal(t, 1, cleanups)
	require.Equal(t, 1, prepares)
	require.Equal(t, []int{0, 1, 2}, invalidated)
	s.close(t)
}
