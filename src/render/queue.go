package render

import (
	"github.com/mxplusb/epsilon/src/native"
	"github.com/mxplusb/epsilon/src/staging"
)

// Queue is retrieved from a Device and shares its lifetime.
type Queue struct {
	dev    *Device
	family uint32
	index  uint32
	handle native.Queue
}

func (q *Queue) Handle() native.Queue {
	return q.handle
}

func (q *Queue) Family() uint32 {
	return q.family
}

func (q *Queue) Index() uint32 {
	return q.index
}

// Submission is one batch of command buffers with the semaphores it waits
// on and signals. WaitStages pairs with Wait.
type Submission struct {
	Wait       []*Semaphore
	WaitStages []native.PipelineStageFlags
	Commands   []*CommandBuffer
	Signal     []*Semaphore
}

// Submit queues subs for execution. fence, if non-nil, is signaled once all
// of them complete.
func (q *Queue) Submit(fence *Fence, subs ...Submission) error {
	descs := make([]submitDesc, len(subs))
	for i, s := range subs {
		if len(s.WaitStages) != len(s.Wait) {
			return configError("QueueSubmit", "submission %d: %d wait stages for %d semaphores", i, len(s.WaitStages), len(s.Wait))
		}
		descs[i] = submitDesc{
			wait:       semaphoreHandles(s.Wait),
			waitStages: s.WaitStages,
			commands:   commandHandles(s.Commands),
			signal:     semaphoreHandles(s.Signal),
		}
	}
	var f native.Fence
	if fence != nil {
		f = fence.Handle()
	}
	status := staging.Call(func(a *staging.Arena) native.Status {
		infos, n := submitInfos(a, descs)
		return q.dev.api.QueueSubmit(q.handle, n, infos, f)
	})
	return NewError("QueueSubmit", status)
}

type PresentRequest struct {
	Wait       []*Semaphore
	Swapchain  *Swapchain
	ImageIndex uint32
}

// Present queues an image for presentation. stale reports that the swapchain
// no longer matches its surface (suboptimal or out of date) and should be
// recreated; it is not an error. err is set only for fatal failures.
func (q *Queue) Present(req PresentRequest) (stale bool, err error) {
	wait := semaphoreHandles(req.Wait)
	sc := req.Swapchain.Handle()
	status := staging.Call(func(a *staging.Arena) native.Status {
		return q.dev.api.QueuePresent(q.handle, presentInfo(a, wait, sc, req.ImageIndex))
	})
	if status.IsStale() {
		return true, nil
	}
	return false, NewError("QueuePresent", status)
}

func (q *Queue) WaitIdle() error {
	return NewError("QueueWaitIdle", q.dev.api.QueueWaitIdle(q.handle))
}

func semaphoreHandles(sems []*Semaphore) []native.Semaphore {
	if len(sems) == 0 {
		return nil
	}
	out := make([]native.Semaphore, len(sems))
	for i, s := range sems {
		out[i] = s.Handle()
	}
	return out
}

func commandHandles(cmds []*CommandBuffer) []native.CommandBuffer {
	if len(cmds) == 0 {
		return nil
	}
	out := make([]native.CommandBuffer, len(cmds))
	for i, c := range cmds {
		out[i] = c.Handle()
	}
	return out
}
