package nativetest

import (
	"sync"
)

// Window is a scripted window. Its drawable size only changes through Resize
// or the hooks.
type Window struct {
	mu       sync.Mutex
	events   *sync.Cond
	width    int
	height   int
	closed   bool
	callback func(width, height int)
	waits    int
	polls    int
	wakes    int
	// pending counts events delivered since the last WaitEvents.
	pending int

	// Blocking makes WaitEvents block until Resize, RequestClose or
	// PostEmptyEvent delivers an event, like a real event loop.
	Blocking bool

	// OnWaitEvents runs on every WaitEvents call, after the counter is bumped.
	OnWaitEvents func(w *Window)
	// OnPollEvents runs on every PollEvents call.
	OnPollEvents func(w *Window)
}

func NewWindow(width, height int) *Window {
	w := &Window{width: width, height: height}
	w.events = sync.NewCond(&w.mu)
	return w
}

// post records an event and wakes WaitEvents. w.mu is held.
func (w *Window) post() {
	w.pending++
	w.events.Broadcast()
}

// Resize changes the drawable size and delivers a resize notification.
func (w *Window) Resize(width, height int) {
	w.mu.Lock()
	w.width, w.height = width, height
	w.post()
	cb := w.callback
	w.mu.Unlock()
	if cb != nil {
		cb(width, height)
	}
}

// RequestClose makes ShouldClose report true.
func (w *Window) RequestClose() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	w.post()
}

// PostEmptyEvent wakes a blocked WaitEvents. Safe from any goroutine.
func (w *Window) PostEmptyEvent() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.wakes++
	w.post()
}

func (w *Window) FramebufferSize() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

func (w *Window) WaitEvents() {
	w.mu.Lock()
	w.waits++
	for w.Blocking && w.pending == 0 {
		w.events.Wait()
	}
	w.pending = 0
	hook := w.OnWaitEvents
	w.mu.Unlock()
	if hook != nil {
		hook(w)
	}
}

func (w *Window) PollEvents() {
	w.mu.Lock()
	w.polls++
	hook := w.OnPollEvents
	w.mu.Unlock()
	if hook != nil {
		hook(w)
	}
}

func (w *Window) ShouldClose() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *Window) SetFramebufferSizeCallback(fn func(width, height int)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callback = fn
}

// CreateWindowSurface satisfies native.SurfaceSource. The GPU identifies the
// surface by its own handle, so the returned value is a placeholder.
func (w *Window) CreateWindowSurface(instance interface{}) (uintptr, error) {
	return 1, nil
}

// Waits counts WaitEvents calls.
func (w *Window) Waits() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.waits
}

// Wakes counts PostEmptyEvent calls.
func (w *Window) Wakes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.wakes
}

// Polls counts PollEvents calls.
func (w *Window) Polls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.polls
}
