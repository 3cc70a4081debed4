package headless

import (
	"sync"
	"time"
)

// Window is a virtual window. Clicks and close requests queued from any
// goroutine are delivered on the driver goroutine during PollEvents or
// WaitEventsTimeout, like a real event loop.
type Window struct {
	mu sync.Mutex

	width, height int
	refreshHz     int

	closeRequested bool
	clickHandler   func()
	pendingClicks  int

	sleep func(time.Duration)
	waits []time.Duration
}

// NewWindow creates a virtual window. refreshHz <= 0 means the refresh rate
// is unknown.
func NewWindow(width, height, refreshHz int) *Window {
	return &Window{
		width:     width,
		height:    height,
		refreshHz: refreshHz,
		sleep:     time.Sleep,
	}
}

// SetSleeper replaces the function used to block in WaitEventsTimeout
func (w *Window) SetSleeper(sleep func(time.Duration)) {
	w.mu.Lock()
	w.sleep = sleep
	w.mu.Unlock()
}

// Click queues a primary button press
func (w *Window) Click() {
	w.mu.Lock()
	w.pendingClicks++
	w.mu.Unlock()
}

func (w *Window) ShouldClose() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeRequested
}

func (w *Window) RequestClose() {
	w.mu.Lock()
	w.closeRequested = true
	w.mu.Unlock()
}

// PollEvents delivers queued clicks to the click handler
func (w *Window) PollEvents() {
	w.deliver()
}

// WaitEventsTimeout returns at once when events were pending, otherwise
// blocks for the timeout
func (w *Window) WaitEventsTimeout(timeout time.Duration) {
	w.mu.Lock()
	w.waits = append(w.waits, timeout)
	sleep := w.sleep
	w.mu.Unlock()

	if w.deliver() > 0 {
		return
	}
	sleep(timeout)
}

func (w *Window) deliver() int {
	w.mu.Lock()
	n := w.pendingClicks
	w.pendingClicks = 0
	handler := w.clickHandler
	w.mu.Unlock()

	if handler != nil {
		for i := 0; i < n; i++ {
			handler()
		}
	}
	return n
}

func (w *Window) RefreshRate() (int, bool) {
	if w.refreshHz <= 0 {
		return 0, false
	}
	return w.refreshHz, true
}

func (w *Window) Size() (int, int) {
	return w.width, w.height
}

func (w *Window) SetClickHandler(fn func()) {
	w.mu.Lock()
	w.clickHandler = fn
	w.mu.Unlock()
}

// Waits returns the timeouts passed to WaitEventsTimeout so far
func (w *Window) Waits() []time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]time.Duration(nil), w.waits...)
}
