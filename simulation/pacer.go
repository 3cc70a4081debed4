package simulation

import (
	"time"

	"cubedrop/rendering"
)

// minWaitSlice is the shortest block handed to the window event wait
const minWaitSlice = 10 * time.Millisecond

// Pacer holds the driver loop back until the next frame is due
type Pacer interface {
	Wait(frameStart time.Time)
}

// SelfPacer blocks on the window's event wait until one target interval has
// passed since the frame started. Input arriving during the wait is handled
// without ending it.
type SelfPacer struct {
	window   rendering.Window
	clock    Clock
	interval time.Duration
}

func NewSelfPacer(window rendering.Window, clock Clock, interval time.Duration) *SelfPacer {
	if clock == nil {
		clock = SystemClock
	}
	return &SelfPacer{window: window, clock: clock, interval: interval}
}

func (p *SelfPacer) Wait(frameStart time.Time) {
	for {
		elapsed := p.clock.Now().Sub(frameStart)
		if elapsed >= p.interval {
			// late frame, still pump input once
			p.window.PollEvents()
			return
		}
		if p.window.ShouldClose() {
			return
		}
		p.window.WaitEventsTimeout(max(minWaitSlice, p.interval-elapsed))
		if p.clock.Now().Sub(frameStart) >= p.interval {
			return
		}
	}
}

// HostPacer is used when the host (a game loop or the browser) already
// schedules frames.
type HostPacer struct{}

func (HostPacer) Wait(time.Time) {}
