package simulation

import (
	"time"
)

const (
	// FallbackRefreshHz is used when the display refresh rate is unknown
	FallbackRefreshHz = 60
	// MinRefreshHz clamps bogus refresh rates reported by some drivers
	MinRefreshHz = 1
)

// Clock abstracts wall time so pacing can be tested
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the monotonic wall clock
var SystemClock Clock = systemClock{}

// FrameTiming holds the cadence chosen at startup. TargetInterval and
// FixedSubStep never change afterwards.
type FrameTiming struct {
	RefreshHz      int
	TargetInterval time.Duration
	FixedSubStep   float64
	LastFrame      time.Time
}

// NewFrameTiming derives the frame cadence from a reported refresh rate
func NewFrameTiming(hz int, ok bool) FrameTiming {
	if !ok {
		hz = FallbackRefreshHz
	}
	if hz < MinRefreshHz {
		hz = MinRefreshHz
	}
	return FrameTiming{
		RefreshHz:      hz,
		TargetInterval: time.Second / time.Duration(hz),
		FixedSubStep:   1.0 / float64(hz),
	}
}

// Advance returns the seconds elapsed since the previous frame and makes now
// the new reference. The first call only records the reference.
func (t *FrameTiming) Advance(now time.Time) float64 {
	if t.LastFrame.IsZero() {
		t.LastFrame = now
		return 0
	}
	elapsed := now.Sub(t.LastFrame)
	t.LastFrame = now
	if elapsed < 0 {
		return 0
	}
	return elapsed.Seconds()
}
