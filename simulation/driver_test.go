package simulation

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"cubedrop/core"
	"cubedrop/physics"
	"cubedrop/rendering"
	"cubedrop/rendering/headless"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type recordingObserver struct {
	stats []FrameStats
	after func(FrameStats)
}

func (o *recordingObserver) ObserveFrame(s FrameStats) {
	o.stats = append(o.stats, s)
	if o.after != nil {
		o.after(s)
	}
}

type testRig struct {
	driver   *Driver
	world    *physics.World
	renderer *headless.Renderer
	window   *headless.Window
	clock    *fakeClock
	events   *EventQueue
}

func newTestRig(t *testing.T, opts ...Option) *testRig {
	t.Helper()

	respawner := physics.NewSeededRespawner(7)
	world, err := physics.NewWorld(physics.DefaultConfig(), respawner)
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	renderer := headless.NewRenderer()
	scene, err := LoadScene(renderer, headless.Shaders)
	if err != nil {
		t.Fatalf("LoadScene: %v", err)
	}
	window := headless.NewWindow(1280, 720, 60)
	clock := newFakeClock()
	window.SetSleeper(clock.Advance)
	events := NewEventQueue(8)

	sc := &Context{
		World:     world,
		Respawner: respawner,
		Renderer:  renderer,
		Scene:     scene,
		Events:    events,
	}
	quiet := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	opts = append([]Option{WithClock(clock), WithLogger(quiet)}, opts...)
	timing := NewFrameTiming(window.RefreshRate())
	driver, err := NewDriver(sc, window, NewSelfPacer(window, clock, timing.TargetInterval), timing, opts...)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	return &testRig{driver: driver, world: world, renderer: renderer, window: window, clock: clock, events: events}
}

// frame advances the clock by d and runs one frame
func (r *testRig) frame(t *testing.T, d time.Duration) {
	t.Helper()
	r.clock.Advance(d)
	if err := r.driver.Frame(); err != nil {
		t.Fatalf("Frame: %v", err)
	}
}

func translation(m [16]float32) mgl64.Vec3 {
	return mgl64.Vec3{float64(m[12]), float64(m[13]), float64(m[14])}
}

func TestFrameSubmitsBothBodies(t *testing.T) {
	rig := newTestRig(t)
	rig.frame(t, 0)
	rig.frame(t, 17*time.Millisecond)

	frame, ok := rig.renderer.LastFrame()
	if !ok {
		t.Fatal("no frame recorded")
	}
	if len(frame.Draws) != 2 {
		t.Fatalf("draws = %d, want 2", len(frame.Draws))
	}

	floor := rig.world.Floor()
	wantStatic := core.ComposeStatic(floor.Shape.HalfExtents, floor.Pose().Position)
	if frame.Draws[1].Transform != wantStatic {
		t.Errorf("static transform = %v, want %v", frame.Draws[1].Transform, wantStatic)
	}

	pos := translation(frame.Draws[0].Transform)
	if !(pos.Y() < 5 && pos.Y() > 4.9) {
		t.Errorf("cube rendered at %v, want just below the spawn point", pos)
	}

	cam := core.DefaultCamera()
	if frame.View != cam.View() || frame.Projection != cam.Projection(1280, 720) {
		t.Error("view transform does not match the default camera")
	}
	if got := rig.renderer.Viewport(); got != [4]int{0, 0, 1280, 720} {
		t.Errorf("viewport = %v", got)
	}
	if got := rig.renderer.ClearColor(); got != core.ClearColor {
		t.Errorf("clear color = %#x", got)
	}
}

func TestStaticTransformIsStableAcrossFrames(t *testing.T) {
	rig := newTestRig(t)
	for i := 0; i < 30; i++ {
		rig.frame(t, 17*time.Millisecond)
	}
	frames := rig.renderer.Frames()
	first := frames[0].Draws[1].Transform
	for i, f := range frames {
		if f.Draws[1].Transform != first {
			t.Fatalf("frame %d static transform changed", i)
		}
	}
}

func TestRespawnIsAppliedBeforeStep(t *testing.T) {
	rig := newTestRig(t)
	rig.frame(t, 0)
	for i := 0; i < 60; i++ {
		rig.frame(t, 17*time.Millisecond)
	}
	if y := rig.world.DynamicPose().Position.Y(); y > 4 {
		t.Fatalf("cube still at y=%v after one second", y)
	}
	oldID := rig.world.Dynamic().ID

	rig.window.Click()
	rig.window.PollEvents()
	rig.frame(t, 17*time.Millisecond)

	body := rig.world.Dynamic()
	if body.ID == oldID {
		t.Fatal("cube was not replaced")
	}
	if rig.driver.Respawns() != 1 {
		t.Errorf("respawns = %d, want 1", rig.driver.Respawns())
	}

	// the new cube has been stepped once in the same frame
	frame, _ := rig.renderer.LastFrame()
	pos := translation(frame.Draws[0].Transform)
	if !(pos.Y() < 5 && pos.Y() > 4.95) {
		t.Errorf("respawned cube rendered at %v", pos)
	}
	if body.LinearVelocity().Y() >= 0 {
		t.Errorf("respawned cube velocity %v, want falling", body.LinearVelocity())
	}
	if pos.X() != 0 || pos.Z() != 0 {
		t.Errorf("respawned cube drifted sideways: %v", pos)
	}
}

func TestShutdownIgnoresLaterRespawn(t *testing.T) {
	rig := newTestRig(t)
	rig.frame(t, 0)
	id := rig.world.Dynamic().ID
	frames := rig.renderer.FrameCount()

	rig.driver.RequestShutdown("test")
	rig.driver.RequestRespawn("test")
	if err := rig.driver.Frame(); err != nil {
		t.Fatalf("Frame: %v", err)
	}

	if rig.driver.State() != StateShuttingDown {
		t.Fatalf("state = %v, want shutting down", rig.driver.State())
	}
	if rig.world.Dynamic().ID != id {
		t.Error("respawn was applied during shutdown")
	}
	if rig.renderer.FrameCount() != frames {
		t.Error("a frame was rendered after shutdown")
	}
	if err := rig.driver.Frame(); !errors.Is(err, ErrShuttingDown) {
		t.Errorf("Frame after shutdown = %v, want ErrShuttingDown", err)
	}
}

func TestRunStopsWhenWindowCloses(t *testing.T) {
	var window *headless.Window
	obs := &recordingObserver{}
	obs.after = func(s FrameStats) {
		if s.Frame == 5 {
			window.RequestClose()
		}
	}
	rig := newTestRig(t, WithObserver(obs))
	window = rig.window

	if err := rig.driver.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := rig.renderer.FrameCount(); got != 5 {
		t.Errorf("frames = %d, want 5", got)
	}
	if !rig.renderer.IsShutdown() {
		t.Error("renderer not shut down")
	}
	if live := rig.renderer.Live(); live != 0 {
		t.Errorf("%d handles leaked", live)
	}
	for i, s := range obs.stats {
		if s.Frame != uint64(i+1) {
			t.Errorf("stats[%d].Frame = %d", i, s.Frame)
		}
		if s.BodyID != rig.world.Dynamic().ID {
			t.Errorf("stats[%d] reports body %v", i, s.BodyID)
		}
	}

	// the last frame skips pacing because the window is closing
	waits := rig.window.Waits()
	if len(waits) < 4 {
		t.Errorf("pacer waited %d times, want at least 4", len(waits))
	}
}

func TestRunAppliesClicksDuringPacing(t *testing.T) {
	var window *headless.Window
	obs := &recordingObserver{}
	obs.after = func(s FrameStats) {
		switch s.Frame {
		case 3:
			window.Click()
		case 6:
			window.RequestClose()
		}
	}
	rig := newTestRig(t, WithObserver(obs))
	window = rig.window
	first := rig.world.Dynamic().ID

	if err := rig.driver.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rig.driver.Respawns() != 1 {
		t.Fatalf("respawns = %d, want 1", rig.driver.Respawns())
	}
	if obs.stats[2].BodyID != first || obs.stats[3].BodyID == first {
		t.Error("click was not applied on the frame after it arrived")
	}
}

func TestRunReturnsEndFrameError(t *testing.T) {
	rig := newTestRig(t)
	lost := errors.New("device lost")
	rig.renderer.FailEndFrame(lost)

	err := rig.driver.Run(context.Background())
	if !errors.Is(err, lost) {
		t.Fatalf("Run = %v, want device lost", err)
	}
	if rig.driver.State() != StateShuttingDown || !rig.renderer.IsShutdown() {
		t.Error("driver did not shut down after the failed frame")
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	rig := newTestRig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := rig.driver.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rig.renderer.FrameCount() != 0 {
		t.Error("frames rendered after cancellation")
	}
	if !rig.renderer.IsShutdown() {
		t.Error("renderer not shut down")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	rig := newTestRig(t)
	rig.driver.Close()
	rig.driver.Close()
	if !rig.renderer.IsShutdown() || rig.renderer.Live() != 0 {
		t.Error("resources not released")
	}
}

func TestDropSettlesOnFloor(t *testing.T) {
	rig := newTestRig(t)
	rig.frame(t, 0)
	step := time.Second / 60

	prev := rig.world.DynamicPose().Position.Y()
	for i := 0; i < 300; i++ {
		rig.frame(t, step)
		y := rig.world.DynamicPose().Position.Y()
		if y < -1.5 {
			t.Fatalf("frame %d: cube center %v below the floor top", i, y)
		}
		if i > 1 && i < 30 && y > prev {
			t.Fatalf("frame %d: cube rose during free fall (%v -> %v)", i, prev, y)
		}
		prev = y
	}
	if prev > 0.75 {
		t.Errorf("cube resting at y=%v, want on the floor", prev)
	}
}

func TestNewDriverRejectsIncompleteContext(t *testing.T) {
	window := headless.NewWindow(1, 1, 0)
	tests := []struct {
		name string
		ctx  *Context
	}{
		{"nil", nil},
		{"empty", &Context{}},
		{"no scene", &Context{Renderer: headless.NewRenderer()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDriver(tt.ctx, window, HostPacer{}, NewFrameTiming(0, false)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadSceneReleasesOnFailure(t *testing.T) {
	r := headless.NewRenderer()
	if _, err := LoadScene(r, rendering.Shaders{Vertex: headless.Shaders.Vertex}); err == nil {
		t.Fatal("expected LoadScene to fail")
	}
	if live := r.Live(); live != 0 {
		t.Errorf("%d handles leaked", live)
	}
}

func BenchmarkFrame(b *testing.B) {
	respawner := physics.NewSeededRespawner(3)
	world, err := physics.NewWorld(physics.DefaultConfig(), respawner)
	if err != nil {
		b.Fatal(err)
	}
	renderer := headless.NewRenderer()
	scene, err := LoadScene(renderer, headless.Shaders)
	if err != nil {
		b.Fatal(err)
	}
	window := headless.NewWindow(1280, 720, 60)
	clock := newFakeClock()
	timing := NewFrameTiming(window.RefreshRate())
	sc := &Context{World: world, Respawner: respawner, Renderer: renderer, Scene: scene}
	quiet := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	d, err := NewDriver(sc, window, HostPacer{}, timing, WithClock(clock), WithLogger(quiet))
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		clock.Advance(timing.TargetInterval)
		if err := d.Frame(); err != nil {
			b.Fatal(err)
		}
	}
}

func TestZeroSubStepCapWarnsAndRunsVariableStep(t *testing.T) {
	var buf bytes.Buffer
	rig := newTestRig(t, WithMaxSubSteps(0), WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	if !strings.Contains(buf.String(), "sub-step cap disabled") {
		t.Errorf("no warning for a disabled sub-step cap: %q", buf.String())
	}

	obs := &recordingObserver{}
	rig.driver.observer = obs
	rig.frame(t, 0)
	rig.frame(t, 50*time.Millisecond)
	if got := obs.stats[len(obs.stats)-1].SubSteps; got != 1 {
		t.Errorf("sub-steps = %d, want one variable step", got)
	}
}
