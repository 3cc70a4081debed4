package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"cubedrop/core"
	"cubedrop/logger"
	"cubedrop/physics"
	"cubedrop/rendering"
)

// ErrShuttingDown is returned by Frame once the driver has left the running state
var ErrShuttingDown = errors.New("driver is shutting down")

type State int

const (
	StateRunning State = iota
	StateShuttingDown
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "shutting down"
}

// Context is the process state owned by the driver goroutine. Only the
// event queue may be touched from other goroutines.
type Context struct {
	World     *physics.World
	Respawner *physics.Respawner
	Renderer  rendering.Renderer
	Scene     *Scene
	Events    *EventQueue
}

// FrameStats is a copy of the state after one frame
type FrameStats struct {
	Frame         uint64
	Elapsed       float64
	SubSteps      int
	SimulatedTime float64
	BodyID        uuid.UUID
	Pose          core.Pose
	Sleeping      bool
	Respawns      uint64
}

// Observer receives a snapshot after every completed frame. It runs on the
// driver goroutine and must not block.
type Observer interface {
	ObserveFrame(FrameStats)
}

type Option func(*Driver)

func WithClock(c Clock) Option {
	return func(d *Driver) { d.clock = c }
}

func WithObserver(o Observer) Option {
	return func(d *Driver) { d.observer = o }
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) { d.log = l }
}

// WithMaxSubSteps overrides physics.DefaultMaxSubSteps
func WithMaxSubSteps(n int) Option {
	return func(d *Driver) { d.maxSubSteps = n }
}

// Driver runs the frame loop: apply staged events, step the world, compose
// transforms, submit draws, present, then pace.
type Driver struct {
	ctx      *Context
	window   rendering.Window
	pacer    Pacer
	clock    Clock
	timing   FrameTiming
	observer Observer
	log      *slog.Logger

	state       State
	maxSubSteps int
	frame       uint64
	respawns    uint64
	released    bool
	scratch     []Event
}

func NewDriver(sc *Context, window rendering.Window, pacer Pacer, timing FrameTiming, opts ...Option) (*Driver, error) {
	switch {
	case sc == nil:
		return nil, errors.New("driver: nil context")
	case sc.World == nil, sc.Respawner == nil, sc.Renderer == nil, sc.Scene == nil:
		return nil, errors.New("driver: incomplete context")
	case window == nil:
		return nil, errors.New("driver: nil window")
	}
	if sc.Events == nil {
		sc.Events = NewEventQueue(DefaultEventCapacity)
	}
	if pacer == nil {
		pacer = HostPacer{}
	}

	d := &Driver{
		ctx:         sc,
		window:      window,
		pacer:       pacer,
		clock:       SystemClock,
		timing:      timing,
		maxSubSteps: physics.DefaultMaxSubSteps,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = logger.L().With("component", "driver")
	}
	if d.maxSubSteps <= 0 {
		d.log.Warn("sub-step cap disabled, physics runs one variable step per frame", "max_substeps", d.maxSubSteps)
	}

	window.SetClickHandler(func() {
		if !sc.Events.Push(Event{Kind: EventReset, Source: "click"}) {
			d.log.Warn("event queue full, click dropped")
		}
	})
	return d, nil
}

func (d *Driver) State() State { return d.state }

func (d *Driver) Timing() FrameTiming { return d.timing }

// Frames returns the number of completed frames
func (d *Driver) Frames() uint64 { return d.frame }

// Respawns returns how many respawn requests were applied
func (d *Driver) Respawns() uint64 { return d.respawns }

// RequestRespawn stages a respawn for the next frame. Safe from any goroutine.
func (d *Driver) RequestRespawn(source string) bool {
	return d.ctx.Events.Push(Event{Kind: EventReset, Source: source})
}

// RequestShutdown stages a shutdown for the next frame. Safe from any goroutine.
func (d *Driver) RequestShutdown(source string) bool {
	return d.ctx.Events.Push(Event{Kind: EventShutdown, Source: source})
}

// Frame runs one iteration without pacing. Hosts that schedule frames
// themselves call it directly.
func (d *Driver) Frame() error {
	if d.state != StateRunning {
		return ErrShuttingDown
	}
	d.applyEvents()
	if d.state != StateRunning {
		return nil
	}

	elapsed := d.timing.Advance(d.clock.Now())
	steps := d.ctx.World.Step(elapsed, d.maxSubSteps, d.timing.FixedSubStep)
	if d.maxSubSteps > 0 && steps == d.maxSubSteps {
		d.log.Debug("sub-step cap reached, dropping time", "elapsed", elapsed, "steps", steps)
	}

	width, height := d.window.Size()
	r := d.ctx.Renderer
	scene := d.ctx.Scene
	r.SetViewport(0, 0, width, height)
	r.SetViewTransform(scene.Camera.View(), scene.Camera.Projection(width, height))

	pose := d.ctx.World.InterpolatedDynamicPose()
	r.Submit(core.ComposeDynamic(pose.Position, pose.Orientation), scene.VertexBuffer, scene.IndexBuffer, scene.Program)

	floor := d.ctx.World.Floor()
	r.Submit(core.ComposeStatic(floor.Shape.HalfExtents, floor.Pose().Position), scene.VertexBuffer, scene.IndexBuffer, scene.Program)

	if err := r.EndFrame(); err != nil {
		return fmt.Errorf("end frame %d: %w", d.frame, err)
	}
	d.frame++

	if d.observer != nil {
		body := d.ctx.World.Dynamic()
		d.observer.ObserveFrame(FrameStats{
			Frame:         d.frame,
			Elapsed:       elapsed,
			SubSteps:      steps,
			SimulatedTime: d.ctx.World.SimulatedTime(),
			BodyID:        body.ID,
			Pose:          pose,
			Sleeping:      body.State() == physics.Sleeping,
			Respawns:      d.respawns,
		})
	}
	return nil
}

// Run loops until the window closes, ctx is cancelled, a shutdown event
// arrives or a frame fails. Scene and renderer resources are released before
// it returns.
func (d *Driver) Run(ctx context.Context) error {
	defer d.Close()

	d.timing.LastFrame = d.clock.Now()
	d.log.Info("frame loop started",
		"refresh_hz", d.timing.RefreshHz,
		"fixed_substep", d.timing.FixedSubStep,
		"body", d.ctx.World.Dynamic().ID)

	for d.state == StateRunning {
		d.window.PollEvents()
		if err := ctx.Err(); err != nil {
			d.shutdown("context cancelled")
			break
		}
		if d.window.ShouldClose() {
			d.shutdown("window closed")
			break
		}

		frameStart := d.clock.Now()
		if err := d.Frame(); err != nil {
			d.shutdown("frame failed")
			return err
		}
		if frameTime := d.clock.Now().Sub(frameStart); frameTime > 2*d.timing.TargetInterval {
			d.log.Debug("slow frame", "frame", d.frame, "took", frameTime)
		}
		d.pacer.Wait(frameStart)
	}
	return nil
}

// Close moves the driver to the shutting down state and releases the scene
// and the renderer. Calling it more than once is harmless.
func (d *Driver) Close() {
	d.shutdown("closed")
	if d.released {
		return
	}
	d.released = true
	d.ctx.Scene.Release(d.ctx.Renderer)
	d.ctx.Renderer.Shutdown()
	d.log.Info("renderer released", "frames", d.frame, "respawns", d.respawns)
}

func (d *Driver) shutdown(reason string) {
	if d.state == StateShuttingDown {
		return
	}
	d.state = StateShuttingDown
	d.log.Info("shutting down", "reason", reason, "frames", d.frame)
}

func (d *Driver) applyEvents() {
	d.scratch = d.ctx.Events.Drain(d.scratch[:0])
	for _, e := range d.scratch {
		switch e.Kind {
		case EventShutdown:
			d.shutdown(e.Source)
		case EventReset:
			if d.state == StateShuttingDown {
				d.log.Debug("respawn ignored during shutdown", "source", e.Source)
				continue
			}
			old := d.ctx.World.Dynamic().ID
			id := d.ctx.Respawner.Respawn(d.ctx.World)
			d.respawns++
			d.log.Info("cube respawned", "source", e.Source, "old", old, "body", id, "latency", time.Since(e.At))
		}
	}
}

// Observers fans a snapshot out to several observers in order
type Observers []Observer

func (o Observers) ObserveFrame(s FrameStats) {
	for _, obs := range o {
		if obs != nil {
			obs.ObserveFrame(s)
		}
	}
}
