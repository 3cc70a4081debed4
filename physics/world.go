package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"cubedrop/core"
)

// ErrInvalidConfig is returned when the world cannot be built from a config
var ErrInvalidConfig = errors.New("invalid physics config")

// DefaultMaxSubSteps caps the sub-steps run by a single Step call
const DefaultMaxSubSteps = 10

// Config describes the scene simulated by a World
type Config struct {
	Gravity mgl64.Vec3

	FloorHalfExtents mgl64.Vec3
	FloorCenter      mgl64.Vec3

	CubeHalfExtents mgl64.Vec3
	CubeMass        float64
	SpawnPoint      mgl64.Vec3

	Friction         float64
	Restitution      float64
	SolverIterations int
}

// DefaultConfig returns a 2x2x2 cube of mass 1 dropped from y=5 onto a
// 20x1x20 floor centered at y=-2
func DefaultConfig() Config {
	return Config{
		Gravity:          mgl64.Vec3{0, -9.8, 0},
		FloorHalfExtents: mgl64.Vec3{10, 0.5, 10},
		FloorCenter:      mgl64.Vec3{0, -2, 0},
		CubeHalfExtents:  mgl64.Vec3{1, 1, 1},
		CubeMass:         1,
		SpawnPoint:       mgl64.Vec3{0, 5, 0},
		Friction:         0.5,
		Restitution:      0,
		SolverIterations: 10,
	}
}

// Validate checks that the config describes a world that can be simulated
func (c Config) Validate() error {
	if !finiteVec(c.Gravity) || !finiteVec(c.FloorCenter) || !finiteVec(c.SpawnPoint) {
		return fmt.Errorf("%w: gravity, floor center and spawn point must be finite", ErrInvalidConfig)
	}
	if !positiveVec(c.FloorHalfExtents) {
		return fmt.Errorf("%w: floor half extents %v must be positive", ErrInvalidConfig, c.FloorHalfExtents)
	}
	if !positiveVec(c.CubeHalfExtents) {
		return fmt.Errorf("%w: cube half extents %v must be positive", ErrInvalidConfig, c.CubeHalfExtents)
	}
	if !(c.CubeMass > 0) || math.IsInf(c.CubeMass, 0) {
		return fmt.Errorf("%w: cube mass %v must be positive", ErrInvalidConfig, c.CubeMass)
	}
	if c.Friction < 0 || c.Restitution < 0 || c.Restitution > 1 {
		return fmt.Errorf("%w: friction %v / restitution %v out of range", ErrInvalidConfig, c.Friction, c.Restitution)
	}
	if c.SolverIterations < 1 {
		return fmt.Errorf("%w: solver iterations %d must be at least 1", ErrInvalidConfig, c.SolverIterations)
	}
	return nil
}

// World owns a static floor and a single dynamic cube slot. The slot is
// filled on construction and only ever replaced, never emptied.
type World struct {
	cfg      Config
	material Material

	floor   *Body
	dynamic *Body

	contacts []contact

	// localTime is real time received by Step but not yet simulated
	localTime     float64
	simulatedTime float64
	subSteps      uint64
}

// NewWorld builds the floor and spawns the first cube through respawner
func NewWorld(cfg Config, respawner *Respawner) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if respawner == nil {
		return nil, fmt.Errorf("%w: respawner is required", ErrInvalidConfig)
	}

	w := &World{
		cfg:      cfg,
		material: Material{Friction: cfg.Friction, Restitution: cfg.Restitution},
		contacts: make([]contact, 0, 8),
	}
	w.floor = newBody(
		BoxShape{HalfExtents: cfg.FloorHalfExtents},
		0,
		core.NewPose(cfg.FloorCenter, mgl64.QuatIdent()),
		w.material,
	)
	w.dynamic = respawner.newCube(w)
	return w, nil
}

// Config returns the config the world was built from
func (w *World) Config() Config { return w.cfg }

// Gravity returns the constant gravitational acceleration
func (w *World) Gravity() mgl64.Vec3 { return w.cfg.Gravity }

// Floor returns the static floor body
func (w *World) Floor() *Body { return w.floor }

// Dynamic returns the body currently occupying the dynamic slot
func (w *World) Dynamic() *Body { return w.dynamic }

// FloorPose returns the fixed pose of the floor
func (w *World) FloorPose() core.Pose { return w.floor.pose }

// DynamicPose returns the simulated pose of the dynamic body
func (w *World) DynamicPose() core.Pose { return w.dynamic.pose }

// InterpolatedDynamicPose returns the dynamic pose carried forward by the
// real time that has not been simulated yet. Renderers use it to hide the
// mismatch between the fixed sub-step and the frame interval.
func (w *World) InterpolatedDynamicPose() core.Pose {
	b := w.dynamic
	if b.state != Active || w.localTime <= 0 {
		return b.pose
	}
	return predictPose(b.pose, b.linearVelocity, b.angularVelocity, w.localTime)
}

// SimulatedTime returns the total simulated seconds
func (w *World) SimulatedTime() float64 { return w.simulatedTime }

// SubSteps returns the total number of sub-steps run
func (w *World) SubSteps() uint64 { return w.subSteps }

// Step advances the simulation by elapsed seconds of real time in
// increments of fixedSubStep, running at most maxSubSteps increments.
// Time beyond the cap is dropped. The remainder below one sub-step is kept
// for the next call. With maxSubSteps <= 0 a single step of elapsed is run.
// It returns the number of sub-steps run.
func (w *World) Step(elapsed float64, maxSubSteps int, fixedSubStep float64) int {
	if !(elapsed > 0) || math.IsInf(elapsed, 0) {
		return 0
	}

	if maxSubSteps <= 0 || !(fixedSubStep > 0) {
		w.localTime = 0
		w.subStep(elapsed)
		return 1
	}

	w.localTime += elapsed
	steps := 0
	if w.localTime >= fixedSubStep {
		steps = int(w.localTime / fixedSubStep)
		w.localTime -= float64(steps) * fixedSubStep
	}
	if steps > maxSubSteps {
		steps = maxSubSteps
	}

	for i := 0; i < steps; i++ {
		w.subStep(fixedSubStep)
	}
	return steps
}

// subStep runs one fixed increment: gravity, contacts, solve, integrate
func (w *World) subStep(dt float64) {
	b := w.dynamic
	if b.state == Active {
		b.linearVelocity = b.linearVelocity.Add(w.cfg.Gravity.Mul(dt))
		b.updateInertia()

		w.contacts = collideBoxGround(w.contacts[:0], b, w.floor, dt)
		if len(w.contacts) > 0 {
			solveContacts(w.contacts, b, w.cfg.SolverIterations)
		}

		b.integrate(dt)
		b.updateDeactivation(dt, touchingCorners(w.contacts))
	}
	w.simulatedTime += dt
	w.subSteps++
}

// replaceDynamic installs body in the dynamic slot in a single assignment
func (w *World) replaceDynamic(body *Body) {
	w.dynamic = body
}

func finiteVec(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func positiveVec(v mgl64.Vec3) bool {
	for _, c := range v {
		if !(c > 0) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
