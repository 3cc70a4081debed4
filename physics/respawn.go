package physics

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"cubedrop/core"
)

// Respawner replaces the dynamic cube with a fresh one at the spawn point
type Respawner struct {
	rng *rand.Rand
}

// NewRespawner creates a respawner drawing orientations from rng.
// A nil rng is seeded from the clock.
func NewRespawner(rng *rand.Rand) *Respawner {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &Respawner{rng: rng}
}

// NewSeededRespawner creates a respawner with a reproducible sequence
func NewSeededRespawner(seed uint64) *Respawner {
	return NewRespawner(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// RandomOrientation draws three values uniformly from [0, 2π) and uses them
// as the x, y and z components of a quaternion with w = 1, then normalizes.
// The result is a unit quaternion but is not uniformly distributed over
// rotations.
func RandomOrientation(rng *rand.Rand) mgl64.Quat {
	x := rng.Float64() * 2 * math.Pi
	y := rng.Float64() * 2 * math.Pi
	z := rng.Float64() * 2 * math.Pi
	return mgl64.Quat{W: 1, V: mgl64.Vec3{x, y, z}}.Normalize()
}

// Respawn drops the current cube and installs a new awake one at the spawn
// point with a fresh orientation. The slot is swapped in one assignment so
// Step and DynamicPose never see it empty. It returns the new body's id.
func (r *Respawner) Respawn(w *World) uuid.UUID {
	body := r.newCube(w)
	w.replaceDynamic(body)
	return body.ID
}

// newCube builds a cube body from the world's config
func (r *Respawner) newCube(w *World) *Body {
	cfg := w.cfg
	body := newBody(
		BoxShape{HalfExtents: cfg.CubeHalfExtents},
		cfg.CubeMass,
		core.NewPose(cfg.SpawnPoint, RandomOrientation(r.rng)),
		w.material,
	)
	body.Activate()
	return body
}
