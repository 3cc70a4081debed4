package physics

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestRespawnAfterSettling(t *testing.T) {
	w := newTestWorld(t)
	r := NewSeededRespawner(7)

	for i := 0; i < 600; i++ {
		w.Step(frame, DefaultMaxSubSteps, frame)
	}
	if y := w.DynamicPose().Position.Y(); y > 0.75 {
		t.Fatalf("cube has not settled, y=%.4f", y)
	}
	old := w.Dynamic()

	id := r.Respawn(w)

	pose := w.DynamicPose()
	if pose.Position != (mgl64.Vec3{0, 5, 0}) {
		t.Errorf("respawned at %v, want (0,5,0)", pose.Position)
	}
	approxEqual(t, pose.Orientation.Len(), 1, 1e-9, "orientation length")

	cube := w.Dynamic()
	if cube == old {
		t.Fatal("respawn kept the old body")
	}
	if cube.ID != id || id == old.ID {
		t.Errorf("respawn id %v, body id %v, old id %v", id, cube.ID, old.ID)
	}
	if cube.State() != Active {
		t.Errorf("respawned cube is %v, want active", cube.State())
	}
	if cube.LinearVelocity() != (mgl64.Vec3{}) || cube.AngularVelocity() != (mgl64.Vec3{}) {
		t.Error("respawned cube inherited motion")
	}
	if cube.Mass() != 1 || cube.Shape != old.Shape {
		t.Error("respawned cube has a different mass or shape")
	}

	if n := w.Step(frame, DefaultMaxSubSteps, frame); n != 1 {
		t.Fatalf("step after respawn ran %d sub-steps", n)
	}
	if w.Dynamic() == nil || w.DynamicPose().Position.Y() >= 5 {
		t.Error("step after respawn did not advance the new cube")
	}
}

func TestRespawnFromRestingStateIsAwake(t *testing.T) {
	w := newTestWorld(t)
	for i := 0; i < 1200 && w.Dynamic().State() == Active; i++ {
		w.Step(frame, DefaultMaxSubSteps, frame)
	}

	NewSeededRespawner(3).Respawn(w)
	if w.Dynamic().State() != Active {
		t.Fatal("respawned body must be awake")
	}
}

func TestRandomOrientation(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 1000; i++ {
		q := RandomOrientation(rng)
		if math.Abs(q.Len()-1) > 1e-9 {
			t.Fatalf("draw %d: length %v", i, q.Len())
		}
		// components come from [0, 2π) with w = 1, so every component is non-negative
		if q.W <= 0 || q.V[0] < 0 || q.V[1] < 0 || q.V[2] < 0 {
			t.Fatalf("draw %d: %v has a negative component", i, q)
		}
	}
}

func TestSeededRespawnerIsReproducible(t *testing.T) {
	a, err := NewWorld(DefaultConfig(), NewSeededRespawner(99))
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewWorld(DefaultConfig(), NewSeededRespawner(99))
	if err != nil {
		t.Fatal(err)
	}
	if a.DynamicPose() != b.DynamicPose() {
		t.Errorf("same seed gave %v and %v", a.DynamicPose(), b.DynamicPose())
	}
}

func TestNilRngRespawner(t *testing.T) {
	w := newTestWorld(t)
	NewRespawner(nil).Respawn(w)
	if w.DynamicPose().Position != (mgl64.Vec3{0, 5, 0}) {
		t.Error("clock-seeded respawner did not use the spawn point")
	}
}
