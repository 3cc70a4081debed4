package physics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"cubedrop/core"
)

// ActivationState tells whether the solver integrates a body
type ActivationState int

const (
	Active ActivationState = iota
	Sleeping
)

func (s ActivationState) String() string {
	switch s {
	case Active:
		return "active"
	case Sleeping:
		return "sleeping"
	default:
		return "unknown"
	}
}

// Deactivation thresholds. A body whose speeds stay below these for
// deactivationDelay seconds goes to sleep. The speeds are loose enough that a
// cube slowly tipping off an edge qualifies, so a body touching the ground
// with fewer than supportCorners corners is kept awake.
const (
	linearSleepThreshold  = 0.8
	angularSleepThreshold = 1.0
	deactivationDelay     = 2.0
	supportCorners        = 3
)

// BoxShape is a box described by its half extents
type BoxShape struct {
	HalfExtents mgl64.Vec3
}

// LocalInertia returns the principal moments of inertia of a solid box
func (s BoxShape) LocalInertia(mass float64) mgl64.Vec3 {
	lx := 2 * s.HalfExtents[0]
	ly := 2 * s.HalfExtents[1]
	lz := 2 * s.HalfExtents[2]
	return mgl64.Vec3{
		mass / 12 * (ly*ly + lz*lz),
		mass / 12 * (lx*lx + lz*lz),
		mass / 12 * (lx*lx + ly*ly),
	}
}

// Corners returns the eight corners of the box in local space
func (s BoxShape) Corners() [8]mgl64.Vec3 {
	h := s.HalfExtents
	var out [8]mgl64.Vec3
	for i := range out {
		x, y, z := h[0], h[1], h[2]
		if i&1 != 0 {
			x = -x
		}
		if i&2 != 0 {
			y = -y
		}
		if i&4 != 0 {
			z = -z
		}
		out[i] = mgl64.Vec3{x, y, z}
	}
	return out
}

// Material holds the surface response of a body
type Material struct {
	Friction    float64
	Restitution float64
}

// Body is a rigid box tracked by the world. It owns its own motion state,
// so replacing a body replaces its velocities and pose together.
type Body struct {
	ID       uuid.UUID
	Shape    BoxShape
	Material Material

	mass            float64
	invMass         float64
	invInertiaLocal mgl64.Vec3
	invInertiaWorld mgl64.Mat3

	pose            core.Pose
	linearVelocity  mgl64.Vec3
	angularVelocity mgl64.Vec3

	state            ActivationState
	deactivationTime float64
}

// newBody creates a body. A mass of 0 makes it static.
func newBody(shape BoxShape, mass float64, pose core.Pose, material Material) *Body {
	b := &Body{
		ID:       uuid.New(),
		Shape:    shape,
		Material: material,
		mass:     mass,
		pose:     pose,
		state:    Active,
	}
	if mass > 0 {
		b.invMass = 1 / mass
		inertia := shape.LocalInertia(mass)
		for i := range inertia {
			if inertia[i] > 0 {
				b.invInertiaLocal[i] = 1 / inertia[i]
			}
		}
	}
	b.updateInertia()
	return b
}

// Mass returns the body mass; 0 for static bodies
func (b *Body) Mass() float64 { return b.mass }

// IsStatic reports whether the body never moves
func (b *Body) IsStatic() bool { return b.mass == 0 }

// Pose returns the current simulated pose
func (b *Body) Pose() core.Pose { return b.pose }

// LinearVelocity returns the velocity of the center of mass
func (b *Body) LinearVelocity() mgl64.Vec3 { return b.linearVelocity }

// AngularVelocity returns the angular velocity in world space
func (b *Body) AngularVelocity() mgl64.Vec3 { return b.angularVelocity }

// State returns the activation state
func (b *Body) State() ActivationState { return b.state }

// Activate wakes the body and restarts its deactivation timer
func (b *Body) Activate() {
	if b.IsStatic() {
		return
	}
	b.state = Active
	b.deactivationTime = 0
}

// WorldCorners returns the box corners in world space
func (b *Body) WorldCorners() [8]mgl64.Vec3 {
	corners := b.Shape.Corners()
	for i, c := range corners {
		corners[i] = b.pose.Position.Add(b.pose.Orientation.Rotate(c))
	}
	return corners
}

// updateInertia recomputes the world-space inverse inertia tensor from
// the current orientation: R * diag(I^-1) * R^T
func (b *Body) updateInertia() {
	rot := b.pose.Orientation.Normalize().Mat4().Mat3()
	b.invInertiaWorld = rot.Mul3(mgl64.Diag3(b.invInertiaLocal)).Mul3(rot.Transpose())
}

// velocityAt returns the velocity of a point at offset r from the center of mass
func (b *Body) velocityAt(r mgl64.Vec3) mgl64.Vec3 {
	return b.linearVelocity.Add(b.angularVelocity.Cross(r))
}

// applyImpulse applies an impulse at offset r from the center of mass
func (b *Body) applyImpulse(impulse, r mgl64.Vec3) {
	if b.invMass == 0 {
		return
	}
	b.linearVelocity = b.linearVelocity.Add(impulse.Mul(b.invMass))
	b.angularVelocity = b.angularVelocity.Add(b.invInertiaWorld.Mul3x1(r.Cross(impulse)))
}

// integrate advances the pose by dt using the current velocities
func (b *Body) integrate(dt float64) {
	b.pose = predictPose(b.pose, b.linearVelocity, b.angularVelocity, dt)
}

// updateDeactivation puts the body to sleep once it has been slow for long
// enough. touching is the number of corners resting on the ground; one or
// two means the body is balanced on a corner or an edge and may still tip.
func (b *Body) updateDeactivation(dt float64, touching int) {
	if touching > 0 && touching < supportCorners {
		b.deactivationTime = 0
		return
	}
	lin := b.linearVelocity.Dot(b.linearVelocity)
	ang := b.angularVelocity.Dot(b.angularVelocity)
	if lin < linearSleepThreshold*linearSleepThreshold && ang < angularSleepThreshold*angularSleepThreshold {
		b.deactivationTime += dt
		if b.deactivationTime > deactivationDelay {
			b.state = Sleeping
			b.linearVelocity = mgl64.Vec3{}
			b.angularVelocity = mgl64.Vec3{}
		}
		return
	}
	b.deactivationTime = 0
}

// predictPose advances a pose by dt with constant velocities
func predictPose(p core.Pose, linear, angular mgl64.Vec3, dt float64) core.Pose {
	spin := mgl64.Quat{W: 0, V: angular.Mul(0.5 * dt)}
	return core.Pose{
		Position:    p.Position.Add(linear.Mul(dt)),
		Orientation: p.Orientation.Add(spin.Mul(p.Orientation)).Normalize(),
	}
}
