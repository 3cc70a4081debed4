package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Contact solver tuning
const (
	// contactSlop is the penetration left alone to keep resting contacts stable
	contactSlop = 0.005
	// baumgarte is the fraction of the remaining penetration removed per step
	baumgarte = 0.2
	// speculativeMargin widens contact detection beyond one step of travel
	speculativeMargin = 0.02
	// restitutionThreshold is the approach speed below which bounces are ignored
	restitutionThreshold = 1.0
	// touchTolerance is the largest separation of a corner that counts as resting
	touchTolerance = 0.01
)

// contact is a single point constraint between the dynamic body and the ground
type contact struct {
	r          mgl64.Vec3 // body center to contact point
	normal     mgl64.Vec3 // points from the ground toward the body
	tangent1   mgl64.Vec3
	tangent2   mgl64.Vec3
	separation float64

	normalMass   float64
	tangentMass1 float64
	tangentMass2 float64
	bias         float64

	normalImpulse   float64
	tangentImpulse1 float64
	tangentImpulse2 float64
}

// collideBoxGround finds the corners of body touching, or about to touch
// within this step, the top face of the static ground box.
func collideBoxGround(dst []contact, body, ground *Body, dt float64) []contact {
	groundRot := ground.pose.Orientation
	toGround := groundRot.Conjugate()
	normal := groundRot.Rotate(mgl64.Vec3{0, 1, 0})
	he := ground.Shape.HalfExtents

	speed := body.linearVelocity.Len() + body.angularVelocity.Len()*body.Shape.HalfExtents.Len()
	reach := speed*dt + speculativeMargin

	for _, local := range body.Shape.Corners() {
		r := body.pose.Orientation.Rotate(local)
		p := toGround.Rotate(body.pose.Position.Add(r).Sub(ground.pose.Position))
		if math.Abs(p[0]) > he[0] || math.Abs(p[2]) > he[2] || p[1] < -he[1] {
			continue
		}
		separation := p[1] - he[1]
		if separation > reach {
			continue
		}
		dst = append(dst, newContact(body, r, normal, separation, dt))
	}
	return dst
}

// touchingCorners counts the contacts whose corner rests on the ground
func touchingCorners(contacts []contact) int {
	n := 0
	for i := range contacts {
		if contacts[i].separation <= touchTolerance {
			n++
		}
	}
	return n
}

func newContact(body *Body, r, normal mgl64.Vec3, separation, dt float64) contact {
	t1, t2 := tangentBasis(normal)
	c := contact{
		r:            r,
		normal:       normal,
		tangent1:     t1,
		tangent2:     t2,
		separation:   separation,
		normalMass:   effectiveMass(body, r, normal),
		tangentMass1: effectiveMass(body, r, t1),
		tangentMass2: effectiveMass(body, r, t2),
	}

	if separation > 0 {
		// speculative: allow closing the gap this step, no further
		c.bias = -separation / dt
	} else {
		c.bias = baumgarte / dt * math.Max(-separation-contactSlop, 0)
	}

	vn := body.velocityAt(r).Dot(normal)
	if e := body.Material.Restitution; e > 0 && vn < -restitutionThreshold {
		c.bias = math.Max(c.bias, -e*vn)
	}
	return c
}

// effectiveMass returns the inverse of the body's resistance to an impulse
// along dir applied at r
func effectiveMass(body *Body, r, dir mgl64.Vec3) float64 {
	k := body.invMass + dir.Dot(body.invInertiaWorld.Mul3x1(r.Cross(dir)).Cross(r))
	if k <= 0 {
		return 0
	}
	return 1 / k
}

// tangentBasis returns two unit vectors orthogonal to n and to each other
func tangentBasis(n mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	var t1 mgl64.Vec3
	if math.Abs(n[0]) >= 0.57735 {
		t1 = mgl64.Vec3{n[1], -n[0], 0}
	} else {
		t1 = mgl64.Vec3{0, n[2], -n[1]}
	}
	t1 = t1.Normalize()
	return t1, n.Cross(t1)
}

// solveContacts runs sequential impulses over the contact set. Impulses are
// accumulated per contact and clamped on the total, friction is bounded by
// the current normal impulse.
func solveContacts(contacts []contact, body *Body, iterations int) {
	friction := body.Material.Friction
	for it := 0; it < iterations; it++ {
		for i := range contacts {
			c := &contacts[i]

			maxFriction := friction * c.normalImpulse
			c.tangentImpulse1 = solveAxis(body, c.r, c.tangent1, c.tangentMass1, 0, c.tangentImpulse1, -maxFriction, maxFriction)
			c.tangentImpulse2 = solveAxis(body, c.r, c.tangent2, c.tangentMass2, 0, c.tangentImpulse2, -maxFriction, maxFriction)

			c.normalImpulse = solveAxis(body, c.r, c.normal, c.normalMass, c.bias, c.normalImpulse, 0, math.Inf(1))
		}
	}
}

// solveAxis drives the relative velocity along dir toward target, keeping the
// accumulated impulse within [lo, hi]. It returns the new accumulated impulse.
func solveAxis(body *Body, r, dir mgl64.Vec3, mass, target, accumulated, lo, hi float64) float64 {
	v := body.velocityAt(r).Dot(dir)
	lambda := -mass * (v - target)
	next := math.Min(math.Max(accumulated+lambda, lo), hi)
	body.applyImpulse(dir.Mul(next-accumulated), r)
	return next
}
