package constraint

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spacescrapers/towerphys/actor"
)

// Contact is the transient overlap record of one pair for one tick
type Contact struct {
	BodyA *actor.Body
	BodyB *actor.Body
	// Normal points from A to B along the separating axis
	Normal      mgl64.Vec2
	Penetration float64
	// Point is the center of the overlapping region
	Point mgl64.Vec2
}

var _ Constraint = (*Contact)(nil)

// Impulse reports what SolveVelocity applied along the normal and the tangent
type Impulse struct {
	Normal  float64
	Tangent float64
}

func (c *Contact) totalInverseMass() float64 {
	return c.BodyA.InverseMass() + c.BodyB.InverseMass()
}

// SolvePosition pushes the bodies apart along the normal, split by inverse mass
func (c *Contact) SolvePosition() {
	if c.Penetration <= 0 {
		return
	}

	totalWeight := c.totalInverseMass()
	if totalWeight <= 0 {
		return
	}

	correction := c.Normal.Mul(c.Penetration / totalWeight)
	if invMassA := c.BodyA.InverseMass(); invMassA > 0 {
		c.BodyA.Position = c.BodyA.Position.Sub(correction.Mul(invMassA))
	}
	if invMassB := c.BodyB.InverseMass(); invMassB > 0 {
		c.BodyB.Position = c.BodyB.Position.Add(correction.Mul(invMassB))
	}
}

// SolveVelocity exchanges a restitution-scaled normal impulse and a capped friction impulse.
// Closing speeds under restingSpeed are resolved without rebound.
func (c *Contact) SolveVelocity(restingSpeed float64) Impulse {
	bodyA := c.BodyA
	bodyB := c.BodyB

	invMassA := bodyA.InverseMass()
	invMassB := bodyB.InverseMass()
	effectiveMass := invMassA + invMassB
	if effectiveMass < 1e-10 {
		return Impulse{}
	}

	relativeVel := bodyB.Velocity.Sub(bodyA.Velocity)
	normalVel := relativeVel.Dot(c.Normal)

	// Already separating: nothing to resolve
	if normalVel >= 0 {
		return Impulse{}
	}

	// ========== NORMAL IMPULSE (restitution) ==========
	restitution := ComputeRestitution(bodyA.Material(), bodyB.Material())
	if -normalVel < restingSpeed {
		restitution = 0
	}

	lambdaNormal := -(1 + restitution) * normalVel / effectiveMass
	normalImpulse := c.Normal.Mul(lambdaNormal)

	bodyA.Velocity = bodyA.Velocity.Sub(normalImpulse.Mul(invMassA))
	bodyB.Velocity = bodyB.Velocity.Add(normalImpulse.Mul(invMassB))

	// ========== TANGENTIAL IMPULSE (friction) ==========
	tangent := mgl64.Vec2{-c.Normal.Y(), c.Normal.X()}
	tangentVel := relativeVel.Dot(tangent)

	var lambdaTangent float64
	if math.Abs(tangentVel) > 1e-9 {
		// Impulse that would cancel the tangential velocity, bounded by Coulomb's law.
		// The bound never exceeds the cancelling impulse, so friction cannot flip the sliding direction.
		lambdaTangent = -tangentVel / effectiveMass
		maxFriction := ComputeFriction(bodyA.Material(), bodyB.Material()) * lambdaNormal
		lambdaTangent = mgl64.Clamp(lambdaTangent, -maxFriction, maxFriction)

		frictionImpulse := tangent.Mul(lambdaTangent)
		bodyA.Velocity = bodyA.Velocity.Sub(frictionImpulse.Mul(invMassA))
		bodyB.Velocity = bodyB.Velocity.Add(frictionImpulse.Mul(invMassB))
	}

	clampSmallVelocities(bodyA)
	clampSmallVelocities(bodyB)

	return Impulse{Normal: lambdaNormal, Tangent: lambdaTangent}
}
