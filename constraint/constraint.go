package constraint

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spacescrapers/towerphys/actor"
)

type Constraint interface {
	SolvePosition()
	SolveVelocity(restingSpeed float64) Impulse
}

// ComputeRestitution mixes the restitution of two materials
func ComputeRestitution(matA, matB actor.Material) float64 {
	// Average: a bouncy beam on the inelastic floor still bounces a little
	return mgl64.Clamp((matA.Restitution+matB.Restitution)/2.0, 0, 1)
}

// ComputeFriction mixes the friction of two materials with a geometric mean
func ComputeFriction(matA, matB actor.Material) float64 {
	return math.Sqrt(math.Max(0, matA.Friction*matB.Friction))
}

func clampSmallVelocities(b *actor.Body) {
	const velocityThreshold = 1e-5

	if b.Velocity.Len() < velocityThreshold {
		b.Velocity = mgl64.Vec2{0, 0}
	}
}
