package towerphys

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spacescrapers/towerphys/actor"
	"github.com/spacescrapers/towerphys/constraint"
)

// Pair represents a pair of bodies whose bounding boxes overlap
type Pair struct {
	BodyA *actor.Body
	BodyB *actor.Body
}

// BroadPhase performs broad-phase collision detection using AABB overlap tests.
// This is an O(n²) brute-force approach: levels hold a handful of tiles.
// The enumeration order is part of the determinism contract: for each body i,
// the ground pair first, then every (i, j) with j > i.
func BroadPhase(bodies []*actor.Body, ground *actor.Body) []Pair {
	pairs := make([]Pair, 0, len(bodies))

	for i, bodyA := range bodies {
		if bodyA.Inert {
			continue
		}
		aabbA := bodyA.AABB()

		if ground != nil && !bodyA.Static && aabbA.Overlaps(ground.AABB()) {
			pairs = append(pairs, Pair{BodyA: ground, BodyB: bodyA})
		}

		for _, bodyB := range bodies[i+1:] {
			if bodyB.Inert {
				continue
			}
			if bodyA.Static && bodyB.Static {
				continue
			}
			if aabbA.Overlaps(bodyB.AABB()) {
				pairs = append(pairs, Pair{BodyA: bodyA, BodyB: bodyB})
			}
		}
	}

	return pairs
}

// NarrowPhase runs the precise occupancy test on every candidate pair, keeping the broad-phase order
func NarrowPhase(pairs []Pair) []*constraint.Contact {
	contacts := make([]*constraint.Contact, 0, len(pairs))
	for _, pair := range pairs {
		if contact, ok := Collide(pair.BodyA, pair.BodyB); ok {
			contacts = append(contacts, contact)
		}
	}

	return contacts
}

// Collide tests the upright occupancy of two bodies.
// Touching without overlapping area yields no contact.
func Collide(bodyA, bodyB *actor.Body) (*constraint.Contact, bool) {
	region, ok := bodyA.AABB().Intersection(bodyB.AABB())
	if !ok {
		return nil, false
	}

	hit, ok := sampleOverlap(bodyA, bodyB, region)
	if !ok {
		return nil, false
	}
	extent := hit.Size()

	var normal mgl64.Vec2
	var penetration float64
	switch {
	case bodyA.IsGround():
		normal, penetration = mgl64.Vec2{0, 1}, extent.Y()
	case bodyB.IsGround():
		normal, penetration = mgl64.Vec2{0, -1}, extent.Y()
	default:
		normal, penetration = separatingAxis(bodyB.Position.Sub(bodyA.Position), extent)
	}

	if penetration <= 0 {
		return nil, false
	}

	return &constraint.Contact{
		BodyA:       bodyA,
		BodyB:       bodyB,
		Normal:      normal,
		Penetration: penetration,
		Point:       hit.Center(),
	}, true
}

// sampleOverlap walks the intersection region on a mask-cell grid and returns the bounds of the
// samples occupied by both bodies
func sampleOverlap(bodyA, bodyB *actor.Body, region actor.AABB) (actor.AABB, bool) {
	size := region.Size()
	cols := max(1, int(math.Ceil(size.X()/actor.MaskCellSize)))
	rows := max(1, int(math.Ceil(size.Y()/actor.MaskCellSize)))
	stepX := size.X() / float64(cols)
	stepY := size.Y() / float64(rows)

	hit := actor.AABB{
		Min: mgl64.Vec2{math.Inf(1), math.Inf(1)},
		Max: mgl64.Vec2{math.Inf(-1), math.Inf(-1)},
	}
	found := false

	for row := 0; row < rows; row++ {
		y := region.Min.Y() + (float64(row)+0.5)*stepY
		for col := 0; col < cols; col++ {
			x := region.Min.X() + (float64(col)+0.5)*stepX
			sample := mgl64.Vec2{x, y}
			if !bodyA.Occupies(sample) || !bodyB.Occupies(sample) {
				continue
			}

			found = true
			hit.Min[0] = math.Min(hit.Min[0], x-stepX/2)
			hit.Min[1] = math.Min(hit.Min[1], y-stepY/2)
			hit.Max[0] = math.Max(hit.Max[0], x+stepX/2)
			hit.Max[1] = math.Max(hit.Max[1], y+stepY/2)
		}
	}

	return hit, found
}

// separatingAxis picks the axis of least overlap and orients the normal from A to B.
// When the centers coincide on that axis it falls back to the other axis, then to +Y.
func separatingAxis(delta, extent mgl64.Vec2) (mgl64.Vec2, float64) {
	alongX := func() (mgl64.Vec2, float64) {
		return mgl64.Vec2{math.Copysign(1, delta.X()), 0}, extent.X()
	}
	alongY := func() (mgl64.Vec2, float64) {
		return mgl64.Vec2{0, math.Copysign(1, delta.Y())}, extent.Y()
	}

	if extent.X() < extent.Y() {
		if delta.X() != 0 {
			return alongX()
		}
		if delta.Y() != 0 {
			return alongY()
		}
	} else {
		if delta.Y() != 0 {
			return alongY()
		}
		if delta.X() != 0 {
			return alongX()
		}
	}

	return mgl64.Vec2{0, 1}, extent.Y()
}
