package towerphys

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spacescrapers/towerphys/actor"
)

// ProbePoints returns the center, left and right sample points just beneath the bottom edge of a body
func ProbePoints(body *actor.Body, settings Settings) [3]mgl64.Vec2 {
	aabb := body.AABB()
	y := aabb.Min.Y() - settings.ProbeOffset
	inset := math.Min(settings.ProbeInset, body.Shape.Size.X()/2)

	var points [3]mgl64.Vec2
	points[actor.ProbeCenter] = mgl64.Vec2{(aabb.Min.X() + aabb.Max.X()) / 2, y}
	points[actor.ProbeLeft] = mgl64.Vec2{aabb.Min.X() + inset, y}
	points[actor.ProbeRight] = mgl64.Vec2{aabb.Max.X() - inset, y}

	return points
}

// Classify samples the three probes of body against every other body and the ground.
//
//   - 3 solid probes: fully supported
//   - 2 solid probes: partially supported
//   - fewer: unsupported
func Classify(body *actor.Body, bodies []*actor.Body, ground *actor.Body, settings Settings) (actor.Support, actor.Probes) {
	var probes actor.Probes
	for i, point := range ProbePoints(body, settings) {
		probes[i] = solidAt(point, body, bodies, ground)
	}

	return classifyProbes(probes), probes
}

func classifyProbes(probes actor.Probes) actor.Support {
	switch probes.Count() {
	case 3:
		return actor.SupportFull
	case 2:
		return actor.SupportPartial
	default:
		return actor.SupportNone
	}
}

func solidAt(point mgl64.Vec2, self *actor.Body, bodies []*actor.Body, ground *actor.Body) bool {
	if ground != nil && ground.Occupies(point) {
		return true
	}

	for _, other := range bodies {
		if other == self || other.Inert {
			continue
		}
		if other.Occupies(point) {
			return true
		}
	}

	return false
}
