package towerphys

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/spacescrapers/towerphys/actor"
)

// InjectionKind tells how the vector of an Injection changes the velocity
type InjectionKind uint8

const (
	// Impulse changes the velocity by Vector/mass, once
	Impulse InjectionKind = iota
	// Force accelerates by Vector/mass during the tick it is applied in
	Force
)

// Target selects the bodies an injection applies to: a single body, or every tile overlapping a region
type Target struct {
	Body   int
	Region *actor.AABB
}

func BodyTarget(index int) Target {
	return Target{Body: index}
}

func RegionTarget(region actor.AABB) Target {
	return Target{Body: -1, Region: &region}
}

// Injection is one force or impulse requested by an environmental hazard
type Injection struct {
	Target Target
	Kind   InjectionKind
	Vector mgl64.Vec2
}

// ForceGenerator is implemented by environmental hazards (wrecking ball, wind, meteorites).
// Generate is called once per tick, before the world steps, with a read-only view of the bodies.
// The returned injections are applied as given during the next step.
type ForceGenerator interface {
	Generate(now, dt float64, bodies []BodyState) []Injection
}

// Inject queues injections for the next Step
func (w *World) Inject(injections ...Injection) {
	w.pending = append(w.pending, injections...)
}

// targets resolves an injection target to body indices, in index order
func (w *World) targets(target Target) []int {
	if target.Region == nil {
		if target.Body < 0 || target.Body >= len(w.Bodies) {
			return nil
		}
		return []int{target.Body}
	}

	var indices []int
	for i, body := range w.Bodies {
		if !body.Inert && body.AABB().Overlaps(*target.Region) {
			indices = append(indices, i)
		}
	}
	return indices
}

// applyInjections drains the pending queue.
// A static body only accepts an injection whose velocity change exceeds the wake threshold; it wakes on the same tick.
func (w *World) applyInjections(dt float64) {
	for _, injection := range w.pending {
		for _, i := range w.targets(injection.Target) {
			body := w.Bodies[i]
			if body.Inert {
				continue
			}

			deltaV := injection.Vector.Mul(body.Shape.InverseMass())
			if injection.Kind == Force {
				deltaV = deltaV.Mul(dt)
			}

			if body.Static {
				if deltaV.Len() <= w.Settings.WakeThreshold {
					continue
				}
				body.Awake()
				w.Events.emitWake(body)
			}

			switch injection.Kind {
			case Impulse:
				body.ApplyImpulse(injection.Vector)
			case Force:
				body.AddForce(injection.Vector)
			}
		}
	}

	w.pending = w.pending[:0]
}
