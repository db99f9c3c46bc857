package challenge

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spacescrapers/towerphys"
	"github.com/spacescrapers/towerphys/actor"
)

// referenceArea is the area of a square tile: bigger tiles catch more wind
const referenceArea = 96 * 96

// Wind blows horizontally over the tower for a while, with a slow gust and some vertical turbulence.
// Strength and Turbulence are velocity changes per 60 Hz frame; they are injected as forces so
// the effect does not depend on the tick length.
type Wind struct {
	schedule

	Duration float64
	// Direction is +1 for a wind blowing right, -1 for left
	Direction float64
	Strength  float64
	// Variance is the relative amplitude of the gust
	Variance   float64
	Turbulence float64

	// Shadowing by upwind tiles: only tiles closer than ShadowWidth and ShadowHeight block, at most ShadowBlock each
	ShadowWidth  float64
	ShadowHeight float64
	ShadowBlock  float64
	MinExposure  float64

	timeActive float64
	current    float64
	rand       *rand.Rand
}

var _ Hazard = (*Wind)(nil)

// frameRate converts per-frame velocity changes into accelerations
const frameRate = 60.0

func NewWind(config Config, _ Arena) *Wind {
	return &Wind{
		schedule:     schedule{trigger: orDefault(config.Trigger, 1.5)},
		Duration:     orDefault(config.Duration, 4),
		Direction:    1,
		Strength:     25,
		Variance:     0.2,
		Turbulence:   5,
		ShadowWidth:  150,
		ShadowHeight: 100,
		ShadowBlock:  0.7,
		MinExposure:  0.1,
		rand:         newRand(config.Seed),
	}
}

func (w *Wind) Kind() Kind { return KindWind }

func (w *Wind) Warning(now float64) string {
	return w.warning(now, "WIND STARTS IN %.1fs")
}

// Current returns the signed strength of the gust on the last tick
func (w *Wind) Current() float64 {
	if !w.active {
		return 0
	}
	return w.current * w.Direction
}

func (w *Wind) Generate(now, dt float64, bodies []towerphys.BodyState) []towerphys.Injection {
	w.start(now)
	if !w.active {
		return nil
	}

	w.timeActive += dt
	w.current = w.Strength * (1 + math.Sin(w.timeActive*2)*w.Variance)
	if w.timeActive >= w.Duration {
		w.finish()
		return nil
	}

	var injections []towerphys.Injection
	for _, body := range bodies {
		if body.Inert {
			continue
		}

		push := w.current * w.Direction *
			massFactor(body.Mass) *
			w.exposure(body, bodies) *
			contactResistance(body) *
			areaFactor(body.Size)
		lift := uniform(w.rand, -w.Turbulence, w.Turbulence)

		injections = append(injections, towerphys.Injection{
			Target: towerphys.BodyTarget(body.Index),
			Kind:   towerphys.Force,
			Vector: mgl64.Vec2{push, lift}.Mul(body.Mass * frameRate),
		})
	}

	return injections
}

// exposure is 1 for a tile in the open, down to MinExposure behind other tiles
func (w *Wind) exposure(target towerphys.BodyState, bodies []towerphys.BodyState) float64 {
	blocking := 1.0
	for _, other := range bodies {
		if other.Index == target.Index || other.Inert {
			continue
		}

		upwind := other.Position.X() < target.Position.X()
		if w.Direction < 0 {
			upwind = other.Position.X() > target.Position.X()
		}
		if !upwind {
			continue
		}

		dx := math.Abs(other.Position.X() - target.Position.X())
		dy := math.Abs(other.Position.Y() - target.Position.Y())
		if dx < w.ShadowWidth && dy < w.ShadowHeight {
			block := math.Max(0, 1-dx/w.ShadowWidth-dy/w.ShadowHeight)
			blocking *= 1 - block*w.ShadowBlock
		}
	}

	return math.Max(w.MinExposure, blocking)
}

// contactResistance holds grounded and well supported tiles in place
func contactResistance(body towerphys.BodyState) float64 {
	if body.Bottom() <= 5 {
		return 0.1
	}

	switch {
	case body.Probes[actor.ProbeCenter] || body.Probes.Count() >= 2:
		return 0.15
	case body.Probes.Count() == 1:
		return 0.6
	}
	return 1
}

func massFactor(mass float64) float64 {
	return 1 / (1 + mass*0.5)
}

func areaFactor(size mgl64.Vec2) float64 {
	return math.Min(2, math.Sqrt(size.X()*size.Y()/referenceArea))
}
