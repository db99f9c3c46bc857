package challenge

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spacescrapers/towerphys"
	"github.com/spacescrapers/towerphys/actor"
)

// WreckingBall is a heavy pendulum released from the right horizontal that sweeps the tower once,
// down through the bottom of its arc and up to the left horizontal
type WreckingBall struct {
	schedule

	Radius      float64
	ChainLength float64
	// Anchor is the pivot of the chain
	Anchor mgl64.Vec2
	// Gravity drives the swing (px/s²), Damping is applied to the angular velocity every tick
	Gravity float64
	Damping float64
	// Knockback is the velocity change given to a tile hit by the ball (px/s)
	Knockback float64

	angle           float64
	angularVelocity float64
	swingSpeed      float64
	position        mgl64.Vec2

	// touching holds the tiles overlapped on the previous tick: a tile is hit once per pass
	touching map[int]bool
}

var _ Hazard = (*WreckingBall)(nil)

func NewWreckingBall(config Config, arena Arena) *WreckingBall {
	ball := &WreckingBall{
		schedule:    schedule{trigger: orDefault(config.Trigger, 2)},
		Radius:      40,
		ChainLength: 450,
		Anchor:      mgl64.Vec2{arena.Width / 2, arena.Sky - 150},
		Gravity:     800,
		Damping:     0.998,
		Knockback:   300,
		angle:       math.Pi / 2,
		swingSpeed:  3,
		touching:    make(map[int]bool),
	}
	ball.position = ball.bob()

	return ball
}

func (w *WreckingBall) Kind() Kind { return KindWreckingBall }

func (w *WreckingBall) Warning(now float64) string {
	return w.warning(now, "WRECKING BALL INCOMING! %.1fs")
}

// Position returns the center of the ball
func (w *WreckingBall) Position() mgl64.Vec2 {
	return w.position
}

func (w *WreckingBall) bob() mgl64.Vec2 {
	return mgl64.Vec2{
		w.Anchor.X() + w.ChainLength*math.Sin(w.angle),
		w.Anchor.Y() - w.ChainLength*math.Cos(w.angle),
	}
}

func (w *WreckingBall) Generate(now, dt float64, bodies []towerphys.BodyState) []towerphys.Injection {
	if w.start(now) {
		w.angularVelocity = -w.swingSpeed * 1.5
	}
	if !w.active {
		return nil
	}

	angularAcceleration := -(w.Gravity / w.ChainLength) * math.Sin(w.angle)
	w.angularVelocity += angularAcceleration * dt
	w.angle += w.angularVelocity * dt
	w.angularVelocity *= w.Damping
	w.position = w.bob()

	// One sweep: the ball is done once it reaches the left horizontal
	if w.angle <= -math.Pi/2 {
		w.finish()
		return nil
	}

	var injections []towerphys.Injection
	for _, body := range bodies {
		if body.Inert {
			continue
		}

		if !w.hits(body) {
			delete(w.touching, body.Index)
			continue
		}
		if w.touching[body.Index] {
			continue
		}
		w.touching[body.Index] = true

		direction := body.Position.Sub(w.position)
		if direction.Len() == 0 {
			direction = mgl64.Vec2{-1, 0}
		}
		impulse := direction.Normalize().Mul(w.Knockback * body.Mass)
		injections = append(injections, towerphys.Injection{
			Target: towerphys.BodyTarget(body.Index),
			Kind:   towerphys.Impulse,
			Vector: impulse,
		})
	}

	return injections
}

// hits tests the ball bounds against the tile bounds, then the distance to the tile center
func (w *WreckingBall) hits(body towerphys.BodyState) bool {
	bounds := actor.NewAABB(w.position, mgl64.Vec2{2 * w.Radius, 2 * w.Radius})
	if !bounds.Overlaps(body.AABB()) {
		return false
	}

	reach := math.Max(body.Size.X(), body.Size.Y()) / 2
	return body.Position.Sub(w.position).Len() < w.Radius+reach*0.8
}
