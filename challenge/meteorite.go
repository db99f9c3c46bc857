package challenge

import (
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spacescrapers/towerphys"
	"github.com/spacescrapers/towerphys/actor"
)

// Meteorite is one falling rock of a shower
type Meteorite struct {
	Position mgl64.Vec2
	Velocity mgl64.Vec2
	Size     float64
	Mass     float64
}

func (m Meteorite) AABB() actor.AABB {
	return actor.NewAABB(m.Position, mgl64.Vec2{m.Size, m.Size})
}

var (
	meteoriteSizes  = [...]float64{24, 30, 36, 50}
	meteoriteMasses = [...]float64{1, 2, 3, 4}
)

// MeteoriteShower drops meteorites over the arena. Each meteorite hits at most one tile and disappears.
type MeteoriteShower struct {
	schedule

	Duration      float64
	SpawnInterval float64
	MaxMeteorites int
	// Gravity accelerates the meteorites (px/s²)
	Gravity float64
	// Impact scales mass × speed into the velocity change of the tile hit
	Impact float64

	arena      Arena
	meteorites []Meteorite
	spawned    int
	spawnTimer float64
	timeActive float64
	rand       *rand.Rand
}

var _ Hazard = (*MeteoriteShower)(nil)

func NewMeteoriteShower(config Config, arena Arena) *MeteoriteShower {
	return &MeteoriteShower{
		schedule:      schedule{trigger: orDefault(config.Trigger, 1)},
		Duration:      orDefault(config.Duration, 6),
		SpawnInterval: 0.1,
		MaxMeteorites: 45,
		Gravity:       800,
		Impact:        0.7,
		arena:         arena,
		rand:          newRand(config.Seed),
	}
}

func (s *MeteoriteShower) Kind() Kind { return KindMeteoriteShower }

func (s *MeteoriteShower) Warning(now float64) string {
	return s.warning(now, "METEORITE SHOWER INCOMING! %.1fs")
}

// Meteorites returns the rocks currently falling
func (s *MeteoriteShower) Meteorites() []Meteorite {
	return append([]Meteorite(nil), s.meteorites...)
}

// Spawned returns the number of meteorites released so far
func (s *MeteoriteShower) Spawned() int {
	return s.spawned
}

func (s *MeteoriteShower) Generate(now, dt float64, bodies []towerphys.BodyState) []towerphys.Injection {
	s.start(now)
	if !s.active {
		return nil
	}

	s.timeActive += dt
	// The remainder carries over so the cadence does not depend on the tick length
	s.spawnTimer += dt
	for s.spawnTimer >= s.SpawnInterval && s.spawned < s.MaxMeteorites {
		s.spawn()
		s.spawnTimer -= s.SpawnInterval
	}

	var injections []towerphys.Injection
	live := s.meteorites[:0]
	for _, m := range s.meteorites {
		m.Velocity[1] -= s.Gravity * dt
		m.Position = m.Position.Add(m.Velocity.Mul(dt))
		if s.offscreen(m) {
			continue
		}

		if injection, ok := s.impact(m, bodies); ok {
			injections = append(injections, injection)
			continue
		}
		live = append(live, m)
	}
	s.meteorites = live

	if s.timeActive >= s.Duration && len(s.meteorites) == 0 {
		s.finish()
	}

	return injections
}

func (s *MeteoriteShower) spawn() {
	kind := s.rand.IntN(len(meteoriteSizes))
	s.meteorites = append(s.meteorites, Meteorite{
		Position: mgl64.Vec2{uniform(s.rand, 50, s.arena.Width-50), s.arena.Sky + 50},
		Velocity: mgl64.Vec2{uniform(s.rand, -100, 100), -uniform(s.rand, 150, 300)},
		Size:     meteoriteSizes[kind],
		Mass:     meteoriteMasses[kind] * uniform(s.rand, 0.8, 1.2),
	})
	s.spawned++
}

func (s *MeteoriteShower) offscreen(m Meteorite) bool {
	return m.Position.Y() < -100 || m.Position.X() < -100 || m.Position.X() > s.arena.Width+100
}

// impact finds the first tile under the meteorite and pushes it away from the point of impact.
// Heavier tiles resist more and the tile friction soaks part of the hit.
func (s *MeteoriteShower) impact(m Meteorite, bodies []towerphys.BodyState) (towerphys.Injection, bool) {
	bounds := m.AABB()
	for _, body := range bodies {
		if body.Inert || !bounds.Overlaps(body.AABB()) {
			continue
		}

		direction := body.Position.Sub(m.Position)
		if direction.Len() == 0 {
			direction = mgl64.Vec2{0, -1}
		}
		strength := s.Impact * m.Mass * m.Velocity.Len() * massFactor(body.Mass)
		hit := body.Velocity.Add(direction.Normalize().Mul(strength))
		hit = hit.Mul(actor.ShapeOf(body.Type).Material.Friction)

		return towerphys.Injection{
			Target: towerphys.BodyTarget(body.Index),
			Kind:   towerphys.Impulse,
			Vector: hit.Sub(body.Velocity).Mul(body.Mass),
		}, true
	}

	return towerphys.Injection{}, false
}
