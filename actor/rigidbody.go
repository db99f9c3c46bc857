package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyType represents the type of body
type BodyType int

const (
	// BodyTypeTile bodies are placed tiles: finite mass, affected by gravity and contacts
	BodyTypeTile BodyType = iota

	// BodyTypeGround is the floor: infinite mass, occupies everything below y = 0
	BodyTypeGround
)

// Support is the result of the three-probe support classification
type Support int

const (
	SupportNone Support = iota
	SupportPartial
	SupportFull
)

func (s Support) String() string {
	switch s {
	case SupportFull:
		return "full"
	case SupportPartial:
		return "partial"
	default:
		return "none"
	}
}

// Probe indices
const (
	ProbeCenter = iota
	ProbeLeft
	ProbeRight
)

// Probes holds the solid/empty state of the center, left and right probes
type Probes [3]bool

// Count returns the number of solid probes
func (p Probes) Count() int {
	n := 0
	for _, solid := range p {
		if solid {
			n++
		}
	}
	return n
}

// Imbalance is +1 when only the right corner is solid, -1 when only the left one is, 0 otherwise
func (p Probes) Imbalance() float64 {
	switch {
	case p[ProbeRight] && !p[ProbeLeft]:
		return 1
	case p[ProbeLeft] && !p[ProbeRight]:
		return -1
	}
	return 0
}

// Body is one simulated tile.
// There is no angular state here: collision and support only ever use the upright footprint.
type Body struct {
	// Index is the position of the body in the world collection, -1 for the ground
	Index    int
	Shape    *Shape
	BodyType BodyType

	// Center of the upright footprint
	Position mgl64.Vec2
	Velocity mgl64.Vec2

	// Static bodies are frozen: no gravity, no integration, until woken
	Static bool
	// Inert bodies are destroyed tiles kept in the collection: they take no part in the simulation
	Inert bool

	Support Support
	Probes  Probes

	// CalmTicks counts consecutive ticks spent below the static threshold
	CalmTicks int

	accumulatedForce mgl64.Vec2
}

// NewBody creates a tile body of the given catalog type, centered on position
func NewBody(tileType TileType, position mgl64.Vec2) *Body {
	return &Body{
		Shape:    ShapeOf(tileType),
		BodyType: BodyTypeTile,
		Position: position,
	}
}

// NewGround creates the floor body. Its surface is the line y = 0.
func NewGround() *Body {
	return &Body{
		Index:    -1,
		BodyType: BodyTypeGround,
		Static:   true,
		Support:  SupportFull,
	}
}

func (b *Body) IsGround() bool {
	return b.BodyType == BodyTypeGround
}

// AABB returns the upright footprint bounds
func (b *Body) AABB() AABB {
	if b.IsGround() {
		return AABB{
			Min: mgl64.Vec2{math.Inf(-1), math.Inf(-1)},
			Max: mgl64.Vec2{math.Inf(1), 0},
		}
	}
	return NewAABB(b.Position, b.Shape.Size)
}

// Top returns the highest y of the footprint
func (b *Body) Top() float64 {
	if b.IsGround() {
		return 0
	}
	return b.Position.Y() + b.Shape.Size.Y()/2
}

// Bottom returns the lowest y of the footprint
func (b *Body) Bottom() float64 {
	if b.IsGround() {
		return math.Inf(-1)
	}
	return b.Position.Y() - b.Shape.Size.Y()/2
}

// Occupies reports whether the world point lies inside the occupied part of the footprint
func (b *Body) Occupies(point mgl64.Vec2) bool {
	if b.IsGround() {
		return point.Y() < 0
	}
	if b.Inert {
		return false
	}

	aabb := b.AABB()
	if !aabb.ContainsPoint(point) {
		return false
	}
	return b.Shape.Mask.Contains(point.Sub(aabb.Min))
}

// Mass returns the tile mass, +Inf for the ground
func (b *Body) Mass() float64 {
	if b.IsGround() {
		return math.Inf(1)
	}
	return b.Shape.Material.Mass
}

// InverseMass returns the inverse mass used by contact resolution.
// Ground, static and inert bodies do not move under contacts.
func (b *Body) InverseMass() float64 {
	if b.IsGround() || b.Static || b.Inert {
		return 0
	}
	return b.Shape.InverseMass()
}

// Material returns the contact material. The ground has full friction and no rebound.
func (b *Body) Material() Material {
	if b.IsGround() {
		return Material{Mass: math.Inf(1), Friction: 1, Restitution: 0}
	}
	return b.Shape.Material
}

// Simulated reports whether the integrator should move the body this tick
func (b *Body) Simulated() bool {
	return !b.IsGround() && !b.Static && !b.Inert
}

// Integrate advances the body with semi-implicit Euler: velocity first, then position from the new velocity.
// Velocity is clamped to maxVelocity before the position update.
func (b *Body) Integrate(dt float64, gravity mgl64.Vec2, maxVelocity float64) {
	if !b.Simulated() {
		b.ClearForces()
		return
	}

	acceleration := gravity.Add(b.accumulatedForce.Mul(b.Shape.InverseMass()))
	b.Velocity = b.Velocity.Add(acceleration.Mul(dt))
	b.ClampVelocity(maxVelocity)
	b.Position = b.Position.Add(b.Velocity.Mul(dt))

	b.ClearForces()
}

// ClampVelocity scales the velocity down so its magnitude does not exceed max
func (b *Body) ClampVelocity(max float64) {
	speed := b.Velocity.Len()
	if speed > max && speed > 0 {
		b.Velocity = b.Velocity.Mul(max / speed)
	}
}

// TrySleep freezes the body once its speed stayed under threshold for the given number of ticks.
// Only supported bodies settle. It returns true on the tick the body goes static.
func (b *Body) TrySleep(threshold float64, ticks int) bool {
	if !b.Simulated() {
		return false
	}

	if b.Support != SupportNone && b.Velocity.Len() < threshold {
		b.CalmTicks++
		if b.CalmTicks >= ticks {
			b.Sleep()
			return true
		}
	} else {
		b.CalmTicks = 0
	}
	return false
}

func (b *Body) Sleep() {
	b.Static = true
	b.CalmTicks = 0
	b.ClearForces()
	b.Velocity = mgl64.Vec2{}
}

func (b *Body) Awake() {
	if b.IsGround() || b.Inert {
		return
	}
	b.Static = false
	b.CalmTicks = 0
}

// MarkInert permanently removes the body from the simulation without removing it from the collection
func (b *Body) MarkInert() {
	if b.IsGround() {
		return
	}
	b.Inert = true
	b.Static = true
	b.Velocity = mgl64.Vec2{}
	b.Support = SupportNone
	b.Probes = Probes{}
	b.ClearForces()
}

// AddForce accumulates a force consumed by the next Integrate call
func (b *Body) AddForce(force mgl64.Vec2) {
	if b.Simulated() {
		b.accumulatedForce = b.accumulatedForce.Add(force)
	}
}

// ApplyImpulse changes the velocity by impulse/mass
func (b *Body) ApplyImpulse(impulse mgl64.Vec2) {
	if b.Simulated() {
		b.Velocity = b.Velocity.Add(impulse.Mul(b.Shape.InverseMass()))
	}
}

func (b *Body) ClearForces() {
	b.accumulatedForce = mgl64.Vec2{}
}
