package towerphys

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jinzhu/copier"
	"github.com/spacescrapers/towerphys/actor"
	"github.com/spacescrapers/towerphys/constraint"
	"github.com/spacescrapers/towerphys/rotation"
)

// Settings tunes the integrator and the support classifier.
// Distances are in pixels, times in seconds.
type Settings struct {
	// Gravity is the downward acceleration (px/s²)
	Gravity float64
	// MaxVelocity is the hard cap on the speed of every body (px/s)
	MaxVelocity float64

	// A supported body slower than StaticThreshold for StaticTicks consecutive ticks freezes
	StaticThreshold float64
	StaticTicks     int
	// WakeThreshold is the velocity change an injection must exceed to wake a frozen body
	WakeThreshold float64
	// WakeOnSupportLoss wakes a frozen body whose support drops to none.
	// Off by default: a frozen body only wakes on an injection above WakeThreshold.
	WakeOnSupportLoss bool

	// ProbeOffset is the distance of the probes below the bottom edge, ProbeInset the inset of the corner probes
	ProbeOffset float64
	ProbeInset  float64

	// RestingSpeed is the closing speed under which contacts do not bounce
	RestingSpeed float64
	// SupportDrag damps the horizontal velocity of supported bodies (1/s, scaled by friction)
	SupportDrag float64
	// TumbleNudge pushes a body held by a single corner away from that corner (px/s per tick)
	TumbleNudge float64

	Rotation rotation.Config
}

func DefaultSettings() Settings {
	return Settings{
		Gravity:           500,
		MaxVelocity:       300,
		StaticThreshold:   10,
		StaticTicks:       10,
		WakeThreshold:     20,
		WakeOnSupportLoss: false,
		ProbeOffset:       2,
		ProbeInset:        1,
		RestingSpeed:      20,
		SupportDrag:       6,
		TumbleNudge:       2,
		Rotation:          rotation.DefaultConfig(),
	}
}

// World owns every body of one level attempt
type World struct {
	// List of all tiles, indexed by Body.Index
	Bodies []*actor.Body
	Ground *actor.Body

	Settings Settings
	// Tick counts the completed steps
	Tick int

	Events Events

	poses   *rotation.Tracker
	pending []Injection
}

func NewWorld(settings Settings) *World {
	return &World{
		Ground:   actor.NewGround(),
		Settings: settings,
		Events:   NewEvents(),
		poses:    rotation.NewTracker(settings.Rotation),
	}
}

// AddBody appends a tile to the world and returns its index
func (w *World) AddBody(body *actor.Body) int {
	body.Index = len(w.Bodies)
	w.Bodies = append(w.Bodies, body)
	w.poses.Grow(len(w.Bodies))

	return body.Index
}

// Gravity returns the gravity acceleration vector
func (w *World) Gravity() mgl64.Vec2 {
	return mgl64.Vec2{0, -w.Settings.Gravity}
}

// Step advances the world by one fixed tick
func (w *World) Step(dt float64) {
	// Phase 1: environmental injections, waking frozen bodies hit hard enough
	w.applyInjections(dt)

	// Phase 2: gravity and support reaction, from the classification of the previous tick
	// Phase 3: semi-implicit Euler with velocity clamp
	w.integrate(dt)

	// Phase 4: collision detection and resolution, in broad-phase order
	contacts := NarrowPhase(BroadPhase(w.Bodies, w.Ground))
	w.resolve(contacts)
	w.Events.recordContacts(contacts)

	// Phase 5: support classification for the next tick
	w.classify(dt)

	// Phase 6: freeze calm bodies
	w.trySleep()

	w.Tick++
	w.Events.flush()
}

func (w *World) integrate(dt float64) {
	gravity := w.Gravity()

	for _, body := range w.Bodies {
		if !body.Simulated() {
			body.ClearForces()
			continue
		}

		g := gravity
		if body.Support == actor.SupportFull {
			g = mgl64.Vec2{}
			if body.Velocity.Y() < 0 {
				body.Velocity[1] = 0
			}
		}

		if body.Support != actor.SupportNone {
			drag := math.Max(0, 1-w.Settings.SupportDrag*body.Shape.Material.Friction*dt)
			body.Velocity[0] *= drag
		} else if body.Probes.Count() == 1 {
			body.Velocity[0] -= w.Settings.TumbleNudge * body.Probes.Imbalance()
		}

		body.Integrate(dt, g, w.Settings.MaxVelocity)
	}
}

// resolve handles every contact independently, in the order they were discovered
func (w *World) resolve(contacts []*constraint.Contact) {
	for _, contact := range contacts {
		contact.SolvePosition()
		contact.SolveVelocity(w.Settings.RestingSpeed)
	}

	for _, body := range w.Bodies {
		body.ClampVelocity(w.Settings.MaxVelocity)
	}
}

// UpdateSupport classifies every body without stepping.
// It is called when the simulation starts so the first tick already knows which bodies rest.
func (w *World) UpdateSupport() {
	for _, body := range w.Bodies {
		if body.Inert {
			continue
		}
		body.Support, body.Probes = Classify(body, w.Bodies, w.Ground, w.Settings)
	}
}

func (w *World) classify(dt float64) {
	for _, body := range w.Bodies {
		if body.Inert {
			continue
		}

		previous := body.Support
		body.Support, body.Probes = Classify(body, w.Bodies, w.Ground, w.Settings)
		if body.Support != previous {
			w.Events.emitSupportChanged(body, previous, body.Support)
		}

		if body.Static && body.Support == actor.SupportNone && w.Settings.WakeOnSupportLoss {
			body.Awake()
			w.Events.emitWake(body)
		}

		w.poses.Update(body.Index, rotation.Observation{
			Airborne:  body.Support == actor.SupportNone && !body.Static,
			Imbalance: body.Probes.Imbalance(),
			Drift:     body.Velocity.X(),
		}, dt)
	}
}

func (w *World) trySleep() {
	for _, body := range w.Bodies {
		if body.TrySleep(w.Settings.StaticThreshold, w.Settings.StaticTicks) {
			w.Events.emitSleep(body)
		}
	}
}

// MarkInert destroys the tile at index i: it stays in the collection but takes no further part in the simulation
func (w *World) MarkInert(i int) {
	if i < 0 || i >= len(w.Bodies) {
		return
	}
	w.Bodies[i].MarkInert()
}

// TowerHeight returns the highest top edge among the live tiles, 0 when there is none
func (w *World) TowerHeight() float64 {
	height := 0.0
	for _, body := range w.Bodies {
		if !body.Inert {
			height = math.Max(height, body.Top())
		}
	}

	return height
}

// Pose returns the visual orientation of tile i
func (w *World) Pose(i int) rotation.Pose {
	return w.poses.Pose(i)
}

// Reset removes every body and forgets events, injections and poses. Listeners are kept.
func (w *World) Reset() {
	w.Bodies = w.Bodies[:0]
	w.Tick = 0
	w.pending = w.pending[:0]
	w.poses.Reset()
	w.Events.reset()
}

// BodyState is a read-only copy of one body, handed to renderers and force generators
type BodyState struct {
	Index    int
	Type     actor.TileType
	Size     mgl64.Vec2
	Mass     float64
	Position mgl64.Vec2
	Velocity mgl64.Vec2
	Static   bool
	Inert    bool
	Support  actor.Support
	Probes   actor.Probes
	Pose     rotation.Pose
}

func (s BodyState) AABB() actor.AABB {
	return actor.NewAABB(s.Position, s.Size)
}

func (s BodyState) Top() float64 {
	return s.Position.Y() + s.Size.Y()/2
}

func (s BodyState) Bottom() float64 {
	return s.Position.Y() - s.Size.Y()/2
}

// States snapshots every body. Mutating the result does not affect the world.
func (w *World) States() []BodyState {
	states := make([]BodyState, len(w.Bodies))
	for i, body := range w.Bodies {
		state := &states[i]
		if err := copier.Copy(state, body); err != nil {
			panic(err)
		}
		state.Type = body.Shape.Type
		state.Size = body.Shape.Size
		state.Mass = body.Shape.Material.Mass
		state.Pose = w.poses.Pose(i)
	}

	return states
}
