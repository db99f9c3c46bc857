// Package rotation tracks the cosmetic tilt of tiles.
//
// This package imports nothing from the physics packages and nothing in them
// reads a Pose back: positions, velocities and collision geometry are computed
// on upright footprints. The world writes support observations in, renderers
// read poses out of the body snapshots.
package rotation

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// MaxAngle bounds the tilt, in degrees, on both sides
const MaxAngle = 45.0

// Pose is the visual orientation of one tile, in degrees and degrees per second.
// Positive angles turn counter-clockwise.
type Pose struct {
	Angle           float64
	AngularVelocity float64
}

// Config tunes the tumbling heuristic
type Config struct {
	// Acceleration is the angular acceleration (deg/s²) of an airborne tile with no probe imbalance
	Acceleration float64
	// MaxAngularVelocity caps the spin (deg/s)
	MaxAngularVelocity float64
	// SpinDecay and AngleDecay are per-tick multipliers applied while the tile is supported
	SpinDecay  float64
	AngleDecay float64
}

func DefaultConfig() Config {
	return Config{
		Acceleration:       120,
		MaxAngularVelocity: 90,
		SpinDecay:          0.8,
		AngleDecay:         0.9,
	}
}

// Tracker owns the poses of every tile of one level attempt, indexed like the world bodies
type Tracker struct {
	config Config
	poses  []Pose
}

func NewTracker(config Config) *Tracker {
	return &Tracker{config: config}
}

// Observation is what the world knows about a tile after a tick
type Observation struct {
	// Airborne is true when the tile is unsupported and may tumble
	Airborne bool
	// Imbalance is the signed horizontal probe asymmetry, positive when only the right side is held
	Imbalance float64
	// Drift is the horizontal velocity, used as tumbling direction when there is no imbalance
	Drift float64
}

// Grow makes room for n poses
func (t *Tracker) Grow(n int) {
	for len(t.poses) < n {
		t.poses = append(t.poses, Pose{})
	}
}

// Update advances the pose of tile i by one tick
func (t *Tracker) Update(i int, obs Observation, dt float64) {
	t.Grow(i + 1)
	pose := &t.poses[i]

	if !obs.Airborne {
		pose.AngularVelocity *= t.config.SpinDecay
		pose.Angle *= t.config.AngleDecay
		if math.Abs(pose.Angle) < 1e-3 {
			pose.Angle = 0
		}
		return
	}

	direction := sign(obs.Imbalance)
	if direction == 0 {
		direction = sign(obs.Drift)
	}
	if direction == 0 {
		direction = 1
	}

	accel := direction * t.config.Acceleration * (1 + math.Abs(obs.Imbalance))
	pose.AngularVelocity = mgl64.Clamp(pose.AngularVelocity+accel*dt, -t.config.MaxAngularVelocity, t.config.MaxAngularVelocity)
	pose.Angle += pose.AngularVelocity * dt

	if pose.Angle >= MaxAngle || pose.Angle <= -MaxAngle {
		pose.Angle = mgl64.Clamp(pose.Angle, -MaxAngle, MaxAngle)
		pose.AngularVelocity = 0
	}
}

// Pose returns the pose of tile i, upright when unknown
func (t *Tracker) Pose(i int) Pose {
	if i < 0 || i >= len(t.poses) {
		return Pose{}
	}
	return t.poses[i]
}

// Reset makes every tile upright again
func (t *Tracker) Reset() {
	t.poses = t.poses[:0]
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
