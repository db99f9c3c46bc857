// Package challenge implements the environmental hazards of the levels.
//
// Every hazard is a towerphys.ForceGenerator: it keeps its own state (pendulum
// angle, gusts, falling meteorites), reads the body snapshots handed to it on
// each tick and answers with impulses or forces. It never touches bodies
// directly. Randomness comes from a seeded source so a reset replays the same
// hazard.
package challenge

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/spacescrapers/towerphys"
)

// Kind names a hazard in the level catalog
type Kind string

const (
	KindNone            Kind = "none"
	KindWreckingBall    Kind = "wrecking_ball"
	KindWind            Kind = "wind"
	KindMeteoriteShower Kind = "meteorite_shower"
)

// ErrUnknownKind is returned for a hazard name outside the catalog
var ErrUnknownKind = errors.New("challenge: unknown kind")

// ParseKind resolves a hazard name. An empty name means no hazard.
func ParseKind(name string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(name))); k {
	case "", KindNone:
		return KindNone, nil
	case KindWreckingBall, KindWind, KindMeteoriteShower:
		return k, nil
	}

	return KindNone, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Arena is the playfield in world units: the floor spans [0, Width], the sky line is Sky above it
type Arena struct {
	Width float64
	Sky   float64
}

func DefaultArena() Arena {
	return Arena{Width: 1200, Sky: 900}
}

// Config selects and times the hazard of a level.
// Zero Trigger and Duration fall back to the defaults of the kind.
type Config struct {
	Kind     Kind    `yaml:"kind"`
	Trigger  float64 `yaml:"trigger"`
	Duration float64 `yaml:"duration"`
	Seed     uint64  `yaml:"seed"`
}

// Hazard is a force generator with a schedule, shown to the player ahead of time
type Hazard interface {
	towerphys.ForceGenerator

	Kind() Kind
	// Warning returns the announcement shown during the last second before the hazard starts, or ""
	Warning(now float64) string
	Active() bool
	Finished() bool
}

// New builds a fresh hazard. KindNone yields a nil hazard.
func New(config Config, arena Arena) (Hazard, error) {
	switch config.Kind {
	case "", KindNone:
		return nil, nil
	case KindWreckingBall:
		return NewWreckingBall(config, arena), nil
	case KindWind:
		return NewWind(config, arena), nil
	case KindMeteoriteShower:
		return NewMeteoriteShower(config, arena), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, config.Kind)
}

// Factory validates the config once and returns a constructor of fresh hazards, one per attempt
func Factory(config Config, arena Arena) (func() towerphys.ForceGenerator, error) {
	if _, err := New(config, arena); err != nil {
		return nil, err
	}

	return func() towerphys.ForceGenerator {
		hazard, _ := New(config, arena)
		if hazard == nil {
			return nil
		}
		return hazard
	}, nil
}

// schedule is the trigger bookkeeping shared by every hazard
type schedule struct {
	trigger  float64
	started  bool
	active   bool
	finished bool
}

// start flips the hazard on once now reaches the trigger time; it returns true on that tick only
func (s *schedule) start(now float64) bool {
	if s.started || now < s.trigger {
		return false
	}
	s.started = true
	s.active = true
	return true
}

func (s *schedule) finish() {
	s.active = false
	s.finished = true
}

func (s *schedule) Active() bool   { return s.active }
func (s *schedule) Finished() bool { return s.finished }

func (s *schedule) warning(now float64, format string) string {
	until := s.trigger - now
	if s.started || until <= 0 || until > 1 {
		return ""
	}
	return fmt.Sprintf(format, until)
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

func orDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}
