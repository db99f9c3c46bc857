// Package level loads the level catalog: target heights, tile quotas, hazards
// and physics tuning. A default catalog is embedded in the binary.
package level

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spacescrapers/towerphys"
	"github.com/spacescrapers/towerphys/actor"
	"github.com/spacescrapers/towerphys/challenge"
	"github.com/spacescrapers/towerphys/simulation"
	"gopkg.in/yaml.v3"
)

//go:embed levels.yaml
var defaultCatalog []byte

// DefaultSurvival is used by levels that do not set a survival window, in seconds
const DefaultSurvival = 12.0

// ErrInvalid is wrapped by every validation error
var ErrInvalid = errors.New("level: invalid catalog")

// Arena is the playfield size, in pixels
type Arena struct {
	Width float64 `yaml:"width"`
	Sky   float64 `yaml:"sky"`
}

// Physics mirrors towerphys.Settings. Omitted fields keep their default value.
type Physics struct {
	Gravity           float64 `yaml:"gravity"`
	MaxVelocity       float64 `yaml:"max_velocity"`
	StaticThreshold   float64 `yaml:"static_threshold"`
	StaticTicks       int     `yaml:"static_ticks"`
	WakeThreshold     float64 `yaml:"wake_threshold"`
	WakeOnSupportLoss bool    `yaml:"wake_on_support_loss"`
	ProbeOffset       float64 `yaml:"probe_offset"`
	ProbeInset        float64 `yaml:"probe_inset"`
	RestingSpeed      float64 `yaml:"resting_speed"`
	SupportDrag       float64 `yaml:"support_drag"`
	TumbleNudge       float64 `yaml:"tumble_nudge"`
	// TickRate is the number of fixed ticks per simulated second
	TickRate float64 `yaml:"tick_rate"`
}

func defaultPhysics() Physics {
	s := towerphys.DefaultSettings()
	return Physics{
		Gravity:           s.Gravity,
		MaxVelocity:       s.MaxVelocity,
		StaticThreshold:   s.StaticThreshold,
		StaticTicks:       s.StaticTicks,
		WakeThreshold:     s.WakeThreshold,
		WakeOnSupportLoss: s.WakeOnSupportLoss,
		ProbeOffset:       s.ProbeOffset,
		ProbeInset:        s.ProbeInset,
		RestingSpeed:      s.RestingSpeed,
		SupportDrag:       s.SupportDrag,
		TumbleNudge:       s.TumbleNudge,
		TickRate:          60,
	}
}

// Settings converts the tuning into world settings
func (p Physics) Settings() towerphys.Settings {
	s := towerphys.DefaultSettings()
	s.Gravity = p.Gravity
	s.MaxVelocity = p.MaxVelocity
	s.StaticThreshold = p.StaticThreshold
	s.StaticTicks = p.StaticTicks
	s.WakeThreshold = p.WakeThreshold
	s.WakeOnSupportLoss = p.WakeOnSupportLoss
	s.ProbeOffset = p.ProbeOffset
	s.ProbeInset = p.ProbeInset
	s.RestingSpeed = p.RestingSpeed
	s.SupportDrag = p.SupportDrag
	s.TumbleNudge = p.TumbleNudge

	return s
}

// Level is one entry of the catalog
type Level struct {
	ID           int              `yaml:"id"`
	Name         string           `yaml:"name"`
	TargetHeight float64          `yaml:"target_height"`
	Survival     float64          `yaml:"survival"`
	Tiles        map[string]int   `yaml:"tiles"`
	Challenge    challenge.Config `yaml:"challenge"`

	quota map[actor.TileType]int
}

// Quota returns the number of tiles of each type the player may place
func (l Level) Quota() map[actor.TileType]int {
	quota := make(map[actor.TileType]int, len(l.quota))
	for t, n := range l.quota {
		quota[t] = n
	}
	return quota
}

// Catalog is the whole level file
type Catalog struct {
	Arena   Arena   `yaml:"arena"`
	Physics Physics `yaml:"physics"`
	Levels  []Level `yaml:"levels"`
}

// Default returns the embedded catalog
func Default() *Catalog {
	catalog, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("level: embedded catalog: %v", err))
	}
	return catalog
}

// LoadFile reads and validates a catalog file
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("level: %w", err)
	}

	catalog, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return catalog, nil
}

// Parse decodes a catalog. Unknown keys are rejected.
func Parse(data []byte) (*Catalog, error) {
	catalog := &Catalog{
		Arena:   Arena{Width: challenge.DefaultArena().Width, Sky: challenge.DefaultArena().Sky},
		Physics: defaultPhysics(),
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	// An empty document decodes to io.EOF; validation reports what is missing
	if err := decoder.Decode(catalog); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if err := catalog.validate(); err != nil {
		return nil, err
	}
	return catalog, nil
}

func (c *Catalog) validate() error {
	if c.Arena.Width <= 0 || c.Arena.Sky <= 0 {
		return fmt.Errorf("%w: arena must have a positive size", ErrInvalid)
	}
	if c.Physics.TickRate <= 0 {
		return fmt.Errorf("%w: tick rate must be positive", ErrInvalid)
	}
	if c.Physics.MaxVelocity <= 0 {
		return fmt.Errorf("%w: max velocity must be positive", ErrInvalid)
	}
	if len(c.Levels) == 0 {
		return fmt.Errorf("%w: no levels", ErrInvalid)
	}

	seen := make(map[int]bool, len(c.Levels))
	for i := range c.Levels {
		l := &c.Levels[i]
		if seen[l.ID] {
			return fmt.Errorf("%w: duplicate level id %d", ErrInvalid, l.ID)
		}
		seen[l.ID] = true

		if err := l.resolve(); err != nil {
			return fmt.Errorf("%w: level %d: %v", ErrInvalid, l.ID, err)
		}
	}

	return nil
}

func (l *Level) resolve() error {
	if l.TargetHeight <= 0 {
		return fmt.Errorf("target height %v must be positive", l.TargetHeight)
	}
	if l.Survival < 0 {
		return fmt.Errorf("survival %v must be positive", l.Survival)
	}
	if l.Survival == 0 {
		l.Survival = DefaultSurvival
	}

	kind, err := challenge.ParseKind(string(l.Challenge.Kind))
	if err != nil {
		return err
	}
	l.Challenge.Kind = kind

	if len(l.Tiles) == 0 {
		return errors.New("no tiles allowed")
	}
	l.quota = make(map[actor.TileType]int, len(l.Tiles))
	for name, n := range l.Tiles {
		t, err := actor.ParseTileType(name)
		if err != nil {
			return err
		}
		if n <= 0 {
			return fmt.Errorf("quota of %s must be positive, got %d", t, n)
		}
		if _, dup := l.quota[t]; dup {
			return fmt.Errorf("tile type %s listed twice", t)
		}
		l.quota[t] = n
	}

	return nil
}

// Level returns the level with the given id
func (c *Catalog) Level(id int) (Level, bool) {
	for _, l := range c.Levels {
		if l.ID == id {
			return l, true
		}
	}
	return Level{}, false
}

// ChallengeArena returns the arena used to place the hazards
func (c *Catalog) ChallengeArena() challenge.Arena {
	return challenge.Arena{Width: c.Arena.Width, Sky: c.Arena.Sky}
}

// Simulation returns the controller config of a level
func (c *Catalog) Simulation(l Level) simulation.Config {
	config := simulation.DefaultConfig()
	config.TargetHeight = l.TargetHeight
	config.Survival = l.Survival
	config.TimeStep = 1 / c.Physics.TickRate
	config.Quota = l.Quota()
	config.Physics = c.Physics.Settings()

	return config
}

// Controller builds a controller for a level, with its hazard
func (c *Catalog) Controller(l Level) (*simulation.Controller, error) {
	factory, err := challenge.Factory(l.Challenge, c.ChallengeArena())
	if err != nil {
		return nil, fmt.Errorf("level %d: %w", l.ID, err)
	}

	return simulation.New(c.Simulation(l), factory), nil
}
