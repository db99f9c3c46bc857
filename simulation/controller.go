// Package simulation drives one level attempt: the build phase, the fixed-tick
// survival window and the final height check.
package simulation

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spacescrapers/towerphys"
	"github.com/spacescrapers/towerphys/actor"
)

// PlacedTile is one tile committed by the player during the build phase.
// Placements are trusted: they do not overlap and lie inside the build area.
type PlacedTile struct {
	Type     actor.TileType
	Position mgl64.Vec2
}

// Config describes one level attempt
type Config struct {
	// TargetHeight is measured from the floor
	TargetHeight float64
	// Survival is the length of the simulated window, in seconds
	Survival float64
	// TimeStep is the fixed tick length, in seconds
	TimeStep float64
	// MaxStepsPerAdvance bounds the ticks run by one Advance call
	MaxStepsPerAdvance int
	// Quota is the number of tiles allowed per type. A nil quota allows anything.
	Quota map[actor.TileType]int

	Physics towerphys.Settings
}

func DefaultConfig() Config {
	return Config{
		TargetHeight:       400,
		Survival:           12,
		TimeStep:           1.0 / 60.0,
		MaxStepsPerAdvance: 8,
		Physics:            towerphys.DefaultSettings(),
	}
}

// SurvivalTicks returns the number of fixed ticks in the survival window
func (c Config) SurvivalTicks() int {
	return int(math.Round(c.Survival / c.TimeStep))
}

// GeneratorFactory builds the environmental hazard of a fresh attempt. It may return nil.
type GeneratorFactory func() towerphys.ForceGenerator

// Controller owns the world of one level attempt and its phase state machine.
// It is single-threaded: every method must be called from the host update loop.
type Controller struct {
	config  Config
	factory GeneratorFactory

	world     *towerphys.World
	generator towerphys.ForceGenerator

	phase       Phase
	ticks       int
	accumulator float64
	busy        bool

	listeners     []PhaseListener
	tickListeners []TickListener
}

func New(config Config, factory GeneratorFactory) *Controller {
	if config.TimeStep <= 0 {
		config.TimeStep = DefaultConfig().TimeStep
	}
	if config.MaxStepsPerAdvance <= 0 {
		config.MaxStepsPerAdvance = DefaultConfig().MaxStepsPerAdvance
	}

	return &Controller{
		config:  config,
		factory: factory,
		world:   towerphys.NewWorld(config.Physics),
		phase:   Building,
	}
}

func (c *Controller) Config() Config {
	return c.config
}

func (c *Controller) Phase() Phase {
	return c.phase
}

// Ticks returns the number of fixed ticks run in the current attempt
func (c *Controller) Ticks() int {
	return c.ticks
}

// Elapsed returns the simulated time of the current attempt, in seconds
func (c *Controller) Elapsed() float64 {
	return float64(c.ticks) * c.config.TimeStep
}

// Remaining returns the simulated time left in the survival window
func (c *Controller) Remaining() float64 {
	return math.Max(0, float64(c.config.SurvivalTicks()-c.ticks)*c.config.TimeStep)
}

// Bodies returns a read-only snapshot of every body
func (c *Controller) Bodies() []towerphys.BodyState {
	return c.world.States()
}

// TowerHeight returns the current top of the tower, measured from the floor
func (c *Controller) TowerHeight() float64 {
	return c.world.TowerHeight()
}

// Generator returns the hazard of the running attempt, nil when there is none
func (c *Controller) Generator() towerphys.ForceGenerator {
	return c.generator
}

// Events gives access to the world event bus, to subscribe to collisions, sleep and support changes
func (c *Controller) Events() *towerphys.Events {
	return &c.world.Events
}

// OnPhaseChange registers a listener called after every transition
func (c *Controller) OnPhaseChange(listener PhaseListener) {
	if listener != nil {
		c.listeners = append(c.listeners, listener)
	}
}

// OnTick registers a listener called after every fixed tick, before the survival window is checked
func (c *Controller) OnTick(listener TickListener) {
	if listener != nil {
		c.tickListeners = append(c.tickListeners, listener)
	}
}

// StartSimulation converts the placed tiles into bodies and leaves the build phase
func (c *Controller) StartSimulation(tiles []PlacedTile) error {
	if c.busy {
		return ErrBusy
	}
	if c.phase != Building {
		return fmt.Errorf("start simulation in %s phase: %w", c.phase, ErrInvalidPhase)
	}
	if len(tiles) == 0 {
		return ErrNoTiles
	}
	if err := c.checkQuota(tiles); err != nil {
		return err
	}

	for _, tile := range tiles {
		c.world.AddBody(actor.NewBody(tile.Type, tile.Position))
	}
	c.world.UpdateSupport()

	if c.factory != nil {
		c.generator = c.factory()
	}
	c.ticks = 0
	c.accumulator = 0
	c.transition(Simulating)

	return nil
}

func (c *Controller) checkQuota(tiles []PlacedTile) error {
	used := make(map[actor.TileType]int)
	for _, tile := range tiles {
		if !tile.Type.Valid() {
			return fmt.Errorf("%w: %d", ErrUnknownTile, int(tile.Type))
		}
		used[tile.Type]++
	}

	if c.config.Quota == nil {
		return nil
	}
	for _, t := range actor.TileTypes() {
		if used[t] > c.config.Quota[t] {
			return fmt.Errorf("%w: %d %s placed, %d allowed", ErrQuotaExceeded, used[t], t, c.config.Quota[t])
		}
	}

	return nil
}

// Step runs one fixed tick. The hazard is asked for its injections first, then the world steps.
// When the survival window ends the attempt is evaluated on the same call.
func (c *Controller) Step() error {
	if c.busy {
		return ErrBusy
	}
	if c.phase != Simulating {
		return fmt.Errorf("step in %s phase: %w", c.phase, ErrInvalidPhase)
	}

	c.busy = true
	dt := c.config.TimeStep
	if c.generator != nil {
		c.world.Inject(c.generator.Generate(c.Elapsed(), dt, c.world.States())...)
	}
	c.world.Step(dt)
	c.ticks++
	for _, listener := range c.tickListeners {
		listener(c.ticks)
	}
	c.busy = false

	if c.ticks >= c.config.SurvivalTicks() {
		c.accumulator = 0
		c.transition(Evaluating)
		c.evaluate()
	}

	return nil
}

// Advance accumulates real elapsed time and runs as many fixed ticks as it covers.
// The remainder is carried to the next call; a backlog larger than MaxStepsPerAdvance ticks is dropped.
func (c *Controller) Advance(elapsed float64) (int, error) {
	if c.busy {
		return 0, ErrBusy
	}
	if c.phase != Simulating {
		return 0, fmt.Errorf("advance in %s phase: %w", c.phase, ErrInvalidPhase)
	}

	dt := c.config.TimeStep
	c.accumulator += math.Max(0, elapsed)

	steps := 0
	for c.accumulator >= dt && c.phase == Simulating {
		if steps == c.config.MaxStepsPerAdvance {
			c.accumulator = math.Mod(c.accumulator, dt)
			break
		}
		if err := c.Step(); err != nil {
			return steps, err
		}
		c.accumulator -= dt
		steps++
	}

	if c.phase != Simulating {
		c.accumulator = 0
	}

	return steps, nil
}

// Destroy marks tile i inert: it stays in the snapshots but no longer collides, supports or moves
func (c *Controller) Destroy(i int) error {
	if c.busy {
		return ErrBusy
	}
	if c.phase != Simulating {
		return fmt.Errorf("destroy in %s phase: %w", c.phase, ErrInvalidPhase)
	}
	if i < 0 || i >= len(c.world.Bodies) {
		return fmt.Errorf("destroy: no tile %d", i)
	}

	c.world.MarkInert(i)
	return nil
}

// evaluate decides the attempt on the settled positions
func (c *Controller) evaluate() {
	if Survived(c.world.States(), c.config.TargetHeight) {
		c.transition(Won)
	} else {
		c.transition(Lost)
	}
}

// Survived reports whether one live body reaches the target height and the structure
// has not entirely fallen below the floor
func Survived(bodies []towerphys.BodyState, targetHeight float64) bool {
	reached := false
	collapsed := true
	for _, body := range bodies {
		if body.Inert {
			continue
		}
		if body.Top() >= targetHeight {
			reached = true
		}
		if body.Top() > 0 {
			collapsed = false
		}
	}

	return reached && !collapsed
}

// Reset discards the attempt and returns to the build phase with an empty world.
// Event subscriptions and phase listeners are kept.
func (c *Controller) Reset() error {
	if c.busy {
		return ErrBusy
	}

	c.world.Reset()
	c.generator = nil
	c.ticks = 0
	c.accumulator = 0
	if c.phase != Building {
		c.transition(Building)
	}

	return nil
}

func (c *Controller) transition(to Phase) {
	from := c.phase
	c.phase = to

	c.busy = true
	defer func() { c.busy = false }()
	for _, listener := range c.listeners {
		listener(from, to)
	}
}
