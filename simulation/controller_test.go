package simulation

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spacescrapers/towerphys"
	"github.com/spacescrapers/towerphys/actor"
)

// twoTileTower is a rectangle with a square on top, 192px tall, resting on the floor
func twoTileTower() []PlacedTile {
	return []PlacedTile{
		{Type: actor.TileRectangle, Position: mgl64.Vec2{300, 48}},
		{Type: actor.TileSquare, Position: mgl64.Vec2{300, 144}},
	}
}

// pushGenerator pushes body 0 sideways on every tick and records the times it was called with
type pushGenerator struct {
	calls []float64
}

func (g *pushGenerator) Generate(now, dt float64, bodies []towerphys.BodyState) []towerphys.Injection {
	g.calls = append(g.calls, now)
	return []towerphys.Injection{{
		Target: towerphys.BodyTarget(0),
		Kind:   towerphys.Force,
		Vector: mgl64.Vec2{3000, 0},
	}}
}

// coarseConfig uses a binary-exact time step so the accumulator arithmetic is exact
func coarseConfig() Config {
	config := DefaultConfig()
	config.TimeStep = 0.25
	config.Survival = 10
	config.MaxStepsPerAdvance = 8
	return config
}

// =============================================================================
// Phase transitions
// =============================================================================

func TestController_FullAttemptWon(t *testing.T) {
	config := DefaultConfig()
	config.TargetHeight = 150
	controller := New(config, nil)

	var transitions [][2]Phase
	controller.OnPhaseChange(func(from, to Phase) {
		transitions = append(transitions, [2]Phase{from, to})
	})

	if err := controller.StartSimulation(twoTileTower()); err != nil {
		t.Fatalf("StartSimulation() error = %v", err)
	}
	for controller.Phase() == Simulating {
		if err := controller.Step(); err != nil {
			t.Fatalf("Step() error = %v", err)
		}
	}

	if controller.Phase() != Won {
		t.Fatalf("phase = %v, want won", controller.Phase())
	}
	if got := controller.Elapsed(); !almostEqual(got, 12, 1e-9) {
		t.Errorf("Elapsed() = %v, want 12", got)
	}
	if controller.Remaining() != 0 {
		t.Errorf("Remaining() = %v, want 0", controller.Remaining())
	}

	want := [][2]Phase{{Building, Simulating}, {Simulating, Evaluating}, {Evaluating, Won}}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %v, want %v", i, transitions[i], want[i])
		}
	}
}

func TestController_FullAttemptLost(t *testing.T) {
	config := DefaultConfig()
	config.TargetHeight = 400
	controller := New(config, nil)

	if err := controller.StartSimulation(twoTileTower()); err != nil {
		t.Fatalf("StartSimulation() error = %v", err)
	}
	for controller.Phase() == Simulating {
		if err := controller.Step(); err != nil {
			t.Fatalf("Step() error = %v", err)
		}
	}

	if controller.Phase() != Lost {
		t.Errorf("phase = %v, want lost", controller.Phase())
	}
	if !controller.Phase().Terminal() {
		t.Error("lost should be terminal")
	}
}

func TestController_InvalidPhase(t *testing.T) {
	controller := New(coarseConfig(), nil)

	if err := controller.Step(); !errors.Is(err, ErrInvalidPhase) {
		t.Errorf("Step() while building error = %v, want ErrInvalidPhase", err)
	}
	if _, err := controller.Advance(1); !errors.Is(err, ErrInvalidPhase) {
		t.Errorf("Advance() while building error = %v, want ErrInvalidPhase", err)
	}
	if err := controller.Destroy(0); !errors.Is(err, ErrInvalidPhase) {
		t.Errorf("Destroy() while building error = %v, want ErrInvalidPhase", err)
	}

	if err := controller.StartSimulation(twoTileTower()); err != nil {
		t.Fatalf("StartSimulation() error = %v", err)
	}
	if err := controller.StartSimulation(twoTileTower()); !errors.Is(err, ErrInvalidPhase) {
		t.Errorf("second StartSimulation() error = %v, want ErrInvalidPhase", err)
	}
}

// =============================================================================
// Placement validation
// =============================================================================

func TestController_StartSimulationRejects(t *testing.T) {
	quota := map[actor.TileType]int{actor.TileRectangle: 1, actor.TileSquare: 1}

	tests := []struct {
		name  string
		tiles []PlacedTile
		want  error
	}{
		{"no tiles", nil, ErrNoTiles},
		{"unknown type", []PlacedTile{{Type: actor.TileType(42)}}, ErrUnknownTile},
		{
			"quota exceeded",
			[]PlacedTile{
				{Type: actor.TileSquare, Position: mgl64.Vec2{48, 48}},
				{Type: actor.TileSquare, Position: mgl64.Vec2{200, 48}},
			},
			ErrQuotaExceeded,
		},
		{
			"type missing from quota",
			[]PlacedTile{{Type: actor.TileBeam, Position: mgl64.Vec2{48, 48}}},
			ErrQuotaExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := coarseConfig()
			config.Quota = quota
			controller := New(config, nil)

			if err := controller.StartSimulation(tt.tiles); !errors.Is(err, tt.want) {
				t.Errorf("StartSimulation() error = %v, want %v", err, tt.want)
			}
			if controller.Phase() != Building {
				t.Errorf("phase = %v, want building", controller.Phase())
			}
			if len(controller.Bodies()) != 0 {
				t.Errorf("got %d bodies after a rejected start", len(controller.Bodies()))
			}
		})
	}
}

func TestController_StartSimulationClassifiesSupport(t *testing.T) {
	controller := New(coarseConfig(), nil)
	if err := controller.StartSimulation(twoTileTower()); err != nil {
		t.Fatalf("StartSimulation() error = %v", err)
	}

	for _, body := range controller.Bodies() {
		if body.Support != actor.SupportFull {
			t.Errorf("body %d support = %v, want full", body.Index, body.Support)
		}
	}
	if got := controller.TowerHeight(); got != 192 {
		t.Errorf("TowerHeight() = %v, want 192", got)
	}
}

// =============================================================================
// Re-entrancy
// =============================================================================

func TestController_BusyDuringListeners(t *testing.T) {
	config := coarseConfig()
	config.Physics.WakeOnSupportLoss = true
	controller := New(config, nil)

	var stepErr, resetErr error
	controller.OnPhaseChange(func(from, to Phase) {
		if to == Simulating {
			stepErr = controller.Step()
			resetErr = controller.Reset()
		}
	})

	if err := controller.StartSimulation(twoTileTower()); err != nil {
		t.Fatalf("StartSimulation() error = %v", err)
	}
	if !errors.Is(stepErr, ErrBusy) || !errors.Is(resetErr, ErrBusy) {
		t.Errorf("calls from a phase listener returned %v and %v, want ErrBusy", stepErr, resetErr)
	}

	// Let the tower freeze
	for range 12 {
		if err := controller.Step(); err != nil {
			t.Fatalf("Step() error = %v", err)
		}
	}

	var eventErr error
	controller.Events().Subscribe(towerphys.ON_WAKE, func(event towerphys.Event) {
		eventErr = controller.Destroy(0)
	})
	if err := controller.Destroy(0); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	// The square lost its base: it wakes during the next tick
	if err := controller.Step(); err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if !errors.Is(eventErr, ErrBusy) {
		t.Errorf("call from an event listener returned %v, want ErrBusy", eventErr)
	}
}

// =============================================================================
// Advance
// =============================================================================

func TestController_Advance(t *testing.T) {
	controller := New(coarseConfig(), nil)
	if err := controller.StartSimulation(twoTileTower()); err != nil {
		t.Fatalf("StartSimulation() error = %v", err)
	}

	steps := []struct {
		elapsed      float64
		want         int
		elapsedAfter float64
	}{
		{0.625, 2, 0.5},
		{0.125, 1, 0.75},
		{0.1, 0, 0.75},
		{-1, 0, 0.75},
		{10, 8, 2.75}, // capped, the backlog is dropped
		{0.125, 0, 2.75},
	}

	for i, s := range steps {
		got, err := controller.Advance(s.elapsed)
		if err != nil {
			t.Fatalf("call %d: Advance() error = %v", i, err)
		}
		if got != s.want {
			t.Errorf("call %d: Advance(%v) = %d steps, want %d", i, s.elapsed, got, s.want)
		}
		if !almostEqual(controller.Elapsed(), s.elapsedAfter, 1e-9) {
			t.Errorf("call %d: Elapsed() = %v, want %v", i, controller.Elapsed(), s.elapsedAfter)
		}
	}
}

func TestController_AdvanceStopsAtEvaluation(t *testing.T) {
	config := coarseConfig()
	config.MaxStepsPerAdvance = 100
	config.TargetHeight = 100
	controller := New(config, nil)
	if err := controller.StartSimulation(twoTileTower()); err != nil {
		t.Fatalf("StartSimulation() error = %v", err)
	}

	steps, err := controller.Advance(20)
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if steps != config.SurvivalTicks() {
		t.Errorf("Advance() = %d steps, want %d", steps, config.SurvivalTicks())
	}
	if controller.Phase() != Won {
		t.Errorf("phase = %v, want won", controller.Phase())
	}
}

// =============================================================================
// Hazards, Destroy and Reset
// =============================================================================

func TestController_GeneratorIsConsulted(t *testing.T) {
	var generator *pushGenerator
	controller := New(coarseConfig(), func() towerphys.ForceGenerator {
		generator = &pushGenerator{}
		return generator
	})

	if err := controller.StartSimulation(twoTileTower()); err != nil {
		t.Fatalf("StartSimulation() error = %v", err)
	}
	if controller.Generator() != generator {
		t.Fatal("Generator() should return the hazard built for the attempt")
	}
	for range 3 {
		if err := controller.Step(); err != nil {
			t.Fatalf("Step() error = %v", err)
		}
	}

	want := []float64{0, 0.25, 0.5}
	if len(generator.calls) != len(want) {
		t.Fatalf("generator called at %v, want %v", generator.calls, want)
	}
	for i := range want {
		if generator.calls[i] != want[i] {
			t.Errorf("call %d at %v, want %v", i, generator.calls[i], want[i])
		}
	}
	if controller.Bodies()[0].Velocity.X() <= 0 {
		t.Error("the pushed tile should move right")
	}
}

func TestController_Destroy(t *testing.T) {
	controller := New(coarseConfig(), nil)
	if err := controller.StartSimulation(twoTileTower()); err != nil {
		t.Fatalf("StartSimulation() error = %v", err)
	}

	if err := controller.Destroy(1); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if err := controller.Destroy(5); err == nil {
		t.Error("Destroy() of an unknown tile should fail")
	}

	bodies := controller.Bodies()
	if len(bodies) != 2 || !bodies[1].Inert {
		t.Fatalf("destroyed tile should stay in the snapshot as inert, got %+v", bodies)
	}
	if got := controller.TowerHeight(); got != 96 {
		t.Errorf("TowerHeight() = %v, want 96", got)
	}
}

func TestController_ResetReplaysTheAttempt(t *testing.T) {
	controller := New(coarseConfig(), func() towerphys.ForceGenerator { return &pushGenerator{} })

	run := func() []towerphys.BodyState {
		if err := controller.StartSimulation(twoTileTower()); err != nil {
			t.Fatalf("StartSimulation() error = %v", err)
		}
		for range 12 {
			if err := controller.Step(); err != nil {
				t.Fatalf("Step() error = %v", err)
			}
		}
		return controller.Bodies()
	}

	first := run()
	if err := controller.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if controller.Phase() != Building || len(controller.Bodies()) != 0 || controller.Elapsed() != 0 {
		t.Fatal("Reset() should return to an empty build phase")
	}
	if controller.Generator() != nil {
		t.Error("Reset() should drop the hazard")
	}
	second := run()

	for i := range first {
		if first[i] != second[i] {
			t.Errorf("body %d differs after reset:\n%+v\n%+v", i, first[i], second[i])
		}
	}
}

// =============================================================================
// Survived
// =============================================================================

func TestSurvived(t *testing.T) {
	square := func(y float64, inert bool) towerphys.BodyState {
		return towerphys.BodyState{
			Position: mgl64.Vec2{100, y},
			Size:     mgl64.Vec2{96, 96},
			Inert:    inert,
		}
	}

	tests := []struct {
		name   string
		bodies []towerphys.BodyState
		target float64
		want   bool
	}{
		{"top reaches the target", []towerphys.BodyState{square(48, false), square(144, false)}, 192, true},
		{"top below the target", []towerphys.BodyState{square(48, false), square(144, false)}, 193, false},
		{"only an inert tile reaches", []towerphys.BodyState{square(48, false), square(500, true)}, 400, false},
		{"everything below the floor", []towerphys.BodyState{square(-48, false)}, -10, false},
		{"no bodies", nil, 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Survived(tt.bodies, tt.target); got != tt.want {
				t.Errorf("Survived() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPhase_String(t *testing.T) {
	for phase, want := range map[Phase]string{
		Building:   "building",
		Simulating: "simulating",
		Evaluating: "evaluating",
		Won:        "won",
		Lost:       "lost",
		Phase(9):   "Phase(9)",
	} {
		if got := phase.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}

func almostEqual(a, b, epsilon float64) bool {
	if a > b {
		return a-b < epsilon
	}
	return b-a < epsilon
}
