package challenge

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spacescrapers/towerphys"
	"github.com/spacescrapers/towerphys/actor"
)

func TestContactResistance(t *testing.T) {
	airborne := tile(0, actor.TileSquare, mgl64.Vec2{300, 400})

	withProbes := func(probes actor.Probes) towerphys.BodyState {
		body := airborne
		body.Probes = probes
		return body
	}

	tests := []struct {
		name string
		body towerphys.BodyState
		want float64
	}{
		{"on the floor", tile(0, actor.TileSquare, mgl64.Vec2{300, 48}), 0.1},
		{"barely above the floor", tile(0, actor.TileSquare, mgl64.Vec2{300, 52}), 0.1},
		{"center probe", withProbes(actor.Probes{actor.ProbeCenter: true}), 0.15},
		{"both corners", withProbes(actor.Probes{actor.ProbeLeft: true, actor.ProbeRight: true}), 0.15},
		{"one corner", withProbes(actor.Probes{actor.ProbeRight: true}), 0.6},
		{"airborne", airborne, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := contactResistance(tt.body); got != tt.want {
				t.Errorf("contactResistance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWindFactors(t *testing.T) {
	if got := massFactor(0.8); math.Abs(got-1/1.4) > 1e-12 {
		t.Errorf("massFactor(0.8) = %v, want %v", got, 1/1.4)
	}
	if got := massFactor(0); got != 1 {
		t.Errorf("massFactor(0) = %v, want 1", got)
	}

	if got := areaFactor(mgl64.Vec2{96, 96}); got != 1 {
		t.Errorf("areaFactor(square) = %v, want 1", got)
	}
	if got := areaFactor(mgl64.Vec2{192, 96}); math.Abs(got-math.Sqrt2) > 1e-12 {
		t.Errorf("areaFactor(rectangle) = %v, want √2", got)
	}
	if got := areaFactor(mgl64.Vec2{400, 400}); got != 2 {
		t.Errorf("areaFactor(large) = %v, want 2", got)
	}
}

func TestWind_Exposure(t *testing.T) {
	wind := NewWind(Config{}, DefaultArena())
	target := tile(1, actor.TileSquare, mgl64.Vec2{400, 300})

	tests := []struct {
		name   string
		others []towerphys.BodyState
		want   float64
	}{
		{"in the open", nil, 1},
		{"upwind neighbour", []towerphys.BodyState{tile(0, actor.TileSquare, mgl64.Vec2{304, 300})}, 1 - 0.36*0.7},
		{"downwind neighbour", []towerphys.BodyState{tile(0, actor.TileSquare, mgl64.Vec2{496, 300})}, 1},
		{"far upwind", []towerphys.BodyState{tile(0, actor.TileSquare, mgl64.Vec2{200, 300})}, 1},
		{
			"buried behind a wall",
			[]towerphys.BodyState{
				tile(0, actor.TileSquare, mgl64.Vec2{399, 300}),
				tile(2, actor.TileSquare, mgl64.Vec2{398, 300}),
				tile(3, actor.TileSquare, mgl64.Vec2{397, 300}),
				tile(4, actor.TileSquare, mgl64.Vec2{396, 300}),
			},
			0.1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bodies := append([]towerphys.BodyState{target}, tt.others...)
			if got := wind.exposure(target, bodies); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("exposure() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWind_PushesWithForces(t *testing.T) {
	wind := NewWind(Config{Seed: 1}, DefaultArena())
	floating := tile(0, actor.TileSquare, mgl64.Vec2{300, 400})
	inert := tile(1, actor.TileSquare, mgl64.Vec2{800, 400})
	inert.Inert = true
	bodies := []towerphys.BodyState{floating, inert}

	injections := wind.Generate(1.5, dt, bodies)
	if len(injections) != 1 {
		t.Fatalf("got %d injections, want 1", len(injections))
	}

	injection := injections[0]
	if injection.Target.Body != 0 || injection.Kind != towerphys.Force {
		t.Errorf("injection = %+v, want a force on tile 0", injection)
	}

	current := 25 * (1 + math.Sin(dt*2)*0.2)
	wantX := current * massFactor(floating.Mass) * floating.Mass * frameRate
	if math.Abs(injection.Vector.X()-wantX) > 1e-9 {
		t.Errorf("force x = %v, want %v", injection.Vector.X(), wantX)
	}
	if limit := wind.Turbulence * floating.Mass * frameRate; math.Abs(injection.Vector.Y()) > limit {
		t.Errorf("force y = %v beyond the turbulence %v", injection.Vector.Y(), limit)
	}
	if math.Abs(wind.Current()-current) > 1e-9 {
		t.Errorf("Current() = %v, want %v", wind.Current(), current)
	}
}

func TestWind_BlowsLeft(t *testing.T) {
	wind := NewWind(Config{}, DefaultArena())
	wind.Direction = -1

	injections := wind.Generate(1.5, dt, []towerphys.BodyState{tile(0, actor.TileSquare, mgl64.Vec2{300, 400})})
	if len(injections) != 1 || injections[0].Vector.X() >= 0 {
		t.Errorf("injections = %+v, want one force pointing left", injections)
	}
	if wind.Current() >= 0 {
		t.Errorf("Current() = %v, want negative", wind.Current())
	}
}

func TestWind_StopsAfterDuration(t *testing.T) {
	wind := NewWind(Config{}, DefaultArena())
	bodies := []towerphys.BodyState{tile(0, actor.TileSquare, mgl64.Vec2{300, 400})}

	run(wind, 0, 6, bodies)

	if !wind.Finished() || wind.Active() {
		t.Error("wind should be over after 1.5s + 4s")
	}
	if wind.Current() != 0 {
		t.Errorf("Current() = %v after the wind stopped", wind.Current())
	}
	if injections := wind.Generate(6, dt, bodies); injections != nil {
		t.Error("finished wind should not push")
	}
}

func TestWind_SameSeedSameGusts(t *testing.T) {
	bodies := []towerphys.BodyState{
		tile(0, actor.TileRectangle, mgl64.Vec2{300, 48}),
		tile(1, actor.TileBeam, mgl64.Vec2{300, 192}),
	}

	first := run(NewWind(Config{Seed: 42}, DefaultArena()), 1.5, 3, bodies)
	second := run(NewWind(Config{Seed: 42}, DefaultArena()), 1.5, 3, bodies)
	other := run(NewWind(Config{Seed: 43}, DefaultArena()), 1.5, 3, bodies)

	if len(first) == 0 || len(first) != len(second) {
		t.Fatalf("got %d and %d injections", len(first), len(second))
	}
	differs := false
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("injection %d differs: %+v vs %+v", i, first[i], second[i])
		}
		if first[i] != other[i] {
			differs = true
		}
	}
	if !differs {
		t.Error("another seed should give other turbulence")
	}
}
