package simulation

import "fmt"

// Phase is the state of one level attempt
type Phase int

const (
	// Building accepts placements; bodies do not move
	Building Phase = iota
	// Simulating runs fixed ticks until the survival window ends
	Simulating
	// Evaluating checks the settled tower against the target height
	Evaluating
	Won
	Lost
)

func (p Phase) String() string {
	switch p {
	case Building:
		return "building"
	case Simulating:
		return "simulating"
	case Evaluating:
		return "evaluating"
	case Won:
		return "won"
	case Lost:
		return "lost"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Terminal reports whether the attempt is over
func (p Phase) Terminal() bool {
	return p == Won || p == Lost
}

// PhaseListener is called after every transition
type PhaseListener func(from, to Phase)

// TickListener is called after every fixed tick with the number of ticks run so far
type TickListener func(tick int)
