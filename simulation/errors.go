package simulation

import "errors"

var (
	// ErrInvalidPhase is returned by operations called in a phase that does not allow them
	ErrInvalidPhase = errors.New("simulation: invalid phase")
	// ErrNoTiles is returned when the simulation is started without any placed tile
	ErrNoTiles = errors.New("simulation: no tiles placed")
	// ErrQuotaExceeded is returned when the placements use more tiles of a type than the level allows
	ErrQuotaExceeded = errors.New("simulation: tile quota exceeded")
	// ErrBusy is returned by calls made while a tick is running, from an event or phase listener
	ErrBusy = errors.New("simulation: step in progress")
	// ErrUnknownTile is returned for a placement whose type is not in the catalog
	ErrUnknownTile = errors.New("simulation: unknown tile type")
)
