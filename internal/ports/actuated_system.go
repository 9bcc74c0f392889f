package ports

import "github.com/bft-labs/gesturebridge/internal/domain"

// ActuatedSystem is the stateful system driven by commands and stepped once
// per tick (for example an emulated game).
type ActuatedSystem interface {
	// LegalActions returns the native action set. Index 0 must be the idle
	// action; a Command is an index into this slice.
	LegalActions() []domain.Action

	// Apply sets the action used by the next Step.
	Apply(action domain.Action) error

	// Step advances the system by exactly one step and returns a copy of
	// the resulting observable state.
	Step() (domain.Snapshot, error)

	// Reset returns the system to its initial configuration.
	Reset() error

	// InitialState returns the observable state of a freshly reset system.
	InitialState() (domain.Snapshot, error)
}
