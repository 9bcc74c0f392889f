package ports

import (
	"context"

	"github.com/bft-labs/gesturebridge/internal/domain"
)

// StateEvent is the set of changes detected on one actuation tick.
type StateEvent struct {
	// Session identifies the bridge run that produced the event.
	Session string

	// Tick is the actuation tick number.
	Tick uint64

	// At is the detection time in unix nanoseconds.
	At int64

	// Changes are in watch set order.
	Changes []domain.Change

	// Values holds every watched value after the tick, in watch set order.
	Values []byte
}

// EventSink delivers state-change events to an effects subsystem.
// Publish must not block on acknowledgement.
type EventSink interface {
	Name() string
	Publish(ctx context.Context, ev StateEvent) error
	Close() error
}
