package app

import (
	"sync/atomic"

	"github.com/bft-labs/gesturebridge/internal/domain"
)

// Handoff is the single-slot cell carrying the most recently received
// command from the network listener to the actuation loop.
//
// Writes overwrite unconditionally; unread values are lost. Reads do not
// consume, so the loop keeps re-applying the last command until a new one
// arrives. One writer and one reader may run concurrently.
type Handoff struct {
	v      atomic.Int32
	writes atomic.Uint64
}

// NewHandoff returns a cell holding the idle command.
func NewHandoff() *Handoff {
	return &Handoff{}
}

// Write replaces the current command.
func (h *Handoff) Write(c domain.Command) {
	h.v.Store(int32(c))
	h.writes.Add(1)
}

// Read returns the current command without clearing it.
func (h *Handoff) Read() domain.Command {
	return domain.Command(h.v.Load())
}

// ClearReset sets the cell back to idle if it still holds sentinel. A
// command written after the sentinel is kept.
func (h *Handoff) ClearReset(sentinel domain.Command) bool {
	return h.v.CompareAndSwap(int32(sentinel), int32(domain.CommandNoop))
}

// Clear sets the cell back to idle. It does not count as a write.
func (h *Handoff) Clear() {
	h.v.Store(int32(domain.CommandNoop))
}

// Writes returns how many commands have been written.
func (h *Handoff) Writes() uint64 {
	return h.writes.Load()
}
