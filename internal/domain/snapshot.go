package domain

import (
	"fmt"
	"sort"
)

// Snapshot is the observable state of the actuated system after one step,
// typically a byte-addressable RAM image. A Snapshot is not modified after
// it is produced; the next step produces a new one.
type Snapshot []byte

// Clone returns a copy of s.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}

// Change is one watched offset whose value differs from the last seen one.
type Change struct {
	Offset int
	Value  byte
}

// DefaultWatchOffsets are the RAM offsets watched when none are configured.
var DefaultWatchOffsets = []int{7, 58, 104, 120, 121, 122, 123}

// WatchSet is the fixed, ordered set of snapshot offsets of interest.
// It is built once at startup and never mutated.
type WatchSet struct {
	offsets []int
}

// NewWatchSet builds a WatchSet. Order is preserved; duplicates and negative
// offsets are rejected.
func NewWatchSet(offsets []int) (WatchSet, error) {
	if len(offsets) == 0 {
		return WatchSet{}, fmt.Errorf("%w: empty watch set", ErrInvalidConfig)
	}
	seen := make(map[int]bool, len(offsets))
	out := make([]int, 0, len(offsets))
	for _, off := range offsets {
		if off < 0 {
			return WatchSet{}, fmt.Errorf("%w: negative watch offset %d", ErrInvalidConfig, off)
		}
		if seen[off] {
			return WatchSet{}, fmt.Errorf("%w: duplicate watch offset %d", ErrInvalidConfig, off)
		}
		seen[off] = true
		out = append(out, off)
	}
	return WatchSet{offsets: out}, nil
}

// Offsets returns a copy of the offsets in watch order.
func (w WatchSet) Offsets() []int {
	return append([]int(nil), w.offsets...)
}

// Len returns the number of watched offsets.
func (w WatchSet) Len() int {
	return len(w.offsets)
}

// Max returns the largest watched offset, or -1 for an empty set.
func (w WatchSet) Max() int {
	if len(w.offsets) == 0 {
		return -1
	}
	sorted := append([]int(nil), w.offsets...)
	sort.Ints(sorted)
	return sorted[len(sorted)-1]
}

// CheckFits returns ErrWatchOffsetOutOfRange if any offset is not addressable
// in a snapshot of the given size.
func (w WatchSet) CheckFits(size int) error {
	if m := w.Max(); m >= size {
		return fmt.Errorf("%w: offset %d, snapshot size %d", ErrWatchOffsetOutOfRange, m, size)
	}
	return nil
}
