package app

import "github.com/bft-labs/gesturebridge/internal/domain"

// Detector compares each snapshot with the last seen value of every watched
// offset. It is owned by the actuation loop and not safe for concurrent use.
type Detector struct {
	offsets []int
	last    []byte
}

// NewDetector creates a detector whose last-seen table is all zeros.
func NewDetector(watch domain.WatchSet) *Detector {
	offsets := watch.Offsets()
	return &Detector{
		offsets: offsets,
		last:    make([]byte, len(offsets)),
	}
}

// Detect returns the watched offsets whose value changed, in watch order,
// and records the new values. Offsets past the end of s are skipped.
func (d *Detector) Detect(s domain.Snapshot) []domain.Change {
	var changes []domain.Change
	for i, off := range d.offsets {
		if off >= len(s) {
			continue
		}
		v := s[off]
		if v == d.last[i] {
			continue
		}
		d.last[i] = v
		changes = append(changes, domain.Change{Offset: off, Value: v})
	}
	return changes
}

// Reset zeroes the last-seen table.
func (d *Detector) Reset() {
	clear(d.last)
}

// Values returns a copy of the last-seen table in watch order.
func (d *Detector) Values() []byte {
	return append([]byte(nil), d.last...)
}
