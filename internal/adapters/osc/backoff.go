package osc

import (
	"math/rand"
	"time"
)

// Read-error retry delays. The delay doubles per consecutive failure.
const (
	DefaultBackoffInitial = 50 * time.Millisecond
	DefaultBackoffMax     = 2 * time.Second
)

// readRetry paces the listener after failed socket reads.
type readRetry struct {
	min, max time.Duration
	failures int
}

func newReadRetry(min, max time.Duration) *readRetry {
	return &readRetry{min: min, max: max}
}

// Delay is the pause before the next read, without jitter.
func (r *readRetry) Delay() time.Duration {
	d := r.min
	for i := 0; i < r.failures && d < r.max; i++ {
		d *= 2
	}
	if d > r.max {
		d = r.max
	}
	return d
}

// Pause sleeps for Delay plus up to 20% jitter either way, then records the
// failure. It returns false if stop closes first.
func (r *readRetry) Pause(stop <-chan struct{}) bool {
	d := r.Delay()
	d += time.Duration(float64(d) * 0.2 * (2*rand.Float64() - 1))
	r.failures++

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-stop:
		return false
	case <-t.C:
		return true
	}
}

// Succeeded clears the failure count after a good read.
func (r *readRetry) Succeeded() { r.failures = 0 }
