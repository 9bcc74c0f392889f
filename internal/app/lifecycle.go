package app

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/gesturebridge/internal/domain"
	"github.com/bft-labs/gesturebridge/internal/ports"
)

// ShutdownTimeout bounds how long Stop waits for a service run to end.
const ShutdownTimeout = 5 * time.Second

// State is the lifecycle state of a bridge or controller service.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

var stateNames = [...]string{"Stopped", "Starting", "Running", "Stopping", "Crashed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// next lists the states reachable from each state.
var next = map[State][]State{
	StateStopped:  {StateStarting},
	StateStarting: {StateRunning, StateStopping, StateCrashed},
	StateRunning:  {StateStopping, StateCrashed},
	StateStopping: {StateStopped, StateCrashed},
	StateCrashed:  {StateStarting},
}

func checkTransition(from, to State) error {
	for _, s := range next[from] {
		if s == to {
			return nil
		}
	}
	if from == StateStopped || from == StateCrashed {
		return domain.ErrNotRunning
	}
	return domain.ErrAlreadyRunning
}

// StateObserver is notified after every accepted transition.
type StateObserver interface {
	OnStateChange(previous, current State, reason string)
}

// Lifecycle is the state machine of one service run: its state, the error
// that crashed it, and the cancel func and done channel of the current run.
type Lifecycle struct {
	logger   ports.Logger
	observer StateObserver

	mu     sync.RWMutex
	state  State
	cause  error
	cancel context.CancelFunc
	done   <-chan struct{}
}

// NewLifecycle creates a lifecycle in StateStopped. observer may be nil.
func NewLifecycle(logger ports.Logger, observer StateObserver) *Lifecycle {
	return &Lifecycle{logger: logger, observer: observer}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// TransitionTo moves to newState or returns ErrNotRunning/ErrAlreadyRunning
// when the move is not allowed. Entering StateStarting clears the cause.
func (l *Lifecycle) TransitionTo(newState State, reason string) error {
	l.mu.Lock()
	prev := l.state
	if err := checkTransition(prev, newState); err != nil {
		l.mu.Unlock()
		return err
	}
	l.state = newState
	if newState == StateStarting {
		l.cause = nil
	}
	l.mu.Unlock()

	if l.observer != nil {
		l.observer.OnStateChange(prev, newState, reason)
	}
	l.logger.Info("service state",
		ports.String("from", prev.String()),
		ports.String("to", newState.String()),
		ports.String("reason", reason),
	)
	return nil
}

// Crash records err, keeping the first cause of a run, and moves to
// StateCrashed.
func (l *Lifecycle) Crash(err error) {
	l.mu.Lock()
	if l.cause == nil {
		l.cause = err
	}
	l.mu.Unlock()

	reason := "crashed"
	if err != nil {
		reason = err.Error()
	}
	_ = l.TransitionTo(StateCrashed, reason)
}

// Err returns the cause of the last crash, or nil.
func (l *Lifecycle) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cause
}

// CanStart reports whether a new run may begin.
func (l *Lifecycle) CanStart() bool {
	s := l.State()
	return s == StateStopped || s == StateCrashed
}

// CanStop reports whether there is a run to stop.
func (l *Lifecycle) CanStop() bool {
	s := l.State()
	return s == StateStarting || s == StateRunning
}

// Track registers the current run: cancel ends it and done is closed once
// it has ended.
func (l *Lifecycle) Track(cancel context.CancelFunc, done <-chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancel = cancel
	l.done = done
}

// Done returns the done channel of the tracked run. With no run tracked it
// returns a closed channel.
func (l *Lifecycle) Done() <-chan struct{} {
	l.mu.RLock()
	done := l.done
	l.mu.RUnlock()
	if done == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return done
}

// Shutdown cancels the tracked run and waits up to timeout for it to end.
func (l *Lifecycle) Shutdown(timeout time.Duration) error {
	l.mu.RLock()
	cancel := l.cancel
	l.mu.RUnlock()
	if cancel != nil {
		cancel()
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-l.Done():
		return nil
	case <-t.C:
		l.logger.Warn("service did not stop in time", ports.Duration("timeout", timeout))
		return domain.ErrShutdownTimeout
	}
}
