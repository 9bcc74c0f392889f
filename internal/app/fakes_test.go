package app

import (
	"context"
	"errors"
	"sync"

	"github.com/bft-labs/gesturebridge/internal/domain"
	"github.com/bft-labs/gesturebridge/internal/ports"
)

type sentMessage struct {
	address string
	args    []interface{}
}

// recordingSender implements ports.CommandSender.
type recordingSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (s *recordingSender) Send(ctx context.Context, address string, args ...interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMessage{address: address, args: args})
	return nil
}

func (s *recordingSender) Commands() []domain.Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Command
	for _, m := range s.sent {
		out = append(out, m.args[0].(domain.Command))
	}
	return out
}

// fakeSystem implements ports.ActuatedSystem with a scripted RAM image.
type fakeSystem struct {
	actions []domain.Action
	ram     domain.Snapshot

	// script, if set, mutates ram before each step returns.
	script func(step int, ram domain.Snapshot)

	applied []domain.Action
	steps   int
	resets  int

	applyErr error
	stepErr  error
}

func newFakeSystem(size int) *fakeSystem {
	actions := make([]domain.Action, 18)
	for i := range actions {
		actions[i] = domain.Action(100 + i)
	}
	return &fakeSystem{actions: actions, ram: make(domain.Snapshot, size)}
}

func (f *fakeSystem) LegalActions() []domain.Action { return f.actions }

func (f *fakeSystem) Apply(a domain.Action) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applied = append(f.applied, a)
	return nil
}

func (f *fakeSystem) Step() (domain.Snapshot, error) {
	if f.stepErr != nil {
		return nil, f.stepErr
	}
	f.steps++
	if f.script != nil {
		f.script(f.steps, f.ram)
	}
	return f.ram.Clone(), nil
}

func (f *fakeSystem) Reset() error {
	f.resets++
	for i := range f.ram {
		f.ram[i] = 0
	}
	return nil
}

func (f *fakeSystem) InitialState() (domain.Snapshot, error) {
	return make(domain.Snapshot, len(f.ram)), nil
}

// recordingSink implements ports.EventSink.
type recordingSink struct {
	name   string
	mu     sync.Mutex
	events []ports.StateEvent
	err    error
	closed bool
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Publish(ctx context.Context, ev ports.StateEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *recordingSink) Events() []ports.StateEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.StateEvent(nil), s.events...)
}

var errBoom = errors.New("boom")
