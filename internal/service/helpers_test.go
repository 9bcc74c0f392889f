package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	goosc "github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/require"

	logAdapter "github.com/bft-labs/gesturebridge/internal/adapters/log"
	"github.com/bft-labs/gesturebridge/internal/adapters/osc"
	"github.com/bft-labs/gesturebridge/internal/domain"
	"github.com/bft-labs/gesturebridge/internal/ports"
)

var errBoom = errors.New("boom")

// recordingSink implements ports.EventSink.
type recordingSink struct {
	mu     sync.Mutex
	events []ports.StateEvent
	closed bool
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Publish(ctx context.Context, ev ports.StateEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *recordingSink) changes() []domain.Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Change
	for _, ev := range s.events {
		out = append(out, ev.Changes...)
	}
	return out
}

// flakySystem wraps an actuated system and fails Step after n steps.
type flakySystem struct {
	ports.ActuatedSystem
	mu    sync.Mutex
	n     int
	steps int
}

func (f *flakySystem) Step() (domain.Snapshot, error) {
	f.mu.Lock()
	f.steps++
	fail := f.steps > f.n
	f.mu.Unlock()
	if fail {
		return nil, errBoom
	}
	return f.ActuatedSystem.Step()
}

// startRecorder serves an OSC listener collecting every message sent to the
// given addresses.
func startRecorder(t *testing.T, addresses ...string) (*osc.Listener, <-chan *goosc.Message) {
	t.Helper()
	got := make(chan *goosc.Message, 64)
	l := osc.NewListener("127.0.0.1:0", logAdapter.NewNoopLogger())
	for _, a := range addresses {
		l.Handle(a, func(ctx context.Context, msg *goosc.Message) error {
			got <- msg
			return nil
		})
	}
	require.NoError(t, l.Listen())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Serve(context.Background()) }()
	t.Cleanup(func() {
		_ = l.Close()
		<-errCh
	})
	return l, got
}

func newSender(t *testing.T, addr string) *osc.Sender {
	t.Helper()
	s, err := osc.NewSender(addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for run to end")
	}
}

func recvMessage(t *testing.T, ch <-chan *goosc.Message) *goosc.Message {
	t.Helper()
	select {
	case m := <-ch:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}
