package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bft-labs/gesturebridge/internal/domain"
	"github.com/bft-labs/gesturebridge/internal/ports"
)

func newTestLoop(t *testing.T, sys *fakeSystem, sinks ...*recordingSink) (*Loop, *Handoff) {
	t.Helper()
	h := NewHandoff()
	var pub *Publisher
	if len(sinks) > 0 {
		ss := make([]ports.EventSink, 0, len(sinks))
		for _, s := range sinks {
			ss = append(ss, s)
		}
		pub = NewPublisher("test", ss, &mockLogger{})
	}
	loop := NewLoop(LoopConfig{ResetCommand: domain.DefaultResetCommand}, sys, h, NewDetector(mustWatch(t, 7, 58)), pub, &mockLogger{})
	return loop, h
}

func tickN(t *testing.T, l *Loop, n int) []TickInfo {
	t.Helper()
	out := make([]TickInfo, 0, n)
	for i := 0; i < n; i++ {
		info, err := l.Tick(context.Background())
		if err != nil {
			t.Fatalf("Tick %d: %v", i, err)
		}
		out = append(out, info)
	}
	return out
}

func TestLoop_HeldCommandAppliedEveryTick(t *testing.T) {
	sys := newFakeSystem(128)
	loop, h := newTestLoop(t, sys)

	h.Write(2)
	tickN(t, loop, 5)

	if len(sys.applied) != 5 {
		t.Fatalf("applied %d actions, want 5", len(sys.applied))
	}
	for i, a := range sys.applied {
		if a != sys.actions[2] {
			t.Errorf("tick %d applied %d, want %d", i, a, sys.actions[2])
		}
	}
	if sys.steps != 5 {
		t.Errorf("steps = %d, want 5", sys.steps)
	}
}

func TestLoop_IdleStillSteps(t *testing.T) {
	sys := newFakeSystem(128)
	loop, _ := newTestLoop(t, sys)

	infos := tickN(t, loop, 3)
	if sys.steps != 3 {
		t.Errorf("steps = %d, want 3", sys.steps)
	}
	for _, info := range infos {
		if info.Command != domain.CommandNoop || info.Reset {
			t.Errorf("tick %d = %+v, want idle", info.Tick, info)
		}
	}
	if sys.applied[0] != sys.actions[0] {
		t.Errorf("idle applied %d, want %d", sys.applied[0], sys.actions[0])
	}
}

func TestLoop_ResetWhileHolding(t *testing.T) {
	sys := newFakeSystem(128)
	loop, h := newTestLoop(t, sys)

	h.Write(4)
	tickN(t, loop, 2)

	h.Write(domain.DefaultResetCommand)
	info, err := loop.Tick(context.Background())
	if err != nil {
		t.Fatalf("reset tick: %v", err)
	}
	if !info.Reset || info.Command != domain.DefaultResetCommand {
		t.Fatalf("reset tick = %+v", info)
	}
	if sys.resets != 1 {
		t.Fatalf("resets = %d, want 1", sys.resets)
	}
	if sys.steps != 2 || len(sys.applied) != 2 {
		t.Errorf("reset tick stepped: steps=%d applied=%d", sys.steps, len(sys.applied))
	}

	// No further write: the next tick is idle, not another reset.
	info, err = loop.Tick(context.Background())
	if err != nil {
		t.Fatalf("post-reset tick: %v", err)
	}
	if info.Reset || info.Command != domain.CommandNoop {
		t.Errorf("post-reset tick = %+v, want idle", info)
	}
	if sys.resets != 1 {
		t.Errorf("resets = %d, want 1", sys.resets)
	}
	if last := sys.applied[len(sys.applied)-1]; last != sys.actions[0] {
		t.Errorf("post-reset applied %d, want idle action", last)
	}

	_, resets, _ := loop.Stats()
	if resets != 1 {
		t.Errorf("Stats resets = %d, want 1", resets)
	}
}

func TestLoop_InvalidCommandTreatedAsIdle(t *testing.T) {
	for _, cmd := range []domain.Command{18, 99, -7} {
		sys := newFakeSystem(128)
		loop, h := newTestLoop(t, sys)

		h.Write(cmd)
		infos := tickN(t, loop, 2)
		for _, info := range infos {
			if info.Command != domain.CommandNoop {
				t.Errorf("command %d: effective = %d, want idle", cmd, info.Command)
			}
		}
		for _, a := range sys.applied {
			if a != sys.actions[0] {
				t.Errorf("command %d: applied %d, want idle action", cmd, a)
			}
		}
		if _, _, invalid := loop.Stats(); invalid != 2 {
			t.Errorf("command %d: invalid = %d, want 2", cmd, invalid)
		}
	}
}

func TestLoop_PublishesWatchedChanges(t *testing.T) {
	sys := newFakeSystem(128)
	sys.script = func(step int, ram domain.Snapshot) {
		if step == 2 {
			ram[7] = 3
			ram[0] = 42
		}
	}
	sink := &recordingSink{name: "rec"}
	loop, _ := newTestLoop(t, sys, sink)

	infos := tickN(t, loop, 4)

	evs := sink.Events()
	if len(evs) != 1 {
		t.Fatalf("published %d events, want 1", len(evs))
	}
	ev := evs[0]
	if ev.Tick != infos[1].Tick || ev.Session != "test" {
		t.Errorf("event = %+v", ev)
	}
	if len(ev.Changes) != 1 || ev.Changes[0] != (domain.Change{Offset: 7, Value: 3}) {
		t.Errorf("changes = %v, want [(7,3)]", ev.Changes)
	}
	if string(ev.Values) != string([]byte{3, 0}) {
		t.Errorf("values = %v, want [3 0]", ev.Values)
	}
}

func TestLoop_SinkFailureDoesNotStopLoop(t *testing.T) {
	sys := newFakeSystem(128)
	sys.script = func(step int, ram domain.Snapshot) { ram[58] = byte(step) }
	sink := &recordingSink{name: "bad", err: errBoom}
	loop, _ := newTestLoop(t, sys, sink)

	tickN(t, loop, 3)
	if got := len(sink.Events()); got != 3 {
		t.Errorf("sink saw %d events, want 3", got)
	}
}

func TestLoop_CollaboratorErrors(t *testing.T) {
	t.Run("apply", func(t *testing.T) {
		sys := newFakeSystem(128)
		sys.applyErr = errBoom
		loop, _ := newTestLoop(t, sys)
		if _, err := loop.Tick(context.Background()); !errors.Is(err, errBoom) {
			t.Errorf("Tick() error = %v, want %v", err, errBoom)
		}
	})
	t.Run("step", func(t *testing.T) {
		sys := newFakeSystem(128)
		sys.stepErr = errBoom
		loop, _ := newTestLoop(t, sys)
		if _, err := loop.Tick(context.Background()); !errors.Is(err, errBoom) {
			t.Errorf("Tick() error = %v, want %v", err, errBoom)
		}
	})
	t.Run("no actions", func(t *testing.T) {
		sys := newFakeSystem(128)
		sys.actions = nil
		loop, _ := newTestLoop(t, sys)
		if _, err := loop.Tick(context.Background()); err == nil {
			t.Error("Tick() error = nil, want error")
		}
	})
}

func TestLoop_RunStopsOnCancel(t *testing.T) {
	sys := newFakeSystem(128)
	loop, _ := newTestLoop(t, sys)
	loop.SetTickInterval(time.Millisecond)

	ticked := make(chan struct{}, 1)
	loop.OnTick(func(TickInfo) {
		select {
		case ticked <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	select {
	case <-ticked:
	case <-time.After(2 * time.Second):
		t.Fatal("loop never ticked")
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestLoop_RunReturnsSystemError(t *testing.T) {
	sys := newFakeSystem(128)
	sys.stepErr = errBoom
	loop, _ := newTestLoop(t, sys)

	if err := loop.Run(context.Background()); !errors.Is(err, errBoom) {
		t.Errorf("Run() = %v, want %v", err, errBoom)
	}
}

func TestLoop_SetTickInterval(t *testing.T) {
	loop, _ := newTestLoop(t, newFakeSystem(8))
	loop.SetTickInterval(20 * time.Millisecond)
	if loop.TickInterval() != 20*time.Millisecond {
		t.Errorf("TickInterval() = %v", loop.TickInterval())
	}
	loop.SetTickInterval(-time.Second)
	if loop.TickInterval() != 0 {
		t.Errorf("negative interval stored as %v, want 0", loop.TickInterval())
	}
}

func TestLoop_PrepareRestoresInitialState(t *testing.T) {
	sys := newFakeSystem(128)
	sys.script = func(step int, ram domain.Snapshot) { ram[7] = 5 }
	loop, h := newTestLoop(t, sys)

	h.Write(4)
	infos := tickN(t, loop, 2)
	if len(infos[0].Changes) != 1 || len(infos[1].Changes) != 0 {
		t.Fatalf("changes before prepare = %v, %v", infos[0].Changes, infos[1].Changes)
	}

	if err := loop.Prepare(); err != nil {
		t.Fatalf("Prepare() = %v", err)
	}
	if sys.resets != 1 {
		t.Errorf("resets = %d, want 1", sys.resets)
	}
	if got := h.Read(); got != domain.CommandNoop {
		t.Errorf("handoff = %d, want idle", got)
	}
	if h.Writes() != 1 {
		t.Errorf("writes = %d, want 1", h.Writes())
	}

	info := tickN(t, loop, 1)[0]
	if info.Command != domain.CommandNoop {
		t.Errorf("first command after prepare = %d, want idle", info.Command)
	}
	want := domain.Change{Offset: 7, Value: 5}
	if len(info.Changes) != 1 || info.Changes[0] != want {
		t.Errorf("changes after prepare = %v, want [%v]", info.Changes, want)
	}
}
