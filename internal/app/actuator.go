package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/bft-labs/gesturebridge/internal/domain"
	"github.com/bft-labs/gesturebridge/internal/ports"
)

// DefaultTickInterval is the pause between actuation ticks.
const DefaultTickInterval = 5 * time.Millisecond

// LoopConfig configures the actuation loop.
type LoopConfig struct {
	// TickInterval is the pause after each tick. Zero yields only.
	TickInterval time.Duration

	// ResetCommand is the sentinel that resets the actuated system.
	ResetCommand domain.Command
}

// TickInfo describes one completed tick.
type TickInfo struct {
	Tick uint64

	// Command is the effective command: the reset sentinel on a reset tick,
	// otherwise the command actually applied (idle for invalid codes).
	Command domain.Command

	Reset   bool
	Changes []domain.Change
}

// Loop is the actuation loop. Each tick reads the handoff, resets or
// applies and steps the actuated system, then diffs the watched state.
type Loop struct {
	system    ports.ActuatedSystem
	handoff   *Handoff
	detector  *Detector
	publisher *Publisher
	logger    ports.Logger

	reset    domain.Command
	interval atomic.Int64
	onTick   func(TickInfo)

	actions []domain.Action
	ticks   atomic.Uint64
	resets  atomic.Uint64
	invalid atomic.Uint64
}

// NewLoop creates an actuation loop. publisher may be nil.
func NewLoop(cfg LoopConfig, system ports.ActuatedSystem, handoff *Handoff, detector *Detector, publisher *Publisher, logger ports.Logger) *Loop {
	l := &Loop{
		system:    system,
		handoff:   handoff,
		detector:  detector,
		publisher: publisher,
		logger:    logger,
		reset:     cfg.ResetCommand,
	}
	l.interval.Store(int64(cfg.TickInterval))
	return l
}

// OnTick registers an observer called synchronously after every tick.
// It must be set before Run.
func (l *Loop) OnTick(fn func(TickInfo)) {
	l.onTick = fn
}

// SetTickInterval changes the pause between ticks. Safe to call while the
// loop runs.
func (l *Loop) SetTickInterval(d time.Duration) {
	if d < 0 {
		d = 0
	}
	l.interval.Store(int64(d))
}

// TickInterval returns the current pause between ticks.
func (l *Loop) TickInterval() time.Duration {
	return time.Duration(l.interval.Load())
}

// Prepare puts a run into its initial state: the actuated system freshly
// reset, the handoff idle and the last-seen table zeroed. Counters carry
// over.
func (l *Loop) Prepare() error {
	if err := l.system.Reset(); err != nil {
		return fmt.Errorf("reset actuated system: %w", err)
	}
	l.handoff.Clear()
	l.detector.Reset()
	return nil
}

// Run ticks until ctx is done (returning nil) or the actuated system fails.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("actuation loop started",
		ports.Duration("tick_interval", l.TickInterval()),
		ports.Int("reset_command", int(l.reset)),
	)
	for {
		if ctx.Err() != nil {
			l.logger.Info("actuation loop stopped", ports.Uint64("ticks", l.ticks.Load()))
			return nil
		}
		if _, err := l.Tick(ctx); err != nil {
			return err
		}
		if !l.pause(ctx) {
			l.logger.Info("actuation loop stopped", ports.Uint64("ticks", l.ticks.Load()))
			return nil
		}
	}
}

// Tick runs exactly one tick.
func (l *Loop) Tick(ctx context.Context) (TickInfo, error) {
	if l.actions == nil {
		actions := l.system.LegalActions()
		if len(actions) == 0 {
			return TickInfo{}, errors.New("actuated system has no legal actions")
		}
		l.actions = actions
	}

	info := TickInfo{Tick: l.ticks.Add(1)}
	cmd := l.handoff.Read()

	if cmd == l.reset {
		if err := l.system.Reset(); err != nil {
			return info, fmt.Errorf("reset actuated system: %w", err)
		}
		l.handoff.ClearReset(l.reset)
		l.resets.Add(1)
		l.logger.Info("actuated system reset", ports.Uint64("tick", info.Tick))
		info.Command = cmd
		info.Reset = true
		l.notify(info)
		return info, nil
	}

	action, effective := l.translate(cmd)
	info.Command = effective
	if err := l.system.Apply(action); err != nil {
		return info, fmt.Errorf("apply action %d: %w", action, err)
	}
	snap, err := l.system.Step()
	if err != nil {
		return info, fmt.Errorf("step actuated system: %w", err)
	}

	info.Changes = l.detector.Detect(snap)
	if len(info.Changes) > 0 && l.publisher != nil {
		l.publisher.Publish(ctx, info.Tick, info.Changes, l.detector.Values())
	}
	l.notify(info)
	return info, nil
}

// translate maps a command to a native action. Idle and every code outside
// the legal action set map to the idle action.
func (l *Loop) translate(cmd domain.Command) (domain.Action, domain.Command) {
	if cmd > 0 && int(cmd) < len(l.actions) {
		return l.actions[cmd], cmd
	}
	if cmd != domain.CommandNoop {
		if l.invalid.Add(1) == 1 {
			l.logger.Warn("invalid command treated as idle", ports.Command(cmd))
		} else {
			l.logger.Debug("invalid command treated as idle", ports.Command(cmd))
		}
	}
	return l.actions[0], domain.CommandNoop
}

func (l *Loop) notify(info TickInfo) {
	if l.onTick != nil {
		l.onTick(info)
	}
}

// pause waits for the tick interval. It returns false if ctx is done.
func (l *Loop) pause(ctx context.Context) bool {
	d := l.TickInterval()
	if d <= 0 {
		runtime.Gosched()
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Stats returns tick, reset and invalid-command counters.
func (l *Loop) Stats() (ticks, resets, invalid uint64) {
	return l.ticks.Load(), l.resets.Load(), l.invalid.Load()
}
