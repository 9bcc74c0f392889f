package service

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	goosc "github.com/hypebeast/go-osc/osc"

	"github.com/bft-labs/gesturebridge/internal/adapters/osc"
	"github.com/bft-labs/gesturebridge/internal/app"
	"github.com/bft-labs/gesturebridge/internal/domain"
	"github.com/bft-labs/gesturebridge/internal/ports"
)

// BridgeConfig configures the actuator side.
type BridgeConfig struct {
	// ListenAddr is the UDP address receiving /action (host:port).
	ListenAddr string

	// TickInterval is the pause between actuation ticks.
	TickInterval time.Duration

	// WatchOffsets are the snapshot offsets monitored for change.
	WatchOffsets []int

	// ResetCommand is the sentinel that resets the actuated system. It must
	// not be a legal action index.
	ResetCommand domain.Command
}

// DefaultBridgeConfig returns the standard actuator configuration.
func DefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		ListenAddr:   app.DefaultActionAddr,
		TickInterval: app.DefaultTickInterval,
		WatchOffsets: append([]int(nil), domain.DefaultWatchOffsets...),
		ResetCommand: domain.DefaultResetCommand,
	}
}

// BridgeStats is a point-in-time view of bridge counters.
type BridgeStats struct {
	Ticks        uint64
	Resets       uint64
	Invalid      uint64
	Received     uint64
	Dropped      uint64
	Published    uint64
	SinkFailures uint64
	Command      domain.Command
}

// Bridge receives commands over OSC and drives an actuated system with
// them, publishing watched state changes.
type Bridge struct {
	cfg     BridgeConfig
	watch   domain.WatchSet
	session string
	system  ports.ActuatedSystem
	logger  ports.Logger

	handoff   *app.Handoff
	publisher *app.Publisher
	loop      *app.Loop
	runner    *runner

	statusInterval time.Duration

	mu       sync.RWMutex
	listener *osc.Listener
}

// NewBridge creates a bridge in StateStopped.
func NewBridge(cfg BridgeConfig, system ports.ActuatedSystem, opts ...Option) (*Bridge, error) {
	if cfg.ListenAddr == "" {
		return nil, fmt.Errorf("%w: listen address is required", domain.ErrInvalidConfig)
	}
	if cfg.TickInterval < 0 {
		return nil, fmt.Errorf("%w: tick interval must be >= 0", domain.ErrInvalidConfig)
	}
	watch, err := domain.NewWatchSet(cfg.WatchOffsets)
	if err != nil {
		return nil, err
	}

	o := applyOptions(opts)
	session := uuid.NewString()
	handoff := app.NewHandoff()
	publisher := app.NewPublisher(session, o.sinks, o.logger)
	loop := app.NewLoop(app.LoopConfig{
		TickInterval: cfg.TickInterval,
		ResetCommand: cfg.ResetCommand,
	}, system, handoff, app.NewDetector(watch), publisher, o.logger)
	if o.onTick != nil {
		loop.OnTick(o.onTick)
	}

	return &Bridge{
		cfg:            cfg,
		watch:          watch,
		session:        session,
		system:         system,
		logger:         o.logger,
		handoff:        handoff,
		publisher:      publisher,
		loop:           loop,
		runner:         newRunner("bridge", o.logger, o.observer),
		statusInterval: o.statusInterval,
	}, nil
}

// Session returns the id attached to every published event.
func (b *Bridge) Session() string {
	return b.session
}

// Start validates the actuated system against the configuration, resets it
// along with the held command and the last-seen table, binds the listener
// and runs the listener and the actuation loop in the background.
func (b *Bridge) Start(ctx context.Context) error {
	return b.runner.start(ctx, func() ([]task, error) {
		if err := b.validateSystem(); err != nil {
			return nil, err
		}
		if err := b.loop.Prepare(); err != nil {
			return nil, err
		}

		l := osc.NewListener(b.cfg.ListenAddr, b.logger)
		l.Handle(app.AddressAction, b.handleAction)
		if err := l.Listen(); err != nil {
			return nil, err
		}
		b.mu.Lock()
		b.listener = l
		b.mu.Unlock()

		b.logger.Info("bridge starting",
			ports.String("session", b.session),
			ports.String("listen", l.LocalAddr().String()),
			ports.Int("reset_command", int(b.cfg.ResetCommand)),
		)
		return []task{
			l.Serve,
			b.loop.Run,
			every(b.statusInterval, b.logStatus),
		}, nil
	})
}

func (b *Bridge) validateSystem() error {
	initial, err := b.system.InitialState()
	if err != nil {
		return fmt.Errorf("read initial state: %w", err)
	}
	if err := b.watch.CheckFits(len(initial)); err != nil {
		return err
	}
	n := len(b.system.LegalActions())
	if n == 0 {
		return fmt.Errorf("%w: actuated system has no legal actions", domain.ErrInvalidConfig)
	}
	if r := int(b.cfg.ResetCommand); r >= 0 && r < n {
		return fmt.Errorf("%w: reset command %d collides with legal action index (0..%d)",
			domain.ErrInvalidConfig, r, n-1)
	}
	return nil
}

func (b *Bridge) handleAction(_ context.Context, msg *goosc.Message) error {
	c, err := osc.CommandArg(msg)
	if err != nil {
		return err
	}
	b.handoff.Write(c)
	return nil
}

func (b *Bridge) logStatus() {
	s := b.Stats()
	b.logger.Info("bridge status",
		ports.Uint64("ticks", s.Ticks),
		ports.Uint64("resets", s.Resets),
		ports.Uint64("invalid", s.Invalid),
		ports.Uint64("received", s.Received),
		ports.Uint64("dropped", s.Dropped),
		ports.Uint64("published", s.Published),
		ports.Uint64("sink_failures", s.SinkFailures),
		ports.Command(s.Command),
	)
}

// Stop shuts the bridge down and waits for its goroutines.
func (b *Bridge) Stop() error {
	return b.runner.stop()
}

// Close stops the bridge if it is running and closes every sink.
func (b *Bridge) Close() error {
	if b.runner.lifecycle.CanStop() {
		_ = b.Stop()
	}
	return b.publisher.Close()
}

// Status returns the lifecycle state.
func (b *Bridge) Status() app.State {
	return b.runner.lifecycle.State()
}

// Err returns the error that crashed the bridge, if any.
func (b *Bridge) Err() error {
	return b.runner.lifecycle.Err()
}

// Done is closed when the current run ends.
func (b *Bridge) Done() <-chan struct{} {
	return b.runner.doneCh()
}

// LocalAddr returns the bound listen address, or nil before Start.
func (b *Bridge) LocalAddr() net.Addr {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.listener == nil {
		return nil
	}
	return b.listener.LocalAddr()
}

// SetTickInterval changes the actuation cadence while running.
func (b *Bridge) SetTickInterval(d time.Duration) {
	b.loop.SetTickInterval(d)
	b.logger.Info("tick interval updated", ports.Duration("tick_interval", d))
}

// TickInterval returns the current actuation cadence.
func (b *Bridge) TickInterval() time.Duration {
	return b.loop.TickInterval()
}

// Stats returns the current counters.
func (b *Bridge) Stats() BridgeStats {
	s := BridgeStats{Command: b.handoff.Read()}
	s.Ticks, s.Resets, s.Invalid = b.loop.Stats()
	s.Published, s.SinkFailures = b.publisher.Stats()
	b.mu.RLock()
	if b.listener != nil {
		s.Received = b.listener.Received()
		s.Dropped = b.listener.Dropped()
	}
	b.mu.RUnlock()
	return s
}
