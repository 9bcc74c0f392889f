package service

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	goosc "github.com/hypebeast/go-osc/osc"

	"github.com/bft-labs/gesturebridge/internal/adapters/osc"
	"github.com/bft-labs/gesturebridge/internal/app"
	"github.com/bft-labs/gesturebridge/internal/domain"
	"github.com/bft-labs/gesturebridge/internal/ports"
)

// AddressPose carries one skeleton: an int id followed by the joint values.
const AddressPose = "/pose"

// ControllerConfig configures the classifier side.
type ControllerConfig struct {
	// ListenAddr is the UDP address receiving /pose (host:port).
	ListenAddr string

	// Emitter selects the tracked skeleton and the emission policy.
	Emitter app.EmitterConfig
}

// ControllerStats is a point-in-time view of controller counters.
type ControllerStats struct {
	Poses      uint64
	Skipped    uint64
	Classified uint64
	Sent       uint64
	Received   uint64
	Dropped    uint64
	Command    domain.Command
}

// Controller classifies incoming poses and emits debounced commands.
type Controller struct {
	cfg        ControllerConfig
	extractor  ports.FeatureExtractor
	classifier ports.Classifier
	emitter    *app.Emitter
	logger     ports.Logger
	runner     *runner

	statusInterval time.Duration

	poses      atomic.Uint64
	skipped    atomic.Uint64
	classified atomic.Uint64

	mu       sync.RWMutex
	listener *osc.Listener
}

// NewController creates a controller in StateStopped. sender carries the
// emitted /action messages.
func NewController(cfg ControllerConfig, extractor ports.FeatureExtractor, classifier ports.Classifier, sender ports.CommandSender, opts ...Option) (*Controller, error) {
	if cfg.ListenAddr == "" {
		return nil, fmt.Errorf("%w: listen address is required", domain.ErrInvalidConfig)
	}
	o := applyOptions(opts)
	return &Controller{
		cfg:            cfg,
		extractor:      extractor,
		classifier:     classifier,
		emitter:        app.NewEmitter(cfg.Emitter, sender, o.logger),
		logger:         o.logger,
		runner:         newRunner("controller", o.logger, o.observer),
		statusInterval: o.statusInterval,
	}, nil
}

// Start binds the listener and serves /pose in the background.
func (c *Controller) Start(ctx context.Context) error {
	return c.runner.start(ctx, func() ([]task, error) {
		l := osc.NewListener(c.cfg.ListenAddr, c.logger)
		l.Handle(AddressPose, c.handlePose)
		if err := l.Listen(); err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.listener = l
		c.mu.Unlock()

		c.logger.Info("controller starting",
			ports.String("listen", l.LocalAddr().String()),
			ports.Int("source", c.cfg.Emitter.Source),
			ports.String("emit_policy", c.cfg.Emitter.Policy.String()),
		)
		return []task{
			l.Serve,
			every(c.statusInterval, c.logStatus),
		}, nil
	})
}

// handlePose runs one classification cycle. Skeletons other than the
// tracked one are skipped before classification.
func (c *Controller) handlePose(ctx context.Context, msg *goosc.Message) error {
	if len(msg.Arguments) < 2 {
		return fmt.Errorf("%w: %s: want skeleton id and joint values, got %d arguments",
			domain.ErrMalformedMessage, msg.Address, len(msg.Arguments))
	}
	id, err := osc.IntArg(msg, 0)
	if err != nil {
		return err
	}
	c.poses.Add(1)
	skeleton := int(id)
	if !c.emitter.Accepts(skeleton) {
		c.skipped.Add(1)
		return nil
	}

	pose := make([]float64, len(msg.Arguments)-1)
	for i := range pose {
		if pose[i], err = osc.FloatArg(msg, i+1); err != nil {
			return err
		}
	}
	features, err := c.extractor.Extract(pose)
	if err != nil {
		return err
	}
	code, err := c.classifier.Predict(features)
	if err != nil {
		return fmt.Errorf("classify skeleton %d: %w", skeleton, err)
	}
	c.classified.Add(1)
	c.emitter.Observe(ctx, domain.Result{Source: skeleton, Code: code})
	return nil
}

func (c *Controller) logStatus() {
	s := c.Stats()
	c.logger.Info("controller status",
		ports.Uint64("poses", s.Poses),
		ports.Uint64("skipped", s.Skipped),
		ports.Uint64("classified", s.Classified),
		ports.Uint64("sent", s.Sent),
		ports.Uint64("dropped", s.Dropped),
		ports.Command(s.Command),
	)
}

// Stop shuts the controller down and waits for its goroutines.
func (c *Controller) Stop() error {
	return c.runner.stop()
}

// Status returns the lifecycle state.
func (c *Controller) Status() app.State {
	return c.runner.lifecycle.State()
}

// Err returns the error that crashed the controller, if any.
func (c *Controller) Err() error {
	return c.runner.lifecycle.Err()
}

// Done is closed when the current run ends.
func (c *Controller) Done() <-chan struct{} {
	return c.runner.doneCh()
}

// LocalAddr returns the bound listen address, or nil before Start.
func (c *Controller) LocalAddr() net.Addr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.listener == nil {
		return nil
	}
	return c.listener.LocalAddr()
}

// Stats returns the current counters.
func (c *Controller) Stats() ControllerStats {
	s := ControllerStats{
		Poses:      c.poses.Load(),
		Skipped:    c.skipped.Load(),
		Classified: c.classified.Load(),
		Command:    c.emitter.Previous(),
	}
	s.Sent, _ = c.emitter.Stats()
	c.mu.RLock()
	if c.listener != nil {
		s.Received = c.listener.Received()
		s.Dropped = c.listener.Dropped()
	}
	c.mu.RUnlock()
	return s
}
