package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bft-labs/gesturebridge/internal/domain"
	"github.com/bft-labs/gesturebridge/internal/ports"
)

// AddressAction is the OSC address commands travel on.
const AddressAction = "/action"

// DefaultActionAddr is where the actuator listens for /action by default.
const DefaultActionAddr = "127.0.0.1:5555"

// EmitPolicy selects which command transitions the Emitter sends.
type EmitPolicy int

const (
	// EmitEveryChange sends on every transition, including back to idle.
	EmitEveryChange EmitPolicy = iota

	// EmitIntoActive sends only transitions into a non-idle command and
	// leaves the return to idle to the actuator.
	EmitIntoActive
)

// String returns the configuration name of the policy.
func (p EmitPolicy) String() string {
	switch p {
	case EmitEveryChange:
		return "every-change"
	case EmitIntoActive:
		return "into-active"
	default:
		return "unknown"
	}
}

// ParseEmitPolicy parses "every-change" or "into-active".
func ParseEmitPolicy(s string) (EmitPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "every-change":
		return EmitEveryChange, nil
	case "into-active":
		return EmitIntoActive, nil
	default:
		return 0, fmt.Errorf("%w: unknown emit policy %q", domain.ErrInvalidConfig, s)
	}
}

// EmitterConfig configures an Emitter.
type EmitterConfig struct {
	// Source is the only result source accepted.
	Source int

	// Policy selects which transitions are sent.
	Policy EmitPolicy
}

// Emitter turns a stream of classification results into /action messages,
// sending only when the command changes.
type Emitter struct {
	cfg    EmitterConfig
	sender ports.CommandSender
	logger ports.Logger

	mu       sync.Mutex
	prev     domain.Command
	sent     uint64
	filtered uint64
}

// NewEmitter creates an emitter whose debounce state starts at idle.
func NewEmitter(cfg EmitterConfig, sender ports.CommandSender, logger ports.Logger) *Emitter {
	return &Emitter{
		cfg:    cfg,
		sender: sender,
		logger: logger,
		prev:   domain.CommandNoop,
	}
}

// Accepts reports whether results from source pass the source filter.
func (e *Emitter) Accepts(source int) bool {
	return source == e.cfg.Source
}

// Observe processes one result and reports whether a send was attempted.
//
// The debounce state advances only after a successful send, so a send that
// fails locally is attempted again on the next identical result. Under
// EmitIntoActive a transition to idle advances the state without sending.
func (e *Emitter) Observe(ctx context.Context, r domain.Result) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.Accepts(r.Source) {
		e.filtered++
		return false
	}
	if r.Code == e.prev {
		return false
	}
	if e.cfg.Policy == EmitIntoActive && r.Code.IsNoop() {
		e.prev = r.Code
		return false
	}

	if err := e.sender.Send(ctx, AddressAction, r.Code); err != nil {
		e.logger.Warn("send command failed",
			ports.Command(r.Code),
			ports.Err(err),
		)
		return true
	}
	e.logger.Debug("command sent",
		ports.Command(r.Code),
		ports.Int("previous", int(e.prev)),
	)
	e.prev = r.Code
	e.sent++
	return true
}

// Previous returns the current debounce state.
func (e *Emitter) Previous() domain.Command {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.prev
}

// Stats returns the number of successful sends and filtered results.
func (e *Emitter) Stats() (sent, filtered uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sent, e.filtered
}
