package osc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goosc "github.com/hypebeast/go-osc/osc"

	"github.com/bft-labs/gesturebridge/internal/domain"
	"github.com/bft-labs/gesturebridge/internal/ports"
)

// Addresses used for state-change emission.
const (
	AddressStateChange = "/state-change"
	AddressRAM         = "/ram"
)

// StateMode selects how state changes are encoded.
type StateMode int

const (
	// StateDiff sends one /state-change offset value message per change.
	StateDiff StateMode = iota

	// StateBulk sends every watched value in one /ram message.
	StateBulk
)

// String returns the configuration name of the mode.
func (m StateMode) String() string {
	if m == StateBulk {
		return "bulk"
	}
	return "diff"
}

// ParseStateMode parses a state_mode value. Empty means diff.
func ParseStateMode(s string) (StateMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "diff":
		return StateDiff, nil
	case "bulk":
		return StateBulk, nil
	default:
		return 0, fmt.Errorf("%w: unknown state mode %q", domain.ErrInvalidConfig, s)
	}
}

type messageSender interface {
	SendMessage(ctx context.Context, msg *goosc.Message) error
	Close() error
}

// StateSink implements ports.EventSink by sending state changes to the
// effects peer over OSC.
type StateSink struct {
	sender messageSender
	mode   StateMode
}

// NewStateSink wraps sender. The sink owns sender and closes it.
func NewStateSink(sender *Sender, mode StateMode) *StateSink {
	return &StateSink{sender: sender, mode: mode}
}

// Name implements ports.EventSink.
func (s *StateSink) Name() string {
	return "osc-" + s.mode.String()
}

// Publish implements ports.EventSink. In diff mode every change is sent even
// if an earlier one failed; the failures are joined.
func (s *StateSink) Publish(ctx context.Context, ev ports.StateEvent) error {
	if s.mode == StateBulk {
		args := make([]interface{}, len(ev.Values))
		for i, v := range ev.Values {
			args[i] = int32(v)
		}
		return s.sender.SendMessage(ctx, goosc.NewMessage(AddressRAM, args...))
	}

	var errs []error
	for _, c := range ev.Changes {
		msg := goosc.NewMessage(AddressStateChange, int32(c.Offset), int32(c.Value))
		if err := s.sender.SendMessage(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close implements ports.EventSink.
func (s *StateSink) Close() error {
	return s.sender.Close()
}
