package osc

import (
	"fmt"

	goosc "github.com/hypebeast/go-osc/osc"

	"github.com/bft-labs/gesturebridge/internal/domain"
)

// IntArg returns argument i of msg as an int64. Only OSC integer types
// (int32 and int64) are accepted.
func IntArg(msg *goosc.Message, i int) (int64, error) {
	if i >= len(msg.Arguments) {
		return 0, fmt.Errorf("%w: %s: missing argument %d", domain.ErrMalformedMessage, msg.Address, i)
	}
	switch v := msg.Arguments[i].(type) {
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	default:
		return 0, fmt.Errorf("%w: %s: argument %d is %T, want int", domain.ErrMalformedMessage, msg.Address, i, v)
	}
}

// FloatArg returns argument i of msg as a float64. Float and integer OSC
// types are accepted.
func FloatArg(msg *goosc.Message, i int) (float64, error) {
	if i >= len(msg.Arguments) {
		return 0, fmt.Errorf("%w: %s: missing argument %d", domain.ErrMalformedMessage, msg.Address, i)
	}
	switch v := msg.Arguments[i].(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("%w: %s: argument %d is %T, want float", domain.ErrMalformedMessage, msg.Address, i, v)
	}
}

// CommandArg decodes the single-argument /action shape.
func CommandArg(msg *goosc.Message) (domain.Command, error) {
	if len(msg.Arguments) != 1 {
		return 0, fmt.Errorf("%w: %s: got %d arguments, want 1", domain.ErrMalformedMessage, msg.Address, len(msg.Arguments))
	}
	v, err := IntArg(msg, 0)
	if err != nil {
		return 0, err
	}
	if v < -1<<31 || v > 1<<31-1 {
		return 0, fmt.Errorf("%w: %s: command %d overflows int32", domain.ErrMalformedMessage, msg.Address, v)
	}
	return domain.Command(v), nil
}

// normalizeArgs converts Go values the OSC encoder does not know (int,
// domain.Command, byte) to int32.
func normalizeArgs(args []interface{}) []interface{} {
	out := make([]interface{}, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case int:
			out[i] = int32(v)
		case domain.Command:
			out[i] = int32(v)
		case byte:
			out[i] = int32(v)
		case uint16:
			out[i] = int32(v)
		default:
			out[i] = a
		}
	}
	return out
}
