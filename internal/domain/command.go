package domain

import "strconv"

// Command is the discrete action code sent from the classifier side to the
// actuator. It travels as a single OSC int32 argument.
type Command int32

const (
	// CommandNoop is the idle command. The actuator still steps on idle.
	CommandNoop Command = 0

	// DefaultResetCommand is the default reset sentinel.
	DefaultResetCommand Command = -1
)

// IsNoop reports whether c is the idle command.
func (c Command) IsNoop() bool {
	return c == CommandNoop
}

// String returns the decimal form of the command.
func (c Command) String() string {
	return strconv.Itoa(int(c))
}

// Action is the actuated system's native action value. Commands index into
// the system's legal action set to obtain an Action.
type Action int

// Result is one completed classification cycle.
type Result struct {
	// Source identifies who produced the result (e.g. a skeleton id).
	Source int

	// Code is the predicted command.
	Code Command
}
