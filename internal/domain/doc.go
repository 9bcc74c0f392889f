// Package domain contains the core value types of the gesture control bridge.
//
// This package is the innermost layer. It has no dependencies on transport,
// logging or configuration and holds only the values that flow between the
// classifier side and the actuator side.
//
// # Values
//
//   - [Command]: the integer action code carried by /action messages
//   - [Action]: the actuated system's native action value
//   - [Snapshot]: one step's observable state (a RAM image)
//   - [WatchSet]: the ordered snapshot offsets monitored for change
//   - [Change]: one (offset, value) state-change event
//   - [Result]: one classification result tagged with its source
package domain
