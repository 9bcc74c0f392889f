// Package service composes the transport, the actuation loop and the
// classifier into the two runnable halves of the bridge.
//
// [Bridge] is the actuator side: it receives /action commands, drives the
// actuated system at a fixed cadence and fans detected state changes out to
// the configured sinks. [Controller] is the classifier side: it receives
// /pose skeletons, classifies them and emits debounced /action commands.
//
// Both follow the same lifecycle:
//
//	Stopped -> Starting -> Running -> Stopping -> Stopped
//	any     -> Crashed (a task failed; Err returns the cause)
package service
