// Package ports defines the interfaces that connect the bridge core to
// infrastructure adapters.
//
// # Port Interfaces
//
//   - [CommandSender]: best-effort outbound OSC messages
//   - [ActuatedSystem]: the stepped system driven by commands
//   - [Classifier]: maps a feature vector to a command
//   - [EventSink]: receives detected state changes
//   - [Logger]: structured logging abstraction
//
// The application layer (internal/app) depends only on these interfaces.
// Adapters (internal/adapters) implement them with OSC, Redis, MQTT, zerolog
// and the simulated game.
package ports
