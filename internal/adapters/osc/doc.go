// Package osc implements the bridge command channel: OSC 1.0 messages over
// UDP.
//
// [Sender] writes one datagram per message to a fixed peer and never waits
// for acknowledgement. [Listener] reads datagrams on a single goroutine and
// dispatches each message, synchronously, to the handler registered for its
// exact address, so invocations of any one handler never overlap.
//
// The channel gives no delivery, ordering or de-duplication guarantee.
package osc
