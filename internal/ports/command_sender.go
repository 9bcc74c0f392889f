package ports

import "context"

// CommandSender transmits one message best-effort to a configured peer.
// Send never waits for acknowledgement; an error only reports that the
// datagram could not be handed to the network.
type CommandSender interface {
	Send(ctx context.Context, address string, args ...interface{}) error
}
