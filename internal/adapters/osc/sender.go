package osc

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"

	goosc "github.com/hypebeast/go-osc/osc"
)

// Sender implements ports.CommandSender over a connected UDP socket.
type Sender struct {
	addr string
	conn net.Conn

	sent   atomic.Uint64
	failed atomic.Uint64
}

// NewSender opens a UDP socket to addr (host:port). No packet is exchanged;
// an unreachable peer only shows up as failed sends later.
func NewSender(addr string) (*Sender, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Sender{addr: addr, conn: conn}, nil
}

// Send encodes one message and writes it as a single datagram.
func (s *Sender) Send(ctx context.Context, address string, args ...interface{}) error {
	return s.SendMessage(ctx, goosc.NewMessage(address, normalizeArgs(args)...))
}

// SendMessage writes a prebuilt message.
func (s *Sender) SendMessage(ctx context.Context, msg *goosc.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := msg.MarshalBinary()
	if err != nil {
		s.failed.Add(1)
		return fmt.Errorf("encode %s: %w", msg.Address, err)
	}
	if _, err := s.conn.Write(data); err != nil {
		s.failed.Add(1)
		return fmt.Errorf("send %s to %s: %w", msg.Address, s.addr, err)
	}
	s.sent.Add(1)
	return nil
}

// Addr returns the peer address.
func (s *Sender) Addr() string {
	return s.addr
}

// Sent returns the number of datagrams written.
func (s *Sender) Sent() uint64 {
	return s.sent.Load()
}

// Failed returns the number of sends that returned an error.
func (s *Sender) Failed() uint64 {
	return s.failed.Load()
}

// Close releases the socket.
func (s *Sender) Close() error {
	return s.conn.Close()
}
