package osc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	goosc "github.com/hypebeast/go-osc/osc"

	"github.com/bft-labs/gesturebridge/internal/domain"
	"github.com/bft-labs/gesturebridge/internal/ports"
)

// maxDatagram is the largest UDP payload.
const maxDatagram = 65535

// HandlerFunc handles one inbound message. Returning an error that wraps
// domain.ErrMalformedMessage drops the message; any other error stops the
// listener and is returned from Serve.
type HandlerFunc func(ctx context.Context, msg *goosc.Message) error

// Listener receives OSC datagrams on a UDP address and dispatches them by
// address on a single goroutine.
type Listener struct {
	addr     string
	logger   ports.Logger
	handlers map[string]HandlerFunc

	mu     sync.Mutex
	conn   net.PacketConn
	closed bool

	received atomic.Uint64
	dropped  atomic.Uint64
}

// NewListener creates a listener for addr (host:port). Register handlers
// with Handle before calling Serve.
func NewListener(addr string, logger ports.Logger) *Listener {
	return &Listener{
		addr:     addr,
		logger:   logger,
		handlers: make(map[string]HandlerFunc),
	}
}

// Handle registers h for messages whose address equals address exactly.
// It must not be called once Serve is running.
func (l *Listener) Handle(address string, h HandlerFunc) {
	l.handlers[address] = h
}

// Listen binds the UDP socket. Serve calls it if it has not been called.
func (l *Listener) Listen() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return net.ErrClosed
	}
	if l.conn != nil {
		return nil
	}
	conn, err := net.ListenPacket("udp", l.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", l.addr, err)
	}
	l.conn = conn
	return nil
}

// LocalAddr returns the bound address, or nil before Listen.
func (l *Listener) LocalAddr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return nil
	}
	return l.conn.LocalAddr()
}

// Serve reads and dispatches datagrams until the listener is closed, ctx is
// done, or a handler returns a non-malformed error. Closing and cancellation
// return nil.
func (l *Listener) Serve(ctx context.Context) error {
	if err := l.Listen(); err != nil {
		if errors.Is(err, net.ErrClosed) {
			return nil
		}
		return err
	}
	l.mu.Lock()
	conn := l.conn
	l.mu.Unlock()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = l.Close()
		case <-stop:
		}
	}()

	l.logger.Info("osc listener serving", ports.String("addr", conn.LocalAddr().String()))

	buf := make([]byte, maxDatagram)
	retry := newReadRetry(DefaultBackoffInitial, DefaultBackoffMax)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if l.isClosed() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			l.logger.Warn("osc read error", ports.Err(err), ports.Duration("retry_in", retry.Delay()))
			if !retry.Pause(stop) {
				return nil
			}
			continue
		}
		retry.Succeeded()
		l.received.Add(1)

		if err := l.dispatchDatagram(ctx, buf[:n]); err != nil {
			l.logger.Error("osc handler failed",
				ports.String("from", from.String()),
				ports.Err(err),
			)
			_ = l.Close()
			return err
		}
	}
}

// dispatchDatagram parses one datagram and runs the handlers for every
// message it carries. Only fatal handler errors are returned.
func (l *Listener) dispatchDatagram(ctx context.Context, data []byte) error {
	packet, err := parsePacket(data)
	if err != nil {
		l.drop(err)
		return nil
	}
	for _, msg := range flatten(packet) {
		if err := l.dispatch(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (l *Listener) dispatch(ctx context.Context, msg *goosc.Message) error {
	h, ok := l.handlers[msg.Address]
	if !ok {
		l.drop(fmt.Errorf("%w: %s", domain.ErrUnknownAddress, msg.Address))
		return nil
	}
	err := h(ctx, msg)
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrMalformedMessage) {
		l.drop(err)
		return nil
	}
	return fmt.Errorf("handle %s: %w", msg.Address, err)
}

func (l *Listener) drop(err error) {
	l.dropped.Add(1)
	l.logger.Debug("osc message dropped", ports.Err(err))
}

// parsePacket decodes a datagram, turning decoder panics on truncated input
// into errors.
func parsePacket(data []byte) (packet goosc.Packet, err error) {
	defer func() {
		if r := recover(); r != nil {
			packet = nil
			err = fmt.Errorf("%w: decode panic: %v", domain.ErrMalformedMessage, r)
		}
	}()
	packet, err = goosc.ParsePacket(string(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedMessage, err)
	}
	if packet == nil {
		return nil, fmt.Errorf("%w: empty packet", domain.ErrMalformedMessage)
	}
	return packet, nil
}

// flatten returns the messages of a packet in bundle order.
func flatten(packet goosc.Packet) []*goosc.Message {
	switch p := packet.(type) {
	case *goosc.Message:
		return []*goosc.Message{p}
	case *goosc.Bundle:
		msgs := append([]*goosc.Message(nil), p.Messages...)
		for _, b := range p.Bundles {
			msgs = append(msgs, flatten(b)...)
		}
		return msgs
	default:
		return nil
	}
}

// Received returns the number of datagrams read.
func (l *Listener) Received() uint64 {
	return l.received.Load()
}

// Dropped returns the number of messages or datagrams discarded.
func (l *Listener) Dropped() uint64 {
	return l.dropped.Load()
}

func (l *Listener) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Close stops the listener. It is safe to call more than once.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if l.conn == nil {
		return nil
	}
	return l.conn.Close()
}
