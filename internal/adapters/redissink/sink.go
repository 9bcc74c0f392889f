// Package redissink publishes state changes to Redis pub/sub and mirrors the
// latest watched values in a hash.
package redissink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	logAdapter "github.com/bft-labs/gesturebridge/internal/adapters/log"
	"github.com/bft-labs/gesturebridge/internal/ports"
)

// Queue and I/O limits. Writes happen off the actuation loop; a write that
// outlives WriteTimeout is abandoned.
const (
	DefaultQueueSize    = 256
	DefaultWriteTimeout = 250 * time.Millisecond
	dialTimeout         = time.Second
	closeWait           = time.Second
)

// ErrQueueFull is returned by Publish when the write queue is full. The
// event is dropped.
var ErrQueueFull = errors.New("redis sink queue full")

// StateChangesChannel returns the pub/sub channel for an instance.
// Format: gesturebridge:{instance}:state_changes
func StateChangesChannel(instance string) string {
	return fmt.Sprintf("gesturebridge:%s:state_changes", instance)
}

// WatchedKey returns the hash holding the latest watched values.
// Format: gesturebridge:{instance}:watched
func WatchedKey(instance string) string {
	return fmt.Sprintf("gesturebridge:%s:watched", instance)
}

// ClientOptions returns client options for addr with short timeouts and no
// retries.
func ClientOptions(addr string) *redis.Options {
	return &redis.Options{
		Addr:         addr,
		DialTimeout:  dialTimeout,
		ReadTimeout:  DefaultWriteTimeout,
		WriteTimeout: DefaultWriteTimeout,
		MaxRetries:   -1,
		PoolSize:     2,
	}
}

// ChangeMessage is the JSON payload published for each change.
type ChangeMessage struct {
	Session string `json:"session"`
	Tick    uint64 `json:"tick"`
	At      int64  `json:"at"`
	Offset  int    `json:"offset"`
	Value   int    `json:"value"`
}

// batch is one tick's encoded writes.
type batch struct {
	fields   map[string]interface{}
	payloads [][]byte
}

// Option configures a Sink.
type Option func(*Sink)

// WithLogger logs failed writes.
func WithLogger(l ports.Logger) Option {
	return func(s *Sink) { s.logger = l }
}

// WithQueueSize sets how many ticks may wait for Redis.
func WithQueueSize(n int) Option {
	return func(s *Sink) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithWriteTimeout bounds each pipelined write.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Sink) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// Sink implements ports.EventSink on Redis. Publish only encodes and
// enqueues; a single goroutine drains the queue in order.
type Sink struct {
	rdb          *redis.Client
	instance     string
	logger       ports.Logger
	queueSize    int
	writeTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan batch
	cancel context.CancelFunc
	done   chan struct{}

	written atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewSink creates a sink for the given instance name, which must not be
// empty, and starts its writer.
func NewSink(opts *redis.Options, instance string, options ...Option) (*Sink, error) {
	if instance == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}
	o := *opts
	o.ContextTimeoutEnabled = true

	s := &Sink{
		rdb:          redis.NewClient(&o),
		instance:     instance,
		logger:       logAdapter.NewNoopLogger(),
		queueSize:    DefaultQueueSize,
		writeTimeout: DefaultWriteTimeout,
		done:         make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}
	s.queue = make(chan batch, s.queueSize)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.drain(ctx)
	return s, nil
}

// Ping verifies Redis connectivity.
func (s *Sink) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Name implements ports.EventSink.
func (s *Sink) Name() string {
	return "redis"
}

// Publish encodes the changes and queues them for the writer. It never
// waits for Redis; a full queue drops the event and returns ErrQueueFull.
func (s *Sink) Publish(_ context.Context, ev ports.StateEvent) error {
	if len(ev.Changes) == 0 {
		return nil
	}

	b := batch{
		fields:   make(map[string]interface{}, len(ev.Changes)),
		payloads: make([][]byte, 0, len(ev.Changes)),
	}
	for _, c := range ev.Changes {
		b.fields[strconv.Itoa(c.Offset)] = int(c.Value)
		p, err := json.Marshal(ChangeMessage{
			Session: ev.Session,
			Tick:    ev.Tick,
			At:      ev.At,
			Offset:  c.Offset,
			Value:   int(c.Value),
		})
		if err != nil {
			return fmt.Errorf("failed to marshal change: %w", err)
		}
		b.payloads = append(b.payloads, p)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("redis sink closed")
	}
	select {
	case s.queue <- b:
		return nil
	default:
		s.dropped.Add(1)
		return ErrQueueFull
	}
}

func (s *Sink) drain(ctx context.Context) {
	defer close(s.done)
	for b := range s.queue {
		if err := s.write(ctx, b); err != nil {
			s.failed.Add(1)
			s.logger.Warn("redis write failed", ports.Err(err))
			continue
		}
		s.written.Add(1)
	}
}

// write sends one batch as a single pipeline: the hash update, then one
// PUBLISH per change.
func (s *Sink) write(ctx context.Context, b batch) error {
	ctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	channel := StateChangesChannel(s.instance)
	_, err := s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, WatchedKey(s.instance), b.fields)
		for _, p := range b.payloads {
			pipe.Publish(ctx, channel, p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to publish state changes: %w", err)
	}
	return nil
}

// Stats returns written, dropped and failed batch counts.
func (s *Sink) Stats() (written, dropped, failed uint64) {
	return s.written.Load(), s.dropped.Load(), s.failed.Load()
}

// Close stops accepting events, gives queued writes a short grace period
// and closes the client. It is safe to call more than once.
func (s *Sink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	t := time.NewTimer(closeWait)
	defer t.Stop()
	select {
	case <-s.done:
	case <-t.C:
		s.cancel()
		<-s.done
	}
	s.cancel()
	return s.rdb.Close()
}
