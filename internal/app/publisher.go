package app

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/bft-labs/gesturebridge/internal/domain"
	"github.com/bft-labs/gesturebridge/internal/ports"
)

// Publisher fans state-change events out to every configured sink. A sink
// error is logged and counted; it never reaches the actuation loop.
type Publisher struct {
	session string
	sinks   []ports.EventSink
	logger  ports.Logger

	published atomic.Uint64
	failures  atomic.Uint64
}

// NewPublisher creates a publisher tagging events with session.
func NewPublisher(session string, sinks []ports.EventSink, logger ports.Logger) *Publisher {
	return &Publisher{
		session: session,
		sinks:   sinks,
		logger:  logger,
	}
}

// Publish delivers one tick's changes to every sink in order.
func (p *Publisher) Publish(ctx context.Context, tick uint64, changes []domain.Change, values []byte) {
	if len(changes) == 0 {
		return
	}
	ev := ports.StateEvent{
		Session: p.session,
		Tick:    tick,
		At:      time.Now().UnixNano(),
		Changes: changes,
		Values:  values,
	}
	for _, s := range p.sinks {
		if err := s.Publish(ctx, ev); err != nil {
			p.failures.Add(1)
			p.logger.Warn("publish state change failed",
				ports.String("sink", s.Name()),
				ports.Uint64("tick", tick),
				ports.Err(err),
			)
		}
	}
	p.published.Add(1)
}

// Close closes every sink and returns the first error.
func (p *Publisher) Close() error {
	var first error
	for _, s := range p.sinks {
		if err := s.Close(); err != nil {
			p.logger.Warn("close sink failed", ports.String("sink", s.Name()), ports.Err(err))
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// Stats returns the number of published events and sink failures.
func (p *Publisher) Stats() (published, failures uint64) {
	return p.published.Load(), p.failures.Load()
}
