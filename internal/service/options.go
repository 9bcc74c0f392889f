package service

import (
	"time"

	logAdapter "github.com/bft-labs/gesturebridge/internal/adapters/log"
	"github.com/bft-labs/gesturebridge/internal/app"
	"github.com/bft-labs/gesturebridge/internal/ports"
)

// DefaultStatusInterval is the period of the status log line.
const DefaultStatusInterval = 30 * time.Second

// Option configures optional behavior of a Bridge or Controller.
type Option func(*options)

type options struct {
	logger         ports.Logger
	observer       app.StateObserver
	sinks          []ports.EventSink
	onTick         func(app.TickInfo)
	statusInterval time.Duration
}

func defaultOptions() options {
	return options{
		logger:         logAdapter.NewNoopLogger(),
		statusInterval: DefaultStatusInterval,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the structured logger. The default discards output.
func WithLogger(logger ports.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStateObserver receives lifecycle transitions.
func WithStateObserver(observer app.StateObserver) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithSink adds a state-change sink. Sinks receive events in registration
// order. Bridge only.
func WithSink(sink ports.EventSink) Option {
	return func(o *options) {
		o.sinks = append(o.sinks, sink)
	}
}

// WithTickObserver is called synchronously after every actuation tick.
// Bridge only.
func WithTickObserver(fn func(app.TickInfo)) Option {
	return func(o *options) {
		o.onTick = fn
	}
}

// WithStatusInterval sets the period of the status log line. Zero disables it.
func WithStatusInterval(d time.Duration) Option {
	return func(o *options) {
		o.statusInterval = d
	}
}
