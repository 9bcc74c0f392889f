// Package mqttsink publishes msgpack-encoded state-change events to an MQTT
// broker.
package mqttsink

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/bft-labs/gesturebridge/internal/ports"
)

// DefaultTopic is the topic used when none is configured.
const DefaultTopic = "gesturebridge/state"

// Connection tuning.
const (
	ConnectTimeout       = 5 * time.Second
	ConnectRetryInterval = 2 * time.Second
	MaxReconnectInterval = 30 * time.Second
	disconnectQuiesceMs  = 250
)

// ErrNotConnected is returned by Publish while the client is reconnecting.
var ErrNotConnected = errors.New("mqtt not connected")

// Event is the msgpack payload of one tick's changes.
type Event struct {
	Session string   `msgpack:"session"`
	Tick    uint64   `msgpack:"tick"`
	At      int64    `msgpack:"at"`
	Changes []Change `msgpack:"changes"`
}

// Change is one (offset, value) pair in an Event.
type Change struct {
	Offset int  `msgpack:"offset"`
	Value  byte `msgpack:"value"`
}

// Config configures the MQTT connection.
type Config struct {
	// Broker is host:port or a full URL (tcp://, ssl://, ws://).
	Broker string
	Topic  string

	// ClientID defaults to gesturebridge-<uuid>.
	ClientID string
}

// client is the part of mqtt.Client the sink uses.
type client interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// Sink implements ports.EventSink on MQTT at QoS 0. Publish never waits for
// the broker.
type Sink struct {
	client client
	topic  string
	logger ports.Logger

	published atomic.Uint64
	errors    atomic.Uint64
}

// Connect creates an auto-reconnecting client and waits for the first
// connection.
func Connect(ctx context.Context, cfg Config, logger ports.Logger) (*Sink, error) {
	broker := cfg.Broker
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "gesturebridge-" + uuid.NewString()
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(ConnectRetryInterval)
	opts.SetMaxReconnectInterval(MaxReconnectInterval)
	opts.OnConnect = func(mqtt.Client) {
		logger.Info("mqtt connection established",
			ports.String("broker", broker),
			ports.String("client_id", clientID),
		)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost, will auto-reconnect",
			ports.String("broker", broker),
			ports.Err(err),
		)
	}

	c := mqtt.NewClient(opts)
	token := c.Connect()
	select {
	case <-token.Done():
	case <-time.After(ConnectTimeout):
		c.Disconnect(0)
		return nil, fmt.Errorf("mqtt connection timeout: %s", broker)
	case <-ctx.Done():
		c.Disconnect(0)
		return nil, ctx.Err()
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connection failed: %w", err)
	}
	return newSink(c, cfg.Topic, logger), nil
}

func newSink(c client, topic string, logger ports.Logger) *Sink {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Sink{client: c, topic: topic, logger: logger}
}

// Name implements ports.EventSink.
func (s *Sink) Name() string {
	return "mqtt"
}

// Topic returns the publish topic.
func (s *Sink) Topic() string {
	return s.topic
}

// Publish implements ports.EventSink.
func (s *Sink) Publish(ctx context.Context, ev ports.StateEvent) error {
	if !s.client.IsConnected() {
		s.errors.Add(1)
		return ErrNotConnected
	}
	payload, err := Encode(ev)
	if err != nil {
		s.errors.Add(1)
		return err
	}
	s.client.Publish(s.topic, 0, false, payload)
	s.published.Add(1)
	s.logger.Debug("state event published",
		ports.String("topic", s.topic),
		ports.Uint64("tick", ev.Tick),
		ports.Int("size", len(payload)),
	)
	return nil
}

// Encode returns the msgpack form of ev.
func Encode(ev ports.StateEvent) ([]byte, error) {
	out := Event{
		Session: ev.Session,
		Tick:    ev.Tick,
		At:      ev.At,
		Changes: make([]Change, len(ev.Changes)),
	}
	for i, c := range ev.Changes {
		out.Changes[i] = Change{Offset: c.Offset, Value: c.Value}
	}
	b, err := msgpack.Marshal(&out)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state event: %w", err)
	}
	return b, nil
}

// Stats returns published and failed publish counts.
func (s *Sink) Stats() (published, failed uint64) {
	return s.published.Load(), s.errors.Load()
}

// Close implements ports.EventSink.
func (s *Sink) Close() error {
	s.client.Disconnect(disconnectQuiesceMs)
	return nil
}
