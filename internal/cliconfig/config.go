package cliconfig

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bft-labs/gesturebridge/internal/adapters/mqttsink"
	"github.com/bft-labs/gesturebridge/internal/adapters/osc"
	"github.com/bft-labs/gesturebridge/internal/app"
	"github.com/bft-labs/gesturebridge/internal/domain"
)

// Roles select role-specific defaults.
const (
	RoleActuator   = "actuator"
	RoleController = "controller"
)

// Default addresses.
const (
	DefaultActionAddr  = app.DefaultActionAddr
	DefaultPoseAddr    = "127.0.0.1:12345"
	DefaultEffectsAddr = "127.0.0.1:6666"
)

// DefaultRedisInstance namespaces Redis keys when none is configured.
const DefaultRedisInstance = "default"

// Config holds CLI configuration for gesturebridge.
type Config struct {
	// Role is set by the subcommand, not by configuration.
	Role string

	ListenAddr  string
	PeerAddr    string
	EffectsAddr string

	SourceID     int
	TickInterval time.Duration
	WatchSet     []int
	ResetCommand int
	EmitPolicy   string
	StateMode    string

	RedisAddr     string
	RedisInstance string
	MQTTBroker    string
	MQTTTopic     string

	ModelPath string
	LogLevel  string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		PeerAddr:      DefaultActionAddr,
		EffectsAddr:   DefaultEffectsAddr,
		TickInterval:  app.DefaultTickInterval,
		WatchSet:      append([]int(nil), domain.DefaultWatchOffsets...),
		ResetCommand:  int(domain.DefaultResetCommand),
		EmitPolicy:    app.EmitEveryChange.String(),
		StateMode:     osc.StateDiff.String(),
		RedisInstance: DefaultRedisInstance,
		MQTTTopic:     mqttsink.DefaultTopic,
		LogLevel:      "info",
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		switch c.Role {
		case RoleController:
			c.ListenAddr = DefaultPoseAddr
		default:
			c.ListenAddr = DefaultActionAddr
		}
	}
	if c.TickInterval < 0 {
		return fmt.Errorf("%w: tick interval must be >= 0", domain.ErrInvalidConfig)
	}
	if _, err := domain.NewWatchSet(c.WatchSet); err != nil {
		return err
	}
	if _, err := app.ParseEmitPolicy(c.EmitPolicy); err != nil {
		return err
	}
	if _, err := osc.ParseStateMode(c.StateMode); err != nil {
		return err
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("%w: log level %q", domain.ErrInvalidConfig, c.LogLevel)
	}
	if c.RedisAddr != "" && c.RedisInstance == "" {
		c.RedisInstance = DefaultRedisInstance
	}
	if c.MQTTBroker != "" && c.MQTTTopic == "" {
		c.MQTTTopic = mqttsink.DefaultTopic
	}
	if c.Role == RoleController {
		if c.ModelPath == "" {
			return fmt.Errorf("%w: model is required", domain.ErrInvalidConfig)
		}
		if c.PeerAddr == "" {
			return fmt.Errorf("%w: peer is required", domain.ErrInvalidConfig)
		}
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value from a pointer if not nil and flag not changed.
// Zero and negative values are legal (source 0, reset -1).
func (s *configSetter) setInt(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setInts sets a slice if not empty and flag not changed.
func (s *configSetter) setInts(flag string, value []int, dst *[]int) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = append([]int(nil), value...)
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setDurationPtr sets a parsed duration if not nil and flag not changed.
func (s *configSetter) setDurationPtr(flag string, value *time.Duration, dst *time.Duration) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}
