package cliconfig

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "GESTUREBRIDGE_"

// EnvConfig holds values read from GESTUREBRIDGE_* variables. Pointer fields
// stay nil when the variable is unset.
type EnvConfig struct {
	ListenAddr    string         `env:"LISTEN_ADDR"`
	PeerAddr      string         `env:"PEER_ADDR"`
	EffectsAddr   string         `env:"EFFECTS_ADDR"`
	SourceID      *int           `env:"SOURCE_ID"`
	TickInterval  *time.Duration `env:"TICK_INTERVAL"`
	WatchSet      []int          `env:"WATCH_SET" envSeparator:","`
	ResetCommand  *int           `env:"RESET_COMMAND"`
	EmitPolicy    string         `env:"EMIT_POLICY"`
	StateMode     string         `env:"STATE_MODE"`
	RedisAddr     string         `env:"REDIS_ADDR"`
	RedisInstance string         `env:"REDIS_INSTANCE"`
	MQTTBroker    string         `env:"MQTT_BROKER"`
	MQTTTopic     string         `env:"MQTT_TOPIC"`
	ModelPath     string         `env:"MODEL_PATH"`
	LogLevel      string         `env:"LOG_LEVEL"`
}

// LoadEnvConfig parses the process environment.
func LoadEnvConfig() (EnvConfig, error) {
	return env.ParseAsWithOptions[EnvConfig](env.Options{Prefix: EnvPrefix})
}

// ApplyEnvConfig applies environment values to cfg. These override file
// config but are overridden by flags (checked via changed map).
func ApplyEnvConfig(cfg *Config, ec EnvConfig, changed map[string]bool) {
	s := newConfigSetter(changed)

	s.setString("listen", ec.ListenAddr, &cfg.ListenAddr)
	s.setString("peer", ec.PeerAddr, &cfg.PeerAddr)
	s.setString("effects", ec.EffectsAddr, &cfg.EffectsAddr)
	s.setString("emit-policy", ec.EmitPolicy, &cfg.EmitPolicy)
	s.setString("state-mode", ec.StateMode, &cfg.StateMode)
	s.setString("redis-addr", ec.RedisAddr, &cfg.RedisAddr)
	s.setString("redis-instance", ec.RedisInstance, &cfg.RedisInstance)
	s.setString("mqtt-broker", ec.MQTTBroker, &cfg.MQTTBroker)
	s.setString("mqtt-topic", ec.MQTTTopic, &cfg.MQTTTopic)
	s.setString("model", ec.ModelPath, &cfg.ModelPath)
	s.setString("log-level", ec.LogLevel, &cfg.LogLevel)

	s.setDurationPtr("tick", ec.TickInterval, &cfg.TickInterval)
	s.setInt("source", ec.SourceID, &cfg.SourceID)
	s.setInt("reset-command", ec.ResetCommand, &cfg.ResetCommand)
	s.setInts("watch", ec.WatchSet, &cfg.WatchSet)
}

// Pinned returns the keys a config file reload must not touch: every flag in
// changed plus the hot-reloadable keys set in the environment.
func (ec EnvConfig) Pinned(changed map[string]bool) map[string]bool {
	pinned := make(map[string]bool, len(changed)+1)
	for k, v := range changed {
		pinned[k] = v
	}
	if ec.TickInterval != nil {
		pinned["tick"] = true
	}
	return pinned
}
