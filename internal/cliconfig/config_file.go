package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	ListenAddr    string `toml:"listen_addr"`
	PeerAddr      string `toml:"peer_addr"`
	EffectsAddr   string `toml:"effects_addr"`
	SourceID      *int   `toml:"source_id"`
	TickInterval  string `toml:"tick_interval"`
	WatchSet      []int  `toml:"watch_set"`
	ResetCommand  *int   `toml:"reset_command"`
	EmitPolicy    string `toml:"emit_policy"`
	StateMode     string `toml:"state_mode"`
	RedisAddr     string `toml:"redis_addr"`
	RedisInstance string `toml:"redis_instance"`
	MQTTBroker    string `toml:"mqtt_broker"`
	MQTTTopic     string `toml:"mqtt_topic"`
	ModelPath     string `toml:"model_path"`
	LogLevel      string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.gesturebridge/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".gesturebridge", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("listen", fc.ListenAddr, &cfg.ListenAddr)
	s.setString("peer", fc.PeerAddr, &cfg.PeerAddr)
	s.setString("effects", fc.EffectsAddr, &cfg.EffectsAddr)
	s.setString("emit-policy", fc.EmitPolicy, &cfg.EmitPolicy)
	s.setString("state-mode", fc.StateMode, &cfg.StateMode)
	s.setString("redis-addr", fc.RedisAddr, &cfg.RedisAddr)
	s.setString("redis-instance", fc.RedisInstance, &cfg.RedisInstance)
	s.setString("mqtt-broker", fc.MQTTBroker, &cfg.MQTTBroker)
	s.setString("mqtt-topic", fc.MQTTTopic, &cfg.MQTTTopic)
	s.setString("model", fc.ModelPath, &cfg.ModelPath)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("tick", fc.TickInterval, &cfg.TickInterval); err != nil {
		return err
	}

	s.setInt("source", fc.SourceID, &cfg.SourceID)
	s.setInt("reset-command", fc.ResetCommand, &cfg.ResetCommand)
	s.setInts("watch", fc.WatchSet, &cfg.WatchSet)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
