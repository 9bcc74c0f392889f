package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	logAdapter "github.com/bft-labs/gesturebridge/internal/adapters/log"
	"github.com/bft-labs/gesturebridge/internal/adapters/mqttsink"
	"github.com/bft-labs/gesturebridge/internal/adapters/osc"
	"github.com/bft-labs/gesturebridge/internal/adapters/redissink"
	"github.com/bft-labs/gesturebridge/internal/adapters/sim"
	"github.com/bft-labs/gesturebridge/internal/app"
	"github.com/bft-labs/gesturebridge/internal/cliconfig"
	"github.com/bft-labs/gesturebridge/internal/domain"
	"github.com/bft-labs/gesturebridge/internal/ports"
	"github.com/bft-labs/gesturebridge/internal/service"
)

func newActuatorCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actuator",
		Short: "Receive /action commands and drive the game",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile, pinned, err := c.load(cmd, cliconfig.RoleActuator)
			if err != nil {
				return err
			}
			return runActuator(cmd.Context(), c.cfg, cfgFile, pinned)
		},
	}

	f := cmd.Flags()
	f.StringVar(&c.cfg.EffectsAddr, "effects", c.cfg.EffectsAddr, "OSC address receiving state changes (empty disables)")
	f.StringVar(&c.cfg.StateMode, "state-mode", c.cfg.StateMode, "state emission: diff (/state-change) or bulk (/ram)")
	f.DurationVar(&c.cfg.TickInterval, "tick", c.cfg.TickInterval, "pause between actuation ticks")
	f.IntSliceVar(&c.cfg.WatchSet, "watch", c.cfg.WatchSet, "RAM offsets watched for change")
	f.StringVar(&c.cfg.RedisAddr, "redis-addr", c.cfg.RedisAddr, "Redis address for state changes (empty disables)")
	f.StringVar(&c.cfg.RedisInstance, "redis-instance", c.cfg.RedisInstance, "Redis key namespace")
	f.StringVar(&c.cfg.MQTTBroker, "mqtt-broker", c.cfg.MQTTBroker, "MQTT broker for state changes (empty disables)")
	f.StringVar(&c.cfg.MQTTTopic, "mqtt-topic", c.cfg.MQTTTopic, "MQTT topic for state changes")
	return cmd
}

func runActuator(ctx context.Context, cfg cliconfig.Config, cfgFile string, pinned map[string]bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := cliconfig.Logger(cfg.LogLevel)
	log.Info().Interface("config", cfg).Msg("configuration")
	logger := logAdapter.NewZerologAdapterWithLogger(log)

	sinks, err := buildSinks(ctx, cfg, logger)
	if err != nil {
		return err
	}

	opts := []service.Option{service.WithLogger(logger)}
	for _, s := range sinks {
		opts = append(opts, service.WithSink(s))
	}
	b, err := service.NewBridge(service.BridgeConfig{
		ListenAddr:   cfg.ListenAddr,
		TickInterval: cfg.TickInterval,
		WatchOffsets: cfg.WatchSet,
		ResetCommand: domain.Command(cfg.ResetCommand),
	}, sim.NewGame(), opts...)
	if err != nil {
		closeSinks(log, sinks)
		return fmt.Errorf("create bridge: %w", err)
	}
	defer b.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := b.Start(runCtx); err != nil {
		return fmt.Errorf("start bridge: %w", err)
	}

	if cfgFile != "" {
		w := cliconfig.NewWatcher(cfgFile, logger, tickReloader(b, pinned, log))
		go func() {
			if err := w.Run(runCtx); err != nil {
				log.Warn().Err(err).Msg("config hot reload disabled")
			}
		}()
	}

	waitForShutdown(log, b.Done())
	if b.Status() == app.StateCrashed {
		return b.Err()
	}
	if err := b.Stop(); err != nil {
		return fmt.Errorf("stop bridge: %w", err)
	}
	return nil
}

// tickPacer is the part of the bridge a config reload can change.
type tickPacer interface {
	TickInterval() time.Duration
	SetTickInterval(d time.Duration)
}

// tickReloader applies a reloaded tick_interval to p when it differs from
// the interval p is running at.
func tickReloader(p tickPacer, pinned map[string]bool, log zerolog.Logger) func(cliconfig.FileConfig) {
	return func(fc cliconfig.FileConfig) {
		d, ok, err := cliconfig.ReloadTickInterval(fc, pinned)
		if err != nil {
			log.Warn().Err(err).Msg("ignoring reloaded tick interval")
			return
		}
		if ok && d != p.TickInterval() {
			p.SetTickInterval(d)
		}
	}
}

// buildSinks connects every configured effects sink.
func buildSinks(ctx context.Context, cfg cliconfig.Config, logger ports.Logger) ([]ports.EventSink, error) {
	var sinks []ports.EventSink
	fail := func(err error) ([]ports.EventSink, error) {
		for _, s := range sinks {
			_ = s.Close()
		}
		return nil, err
	}

	if cfg.EffectsAddr != "" {
		mode, err := osc.ParseStateMode(cfg.StateMode)
		if err != nil {
			return fail(err)
		}
		sender, err := osc.NewSender(cfg.EffectsAddr)
		if err != nil {
			return fail(fmt.Errorf("effects sender: %w", err))
		}
		sinks = append(sinks, osc.NewStateSink(sender, mode))
	}

	if cfg.RedisAddr != "" {
		rs, err := redissink.NewSink(redissink.ClientOptions(cfg.RedisAddr), cfg.RedisInstance,
			redissink.WithLogger(logger))
		if err != nil {
			return fail(err)
		}
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return fail(fmt.Errorf("redis %s: %w", cfg.RedisAddr, err))
		}
		sinks = append(sinks, rs)
	}

	if cfg.MQTTBroker != "" {
		ms, err := mqttsink.Connect(ctx, mqttsink.Config{Broker: cfg.MQTTBroker, Topic: cfg.MQTTTopic}, logger)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, ms)
	}
	return sinks, nil
}

func closeSinks(log zerolog.Logger, sinks []ports.EventSink) {
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			log.Warn().Err(err).Str("sink", s.Name()).Msg("close sink failed")
		}
	}
}
