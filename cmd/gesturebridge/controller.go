package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bft-labs/gesturebridge/internal/adapters/classifier"
	logAdapter "github.com/bft-labs/gesturebridge/internal/adapters/log"
	"github.com/bft-labs/gesturebridge/internal/adapters/osc"
	"github.com/bft-labs/gesturebridge/internal/app"
	"github.com/bft-labs/gesturebridge/internal/cliconfig"
	"github.com/bft-labs/gesturebridge/internal/service"
)

func newControllerCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "controller",
		Short: "Classify /pose skeletons and send /action commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := c.load(cmd, cliconfig.RoleController); err != nil {
				return err
			}
			return runController(cmd.Context(), c.cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&c.cfg.ModelPath, "model", c.cfg.ModelPath, "centroid model file (TOML)")
	f.IntVar(&c.cfg.SourceID, "source", c.cfg.SourceID, "skeleton id to track")
	f.StringVar(&c.cfg.EmitPolicy, "emit-policy", c.cfg.EmitPolicy, "every-change or into-active")
	return cmd
}

func runController(ctx context.Context, cfg cliconfig.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := cliconfig.Logger(cfg.LogLevel)
	log.Info().Interface("config", cfg).Msg("configuration")
	logger := logAdapter.NewZerologAdapterWithLogger(log)

	model, err := classifier.LoadCentroid(cfg.ModelPath)
	if err != nil {
		return err
	}
	if model.Dim() != classifier.PoseFeatureCount {
		return fmt.Errorf("model %s has %d features, pose extractor produces %d",
			cfg.ModelPath, model.Dim(), classifier.PoseFeatureCount)
	}
	policy, err := app.ParseEmitPolicy(cfg.EmitPolicy)
	if err != nil {
		return err
	}

	sender, err := osc.NewSender(cfg.PeerAddr)
	if err != nil {
		return err
	}
	defer sender.Close()

	ctrl, err := service.NewController(service.ControllerConfig{
		ListenAddr: cfg.ListenAddr,
		Emitter:    app.EmitterConfig{Source: cfg.SourceID, Policy: policy},
	}, classifier.PoseExtractor{}, model, sender, service.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("create controller: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := ctrl.Start(runCtx); err != nil {
		return fmt.Errorf("start controller: %w", err)
	}

	waitForShutdown(log, ctrl.Done())
	if ctrl.Status() == app.StateCrashed {
		return ctrl.Err()
	}
	if err := ctrl.Stop(); err != nil {
		return fmt.Errorf("stop controller: %w", err)
	}
	return nil
}
