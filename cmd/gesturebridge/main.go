package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/gesturebridge/internal/cliconfig"
)

const longHelp = `Drive a game with your body.

gesturebridge connects a gesture classifier to an emulated game over OSC/UDP:

  controller  classifies /pose skeletons and sends debounced /action commands
  actuator    applies the latest /action to the game every tick and publishes
              watched RAM changes (OSC, Redis, MQTT)
  send        sends /action commands by hand (a keyboard remote)

Configuration precedence: flags > GESTUREBRIDGE_* environment > config file > defaults.`

var exampleUsage = strings.TrimSpace(`
  gesturebridge actuator --listen 127.0.0.1:5555 --effects 127.0.0.1:6666
  gesturebridge controller --model ./model.toml --peer 127.0.0.1:5555
  gesturebridge send 3
  gesturebridge send reset
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// cli holds the flag-bound configuration shared by every subcommand.
type cli struct {
	cfg     cliconfig.Config
	cfgPath string
}

func main() {
	c := &cli{cfg: cliconfig.DefaultConfig()}
	log := cliconfig.Logger("info")

	root := &cobra.Command{
		Use:           "gesturebridge",
		Short:         "Gesture to game-command bridge over OSC",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := root.PersistentFlags()
	f.StringVar(&c.cfgPath, "config", "", "path to config file (default: $HOME/.gesturebridge/config.toml)")
	f.StringVar(&c.cfg.ListenAddr, "listen", c.cfg.ListenAddr, "UDP listen address (default: actuator "+cliconfig.DefaultActionAddr+", controller "+cliconfig.DefaultPoseAddr+")")
	f.StringVar(&c.cfg.PeerAddr, "peer", c.cfg.PeerAddr, "actuator address that receives /action")
	f.StringVar(&c.cfg.LogLevel, "log-level", c.cfg.LogLevel, "log level (debug, info, warn, error)")
	f.IntVar(&c.cfg.ResetCommand, "reset-command", c.cfg.ResetCommand, "command value that resets the game")

	root.AddCommand(
		newActuatorCmd(c),
		newControllerCmd(c),
		newSendCmd(c),
	)

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("gesturebridge")
		os.Exit(1)
	}
}

// load applies the config file and the environment under the flags, then
// validates for role. It returns the keys a file reload must not touch.
func (c *cli) load(cmd *cobra.Command, role string) (string, map[string]bool, error) {
	cfgFile := c.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return "", nil, fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&c.cfg, fc, changed); err != nil {
			return "", nil, err
		}
	} else {
		cfgFile = ""
	}

	ec, err := cliconfig.LoadEnvConfig()
	if err != nil {
		return "", nil, fmt.Errorf("load environment: %w", err)
	}
	cliconfig.ApplyEnvConfig(&c.cfg, ec, changed)

	c.cfg.Role = role
	if err := c.cfg.Validate(); err != nil {
		return "", nil, err
	}
	return cfgFile, ec.Pinned(changed), nil
}

// waitForShutdown blocks until SIGINT/SIGTERM or done is closed.
func waitForShutdown(log zerolog.Logger, done <-chan struct{}) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
		log.Info().Msg("received signal, stopping...")
	case <-done:
	}
}
