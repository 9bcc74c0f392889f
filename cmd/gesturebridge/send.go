package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bft-labs/gesturebridge/internal/adapters/osc"
	"github.com/bft-labs/gesturebridge/internal/app"
	"github.com/bft-labs/gesturebridge/internal/cliconfig"
	"github.com/bft-labs/gesturebridge/internal/domain"
	"github.com/bft-labs/gesturebridge/internal/ports"
)

func newSendCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "send [command|reset]...",
		Short: "Send /action commands to the actuator",
		Long: `Send one /action per argument. With no arguments, read one command per
line from stdin until EOF. "reset" sends the configured reset command.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := c.load(cmd, ""); err != nil {
				return err
			}
			sender, err := osc.NewSender(c.cfg.PeerAddr)
			if err != nil {
				return err
			}
			defer sender.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			reset := domain.Command(c.cfg.ResetCommand)
			if len(args) > 0 {
				for _, a := range args {
					if err := sendOne(ctx, sender, a, reset); err != nil {
						return err
					}
				}
				return nil
			}
			return sendLines(ctx, sender, cmd.InOrStdin(), reset, cliconfig.Logger(c.cfg.LogLevel))
		},
	}
}

// parseCommand accepts an integer or "reset".
func parseCommand(s string, reset domain.Command) (domain.Command, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "reset") {
		return reset, nil
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid command %q", s)
	}
	return domain.Command(n), nil
}

func sendOne(ctx context.Context, sender ports.CommandSender, arg string, reset domain.Command) error {
	c, err := parseCommand(arg, reset)
	if err != nil {
		return err
	}
	return sender.Send(ctx, app.AddressAction, c)
}

func sendLines(ctx context.Context, sender ports.CommandSender, r io.Reader, reset domain.Command, log zerolog.Logger) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := sendOne(ctx, sender, line, reset); err != nil {
			log.Warn().Err(err).Msg("skipping line")
		}
	}
	return sc.Err()
}
