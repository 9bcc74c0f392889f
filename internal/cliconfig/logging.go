package cliconfig

import (
	"github.com/rs/zerolog"

	logAdapter "github.com/bft-labs/gesturebridge/internal/adapters/log"
)

// Logger returns the CLI logger: human-readable output on stderr at level.
func Logger(level string) zerolog.Logger {
	return logAdapter.NewConsoleLogger(level).With().Str("app", "gesturebridge").Logger()
}
