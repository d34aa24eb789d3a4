// Package logger configures the process-wide zerolog logger.
package logger

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New builds the run logger. Output is the human console format on a
// terminal and JSON otherwise, so scheduler logs stay machine-readable.
// Every line carries a run_id tying it to this invocation.
func New() zerolog.Logger {
	var l zerolog.Logger
	if isatty.IsTerminal(os.Stdout.Fd()) {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		l = zerolog.New(output)
	} else {
		zerolog.TimeFieldFormat = time.RFC3339
		l = zerolog.New(os.Stdout)
	}
	l = l.With().Timestamp().Str("run_id", uuid.NewString()).Logger()
	log.Logger = l
	return l
}
