package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var configureOnce sync.Once

// Configure sets the global zerolog level and writer once per process.
// DEV environments get a human readable console writer on stderr.
func Configure(level, env string) zerolog.Logger {
	configureOnce.Do(func() {
		zerolog.SetGlobalLevel(ParseLevel(level))
		zerolog.TimeFieldFormat = time.RFC3339

		var out io.Writer = os.Stderr
		if strings.EqualFold(env, "DEV") {
			out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
		}
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	})
	return log.Logger
}

// ParseLevel maps a configured level name onto zerolog, defaulting to info.
func ParseLevel(raw string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
