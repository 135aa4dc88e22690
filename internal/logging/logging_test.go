package logging_test

import (
	"testing"

	"github.com/jrsteele09/go-wa-fleet/internal/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"bogus":   zerolog.InfoLevel,
	}
	for raw, want := range cases {
		t.Run(raw, func(t *testing.T) {
			require.Equal(t, want, logging.ParseLevel(raw))
		})
	}
}
