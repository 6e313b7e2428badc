package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the JSON process logger. Unknown levels fall back to info.
func NewLogger(level, service string) zerolog.Logger {
	return newLogger(os.Stdout, level, service)
}

func newLogger(out io.Writer, level, service string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}

	return zerolog.New(out).
		Level(parsed).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}
