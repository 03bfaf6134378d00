package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New builds the process logger. DEV gets a human readable console writer, every other
// environment logs JSON lines. Unknown levels fall back to info.
func New(w io.Writer, env, level string) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if strings.EqualFold(env, "DEV") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// Setup builds the process logger and installs it as the global zerolog logger.
func Setup(env, level string) zerolog.Logger {
	logger := New(os.Stderr, env, level)
	log.Logger = logger
	return logger
}

func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
