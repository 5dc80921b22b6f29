package observability

import (
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger installs a console logger on stderr as the global logger.
// Every entry carries the application name and a session id unique to this run.
func InitLogger(app, level string) zerolog.Logger {
	logger := NewLogger(os.Stderr, app, level)
	log.Logger = logger
	return logger
}

// NewLogger builds the console logger InitLogger installs, writing to w.
// An unknown level falls back to info.
func NewLogger(w io.Writer, app, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}
	return zerolog.New(output).Level(lvl).With().
		Timestamp().
		Str("app", app).
		Str("session", uuid.NewString()).
		Logger()
}
