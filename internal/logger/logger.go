package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// EnvLogLevel selects the level for loggers created with New. Accepted
// values are zerolog's level strings (trace, debug, info, warn, error).
const EnvLogLevel = "CREDIT_RISK_LOG_LEVEL"

// New returns a component-scoped logger writing JSON lines to stderr.
// The level comes from CREDIT_RISK_LOG_LEVEL, defaulting to info.
func New(component string) zerolog.Logger {
	return WithLevel(component, os.Getenv(EnvLogLevel))
}

// WithLevel builds a component-scoped logger at an explicit level,
// bypassing the environment. Unknown level strings fall back to info.
func WithLevel(component, level string) zerolog.Logger {
	return zerolog.New(os.Stderr).
		With().
		Str("component", component).
		Timestamp().
		Logger().
		Level(parseLevel(level))
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
