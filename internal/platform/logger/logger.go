// Package logger builds the service-wide zerolog logger.
package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New returns a logger tagged with the service name. The level defaults to
// info and can be changed with COMPANION_LOG_LEVEL (e.g. "debug").
func New(serviceName string) zerolog.Logger {
	level := zerolog.InfoLevel
	if v := os.Getenv("COMPANION_LOG_LEVEL"); v != "" {
		if parsed, err := zerolog.ParseLevel(v); err == nil {
			level = parsed
		}
	}
	return zerolog.New(os.Stdout).Level(level).With().
		Str("service", serviceName).
		Timestamp().
		Logger()
}
