package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Global logger instance
var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
	With().Timestamp().Logger()

// SetLevel adjusts the global level ("debug", "info", "error", ...).
// Unknown levels are ignored.
func SetLevel(level string) {
	if lvl, err := zerolog.ParseLevel(level); err == nil {
		log = log.Level(lvl)
	}
}

// Convenience functions
func Info(format string, v ...interface{}) {
	log.Info().Msgf(format, v...)
}

func Error(format string, v ...interface{}) {
	log.Error().Msgf(format, v...)
}

func Debug(format string, v ...interface{}) {
	log.Debug().Msgf(format, v...)
}

func Fatal(format string, v ...interface{}) {
	log.Fatal().Msgf(format, v...)
}
