// Package logger initializes the process-wide zerolog logger. Components
// receive a scoped child logger rather than importing this package.
package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultLogFile is where Init writes when no destination is given.
const DefaultLogFile = "gateway.log"

// Init initializes a JSON file logger at DefaultLogFile. Call once at
// startup. The LOG_LEVEL environment variable (trace, debug, info, warn,
// error) controls verbosity.
func Init() (zerolog.Logger, error) {
	return InitWithOptions(DefaultLogFile, false)
}

// InitWithOptions builds the root logger. With a logFile it writes JSON
// structured logs to that file; with an empty logFile it writes to stdout,
// human-readable when pretty is set.
func InitWithOptions(logFile string, pretty bool) (zerolog.Logger, error) {
	level := parseLogLevel(os.Getenv("LOG_LEVEL"))

	if logFile != "" {
		//nolint:gosec // G304: user-specified log file path is intentional
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return zerolog.Logger{}, fmt.Errorf("failed to open log file %s: %w", logFile, err)
		}
		log := zerolog.New(file).Level(level).With().Timestamp().Logger()
		log.Info().Str("path", logFile).Str("level", level.String()).Msg("Logger initialized")
		return log, nil
	}

	var log zerolog.Logger
	if pretty {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).Level(level).With().Timestamp().Logger()
	} else {
		log = zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	}
	log.Info().Str("output", "stdout").Str("level", level.String()).Msg("Logger initialized")
	return log, nil
}

func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
