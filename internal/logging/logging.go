// Package logging provides structured logging functionality.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Console    bool
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	NoColor    bool
	// ConsoleOut defaults to stderr so that command output on stdout stays
	// machine readable.
	ConsoleOut io.Writer
}

// NewLoggerWithConfig creates a new logger with the specified configuration.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer

	// Console writer
	if cfg.Console {
		out := cfg.ConsoleOut
		if out == nil {
			out = os.Stderr
		}
		consoleWriter := zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    cfg.NoColor,
			TimeFormat: time.RFC3339,
			FormatLevel: func(i interface{}) string {
				if ll, ok := i.(string); ok {
					if cfg.NoColor {
						return strings.ToUpper(ll)
					}
					switch ll {
					case "debug":
						return "\033[36mDBG\033[0m"
					case "info":
						return "\033[32mINF\033[0m"
					case "warn":
						return "\033[33mWRN\033[0m"
					case "error":
						return "\033[31mERR\033[0m"
					default:
						return ll
					}
				}
				return "???"
			},
		}
		writers = append(writers, consoleWriter)
	}

	// File writer with rotation
	if cfg.File {
		// Ensure log directory exists
		logDir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(logDir, 0755); err == nil {
			fileWriter := &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			}
			writers = append(writers, fileWriter)
		}
	}

	// Create multi-writer
	var writer io.Writer
	if len(writers) == 0 {
		writer = io.Discard
	} else if len(writers) == 1 {
		writer = writers[0]
	} else {
		writer = zerolog.MultiLevelWriter(writers...)
	}

	// Set log level
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	// Create logger
	logger := zerolog.New(writer).
		With().
		Timestamp().
		Caller().
		Logger()

	return logger
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithComponent adds a component name to the logger context.
func WithComponent(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// WithSubscription adds the collection and subscription id of a live feed
// to the logger context.
func WithSubscription(logger zerolog.Logger, collection, id string) zerolog.Logger {
	return logger.With().Str("collection", collection).Str("subscription", id).Logger()
}

// WithInsight adds an insight document id to the logger context.
func WithInsight(logger zerolog.Logger, insightID string) zerolog.Logger {
	return logger.With().Str("insight_id", insightID).Logger()
}

// WithOperation adds an operation name to the logger context.
func WithOperation(logger zerolog.Logger, operation string) zerolog.Logger {
	return logger.With().Str("operation", operation).Logger()
}

// LogSnapshot logs a delivered feed snapshot.
func LogSnapshot(logger zerolog.Logger, seq uint64, documents int) {
	logger.Debug().
		Str("event", "snapshot").
		Uint64("seq", seq).
		Int("documents", documents).
		Msg("Snapshot received")
}

// LogFeedError logs a listener failure.
func LogFeedError(logger zerolog.Logger, seq uint64, err error) {
	logger.Error().
		Str("event", "feed_error").
		Uint64("seq", seq).
		Err(err).
		Msg("Live listener failed")
}

// LogStateChange logs a dashboard phase transition.
func LogStateChange(logger zerolog.Logger, from, to string, records int) {
	logger.Info().
		Str("event", "state_change").
		Str("from", from).
		Str("to", to).
		Int("records", records).
		Msg("Dashboard state changed")
}

// LogPopup logs a popup being shown.
func LogPopup(logger zerolog.Logger, instance, category, title string, autoClose time.Duration) {
	logger.Debug().
		Str("event", "popup").
		Str("instance", instance).
		Str("category", category).
		Str("title", title).
		Dur("auto_close", autoClose).
		Msg("Popup shown")
}

// LogRequest logs a served HTTP request.
func LogRequest(logger zerolog.Logger, method, path string, status int, duration time.Duration) {
	event := logger.Debug()
	if status >= 500 {
		event = logger.Error()
	}
	event.
		Str("event", "http_request").
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Dur("duration", duration).
		Msg("Request served")
}
