package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with application-specific methods
type Logger struct {
	zerolog.Logger
}

// New creates a new Logger instance
func New(level string, format string) *Logger {
	// Set global log level
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var logger zerolog.Logger

	if format == "text" || format == "console" {
		// Human-readable output for development
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		logger = zerolog.New(output).With().Timestamp().Caller().Logger()
	} else {
		// JSON output for production
		logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()
	}

	return &Logger{Logger: logger}
}

// WithComponent returns a new logger with the component name attached
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.With().Str("component", component).Logger(),
	}
}

// WithRequest returns a new logger with the HTTP request ID attached
func (l *Logger) WithRequest(requestID string) *Logger {
	return &Logger{
		Logger: l.With().Str("request_id", requestID).Logger(),
	}
}

// WithBatch returns a new logger with the delivery batch ID attached
func (l *Logger) WithBatch(batchID string) *Logger {
	return &Logger{
		Logger: l.With().Str("batch_id", batchID).Logger(),
	}
}

// WithEvent returns a new logger with the event ID attached
func (l *Logger) WithEvent(eventID string) *Logger {
	return &Logger{
		Logger: l.With().Str("event_id", eventID).Logger(),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, statusCode int, duration time.Duration, clientIP string) {
	l.Info().
		Str("method", method).
		Str("path", path).
		Int("status", statusCode).
		Dur("duration", duration).
		Str("client_ip", clientIP).
		Msg("HTTP request")
}

// DeliveryAttempt logs the terminal outcome of one recipient's delivery.
func (l *Logger) DeliveryAttempt(email, status string, reason string) {
	event := l.Info().
		Str("recipient", email).
		Str("status", status)

	if reason != "" {
		event.Str("reason", reason)
	}

	event.Msg("delivery attempt")
}
