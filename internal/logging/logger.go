// Package logging provides a logging abstraction layer that decouples the
// application from specific logging frameworks. The pipeline logs through this
// interface; production wiring backs it with logrus.
package logging

import "sync"

// Logger defines the interface for structured logging throughout the application.
type Logger interface {
	// Debug logs a debug-level message with optional fields
	Debug(msg string, fields ...Field)

	// Info logs an info-level message with optional fields
	Info(msg string, fields ...Field)

	// Warn logs a warning-level message with optional fields
	Warn(msg string, fields ...Field)

	// Error logs an error-level message with optional fields
	Error(msg string, fields ...Field)

	// WithError returns a new logger with an error field attached
	WithError(err error) Logger

	// WithField returns a new logger with a single field attached
	WithField(key string, value interface{}) Logger

	// WithFields returns a new logger with multiple fields attached
	WithFields(fields ...Field) Logger
}

// Field represents a key-value pair for structured logging. Fields provide
// context to log messages without cluttering the message text.
type Field struct {
	Key   string
	Value interface{}
}

// Standardized field names used across the pipeline's log output.
const (
	FieldUser       = "user_id"
	FieldDomain     = "domain"
	FieldStrategy   = "strategy"
	FieldModel      = "model"
	FieldConfidence = "confidence"
	FieldStatus     = "status"
	FieldOperation  = "operation"
	FieldCategory   = "category"
	FieldAmount     = "amount"
	FieldCount      = "count"
)

var (
	defaultLogger Logger = NewLogrusAdapter("info", "text")
	defaultMu     sync.RWMutex
)

// GetLogger returns the process-wide default logger.
func GetLogger() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetLogger replaces the process-wide default logger. Nil loggers are ignored.
func SetLogger(logger Logger) {
	if logger == nil {
		return
	}
	defaultMu.Lock()
	defaultLogger = logger
	defaultMu.Unlock()
}
