package logging

import "sync"

// MockLogger is a Logger implementation for tests. It captures log entries
// so assertions can verify what the code under test reported. Derived loggers
// (WithError, WithField) record into the same parent sink.
type MockLogger struct {
	mu            sync.Mutex
	entries       []LogEntry
	parent        *MockLogger
	pendingError  error
	pendingFields []Field
}

// NewMockLogger creates an empty MockLogger ready to capture entries.
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

// LogEntry represents a single log entry captured by MockLogger.
type LogEntry struct {
	Level   string
	Message string
	Fields  []Field
	Error   error
}

func (m *MockLogger) root() *MockLogger {
	if m.parent != nil {
		return m.parent.root()
	}
	return m
}

func (m *MockLogger) log(level, msg string, fields []Field) {
	all := append(append([]Field{}, m.pendingFields...), fields...)
	r := m.root()
	r.mu.Lock()
	r.entries = append(r.entries, LogEntry{
		Level:   level,
		Message: msg,
		Fields:  all,
		Error:   m.pendingError,
	})
	r.mu.Unlock()
}

// Entries returns a copy of all captured entries.
func (m *MockLogger) Entries() []LogEntry {
	r := m.root()
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LogEntry{}, r.entries...)
}

// Debug logs a debug-level message with optional fields.
func (m *MockLogger) Debug(msg string, fields ...Field) { m.log("DEBUG", msg, fields) }

// Info logs an info-level message with optional fields.
func (m *MockLogger) Info(msg string, fields ...Field) { m.log("INFO", msg, fields) }

// Warn logs a warning-level message with optional fields.
func (m *MockLogger) Warn(msg string, fields ...Field) { m.log("WARN", msg, fields) }

// Error logs an error-level message with optional fields.
func (m *MockLogger) Error(msg string, fields ...Field) { m.log("ERROR", msg, fields) }

// WithError returns a logger that will attach err to subsequent entries.
func (m *MockLogger) WithError(err error) Logger {
	return &MockLogger{
		parent:        m.root(),
		pendingError:  err,
		pendingFields: m.pendingFields,
	}
}

// WithField returns a logger that will attach the field to subsequent entries.
func (m *MockLogger) WithField(key string, value interface{}) Logger {
	return m.WithFields(Field{Key: key, Value: value})
}

// WithFields returns a logger that will attach the fields to subsequent entries.
func (m *MockLogger) WithFields(fields ...Field) Logger {
	return &MockLogger{
		parent:        m.root(),
		pendingError:  m.pendingError,
		pendingFields: append(append([]Field{}, m.pendingFields...), fields...),
	}
}

// HasMessage reports whether any captured entry contains the given message.
func (m *MockLogger) HasMessage(msg string) bool {
	for _, e := range m.Entries() {
		if e.Message == msg {
			return true
		}
	}
	return false
}
