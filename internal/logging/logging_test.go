package logging

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockLoggerCapturesEntries(t *testing.T) {
	m := NewMockLogger()

	m.Info("hello", Field{Key: "k", Value: "v"})
	m.Warn("careful")

	entries := m.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "INFO", entries[0].Level)
	assert.Equal(t, "hello", entries[0].Message)
	require.Len(t, entries[0].Fields, 1)
	assert.Equal(t, "k", entries[0].Fields[0].Key)
	assert.True(t, m.HasMessage("careful"))
	assert.False(t, m.HasMessage("missing"))
}

func TestMockLoggerDerivedLoggersShareSink(t *testing.T) {
	m := NewMockLogger()
	err := errors.New("boom")

	m.WithError(err).WithField("op", "parse").Error("failed")

	entries := m.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "ERROR", entries[0].Level)
	assert.Equal(t, err, entries[0].Error)
}

func TestLogrusAdapterLevels(t *testing.T) {
	logger := NewLogrusAdapter("debug", "json")
	require.NotNil(t, logger)
	logger.Debug("visible at debug level")

	// Unknown levels fall back without panicking.
	assert.NotNil(t, NewLogrusAdapter("bogus", "text"))
}

func TestLogrusAdapterFromLogger(t *testing.T) {
	base := logrus.New()
	logger := NewLogrusAdapterFromLogger(base)

	// Derived loggers keep working through the chained entry.
	derived := logger.WithField("k", "v").WithError(errors.New("x"))
	assert.NotNil(t, derived)
	derived.Debug("no panic")
}

func TestDefaultLogger(t *testing.T) {
	original := GetLogger()
	defer SetLogger(original)

	m := NewMockLogger()
	SetLogger(m)
	assert.Equal(t, Logger(m), GetLogger())

	SetLogger(nil)
	assert.Equal(t, Logger(m), GetLogger(), "nil loggers are ignored")
}
