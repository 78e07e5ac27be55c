package logger

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu      sync.Mutex
	entries []any
	done    chan struct{}
}

func (s *recordingSink) LogSystemEvent(_ context.Context, entry any) error {
	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()
	s.done <- struct{}{}
	return nil
}

func quietConfig(level LogLevel) SystemLoggerConfig {
	return SystemLoggerConfig{
		EnableConsole: false,
		MinLevel:      level,
		Service:       "test-service",
		Version:       "1.0.0",
		Environment:   "test",
	}
}

func TestNewSystemLogger(t *testing.T) {
	config := quietConfig(LevelInfo)
	config.EnableConsole = true

	logger := NewSystemLogger(nil, config)

	require.NotNil(t, logger)
	assert.True(t, logger.enableConsole)
	assert.False(t, logger.enableSink, "sink must stay disabled without a sink")
	assert.Equal(t, LevelInfo, logger.minLevel)
	assert.Equal(t, "test-service", logger.service)
}

func TestSystemLogger_ShouldLog(t *testing.T) {
	tests := []struct {
		name     string
		minLevel LogLevel
		level    LogLevel
		expected bool
	}{
		{name: "debug_level_allows_all", minLevel: LevelDebug, level: LevelDebug, expected: true},
		{name: "info_level_blocks_debug", minLevel: LevelInfo, level: LevelDebug, expected: false},
		{name: "warn_level_allows_error", minLevel: LevelWarn, level: LevelError, expected: true},
		{name: "error_level_blocks_warn", minLevel: LevelError, level: LevelWarn, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewSystemLogger(nil, quietConfig(tt.minLevel))
			assert.Equal(t, tt.expected, logger.shouldLog(tt.level))
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, LevelDebug, ParseLevel(" debug "))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

func TestSystemLogger_ExtractComponent(t *testing.T) {
	logger := NewSystemLogger(nil, quietConfig(LevelInfo))

	tests := []struct {
		file     string
		expected string
	}{
		{file: "/src/carepay/webhook/dispatch.go", expected: "webhook"},
		{file: "/src/carepay/infra/store/sql.go", expected: "infra/store"},
		{file: "/elsewhere/pkg/file.go", expected: "pkg"},
		{file: "file.go", expected: "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, logger.extractComponent(tt.file), tt.file)
	}
}

func TestSystemLogger_LogToConsole(t *testing.T) {
	config := quietConfig(LevelDebug)
	config.EnableConsole = true
	logger := NewSystemLogger(nil, config)

	var buf bytes.Buffer
	logger.SetOutput(&buf)

	logger.Error("Reconciliation failed", errors.New("db locked"), LogContext{
		FacilityID: "fac-1",
		Event:      "payment_link.paid",
		Fields:     map[string]any{"payment_id": "pay_1"},
	})

	out := buf.String()
	assert.Contains(t, out, "Reconciliation failed")
	assert.Contains(t, out, "facility=fac-1")
	assert.Contains(t, out, "event=payment_link.paid")
	assert.Contains(t, out, "Error: db locked")
	assert.Contains(t, out, "payment_id: pay_1")
}

func TestSystemLogger_ErrorDoesNotMutateCallerFields(t *testing.T) {
	logger := NewSystemLogger(nil, quietConfig(LevelDebug))
	fields := map[string]any{"k": "v"}

	logger.Error("boom", errors.New("x"), LogContext{Fields: fields})

	_, hasErr := fields["error"]
	assert.False(t, hasErr)
}

func TestSystemLogger_SinkReceivesEntries(t *testing.T) {
	sink := &recordingSink{done: make(chan struct{}, 1)}
	config := quietConfig(LevelInfo)
	config.EnableOpenSearch = true
	logger := NewSystemLogger(sink, config)

	logger.Info("Webhook acknowledged", LogContext{Event: "qr_code.credited"})

	select {
	case <-sink.done:
	case <-time.After(2 * time.Second):
		t.Fatal("sink was not called")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.entries, 1)
	entry, ok := sink.entries[0].(SystemLog)
	require.True(t, ok)
	assert.Equal(t, "qr_code.credited", entry.Event)
	assert.Equal(t, LevelInfo, entry.Level)
}

func TestContextLogger(t *testing.T) {
	logger := NewSystemLogger(nil, quietConfig(LevelDebug))

	cl := logger.WithContext(LogContext{FacilityID: "fac-1"}).
		AddField("invoice_id", "inv-1").
		SetRequestID("req-1")

	assert.Equal(t, "fac-1", cl.context.FacilityID)
	assert.Equal(t, "req-1", cl.context.RequestID)
	assert.Equal(t, "inv-1", cl.context.Fields["invoice_id"])

	cl.Debug("debug")
	cl.Info("info")
	cl.Warn("warn")
	cl.Error("error", errors.New("test"))
}
