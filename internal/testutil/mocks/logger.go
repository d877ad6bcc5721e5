package mocks

import (
	"sync"

	"github.com/kevin07696/transaction-service/internal/domain/ports"
)

// LogEntry is one recorded log call
type LogEntry struct {
	Level  string
	Msg    string
	Fields []ports.Field
}

// MockLogger records log calls for assertions
type MockLogger struct {
	mu      sync.Mutex
	Entries []LogEntry
}

// NewMockLogger creates a new recording logger
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

func (m *MockLogger) log(level, msg string, fields []ports.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, LogEntry{Level: level, Msg: msg, Fields: fields})
}

// Info records an info log call
func (m *MockLogger) Info(msg string, fields ...ports.Field) { m.log("info", msg, fields) }

// Error records an error log call
func (m *MockLogger) Error(msg string, fields ...ports.Field) { m.log("error", msg, fields) }

// Warn records a warn log call
func (m *MockLogger) Warn(msg string, fields ...ports.Field) { m.log("warn", msg, fields) }

// Debug records a debug log call
func (m *MockLogger) Debug(msg string, fields ...ports.Field) { m.log("debug", msg, fields) }
