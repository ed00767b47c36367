package tracker

import (
	"context"
	"sync"
)

// Memory is a Recorder keeping all records in memory
type Memory struct {
	mu     sync.Mutex
	models []ModelRecord
	logs   []LogRecord

	// Err, if not nil, is returned by every call after the record is
	// discarded
	Err error
}

// NewMemory returns a new, empty Memory Recorder
func NewMemory() *Memory {
	return &Memory{}
}

// RegisterModel records a model registration
func (m *Memory) RegisterModel(_ context.Context, r ModelRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.models = append(m.models, r)
	return nil
}

// Log records a batch of log records
func (m *Memory) Log(_ context.Context, logs []LogRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.logs = append(m.logs, logs...)
	return nil
}

// Models returns the recorded model registrations in order
func (m *Memory) Models() []ModelRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ModelRecord(nil), m.models...)
}

// Logs returns the recorded log records in order
func (m *Memory) Logs() []LogRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]LogRecord(nil), m.logs...)
}

// Nop is a Recorder which discards all records
type Nop struct{}

func (Nop) RegisterModel(context.Context, ModelRecord) error { return nil }
func (Nop) Log(context.Context, []LogRecord) error           { return nil }
