// Package session provides the stores a Client keeps its WebAPI session in.
package session

import (
	"context"
	"maps"
	"sync"

	"github.com/natserract/aukro/pkg/aukro"
)

var (
	_ aukro.SessionHandler = (*Memory)(nil)
	_ aukro.SessionHandler = (*File)(nil)
	_ aukro.SessionHandler = (*Redis)(nil)
	_ aukro.SessionHandler = (*Postgres)(nil)
)

// Memory keeps the session in process memory
type Memory struct {
	mu     sync.RWMutex
	record *aukro.SessionRecord
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(_ context.Context) (aukro.SessionRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.record == nil {
		return aukro.SessionRecord{}, false, nil
	}
	return detach(*m.record), true, nil
}

func (m *Memory) Store(_ context.Context, record aukro.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	record = detach(record)
	m.record = &record
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record = nil
	return nil
}

// detach copies the Raw map so the stored record and the caller's copy do not alias
func detach(record aukro.SessionRecord) aukro.SessionRecord {
	record.Raw = maps.Clone(record.Raw)
	return record
}
