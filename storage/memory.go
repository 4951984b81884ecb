package storage

import (
	"context"
	"sync"
)

// Memory is a map-backed Store. Used in tests and as the fallback when no
// database is configured; values last only for the process lifetime.
type Memory struct {
	mu   sync.RWMutex
	data map[int64]map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[int64]map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, userID int64, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[userID][key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *Memory) Set(_ context.Context, userID int64, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[userID] == nil {
		m.data[userID] = make(map[string][]byte)
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.data[userID][key] = v
	return nil
}

func (m *Memory) Remove(_ context.Context, userID int64, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[userID], key)
	return nil
}
