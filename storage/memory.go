package storage

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]map[string][]byte
}

// NewMemory returns a process-local store. Contents vanish on restart.
func NewMemory() Local {
	return &memoryStore{entries: make(map[string]map[string][]byte)}
}

func (m *memoryStore) Get(_ context.Context, device, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.entries[device][key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), val...), nil
}

func (m *memoryStore) Set(_ context.Context, device, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries[device] == nil {
		m.entries[device] = make(map[string][]byte)
	}
	m.entries[device][key] = append([]byte(nil), value...)
	return nil
}

func (m *memoryStore) Delete(_ context.Context, device, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries[device], key)
	return nil
}
