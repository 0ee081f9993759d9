package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-memory Destination used by tests and dry runs.
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemory creates an empty in-memory destination.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

// Write implements Destination.
func (m *Memory) Write(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	m.objects[key] = buf
	return nil
}

// Read implements Destination.
func (m *Memory) Read(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

// List implements Destination.
func (m *Memory) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Exists implements Destination.
func (m *Memory) Exists(ctx context.Context, prefix string) (bool, error) {
	keys, err := m.List(ctx, prefix)
	if err != nil {
		return false, err
	}
	return len(keys) > 0, nil
}
