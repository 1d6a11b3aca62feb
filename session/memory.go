package session

import (
	"context"
	"sync"
)

// MemoryBackend keeps slots in process memory.
type MemoryBackend struct {
	mu    sync.RWMutex
	slots Slots
}

// NewMemoryBackend creates an empty [MemoryBackend].
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (m *MemoryBackend) Put(_ context.Context, slots Slots) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots = slots
	return nil
}

func (m *MemoryBackend) Get(context.Context) (Slots, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slots, nil
}

func (m *MemoryBackend) Delete(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots = Slots{}
	return nil
}
