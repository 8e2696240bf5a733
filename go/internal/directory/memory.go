package directory

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process directory, used when host and participants share
// one process or one machine.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]string)}
}

func (m *Memory) Register(_ context.Context, code, endpoint string) error {
	handle, err := handleFor(code)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.entries[handle]; taken {
		return fmt.Errorf("%w: %s", ErrCodeInUse, handle)
	}
	m.entries[handle] = endpoint
	return nil
}

func (m *Memory) Lookup(_ context.Context, code string) (string, error) {
	handle, err := handleFor(code)
	if err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	endpoint, ok := m.entries[handle]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrRoomNotFound, handle)
	}
	return endpoint, nil
}

func (m *Memory) Release(_ context.Context, code string) error {
	handle, err := handleFor(code)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, handle)
	return nil
}
