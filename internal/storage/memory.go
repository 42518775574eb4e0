package storage

import (
	"sync"

	"github.com/klabast/wb-services/task-calendar/internal/tasks"
)

// MemoryBackend keeps the encoded document in memory.
type MemoryBackend struct {
	mu    sync.Mutex
	data  []byte
	saves int

	// Error injection for testing
	LoadErr error
	SaveErr error
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// NewMemoryBackendFrom returns a backend whose stored document is data.
func NewMemoryBackendFrom(data []byte) *MemoryBackend {
	return &MemoryBackend{data: append([]byte(nil), data...)}
}

func (m *MemoryBackend) Load() (*tasks.Calendar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.data == nil {
		return tasks.NewCalendar(), nil
	}
	return tasks.DecodeDocument(m.data)
}

func (m *MemoryBackend) Save(cal *tasks.Calendar) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveErr != nil {
		return m.SaveErr
	}
	data, err := tasks.EncodeDocument(cal)
	if err != nil {
		return err
	}
	m.data = data
	m.saves++
	return nil
}

// Bytes returns a copy of the stored document.
func (m *MemoryBackend) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}

// Saves returns how many times Save succeeded.
func (m *MemoryBackend) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
