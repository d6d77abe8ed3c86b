// ABOUTME: Key-value storage abstraction modelled on browser localStorage: string keys, string values.
// ABOUTME: MemoryKV backs tests; FileKV and SqliteIndex provide durable backends.
package store

import (
	"fmt"
	"strings"
	"sync"
)

// KV is a durable string key-value store.
type KV interface {
	// GetItem returns the value for key and whether it exists.
	GetItem(key string) (string, bool, error)
	// SetItem overwrites the value for key.
	SetItem(key, value string) error
}

// Backend selects the KV implementation a board directory uses.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendSqlite Backend = "sqlite"
)

// ParseBackend parses a backend name.
func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case BackendFile, "":
		return BackendFile, nil
	case BackendSqlite:
		return BackendSqlite, nil
	}
	return "", fmt.Errorf("unknown storage backend: %q", s)
}

// MemoryKV is an in-process KV. It is safe for concurrent use.
type MemoryKV struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemoryKV creates an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{items: make(map[string]string)}
}

func (m *MemoryKV) GetItem(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemoryKV) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}
