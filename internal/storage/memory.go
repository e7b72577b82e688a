package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryStore implements Store in process memory. It is used by tests and by
// the CLI when no database is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string]string
	quota int64
	// failSet, when non-nil, is returned by Set instead of writing.
	failSet error
}

// NewMemoryStore returns an empty store. quota works as for NewSQLiteStore.
func NewMemoryStore(quota int64) *MemoryStore {
	return &MemoryStore{data: make(map[string]string), quota: quota}
}

// FailWrites makes every subsequent Set return err; nil restores normal writes.
func (m *MemoryStore) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSet = err
}

func (m *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return v, nil
}

func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet != nil {
		return m.failSet
	}
	if m.quota > 0 {
		used := m.usageLocked()
		if old, ok := m.data[key]; ok {
			used -= entrySize(key, old)
		}
		if used+entrySize(key, value) > m.quota {
			return fmt.Errorf("%w: writing %s needs %d bytes, %d of %d in use",
				ErrQuotaExceeded, key, entrySize(key, value), used, m.quota)
		}
	}
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]string)
	return nil
}

func (m *MemoryStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) Usage(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.usageLocked(), nil
}

func (m *MemoryStore) usageLocked() int64 {
	var n int64
	for k, v := range m.data {
		n += entrySize(k, v)
	}
	return n
}

func (m *MemoryStore) Close() error {
	return nil
}
