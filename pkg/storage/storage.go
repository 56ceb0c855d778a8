// Package storage provides key/value stores with same-window change
// notification and composables that keep signals in sync with them.
//
// A store is wrapped once with Track. The tracked store performs every
// mutation on the underlying store and then publishes a ChangeEvent on its
// window, so binders attached to the same store see changes made anywhere
// in the process:
//
//	win := storage.NewWindow(nil, nil, nil)
//	name, _ := storage.Use(owner, "name", storage.UseOptions{
//	    Options: storage.Options{Storage: win.Local},
//	})
//	win.Local.SetItem("name", "Mary") // name.Get() == opt.Of("Mary")
//
// Stores never hold null: writing a null or undefined value removes the key.
package storage

import (
	stderrors "errors"
	"sort"
	"sync"

	"github.com/vango-dev/composables/internal/errors"
	"github.com/vango-dev/composables/pkg/opt"
)

// Storage is a string key/value store with the semantics of the browser's
// Web Storage. A missing key reads as null.
type Storage interface {
	GetItem(key string) (opt.Value[string], error)
	SetItem(key, value string) error
	RemoveItem(key string) error
	Clear() error
	Keys() ([]string, error)
}

// ErrQuotaExceeded is returned by SetItem when the value does not fit.
var ErrQuotaExceeded = stderrors.New("storage: quota exceeded")

// DefaultQuota is the Memory quota used when none is configured, in bytes
// of keys plus values.
const DefaultQuota = 5 << 20

// MemoryOptions configures NewMemory.
type MemoryOptions struct {
	// Quota limits the total size of keys and values in bytes.
	// Zero means DefaultQuota and a negative value means unlimited.
	Quota int
}

// Memory is an in-process Storage.
type Memory struct {
	mu    sync.RWMutex
	items map[string]string
	size  int
	quota int
}

// NewMemory creates an empty in-memory store.
func NewMemory(opts MemoryOptions) *Memory {
	quota := opts.Quota
	if quota == 0 {
		quota = DefaultQuota
	}
	return &Memory{
		items: make(map[string]string),
		quota: quota,
	}
}

// GetItem implements Storage.
func (m *Memory) GetItem(key string) (opt.Value[string], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return opt.FromLookup(v, ok), nil
}

// SetItem implements Storage. It fails with ErrQuotaExceeded, wrapped in an
// E201 error, when the new value would exceed the quota; the store is left
// unchanged in that case.
func (m *Memory) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	size := m.size + len(value)
	if old, ok := m.items[key]; ok {
		size -= len(old)
	} else {
		size += len(key)
	}
	if m.quota > 0 && size > m.quota {
		return errors.New("E201").
			WithDetailf("setting %q needs %d of %d bytes", key, size, m.quota).
			Wrap(ErrQuotaExceeded)
	}

	m.items[key] = value
	m.size = size
	return nil
}

// RemoveItem implements Storage.
func (m *Memory) RemoveItem(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.items[key]; ok {
		m.size -= len(key) + len(old)
		delete(m.items, key)
	}
	return nil
}

// Clear implements Storage.
func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]string)
	m.size = 0
	return nil
}

// Keys implements Storage. Keys are sorted.
func (m *Memory) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Size returns the bytes used by keys and values.
func (m *Memory) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size
}
