// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package cachestore

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryManager keeps all stores in process memory. Entries never
// expire on their own; stores live until deleted by activation cleanup.
// This is the default backend and the one used by tests.
type MemoryManager struct {
	mu     sync.RWMutex
	stores map[string]*memoryStore
}

// NewMemoryManager creates an empty in-memory manager.
func NewMemoryManager() *MemoryManager {
	return &MemoryManager{
		stores: make(map[string]*memoryStore),
	}
}

func (m *MemoryManager) Open(name string) (Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	store, ok := m.stores[name]
	if !ok {
		store = &memoryStore{
			entries: gocache.New(gocache.NoExpiration, 10*time.Minute),
		}
		m.stores[name] = store
	}
	return store, nil
}

func (m *MemoryManager) Names() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.stores))
	for name := range m.stores {
		names = append(names, name)
	}
	return names, nil
}

func (m *MemoryManager) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Deleting a non-existent store is a no-op, not an error
	delete(m.stores, name)
	return nil
}

func (m *MemoryManager) Has(name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.stores[name]
	return ok, nil
}

func (m *MemoryManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stores = make(map[string]*memoryStore)
	return nil
}

// memoryStore backs a single named store with a go-cache instance.
// go-cache gives us atomic per-key set/get; NoExpiration because the
// store lifecycle is version-driven, not time-driven.
type memoryStore struct {
	entries *gocache.Cache
}

func (s *memoryStore) Match(key string) (*Response, error) {
	val, ok := s.entries.Get(key)
	if !ok {
		return nil, ErrNotFound
	}

	resp, ok := val.(*Response)
	if !ok {
		return nil, ErrNotFound
	}
	return resp.Clone(), nil
}

func (s *memoryStore) Put(key string, resp *Response) error {
	s.entries.Set(key, resp.Clone(), gocache.NoExpiration)
	return nil
}

func (s *memoryStore) Delete(key string) error {
	s.entries.Delete(key)
	return nil
}

func (s *memoryStore) Keys() ([]string, error) {
	items := s.entries.Items()
	keys := make([]string, 0, len(items))
	for key := range items {
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *memoryStore) Len() (int, error) {
	return s.entries.ItemCount(), nil
}
