// Copyright 2026 The VisitMap Authors
// SPDX-License-Identifier: Apache-2.0

package visitor

import (
	"sync"
)

// KV is the persistence boundary for all visitor state: string-keyed opaque
// blobs, the shape of browser local storage. Implementations can use any
// backend; the stores above this interface never touch storage directly, so
// the core logic tests without a real database.
//
// Privacy guarantee: every blob written through this interface is already
// privacy-safe. Coordinates are rounded, no IP addresses exist anywhere in
// the model, and mode rules are enforced before a write reaches here.
type KV interface {
	// Get returns the blob for key. The boolean reports presence; a
	// missing key is not an error.
	Get(key string) ([]byte, bool, error)

	// Set stores the blob under key, replacing any previous value.
	Set(key string, value []byte) error

	// Delete removes key. Deleting an absent key is a no-op.
	Delete(key string) error
}

// MemoryKV keeps blobs in process memory. It backs the session-scoped
// namespace (the sessionStorage analog) and tests.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

// Get implements KV.
func (m *MemoryKV) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}

	out := make([]byte, len(value))
	copy(out, value)

	return out, true, nil
}

// Set implements KV.
func (m *MemoryKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[key] = stored

	return nil
}

// Delete implements KV.
func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)

	return nil
}
