// Package storage provides the namespaced key-value store that contracts persist their state in.
package storage

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrNotExist indicates the item does not exist in the store.
	ErrNotExist = errors.New("not exist in store")
	// ErrIO indicates a generic store I/O failure.
	ErrIO = errors.New("store I/O operation error")
)

// KVStore is a key-value store partitioned into namespaces.
type KVStore interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error

	// Put inserts or updates a record identified by (namespace, key).
	Put(namespace string, key, value []byte) error
	// Get returns the record identified by (namespace, key) or ErrNotExist.
	Get(namespace string, key []byte) ([]byte, error)
	// Delete removes a record. Deleting a missing record is not an error.
	Delete(namespace string, key []byte) error
}

const keyDelimiter = "."

// memKVStore is the in-memory implementation of KVStore.
type memKVStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemKVStore returns an in-memory KV store.
func NewMemKVStore() KVStore {
	return &memKVStore{data: make(map[string][]byte)}
}

func (m *memKVStore) Start(_ context.Context) error { return nil }

func (m *memKVStore) Stop(_ context.Context) error { return nil }

func (m *memKVStore) Put(namespace string, key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[namespace+keyDelimiter+string(key)] = stored

	return nil
}

func (m *memKVStore) Get(namespace string, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.data[namespace+keyDelimiter+string(key)]
	if !ok {
		return nil, ErrNotExist
	}

	out := make([]byte, len(value))
	copy(out, value)

	return out, nil
}

func (m *memKVStore) Delete(namespace string, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, namespace+keyDelimiter+string(key))

	return nil
}
