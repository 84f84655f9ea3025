// Package store persists bridge state as string key/value pairs.
//
// A missing key reads as "" with a nil error. Implementations must be safe
// for concurrent use.
package store

import (
	"context"
	"sync"
)

// Store is a string key/value store.
type Store interface {
	// Get returns the value for key, or "" when it is unset.
	Get(ctx context.Context, key string) (string, error)
	// Set writes value under key.
	Set(ctx context.Context, key, value string) error
	// Close releases resources.
	Close() error
}

// Memory is an in-process Store.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key], nil
}

// Set implements Store.
func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Close implements Store.
func (m *Memory) Close() error {
	return nil
}

var _ Store = (*Memory)(nil)
