// Package storage defines the string key-value dependency the cart and order
// book persist through, with an in-memory implementation and decorators.
// Durable backends live in the redis, postgres and sqlite subpackages.
package storage

import (
	"context"
	"sync"
)

// Storage is a string key-value store. Get reports ok=false for a missing key;
// that is not an error.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Pinger is implemented by backends that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks s if it supports health checks and succeeds otherwise.
func Ping(ctx context.Context, s Storage) error {
	if p, ok := s.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Memory is a process-local Storage.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Len returns the number of stored keys.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// prefixed scopes every key of the wrapped store under a fixed prefix.
type prefixed struct {
	next   Storage
	prefix string
}

// WithPrefix returns a view of s where every key is stored as prefix+key.
func WithPrefix(s Storage, prefix string) Storage {
	if prefix == "" {
		return s
	}
	return &prefixed{next: s, prefix: prefix}
}

func (p *prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.next.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key, value string) error {
	return p.next.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Ping(ctx context.Context) error {
	return Ping(ctx, p.next)
}
