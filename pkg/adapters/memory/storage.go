// Package memory provides a process-local core.Storage backed by maps.
// It is the default for tests and for throwaway sessions.
package memory

import (
	"context"
	"sync"

	"github.com/aretw0/introspection"

	"github.com/aretw0/quicknote/pkg/core"
)

type bucket struct {
	strings map[string]string
	ints    map[string]int64
}

// Storage implements core.Storage in memory.
type Storage struct {
	mu       sync.RWMutex
	buckets  map[core.Namespace]*bucket
	readOnly bool
}

// New creates an empty in-memory storage.
func New() *Storage {
	return &Storage{buckets: make(map[core.Namespace]*bucket)}
}

// NewReadOnly creates an empty storage that rejects writes.
func NewReadOnly() *Storage {
	s := New()
	s.readOnly = true
	return s
}

func (s *Storage) bucket(ns core.Namespace) *bucket {
	b, ok := s.buckets[ns]
	if !ok {
		b = &bucket{strings: make(map[string]string), ints: make(map[string]int64)}
		s.buckets[ns] = b
	}
	return b
}

// Initialize implements core.Storage.
func (s *Storage) Initialize(ctx context.Context) error { return nil }

// GetString implements core.Storage.
func (s *Storage) GetString(ctx context.Context, ns core.Namespace, key, def string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.buckets[ns]; ok {
		if v, ok := b.strings[key]; ok {
			return v, nil
		}
	}
	return def, nil
}

// SetString implements core.Storage.
func (s *Storage) SetString(ctx context.Context, ns core.Namespace, key, value string) error {
	if s.readOnly {
		return core.ErrReadOnly
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bucket(ns).strings[key] = value
	return nil
}

// GetInt64 implements core.Storage.
func (s *Storage) GetInt64(ctx context.Context, ns core.Namespace, key string, def int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.buckets[ns]; ok {
		if v, ok := b.ints[key]; ok {
			return v, nil
		}
	}
	return def, nil
}

// SetInt64 implements core.Storage.
func (s *Storage) SetInt64(ctx context.Context, ns core.Namespace, key string, value int64) error {
	if s.readOnly {
		return core.ErrReadOnly
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bucket(ns).ints[key] = value
	return nil
}

// Delete implements core.Storage.
func (s *Storage) Delete(ctx context.Context, ns core.Namespace, keys ...string) error {
	if s.readOnly {
		return core.ErrReadOnly
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[ns]
	if !ok {
		return nil
	}
	for _, k := range keys {
		delete(b.strings, k)
		delete(b.ints, k)
	}
	return nil
}

// Len returns the number of stored values across all namespaces.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, b := range s.buckets {
		n += len(b.strings) + len(b.ints)
	}
	return n
}

// StorageState exposes internal state for observability.
type StorageState struct {
	Namespaces int  `json:"namespaces"`
	Values     int  `json:"values"`
	ReadOnly   bool `json:"read_only"`
}

// State implements introspection.Introspectable.
func (s *Storage) State() any {
	s.mu.RLock()
	ns := len(s.buckets)
	s.mu.RUnlock()
	return StorageState{Namespaces: ns, Values: s.Len(), ReadOnly: s.readOnly}
}

// ComponentType implements introspection.Component.
func (s *Storage) ComponentType() string {
	return "memory-storage"
}

var _ core.Storage = (*Storage)(nil)
var _ introspection.Introspectable = (*Storage)(nil)
var _ introspection.Component = (*Storage)(nil)
