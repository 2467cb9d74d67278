// Package cache provides an LRU decorator for any core.Storage.
//
// Reads are served from memory once a value has been seen. Writes go to
// the wrapped storage first and only update the cache when they succeed.
// When the wrapped storage is watchable, every change it reports purges
// the cache, so values written by another process are picked up.
//
// A read that misses only fills the cache when no write, delete or purge
// happened while it was reading, so a slow read never hides a newer write.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aretw0/quicknote/pkg/core"
)

// DefaultSize is the number of values kept when no size is given.
const DefaultSize = 256

type kind uint8

const (
	kindString kind = iota
	kindInt
)

type entryKey struct {
	ns   core.Namespace
	kind kind
	key  string
}

// Storage wraps a core.Storage with an LRU cache.
type Storage struct {
	inner  core.Storage
	lru    *lru.Cache[entryKey, any]
	size   int
	logger *slog.Logger

	// mu orders cache fills against invalidations; gen counts invalidations.
	mu  sync.Mutex
	gen uint64

	hits   atomic.Int64
	misses atomic.Int64
	purges atomic.Int64
}

// Option configures the cache.
type Option func(*Storage)

// WithLogger sets the logger. Nil is silent.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Storage) {
		s.logger = logger
	}
}

// New wraps inner with a cache of at most size values.
func New(inner core.Storage, size int, opts ...Option) (*Storage, error) {
	if size <= 0 {
		size = DefaultSize
	}
	c, err := lru.New[entryKey, any](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	s := &Storage{inner: inner, lru: c, size: size}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Unwrap returns the decorated storage.
func (s *Storage) Unwrap() core.Storage {
	return s.inner
}

// Initialize implements core.Storage.
func (s *Storage) Initialize(ctx context.Context) error {
	return s.inner.Initialize(ctx)
}

// GetString implements core.Storage.
func (s *Storage) GetString(ctx context.Context, ns core.Namespace, key, def string) (string, error) {
	k := entryKey{ns: ns, kind: kindString, key: key}
	if v, ok := s.lru.Get(k); ok {
		s.hits.Add(1)
		return v.(string), nil
	}
	s.misses.Add(1)
	gen := s.generation()
	v, err := s.inner.GetString(ctx, ns, key, def)
	if err != nil {
		return def, err
	}
	// A result equal to def may be a missing key; leave it uncached.
	if v != def {
		s.fill(gen, k, v)
	}
	return v, nil
}

// GetInt64 implements core.Storage.
func (s *Storage) GetInt64(ctx context.Context, ns core.Namespace, key string, def int64) (int64, error) {
	k := entryKey{ns: ns, kind: kindInt, key: key}
	if v, ok := s.lru.Get(k); ok {
		s.hits.Add(1)
		return v.(int64), nil
	}
	s.misses.Add(1)
	gen := s.generation()
	v, err := s.inner.GetInt64(ctx, ns, key, def)
	if err != nil {
		return def, err
	}
	if v != def {
		s.fill(gen, k, v)
	}
	return v, nil
}

func (s *Storage) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// fill caches v unless the cache was invalidated since gen was taken.
func (s *Storage) fill(gen uint64, k entryKey, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.gen {
		s.lru.Add(k, v)
	}
}

// store records the outcome of a write. A failed write drops the entry.
func (s *Storage) store(k entryKey, v any, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if ok {
		s.lru.Add(k, v)
	} else {
		s.lru.Remove(k)
	}
}

// SetString implements core.Storage.
func (s *Storage) SetString(ctx context.Context, ns core.Namespace, key, value string) error {
	err := s.inner.SetString(ctx, ns, key, value)
	s.store(entryKey{ns: ns, kind: kindString, key: key}, value, err == nil)
	return err
}

// SetInt64 implements core.Storage.
func (s *Storage) SetInt64(ctx context.Context, ns core.Namespace, key string, value int64) error {
	err := s.inner.SetInt64(ctx, ns, key, value)
	s.store(entryKey{ns: ns, kind: kindInt, key: key}, value, err == nil)
	return err
}

// Delete implements core.Storage.
func (s *Storage) Delete(ctx context.Context, ns core.Namespace, keys ...string) error {
	err := s.inner.Delete(ctx, ns, keys...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	for _, key := range keys {
		s.lru.Remove(entryKey{ns: ns, kind: kindString, key: key})
		s.lru.Remove(entryKey{ns: ns, kind: kindInt, key: key})
	}
	return err
}

// Watch forwards the wrapped storage's events, purging the cache first.
func (s *Storage) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	w, ok := s.inner.(core.Watchable)
	if !ok {
		return nil, fmt.Errorf("storage %T does not support watching", s.inner)
	}
	in, err := w.Watch(ctx, pattern)
	if err != nil {
		return nil, err
	}

	out := make(chan core.Event, cap(in))
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(out)
		for e := range in {
			s.Purge()
			if s.logger != nil {
				s.logger.Debug("cache purged on external change", "namespace", string(e.Namespace))
			}
			select {
			case out <- e:
			case <-ctx.Done():
				return nil
			}
		}
		return nil
	})
	return out, nil
}

// Purge drops every cached value.
func (s *Storage) Purge() {
	s.mu.Lock()
	s.gen++
	s.lru.Purge()
	s.mu.Unlock()
	s.purges.Add(1)
}

// Close closes the wrapped storage if it holds resources.
func (s *Storage) Close() error {
	if c, ok := s.inner.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// StorageState exposes cache statistics.
type StorageState struct {
	Size   int    `json:"size"`
	Len    int    `json:"len"`
	Hits   int64  `json:"hits"`
	Misses int64  `json:"misses"`
	Purges int64  `json:"purges"`
	Inner  string `json:"inner"`
}

// State implements introspection.Introspectable.
func (s *Storage) State() any {
	inner := fmt.Sprintf("%T", s.inner)
	if c, ok := s.inner.(introspection.Component); ok {
		inner = c.ComponentType()
	}
	return StorageState{
		Size:   s.size,
		Len:    s.lru.Len(),
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
		Purges: s.purges.Load(),
		Inner:  inner,
	}
}

// ComponentType implements introspection.Component.
func (s *Storage) ComponentType() string {
	return "lru-cache"
}

var _ core.Storage = (*Storage)(nil)
var _ core.Watchable = (*Storage)(nil)
var _ introspection.Introspectable = (*Storage)(nil)
var _ introspection.Component = (*Storage)(nil)
