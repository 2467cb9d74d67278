// Package fs implements core.Storage on the local filesystem.
//
// Each namespace lives in its own JSON file inside the store directory
// (NOTES.json, TODOS.json), holding separate string and integer maps.
// Writes take a cross-process file lock, merge with the latest file on
// disk and replace it atomically, so a write is durable before the call
// returns and visible to every later read.
package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/quicknote/pkg/core"
)

// DefaultLockTimeout bounds how long a write waits for the file lock.
const DefaultLockTimeout = 5 * time.Second

// Config holds the configuration for the filesystem storage.
type Config struct {
	Path      string
	MustExist bool
	ReadOnly  bool
	Logger    *slog.Logger
	// ErrorHandler receives runtime failures of the watch loop.
	ErrorHandler func(error)
	// LockTimeout bounds lock acquisition. Zero means DefaultLockTimeout.
	LockTimeout time.Duration
	// WatchDebounce coalesces bursts of file events. Zero means 50ms.
	WatchDebounce time.Duration
}

// Repository implements core.Storage using one JSON file per namespace.
type Repository struct {
	Path   string
	config Config
	lock   *fileLock

	mu            sync.RWMutex
	files         map[core.Namespace]*namespaceFile
	watcherActive bool
	lastEvent     *time.Time
}

// NewRepository creates a new filesystem-backed storage.
// No I/O happens until Initialize or the first operation.
func NewRepository(config Config) *Repository {
	if config.LockTimeout <= 0 {
		config.LockTimeout = DefaultLockTimeout
	}
	if config.WatchDebounce <= 0 {
		config.WatchDebounce = 50 * time.Millisecond
	}
	return &Repository{
		Path:   config.Path,
		config: config,
		lock:   newFileLock(config.Path),
		files:  make(map[core.Namespace]*namespaceFile),
	}
}

// Initialize ensures the store directory exists.
func (r *Repository) Initialize(ctx context.Context) error {
	if r.config.MustExist || r.config.ReadOnly {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("store path does not exist: %s", r.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("store path is not a directory: %s", r.Path)
		}
		return nil
	}
	if err := os.MkdirAll(r.Path, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	return nil
}

// file returns the refreshed namespace file. Caller holds r.mu.
func (r *Repository) file(ns core.Namespace) (*namespaceFile, error) {
	if ns == "" || strings.ContainsAny(string(ns), `/\`) || strings.HasPrefix(string(ns), ".") {
		return nil, fmt.Errorf("invalid namespace %q", ns)
	}
	f, ok := r.files[ns]
	if !ok {
		f = newNamespaceFile(r.Path, ns)
		r.files[ns] = f
	}
	if err := f.Refresh(); err != nil {
		if !errors.Is(err, errCorrupt) {
			return nil, err
		}
		r.warn("namespace file unreadable, starting empty", "namespace", string(ns), "error", err)
	}
	return f, nil
}

// GetString implements core.Storage.
func (r *Repository) GetString(ctx context.Context, ns core.Namespace, key, def string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := r.file(ns)
	if err != nil {
		return def, err
	}
	if v, ok := f.data.Strings[key]; ok {
		return v, nil
	}
	return def, nil
}

// GetInt64 implements core.Storage.
func (r *Repository) GetInt64(ctx context.Context, ns core.Namespace, key string, def int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := r.file(ns)
	if err != nil {
		return def, err
	}
	if v, ok := f.data.Ints[key]; ok {
		return v, nil
	}
	return def, nil
}

// SetString implements core.Storage.
func (r *Repository) SetString(ctx context.Context, ns core.Namespace, key, value string) error {
	return r.update(ctx, ns, func(p *prefs) bool {
		if old, ok := p.Strings[key]; ok && old == value {
			return false
		}
		p.Strings[key] = value
		return true
	})
}

// SetInt64 implements core.Storage.
func (r *Repository) SetInt64(ctx context.Context, ns core.Namespace, key string, value int64) error {
	return r.update(ctx, ns, func(p *prefs) bool {
		if old, ok := p.Ints[key]; ok && old == value {
			return false
		}
		p.Ints[key] = value
		return true
	})
}

// Delete implements core.Storage.
func (r *Repository) Delete(ctx context.Context, ns core.Namespace, keys ...string) error {
	return r.update(ctx, ns, func(p *prefs) bool {
		changed := false
		for _, k := range keys {
			if _, ok := p.Strings[k]; ok {
				delete(p.Strings, k)
				changed = true
			}
			if _, ok := p.Ints[k]; ok {
				delete(p.Ints, k)
				changed = true
			}
		}
		return changed
	})
}

// update runs a read-modify-write cycle under both the in-process mutex
// and the cross-process file lock. mutate reports whether it changed p.
func (r *Repository) update(ctx context.Context, ns core.Namespace, mutate func(p *prefs) bool) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lockCtx, cancel := context.WithTimeout(ctx, r.config.LockTimeout)
	defer cancel()
	unlock, err := r.lock.Lock(lockCtx)
	if err != nil {
		return err
	}
	defer unlock()

	f, err := r.file(ns)
	if err != nil {
		return err
	}
	if !mutate(f.data) {
		return nil
	}

	if r.config.Logger != nil {
		r.config.Logger.Debug("writing namespace file", "namespace", string(ns), "path", f.Path)
	}
	if err := f.Save(); err != nil {
		// Drop the in-memory copy; the next access reloads from disk.
		f.loaded = false
		return fmt.Errorf("failed to write namespace %s: %w", ns, err)
	}
	return nil
}

func (r *Repository) warn(msg string, args ...any) {
	if r.config.Logger != nil {
		r.config.Logger.Warn(msg, args...)
	}
}

var _ core.Storage = (*Repository)(nil)
var _ core.Watchable = (*Repository)(nil)
