package fs

import (
	"sort"
	"time"

	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path          string         `json:"path"`
	ReadOnly      bool           `json:"read_only"`
	Namespaces    []string       `json:"namespaces"`
	Values        map[string]int `json:"values"`
	WatcherActive bool           `json:"watcher_active"`
	LastEvent     *time.Time     `json:"last_event,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	namespaces := make([]string, 0, len(r.files))
	values := make(map[string]int, len(r.files))
	for ns, f := range r.files {
		namespaces = append(namespaces, string(ns))
		values[string(ns)] = f.Len()
	}
	sort.Strings(namespaces)

	return RepositoryState{
		Path:          r.Path,
		ReadOnly:      r.config.ReadOnly,
		Namespaces:    namespaces,
		Values:        values,
		WatcherActive: r.watcherActive,
		LastEvent:     r.lastEvent,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "fs-storage"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)

func (r *Repository) setWatcherActive(active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watcherActive = active
}

func (r *Repository) recordEvent() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.lastEvent = &now
}
