package badger

import (
	"time"

	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path     string     `json:"path,omitempty"`
	InMemory bool       `json:"in_memory"`
	ReadOnly bool       `json:"read_only"`
	Open     bool       `json:"open"`
	OpenedAt *time.Time `json:"opened_at,omitempty"`
	GCRuns   int        `json:"gc_runs"`
	LSMSize  int64      `json:"lsm_size"`
	VlogSize int64      `json:"vlog_size"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := RepositoryState{
		Path:     r.config.Path,
		InMemory: r.config.InMemory,
		ReadOnly: r.config.ReadOnly,
		Open:     r.db != nil && !r.closed,
		GCRuns:   r.gcRuns,
	}
	if s.Open {
		openedAt := r.openedAt
		s.OpenedAt = &openedAt
		s.LSMSize, s.VlogSize = r.db.Size()
	}
	return s
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "badger-storage"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)
