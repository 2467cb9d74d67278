package quicknote

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/quicknote/internal/platform"
	"github.com/aretw0/quicknote/pkg/core"
	"github.com/aretw0/quicknote/pkg/render"
	"github.com/aretw0/quicknote/pkg/session"
)

// --- Types ---

// Service is the note/todo store bound to a storage adapter.
type Service = core.Service

// Session is an open edit surface for one widget.
type Session = session.Session

// View is what a widget displays.
type View = render.View

// WidgetID identifies a widget instance.
type WidgetID = core.WidgetID

// TodoItem is one checklist entry.
type TodoItem = core.TodoItem

// Errors re-exported from the domain.
var (
	ErrInvalidWidget = core.ErrInvalidWidget
	ErrReadOnly      = core.ErrReadOnly
	ErrSessionClosed = core.ErrSessionClosed
)

// --- Configuration ---

// Option defines a functional option for configuring the store.
type Option = platform.Option

// WithAdapter selects the storage adapter: "fs" (default), "badger" or "memory".
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithStorage injects a custom storage adapter.
func WithStorage(storage core.Storage) Option {
	return platform.WithStorage(storage)
}

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithReadOnly rejects every write with ErrReadOnly.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithMustExist requires the store directory to exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithCacheSize puts an LRU cache of n values in front of the storage.
func WithCacheSize(n int) Option {
	return platform.WithCacheSize(n)
}

// WithNotifier registers the callback told about every saved change.
func WithNotifier(n core.Notifier) Option {
	return platform.WithNotifier(n)
}

// WithNow overrides the clock used to stamp saved notes.
func WithNow(now func() time.Time) Option {
	return platform.WithNow(now)
}

// WithEventBuffer sets the buffer of Subscribe channels.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithWatcherErrorHandler receives runtime failures of the watch loop.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithForceTemp forces the store into a temporary directory.
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety controls the `go run` sandbox.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// --- Factory ---

// New opens the store at path and returns its service.
func New(path string, opts ...Option) (*core.Service, error) {
	return platform.New(path, opts...)
}

// Init builds and initializes the storage adapter only.
func Init(path string, opts ...Option) (core.Storage, error) {
	return platform.Init(path, opts...)
}

// Open starts an edit session for a widget.
func Open(ctx context.Context, svc *core.Service, id WidgetID, opts ...session.Option) (*session.Session, error) {
	return session.Open(ctx, svc, id, opts...)
}

// Render builds the view of a widget.
func Render(ctx context.Context, svc *core.Service, id WidgetID, opts ...render.Option) (render.View, error) {
	return render.Render(ctx, svc, id, opts...)
}

// --- Safety & Utils ---

// ResolveStorePath applies the dev sandbox rules to a path.
func ResolveStorePath(userPath string, forceTemp bool) string {
	return platform.ResolveStorePath(userPath, forceTemp)
}

// IsDevRun reports whether the process runs via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindStoreRoot looks upwards from startDir for a store directory.
func FindStoreRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
