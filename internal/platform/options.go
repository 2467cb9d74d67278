package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/quicknote/pkg/core"
)

// options holds the internal configuration for a quicknote store.
type options struct {
	storage  core.Storage
	logger   *slog.Logger
	adapter  string
	notifier core.Notifier
	config   map[string]interface{}
}

// Option defines a functional option for configuring a store.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		adapter: "fs",
		config:  make(map[string]interface{}),
	}
}

// WithLogger sets the logger for the store and its adapter.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStorage injects a ready-made storage adapter.
// If provided, the named adapter is skipped.
func WithStorage(storage core.Storage) Option {
	return func(o *options) {
		o.storage = storage
	}
}

// WithAdapter selects the storage adapter by name: "fs", "badger" or "memory".
// Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithNotifier registers the callback told about every saved change.
func WithNotifier(n core.Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// WithMustExist requires the store directory to exist already.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithReadOnly enables read-only mode.
// Writes return core.ErrReadOnly, no directory is created and the dev
// sandbox is bypassed since nothing can be damaged.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.config["read_only"] = enabled
	}
}

// WithCacheSize wraps the storage in an LRU cache of n values. Zero disables it.
func WithCacheSize(n int) Option {
	return func(o *options) {
		o.config["cache_size"] = n
	}
}

// WithEventBuffer sets the buffer size of subscriber channels.
// Zero means default (100).
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.config["event_buffer"] = size
	}
}

// WithNow overrides the clock used to stamp saved notes.
func WithNow(now func() time.Time) Option {
	return func(o *options) {
		o.config["now"] = now
	}
}

// WithWatcherErrorHandler registers a callback for runtime failures of the
// watch loop (e.g. permission denied), which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}

// WithForceTemp forces the store into a temporary directory.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.config["temp_dir"] = force
	}
}

// WithDevSafety controls the sandbox used when running via `go run`.
// By default (true) such runs are redirected to a temporary directory so a
// development build never touches real notes.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.config["dev_safety"] = enabled
	}
}
