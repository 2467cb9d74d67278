package core

import (
	"context"
	"fmt"
)

// Namespace is a logical partition of the key-value store.
type Namespace string

const (
	NamespaceNotes Namespace = "NOTES"
	NamespaceTodos Namespace = "TODOS"
)

// Field prefixes used to build per-widget keys.
const (
	FieldNote      = "note"
	FieldTimestamp = "timestamp"
	FieldTodos     = "todos"
)

// Key builds the per-widget key "<field>_<widgetId>".
func Key(field string, id WidgetID) string {
	return fmt.Sprintf("%s_%d", field, id)
}

// Storage defines the contract of the key-value store behind the widgets.
// A missing key is not an error: the provided default is returned.
// A write must be visible to the next read in the same process.
// String and integer values live in separate spaces, so the same key may
// hold one of each.
type Storage interface {
	GetString(ctx context.Context, ns Namespace, key, def string) (string, error)
	SetString(ctx context.Context, ns Namespace, key, value string) error
	GetInt64(ctx context.Context, ns Namespace, key string, def int64) (int64, error)
	SetInt64(ctx context.Context, ns Namespace, key string, value int64) error
	// Delete removes keys of both value kinds. Missing keys are ignored.
	Delete(ctx context.Context, ns Namespace, keys ...string) error
	// Initialize ensures the underlying storage is ready (mkdir, open files).
	Initialize(ctx context.Context) error
}

// Watchable is implemented by storages that can report changes made by
// other processes.
type Watchable interface {
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}

// Notifier is informed after every persisted change so a renderer can repaint.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(ctx context.Context, e Event)

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, e Event) {
	f(ctx, e)
}
