// Package session is the edit surface of a widget without the UI: it holds
// the note text and todo list being edited and turns UI events (text
// changed, checkbox toggled, item added, save pressed) into store calls.
//
// The UI layer stays a thin translator: it calls one method per event and
// repaints from Text and Todos.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/quicknote/pkg/core"
	"github.com/aretw0/quicknote/pkg/debounce"
)

// ErrNoSuchTodo is returned when an event names a todo index that does not exist.
var ErrNoSuchTodo = errors.New("no such todo item")

// stopTimeout bounds how long Close waits for an in-flight auto-save.
const stopTimeout = 5 * time.Second

// Session is one open edit flow for one widget.
type Session struct {
	id       string
	widgetID core.WidgetID
	svc      *core.Service
	ctx      context.Context
	logger   *slog.Logger
	onError  func(error)

	debouncer *debounce.Debouncer

	// persistMu serializes writes issued by this session so a late snapshot
	// never lands before an earlier one.
	persistMu sync.Mutex

	mu     sync.Mutex
	text   string
	todos  []core.TodoItem
	closed bool
	saves  int
}

type options struct {
	delay   time.Duration
	clock   debounce.Clock
	logger  *slog.Logger
	onError func(error)
}

// Option configures a Session.
type Option func(*options)

// WithDelay overrides the auto-save quiet period (core.AutoSaveDelay).
func WithDelay(d time.Duration) Option {
	return func(o *options) {
		o.delay = d
	}
}

// WithClock injects the clock driving the auto-save timer.
func WithClock(c debounce.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithLogger sets the logger for the session.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithErrorHandler receives failures of the background auto-save, which
// has no caller to return an error to.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.onError = fn
	}
}

// Open starts an edit session for the widget, loading its note and todos.
// An invalid widget id aborts before anything is read or written.
func Open(ctx context.Context, svc *core.Service, id core.WidgetID, opts ...Option) (*Session, error) {
	o := &options{delay: core.AutoSaveDelay, clock: debounce.RuntimeClock()}
	for _, opt := range opts {
		opt(o)
	}

	if !id.Valid() {
		if o.logger != nil {
			o.logger.Warn("edit session aborted", "widget_id", int(id), "error", core.ErrInvalidWidget)
		}
		return nil, fmt.Errorf("%w: %d", core.ErrInvalidWidget, id)
	}

	text, err := svc.LoadNote(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load note: %w", err)
	}
	todos, err := svc.LoadTodos(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load todos: %w", err)
	}

	s := &Session{
		id:       uuid.NewString(),
		widgetID: id,
		svc:      svc,
		ctx:      context.WithoutCancel(ctx),
		logger:   o.logger,
		onError:  o.onError,
		text:     text,
		todos:    todos,
	}
	s.debouncer = debounce.New(o.delay, s.autoSave,
		debounce.WithClock(o.clock),
		debounce.WithLogger(o.logger),
	)

	if s.logger != nil {
		s.logger = s.logger.With("session", s.id, "widget_id", int(id))
		s.logger.Debug("edit session opened", "todos", len(todos))
	}
	return s, nil
}

// ID returns the unique identifier of this session.
func (s *Session) ID() string { return s.id }

// WidgetID returns the widget being edited.
func (s *Session) WidgetID() core.WidgetID { return s.widgetID }

// Text returns the current (possibly unsaved) note text.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// Todos returns a copy of the current todo list.
func (s *Session) Todos() []core.TodoItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.TodoItem(nil), s.todos...)
}

// Closed reports whether the session has ended.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Pending reports whether a text change is waiting for its auto-save.
func (s *Session) Pending() bool {
	return s.debouncer.Pending()
}

// SetText records a text change and (re)schedules the auto-save.
func (s *Session) SetText(text string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return core.ErrSessionClosed
	}
	s.text = text
	s.mu.Unlock()

	s.debouncer.Trigger()
	return nil
}

// AddTodo appends an unchecked item with the default text and saves the
// list. It returns the index of the new item.
func (s *Session) AddTodo(ctx context.Context) (int, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return -1, core.ErrSessionClosed
	}
	s.todos = append(s.todos, core.NewTodoItem(core.DefaultTodoText))
	idx := len(s.todos) - 1
	s.mu.Unlock()

	return idx, s.persistTodos(ctx)
}

// SetTodoText edits an item in place and saves the list.
func (s *Session) SetTodoText(ctx context.Context, i int, text string) error {
	return s.mutateTodo(ctx, i, func(item *core.TodoItem) { item.Text = text })
}

// SetTodoCompleted toggles an item in place and saves the list.
func (s *Session) SetTodoCompleted(ctx context.Context, i int, completed bool) error {
	return s.mutateTodo(ctx, i, func(item *core.TodoItem) { item.Completed = completed })
}

func (s *Session) mutateTodo(ctx context.Context, i int, fn func(*core.TodoItem)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return core.ErrSessionClosed
	}
	if i < 0 || i >= len(s.todos) {
		n := len(s.todos)
		s.mu.Unlock()
		return fmt.Errorf("%w: index %d, list has %d", ErrNoSuchTodo, i, n)
	}
	fn(&s.todos[i])
	s.mu.Unlock()

	return s.persistTodos(ctx)
}

// SaveNow cancels any pending auto-save and saves the note immediately.
func (s *Session) SaveNow(ctx context.Context) error {
	if s.Closed() {
		return core.ErrSessionClosed
	}
	s.debouncer.Cancel()
	return s.persistNote(ctx)
}

// SaveAndClear is the explicit save action: it cancels the pending
// auto-save, saves the note, drops completed todos from the in-memory list,
// saves the list and ends the session. Unsaved edits on the surviving items
// are kept and persisted.
func (s *Session) SaveAndClear(ctx context.Context) error {
	if s.Closed() {
		return core.ErrSessionClosed
	}
	s.debouncer.Cancel()

	if err := s.persistNote(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.todos = s.svc.RemoveCompleted(s.widgetID, s.todos)
	s.mu.Unlock()

	if err := s.persistTodos(ctx); err != nil {
		return err
	}
	s.Close()
	return nil
}

// Close ends the session without saving. A pending auto-save is dropped
// and an auto-save already running is waited for. Close is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if !s.debouncer.StopAndWait(stopTimeout) && s.logger != nil {
		s.logger.Warn("auto-save did not finish before close")
	}
	if s.logger != nil {
		s.logger.Debug("edit session closed")
	}
}

func (s *Session) autoSave() {
	if s.Closed() {
		return
	}
	if err := s.persistNote(s.ctx); err != nil {
		if s.logger != nil {
			s.logger.Error("auto-save failed", "error", err)
		}
		if s.onError != nil {
			s.onError(err)
		}
	}
}

func (s *Session) persistNote(ctx context.Context) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	text := s.text
	s.mu.Unlock()

	if err := s.svc.SaveNote(ctx, s.widgetID, text); err != nil {
		return err
	}
	s.mu.Lock()
	s.saves++
	s.mu.Unlock()
	return nil
}

func (s *Session) persistTodos(ctx context.Context) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	items := append([]core.TodoItem(nil), s.todos...)
	s.mu.Unlock()

	return s.svc.SaveTodos(ctx, s.widgetID, items)
}
