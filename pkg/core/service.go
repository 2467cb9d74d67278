package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// DefaultEventBuffer is the per-subscriber channel size used by Subscribe.
const DefaultEventBuffer = 100

// noTimestamp marks a note without a modification time.
const noTimestamp int64 = -1

// noNote marks a note key that is absent. Saved notes are trimmed, so they
// never start with a NUL byte.
const noNote = "\x00"

// Service is the note/todo store: domain operations scoped to a widget,
// written through the injected Storage.
type Service struct {
	storage  Storage
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time

	mu              sync.RWMutex
	subscribers     map[int]chan Event
	nextSub         int
	eventBufferSize int
	dropped         int
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithNotifier sets the downstream refresh callback (the widget renderer).
func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithServiceLogger sets the logger. Nil keeps the service silent.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithNow overrides the wall clock used to stamp notes.
func WithNow(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithEventBuffer sets the buffer size of Subscribe channels.
// Zero means DefaultEventBuffer.
func WithEventBuffer(size int) ServiceOption {
	return func(s *Service) {
		s.eventBufferSize = size
	}
}

// NewService creates a new Service.
func NewService(storage Storage, opts ...ServiceOption) *Service {
	s := &Service{
		storage:     storage,
		now:         time.Now,
		subscribers: make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.eventBufferSize <= 0 {
		s.eventBufferSize = DefaultEventBuffer
	}
	return s
}

// Storage returns the underlying storage port.
func (s *Service) Storage() Storage {
	return s.storage
}

// LoadNote returns the persisted note content, or "" if never saved.
func (s *Service) LoadNote(ctx context.Context, id WidgetID) (string, error) {
	if !id.Valid() {
		return "", ErrInvalidWidget
	}
	return s.storage.GetString(ctx, NamespaceNotes, Key(FieldNote, id), "")
}

// LoadNoteRecord returns the note with its modification time.
// The boolean is false when no note is stored for the widget. LastModified
// is the zero time when no timestamp is stored, which happens when another
// writer stored the note alone.
func (s *Service) LoadNoteRecord(ctx context.Context, id WidgetID) (Note, bool, error) {
	if !id.Valid() {
		return Note{}, false, ErrInvalidWidget
	}
	content, err := s.storage.GetString(ctx, NamespaceNotes, Key(FieldNote, id), noNote)
	if err != nil {
		return Note{}, false, fmt.Errorf("failed to read note: %w", err)
	}
	ts, err := s.storage.GetInt64(ctx, NamespaceNotes, Key(FieldTimestamp, id), noTimestamp)
	if err != nil {
		return Note{}, false, fmt.Errorf("failed to read timestamp: %w", err)
	}
	var note Note
	if ts != noTimestamp {
		note.LastModified = time.UnixMilli(ts)
	}
	if content == noNote {
		return note, false, nil
	}
	note.Content = content
	return note, true, nil
}

// SaveNote trims the content, persists it together with the current time
// and notifies the renderer.
func (s *Service) SaveNote(ctx context.Context, id WidgetID, content string) error {
	if !id.Valid() {
		return ErrInvalidWidget
	}
	content = strings.TrimSpace(content)
	if err := s.storage.SetString(ctx, NamespaceNotes, Key(FieldNote, id), content); err != nil {
		return fmt.Errorf("failed to save note: %w", err)
	}
	if err := s.storage.SetInt64(ctx, NamespaceNotes, Key(FieldTimestamp, id), s.now().UnixMilli()); err != nil {
		return fmt.Errorf("failed to save timestamp: %w", err)
	}
	s.debug("note saved", "widget_id", int(id), "length", len(content))
	s.emit(ctx, Event{Type: EventNoteSaved, WidgetID: id, Namespace: NamespaceNotes})
	return nil
}

// LoadTodos returns the widget's todo list. Corrupt payloads yield an empty
// list and are only logged.
func (s *Service) LoadTodos(ctx context.Context, id WidgetID) ([]TodoItem, error) {
	if !id.Valid() {
		return nil, ErrInvalidWidget
	}
	payload, err := s.storage.GetString(ctx, NamespaceTodos, Key(FieldTodos, id), "")
	if err != nil {
		return nil, fmt.Errorf("failed to read todos: %w", err)
	}
	items, ok := DecodeTodos(payload)
	if !ok && s.logger != nil {
		s.logger.Warn("discarding unreadable todo payload", "widget_id", int(id), "bytes", len(payload))
	}
	return items, nil
}

// SaveTodos persists the whole list and notifies the renderer.
func (s *Service) SaveTodos(ctx context.Context, id WidgetID, items []TodoItem) error {
	if !id.Valid() {
		return ErrInvalidWidget
	}
	payload, err := EncodeTodos(items)
	if err != nil {
		return fmt.Errorf("failed to encode todos: %w", err)
	}
	if err := s.storage.SetString(ctx, NamespaceTodos, Key(FieldTodos, id), payload); err != nil {
		return fmt.Errorf("failed to save todos: %w", err)
	}
	s.debug("todos saved", "widget_id", int(id), "count", len(items))
	s.emit(ctx, Event{Type: EventTodosSaved, WidgetID: id, Namespace: NamespaceTodos})
	return nil
}

// RemoveCompleted drops the completed items of a widget's list.
// Nothing is persisted; pass the result to SaveTodos.
func (s *Service) RemoveCompleted(id WidgetID, items []TodoItem) []TodoItem {
	out := RemoveCompleted(items)
	s.debug("completed todos removed", "widget_id", int(id), "removed", len(items)-len(out))
	return out
}

// DeleteWidget removes every key of a widget from both namespaces.
func (s *Service) DeleteWidget(ctx context.Context, id WidgetID) error {
	if !id.Valid() {
		return ErrInvalidWidget
	}
	err := errors.Join(
		s.storage.Delete(ctx, NamespaceNotes, Key(FieldNote, id), Key(FieldTimestamp, id)),
		s.storage.Delete(ctx, NamespaceTodos, Key(FieldTodos, id)),
	)
	if err != nil {
		return fmt.Errorf("failed to delete widget %d: %w", id, err)
	}
	s.emit(ctx, Event{Type: EventWidgetDeleted, WidgetID: id})
	return nil
}

// Watch observes changes made to the storage by other processes, if supported.
func (s *Service) Watch(ctx context.Context, pattern string) (<-chan Event, error) {
	w, ok := s.storage.(Watchable)
	if !ok {
		return nil, errors.New("storage does not support watching")
	}
	return w.Watch(ctx, pattern)
}

// Subscribe returns a channel receiving every event emitted by this service.
// Slow subscribers lose events once their buffer is full. Call the returned
// function to unsubscribe; it closes the channel.
func (s *Service) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Event, s.eventBufferSize)
	s.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subscribers, id)
			close(ch)
		})
	}
}

// Close releases the storage if it holds resources (open database, files).
func (s *Service) Close() error {
	if c, ok := s.storage.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Service) emit(ctx context.Context, e Event) {
	e.Timestamp = s.now().UnixMilli()
	if s.notifier != nil {
		s.notifier.Notify(ctx, e)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- e:
		default:
			s.dropped++
			if s.logger != nil {
				s.logger.Warn("subscriber buffer full, dropping event", "event", e.String())
			}
		}
	}
}

func (s *Service) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
