package session

import (
	"github.com/aretw0/introspection"

	"github.com/aretw0/quicknote/pkg/debounce"
)

// SessionState exposes internal state for observability.
type SessionState struct {
	ID        string         `json:"id"`
	WidgetID  int            `json:"widget_id"`
	TextBytes int            `json:"text_bytes"`
	Todos     int            `json:"todos"`
	NoteSaves int            `json:"note_saves"`
	Closed    bool           `json:"closed"`
	AutoSave  debounce.Stats `json:"auto_save"`
}

// State implements introspection.Introspectable.
func (s *Session) State() any {
	s.mu.Lock()
	state := SessionState{
		ID:        s.id,
		WidgetID:  int(s.widgetID),
		TextBytes: len(s.text),
		Todos:     len(s.todos),
		NoteSaves: s.saves,
		Closed:    s.closed,
	}
	s.mu.Unlock()

	state.AutoSave = s.debouncer.Stats()
	return state
}

// ComponentType implements introspection.Component.
func (s *Session) ComponentType() string {
	return "edit-session"
}

var _ introspection.Introspectable = (*Session)(nil)
var _ introspection.Component = (*Session)(nil)
