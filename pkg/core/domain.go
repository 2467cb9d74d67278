// Package core holds the quicknote domain: widgets, notes, todo lists and the
// store that persists them through an injected Storage port.
package core

import (
	"fmt"
	"strconv"
	"time"
)

// WidgetID identifies one installed home-screen widget instance.
type WidgetID int

// InvalidWidgetID is the sentinel the launcher hands out when no widget is bound.
const InvalidWidgetID WidgetID = 0

// Valid reports whether the id was allocated by the launcher.
func (id WidgetID) Valid() bool {
	return id > InvalidWidgetID
}

func (id WidgetID) String() string {
	return strconv.Itoa(int(id))
}

// ParseWidgetID converts user input (CLI args, intents) into a WidgetID.
// It does not check Valid; callers decide how to report an invalid id.
func ParseWidgetID(s string) (WidgetID, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return InvalidWidgetID, fmt.Errorf("%w: %q", ErrInvalidWidget, s)
	}
	return WidgetID(n), nil
}

// AutoSaveDelay is the quiet period before a debounced note save fires.
const AutoSaveDelay = time.Second

// EventType represents the type of change in the store.
type EventType string

const (
	EventNoteSaved      EventType = "NOTE_SAVED"
	EventTodosSaved     EventType = "TODOS_SAVED"
	EventWidgetDeleted  EventType = "WIDGET_DELETED"
	EventExternalChange EventType = "EXTERNAL_CHANGE"
)

// Event tells a renderer that a widget needs repainting.
// WidgetID is InvalidWidgetID when the change cannot be attributed to a
// single widget (e.g. another process rewrote a namespace file).
type Event struct {
	Type      EventType
	WidgetID  WidgetID
	Namespace Namespace
	Timestamp int64 // Unix millis
}

// String implements lifecycle.Event.
func (e Event) String() string {
	if !e.WidgetID.Valid() {
		return fmt.Sprintf("%s %s", e.Type, e.Namespace)
	}
	return fmt.Sprintf("%s widget=%d", e.Type, e.WidgetID)
}
