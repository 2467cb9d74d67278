package core

import "time"

// DefaultTodoText is the text of a freshly added todo item.
const DefaultTodoText = "New task"

// Note is the free-text part of a widget.
type Note struct {
	Content      string
	LastModified time.Time
}

// TodoItem is one entry of a widget's checklist.
// The JSON layout is the persisted wire format; do not rename the tags.
type TodoItem struct {
	Text      string `json:"text" yaml:"text"`
	Completed bool   `json:"completed" yaml:"completed"`
}

// NewTodoItem returns an unchecked item with the given text.
func NewTodoItem(text string) TodoItem {
	return TodoItem{Text: text}
}

// RemoveCompleted returns a new list without the completed items.
// Survivors keep their relative order and the input is left untouched.
func RemoveCompleted(items []TodoItem) []TodoItem {
	out := make([]TodoItem, 0, len(items))
	for _, item := range items {
		if item.Completed {
			continue
		}
		out = append(out, item)
	}
	return out
}
