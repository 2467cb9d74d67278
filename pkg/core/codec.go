package core

import (
	"encoding/json"
	"strings"
)

// EncodeTodos serializes the list as a JSON array, preserving order.
// A nil list is encoded as "[]" so the payload is always a valid array.
func EncodeTodos(items []TodoItem) (string, error) {
	if items == nil {
		items = []TodoItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeTodos parses a payload produced by EncodeTodos.
// It never fails: empty, "null" and malformed payloads yield an empty list.
// The boolean reports whether the payload was usable, so callers can log
// corruption without surfacing it.
func DecodeTodos(payload string) ([]TodoItem, bool) {
	if strings.TrimSpace(payload) == "" {
		return []TodoItem{}, true
	}
	var items []TodoItem
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return []TodoItem{}, false
	}
	if items == nil {
		items = []TodoItem{}
	}
	return items, true
}
