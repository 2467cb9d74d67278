package core

import "errors"

// Common errors.
var (
	ErrInvalidWidget = errors.New("invalid widget id")
	ErrReadOnly      = errors.New("storage is in read-only mode")
	ErrSessionClosed = errors.New("edit session is closed")
)
