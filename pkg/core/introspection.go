package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	EventBufferSize int    `json:"event_buffer_size"`
	Subscribers     int    `json:"subscribers"`
	DroppedEvents   int    `json:"dropped_events"`
	StorageType     string `json:"storage_type"`
	Notifier        bool   `json:"notifier"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	storageType := "unknown"
	if s.storage != nil {
		storageType = "storage"
		if comp, ok := s.storage.(introspection.Component); ok {
			storageType = comp.ComponentType()
		}
	}

	return ServiceState{
		EventBufferSize: s.eventBufferSize,
		Subscribers:     len(s.subscribers),
		DroppedEvents:   s.dropped,
		StorageType:     storageType,
		Notifier:        s.notifier != nil,
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "service"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
