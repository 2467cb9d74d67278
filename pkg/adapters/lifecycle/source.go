// Package lifecycle exposes store events as a lifecycle.Source so they can
// be consumed next to signals and other event sources.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/quicknote/pkg/core"
)

type eventSource struct {
	events <-chan core.Event
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that emits store events.
// core.Event implements lifecycle.Event through its String method.
func NewSource(events <-chan core.Event) lifecycle.Source {
	return &eventSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
}

func (s *eventSource) Events() <-chan lifecycle.Event {
	return s.out
}

// Start forwards events until ctx is done or the input is closed, then
// closes Events.
func (s *eventSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
