// Package debouncetest provides a manually advanced debounce.Clock.
package debouncetest

import (
	"sync"
	"time"

	"github.com/aretw0/quicknote/pkg/debounce"
)

// Clock is a fake debounce.Clock. Time only moves on Advance, and timers
// fire synchronously on the goroutine calling Advance.
type Clock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*timer
}

type timer struct {
	clock    *Clock
	deadline time.Duration
	f        func()
	done     bool
}

func (t *timer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// New returns a clock at offset zero.
func New() *Clock {
	return &Clock{}
}

// Now returns the elapsed fake time.
func (c *Clock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc implements debounce.Clock.
func (c *Clock) AfterFunc(d time.Duration, f func()) debounce.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &timer{clock: c, deadline: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// Pending returns the number of timers that have neither fired nor stopped.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.done {
			n++
		}
	}
	return n
}

// Advance moves time forward by d, firing due timers in deadline order.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *timer
		for _, t := range c.timers {
			if t.done || t.deadline > target {
				continue
			}
			if next == nil || t.deadline < next.deadline {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.done = true
		c.now = next.deadline
		c.mu.Unlock()

		next.f()
	}
}

// AdvanceTo moves time to the absolute offset at.
func (c *Clock) AdvanceTo(at time.Duration) {
	c.Advance(at - c.Now())
}

var _ debounce.Clock = (*Clock)(nil)
