// Package debounce coalesces bursts of triggers into a single deferred call.
//
// A Debouncer is a two-state machine. From Idle, Trigger schedules the call
// after the quiet interval and moves to Pending. From Pending, Trigger
// cancels the outstanding timer and schedules a new one. When the timer
// fires the call runs and the machine returns to Idle. At most one timer is
// outstanding at any time.
package debounce

import (
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
)

// Timer is the handle of a scheduled call.
type Timer interface {
	Stop() bool
}

// Clock schedules deferred calls. The zero configuration uses the runtime
// timers; tests inject a fake.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type runtimeClock struct{}

func (runtimeClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RuntimeClock returns the Clock backed by time.AfterFunc.
func RuntimeClock() Clock {
	return runtimeClock{}
}

// State is the debouncer state.
type State int

const (
	Idle State = iota
	Pending
)

func (s State) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

// Stats counts what the debouncer did.
type Stats struct {
	State     string `json:"state"`
	Fired     int    `json:"fired"`
	Coalesced int    `json:"coalesced"`
	Cancelled int    `json:"cancelled"`
	Stopped   bool   `json:"stopped"`
}

// Debouncer defers fire until interval has elapsed since the last Trigger.
type Debouncer struct {
	interval time.Duration
	fire     func()
	clock    Clock
	logger   *slog.Logger

	mu       sync.Mutex
	state    State
	timer    Timer
	gen      uint64
	stopped  bool
	running  int
	idle     chan struct{} // closed when the last running call returns
	stats    Stats
}

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithClock replaces the runtime clock.
func WithClock(c Clock) Option {
	return func(d *Debouncer) {
		d.clock = c
	}
}

// WithLogger sets the logger. Nil keeps the debouncer silent.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Debouncer) {
		d.logger = logger
	}
}

// New creates an idle debouncer calling fire after interval of quiet.
func New(interval time.Duration, fire func(), opts ...Option) *Debouncer {
	d := &Debouncer{
		interval: interval,
		fire:     fire,
		clock:    runtimeClock{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Interval returns the quiet period.
func (d *Debouncer) Interval() time.Duration {
	return d.interval
}

// Trigger records a change. It returns false once the debouncer is stopped.
func (d *Debouncer) Trigger() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return false
	}
	if d.state == Pending {
		d.timer.Stop()
		d.stats.Coalesced++
	}
	d.gen++
	gen := d.gen
	d.state = Pending
	d.timer = d.clock.AfterFunc(d.interval, func() { d.run(gen) })
	return true
}

// Cancel drops the pending call, if any. It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelLocked()
}

func (d *Debouncer) cancelLocked() bool {
	if d.state != Pending {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	// A timer that already fired but has not taken the lock yet sees a
	// stale generation and does nothing.
	d.gen++
	d.state = Idle
	d.stats.Cancelled++
	return true
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state == Pending
}

// Stats returns a snapshot of the counters.
func (d *Debouncer) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.stats
	s.State = d.state.String()
	s.Stopped = d.stopped
	return s
}

// StopAndWait cancels any pending call, refuses further triggers and waits
// up to timeout for a call already running. It returns false on timeout.
func (d *Debouncer) StopAndWait(timeout time.Duration) bool {
	d.mu.Lock()
	d.stopped = true
	d.cancelLocked()
	idle := d.idle
	d.mu.Unlock()

	if idle == nil {
		return true
	}
	if err := lifecycle.BlockWithTimeout(idle, timeout); err != nil {
		if d.logger != nil {
			d.logger.Warn("debounced call still running after stop", "timeout", timeout)
		}
		return false
	}
	return true
}

func (d *Debouncer) run(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen || d.state != Pending {
		d.mu.Unlock()
		return
	}
	d.state = Idle
	d.timer = nil
	d.stats.Fired++
	if d.running == 0 {
		d.idle = make(chan struct{})
	}
	d.running++
	d.mu.Unlock()

	defer d.done()
	if d.logger != nil {
		d.logger.Debug("debounced call firing", "interval", d.interval)
	}
	d.fire()
}

func (d *Debouncer) done() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.running--
	if d.running == 0 {
		close(d.idle)
		d.idle = nil
	}
}
