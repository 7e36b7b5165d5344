// Package debounce delays a call until input has been quiet for an
// interval. Each Trigger replaces the pending call.
package debounce

import (
	"sync"
	"time"

	"github.com/spec-kit/helpdesk-console/internal/clock"
)

// DefaultInterval is the quiet period used when none is configured.
const DefaultInterval = 500 * time.Millisecond

// Debouncer runs at most one pending function.
type Debouncer struct {
	interval time.Duration
	clock    clock.Clock

	mu      sync.Mutex
	timer   *clock.Timer
	pending func()
	seq     uint64
}

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithClock sets the clock used for timers. The default is clock.Real().
func WithClock(c clock.Clock) Option {
	return func(d *Debouncer) {
		d.clock = c
	}
}

// New returns a Debouncer with the given interval; a non-positive
// interval falls back to DefaultInterval.
func New(interval time.Duration, opts ...Option) *Debouncer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	d := &Debouncer{interval: interval, clock: clock.Real()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Interval returns the configured quiet period.
func (d *Debouncer) Interval() time.Duration { return d.interval }

// Trigger cancels any pending call and schedules fn after the interval.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	d.stopLocked()
	d.seq++
	seq := d.seq
	d.pending = fn
	d.mu.Unlock()

	timer := d.clock.AfterFunc(d.interval, func() { d.fire(seq) })

	d.mu.Lock()
	if d.seq == seq && d.pending != nil {
		d.timer = timer
	}
	d.mu.Unlock()
}

// Flush runs the pending call immediately. It reports whether a call was
// pending.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	fn := d.pending
	d.stopLocked()
	d.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Cancel drops the pending call without running it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	d.stopLocked()
	d.mu.Unlock()
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if d.seq != seq || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()
	fn()
}

// stopLocked must be called with d.mu held.
func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
	d.seq++
}
