package pipeline

import (
	"sync"
	"time"
)

// Coalescer folds bursts of refresh requests into a single callback. Each
// Request arms (or re-arms) a quiescence timer; the callback fires once the
// requests stop for a full interval. A burst of mutations therefore costs
// one downstream refresh instead of one per mutation.
//
// The callback runs on a timer goroutine. Coalescer is safe for concurrent
// use.
type Coalescer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func()
	timer   *time.Timer
	stopped bool
}

// NewCoalescer creates a coalescer that invokes fn after delay of quiet.
// A non-positive delay still defers fn to the timer goroutine but without
// any quiescence window.
func NewCoalescer(delay time.Duration, fn func()) *Coalescer {
	if delay < 0 {
		delay = 0
	}
	return &Coalescer{delay: delay, fn: fn}
}

// Request schedules the callback to fire after the quiescent interval. A
// request while one is already pending resets the interval instead of
// queueing a second callback.
func (c *Coalescer) Request() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped || c.fn == nil {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.delay, c.fire)
}

// Flush fires a pending callback immediately, on the caller's goroutine.
// It is a no-op when nothing is pending.
func (c *Coalescer) Flush() {
	c.mu.Lock()
	pending := c.timer != nil && c.timer.Stop()
	c.timer = nil
	c.mu.Unlock()
	if pending {
		c.fn()
	}
}

// Pending reports whether a callback is scheduled.
func (c *Coalescer) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer != nil
}

// Stop cancels any pending callback and rejects further requests.
func (c *Coalescer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Coalescer) fire() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.mu.Unlock()
	c.fn()
}
