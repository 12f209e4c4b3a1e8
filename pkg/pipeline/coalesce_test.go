package pipeline

import (
	"sync/atomic"
	"testing"
	"time"
)

func waitForCount(t *testing.T, n *atomic.Int32, want int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if n.Load() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("count = %d, want %d", n.Load(), want)
}

func TestCoalescerFiresOncePerBurst(t *testing.T) {
	var fired atomic.Int32
	c := NewCoalescer(20*time.Millisecond, func() { fired.Add(1) })

	for range 10 {
		c.Request()
	}
	waitForCount(t, &fired, 1)

	// Quiet now; no further fire.
	time.Sleep(60 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Fatalf("fired %d times, want 1", got)
	}
}

func TestCoalescerRearmsAfterFire(t *testing.T) {
	var fired atomic.Int32
	c := NewCoalescer(10*time.Millisecond, func() { fired.Add(1) })

	c.Request()
	waitForCount(t, &fired, 1)
	c.Request()
	waitForCount(t, &fired, 2)
}

func TestCoalescerRequestResetsInterval(t *testing.T) {
	var fired atomic.Int32
	c := NewCoalescer(100*time.Millisecond, func() { fired.Add(1) })

	c.Request()
	time.Sleep(50 * time.Millisecond)
	c.Request() // resets the quiescence window
	time.Sleep(70 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Fatalf("fired %d times before the window elapsed, want 0", got)
	}
	waitForCount(t, &fired, 1)
}

func TestCoalescerFlush(t *testing.T) {
	var fired atomic.Int32
	c := NewCoalescer(time.Hour, func() { fired.Add(1) })

	c.Flush() // nothing pending
	if got := fired.Load(); got != 0 {
		t.Fatalf("flush with nothing pending fired %d times", got)
	}

	c.Request()
	if !c.Pending() {
		t.Fatal("expected a pending callback")
	}
	c.Flush()
	if got := fired.Load(); got != 1 {
		t.Fatalf("fired %d times after flush, want 1", got)
	}
	if c.Pending() {
		t.Fatal("flush should clear the pending state")
	}
}

func TestCoalescerStop(t *testing.T) {
	var fired atomic.Int32
	c := NewCoalescer(10*time.Millisecond, func() { fired.Add(1) })

	c.Request()
	c.Stop()
	time.Sleep(50 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Fatalf("fired %d times after stop, want 0", got)
	}

	c.Request() // rejected
	time.Sleep(50 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Fatalf("fired %d times after stopped request, want 0", got)
	}
}
