// Package clock provides the virtual clock shared by sequences and agents.
package clock

import (
	"context"
	"sync"
	"time"
)

type waiter struct {
	target uint64
	done   chan struct{}
}

// Clock is a cooperative cycle counter. Goroutines suspend on it with
// WaitCycles and are released when the requested edge is reached.
// Safe for concurrent use.
type Clock struct {
	mu      sync.Mutex
	now     uint64
	waiters []*waiter
	wake    chan struct{}
}

// New creates a clock at cycle zero.
func New() *Clock {
	return &Clock{wake: make(chan struct{}, 1)}
}

// Now returns the current cycle.
func (c *Clock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Pending returns the number of suspended waiters.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// WaitCycles suspends the caller until n more edges have elapsed.
func (c *Clock) WaitCycles(ctx context.Context, n uint64) error {
	if n == 0 {
		return ctx.Err()
	}

	c.mu.Lock()
	w := &waiter{target: c.now + n, done: make(chan struct{})}
	c.waiters = append(c.waiters, w)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		c.mu.Lock()
		c.remove(w)
		c.mu.Unlock()
		// The edge may have fired while we were acquiring the lock.
		select {
		case <-w.done:
			return nil
		default:
		}
		return ctx.Err()
	}
}

// Tick advances the clock by one edge.
func (c *Clock) Tick() {
	c.advance(false)
}

// Advance jumps straight to the earliest pending deadline and reports whether
// there was one.
func (c *Clock) Advance() bool {
	return c.advance(true)
}

func (c *Clock) advance(skip bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if skip {
		if len(c.waiters) == 0 {
			return false
		}
		next := c.waiters[0].target
		for _, w := range c.waiters[1:] {
			if w.target < next {
				next = w.target
			}
		}
		if next > c.now {
			c.now = next
		}
	} else {
		c.now++
	}

	kept := c.waiters[:0]
	for _, w := range c.waiters {
		if w.target <= c.now {
			close(w.done)
			continue
		}
		kept = append(kept, w)
	}
	for i := len(kept); i < len(c.waiters); i++ {
		c.waiters[i] = nil
	}
	c.waiters = kept
	return true
}

func (c *Clock) remove(target *waiter) {
	for i, w := range c.waiters {
		if w == target {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return
		}
	}
}

// Run drives the clock until ctx is cancelled.
// With a positive period it ticks once per period. With period <= 0 it runs in
// virtual time: whenever a waiter is pending it jumps to the earliest deadline.
func (c *Clock) Run(ctx context.Context, period time.Duration) error {
	if period > 0 {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				c.Tick()
			}
		}
	}

	for {
		if !c.Advance() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.wake:
			}
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}
