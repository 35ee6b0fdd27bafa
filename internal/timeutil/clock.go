// Package timeutil provides a testable abstraction over time operations.
package timeutil

import (
	"sync"
	"time"
)

// Clock provides the time operations the pipeline needs: wall time for
// display and a monotonic nanosecond counter for packet timestamps.
type Clock interface {
	// Now returns the current wall time.
	Now() time.Time

	// Nanos returns a monotonic nanosecond timestamp. Successive calls
	// never go backwards; the epoch is the clock's creation.
	Nanos() int64
}

// RealClock implements Clock using the standard time package.
type RealClock struct {
	start time.Time
}

// NewRealClock returns a RealClock whose monotonic epoch is now.
func NewRealClock() *RealClock {
	return &RealClock{start: time.Now()}
}

// Now returns the current wall time.
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// Nanos returns nanoseconds elapsed since the clock was created, measured on
// the runtime's monotonic clock.
func (c *RealClock) Nanos() int64 {
	return time.Since(c.start).Nanoseconds()
}

// MockClock is a manually controlled clock for testing.
type MockClock struct {
	mu    sync.Mutex
	now   time.Time
	nanos int64
}

// NewMockClock creates a MockClock set to the given wall time with a
// monotonic counter at zero.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

// Now returns the mocked wall time.
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Nanos returns the mocked monotonic counter.
func (c *MockClock) Nanos() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nanos
}

// SetNanos pins the monotonic counter to a specific value.
func (c *MockClock) SetNanos(n int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nanos = n
}

// Advance moves both the wall time and the monotonic counter forward.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.nanos += d.Nanoseconds()
}
