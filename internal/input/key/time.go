package key

import (
	"sync"
	"time"
)

// Timestamp is a 16-bit millisecond timer value. It wraps around every
// 65.536 seconds; differences must be taken with Sub, never by comparing
// raw values.
type Timestamp uint16

// Sub returns the milliseconds elapsed from earlier to t, modulo 2^16.
func (t Timestamp) Sub(earlier Timestamp) uint16 {
	return uint16(t - earlier)
}

// Add returns t advanced by ms milliseconds, wrapping.
func (t Timestamp) Add(ms uint16) Timestamp {
	return t + Timestamp(ms)
}

// Compare orders two timestamps by their raw value: -1, 0 or 1.
// Only meaningful for values known to lie within one wrap period.
func (t Timestamp) Compare(other Timestamp) int {
	switch {
	case t > other:
		return 1
	case t == other:
		return 0
	default:
		return -1
	}
}

// Elapsed reports whether more than limit has passed between since and now.
func Elapsed(now, since Timestamp, limit time.Duration) bool {
	return time.Duration(now.Sub(since))*time.Millisecond > limit
}

// Clock supplies the current timer value.
type Clock interface {
	Now() Timestamp
}

// SystemClock derives timestamps from the monotonic wall clock.
type SystemClock struct {
	start time.Time
}

// NewSystemClock creates a clock whose zero is the moment of creation.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// Now returns milliseconds since creation, truncated to 16 bits.
func (c *SystemClock) Now() Timestamp {
	return Timestamp(uint16(time.Since(c.start).Milliseconds()))
}

// ManualClock is a clock advanced explicitly. It is used by tests and by
// trace replay, where time comes from the trace rather than the wall.
type ManualClock struct {
	mu  sync.Mutex
	now Timestamp
}

// NewManualClock creates a manual clock starting at t.
func NewManualClock(t Timestamp) *ManualClock {
	return &ManualClock{now: t}
}

// Now returns the current manual time.
func (c *ManualClock) Now() Timestamp {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *ManualClock) Set(t Timestamp) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d, wrapping at 16 bits.
func (c *ManualClock) Advance(d time.Duration) Timestamp {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(uint16(d.Milliseconds()))
	return c.now
}

// Layer is an active keymap layer index, resolved by the host.
// Higher layers shadow lower ones.
type Layer uint8
