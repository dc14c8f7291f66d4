// Package clock supplies monotonic millisecond timestamps.
package clock

import (
	"sync"
	"time"
)

// Millis is a timestamp in milliseconds. It is only meaningful relative to
// other timestamps from the same clock.
type Millis = float64

// Clock returns monotonically non-decreasing timestamps.
type Clock interface {
	Now() Millis
}

// Monotonic measures time since its creation using the runtime monotonic clock.
type Monotonic struct {
	start time.Time
}

// NewMonotonic returns a Monotonic clock starting at zero.
func NewMonotonic() *Monotonic {
	return &Monotonic{start: time.Now()}
}

// Now implements Clock.
func (c *Monotonic) Now() Millis {
	return float64(time.Since(c.start).Microseconds()) / 1000.0
}

// Observed follows timestamps reported by a remote input source. Now
// returns the highest timestamp observed so far.
type Observed struct {
	mu   sync.Mutex
	last Millis
}

// Observe records a remote timestamp. Older timestamps are ignored.
func (c *Observed) Observe(ts Millis) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ts > c.last {
		c.last = ts
	}
}

// Rebase moves the clock to ts, even backwards. Used when the remote
// source restarts its time base.
func (c *Observed) Rebase(ts Millis) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = ts
}

// Now implements Clock.
func (c *Observed) Now() Millis {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Manual is a clock that only moves when told to.
type Manual struct {
	now Millis
}

// NewManual returns a Manual clock set to start.
func NewManual(start Millis) *Manual {
	return &Manual{now: start}
}

// Set moves the clock to ts unless that would move it backwards.
func (c *Manual) Set(ts Millis) {
	if ts > c.now {
		c.now = ts
	}
}

// Advance moves the clock forward by d milliseconds.
func (c *Manual) Advance(d Millis) {
	if d > 0 {
		c.now += d
	}
}

// Rebase moves the clock to ts, even backwards.
func (c *Manual) Rebase(ts Millis) {
	c.now = ts
}

// Now implements Clock.
func (c *Manual) Now() Millis {
	return c.now
}
