//go:build !tinygo

package core

import "time"

// SystemClock derives the microsecond counter from the monotonic clock
// of the host process.
type SystemClock struct {
	start time.Time
}

// NewSystemClock returns a clock counting from now
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// Micros returns microseconds since the clock was created, truncated to 32 bits
func (c *SystemClock) Micros() uint32 {
	return uint32(time.Since(c.start).Microseconds())
}
