//go:build tinygo

package core

import "sync/atomic"

// SystemClock holds the hardware microsecond counter sampled by the target.
// Targets call Update from the main loop (or a timer interrupt) before
// running Controller.Loop.
type SystemClock struct {
	now atomic.Uint32
}

// NewSystemClock returns a clock at zero; the target must Update it
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Update stores the latest hardware timer value
func (c *SystemClock) Update(us uint32) {
	c.now.Store(us)
}

// Micros returns the last stored hardware timer value
func (c *SystemClock) Micros() uint32 {
	return c.now.Load()
}
