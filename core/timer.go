package core

// Capture and loop time base: 1 MHz, so one tick is one microsecond.
const (
	TimerFreq = 1000000

	// RCInterval is the period of the RC task (50 Hz)
	RCInterval = 20000

	// accCheckInterval is how long the accelerometer stays marked
	// uncalibrated after a large-angle reading
	accCheckInterval = 500000
)

// Clock supplies the free-running 32-bit microsecond counter the main loop
// schedules against. It wraps roughly every 71 minutes.
type Clock interface {
	Micros() uint32
}

// ManualClock is a Clock advanced by hand (tests, simulation)
type ManualClock struct {
	now uint32
}

// Micros returns the current time
func (c *ManualClock) Micros() uint32 {
	return c.now
}

// Set sets the current time
func (c *ManualClock) Set(us uint32) {
	c.now = us
}

// Advance moves the clock forward by us microseconds
func (c *ManualClock) Advance(us uint32) {
	c.now += us
}

// timerIsBefore reports whether a is strictly before b, tolerating
// wraparound of the 32-bit counter.
func timerIsBefore(a, b uint32) bool {
	return int32(a-b) < 0
}
