package core

import (
	"fmt"
	"sync/atomic"
)

// Receiver pulse limits, in 1 MHz timer ticks
const (
	NumRCChannels = 8

	PulseMin    = 750
	PulseMax    = 2250
	PPMSyncGap  = 4000
	PulseCenter = 1500
	Pulse1MS    = 1000
	MaxOutputs  = 10
	pwmOutputs  = 6
)

// InputMode selects how receiver channels are captured
type InputMode uint8

const (
	InputPWM InputMode = iota
	InputPPM
	InputDisabled
)

func (m InputMode) String() string {
	switch m {
	case InputPWM:
		return "pwm"
	case InputPPM:
		return "ppm"
	case InputDisabled:
		return "disabled"
	}
	return "unknown"
}

// UnmarshalText lets the mode be written as "pwm", "ppm" or "disabled" in JSON config
func (m *InputMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "pwm", "PWM":
		*m = InputPWM
	case "ppm", "PPM":
		*m = InputPPM
	case "disabled", "none", "":
		*m = InputDisabled
	default:
		return fmt.Errorf("unknown input mode %q", text)
	}
	return nil
}

// MarshalText is the inverse of UnmarshalText
func (m InputMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Edge is the edge a capture slot waits for next
type Edge uint32

const (
	WaitingRisingEdge Edge = iota
	WaitingFallingEdge
)

// CaptureSource names one timer capture/compare unit
type CaptureSource struct {
	Timer   uint8
	Channel uint8
}

// ChannelMapping binds each logical receiver slot to a capture unit
type ChannelMapping [NumRCChannels]CaptureSource

// DefaultChannelMapping is TIM2 CH1-4 followed by TIM3 CH1-4. In PPM mode
// only slot 0 is wired.
var DefaultChannelMapping = ChannelMapping{
	{2, 1}, {2, 2}, {2, 3}, {2, 4},
	{3, 1}, {3, 2}, {3, 3}, {3, 4},
}

// CaptureState is the per-slot decoder. Only the slot's own edge handler
// writes it; the main loop reads duration.
type CaptureState struct {
	state    atomic.Uint32
	rise     uint16
	fall     uint16
	duration atomic.Uint32
}

// Duration returns the last completed pulse width
func (s *CaptureState) Duration() uint16 {
	return uint16(s.duration.Load())
}

// Elapsed16 returns the ticks from rise to fall on a free-running 16-bit
// counter, modulo 65536.
func Elapsed16(rise, fall uint16) uint16 {
	if fall >= rise {
		return fall - rise
	}
	return fall + (0xFFFF - rise) + 1
}

// ppmDemux tracks the position inside a PPM frame. Written only by the PPM
// edge handler.
type ppmDemux struct {
	lastEdge uint16
	channel  uint8
}

// Capture decodes receiver pulses from timer edge interrupts
type Capture struct {
	mode     InputMode
	mapping  ChannelMapping
	inputs   [NumRCChannels]CaptureState
	ppm      ppmDemux
	active   atomic.Bool
	failsafe *Failsafe
}

// NewCapture creates a capture engine. Every duration starts at the stick
// center. link may be nil.
func NewCapture(mode InputMode, mapping ChannelMapping, link *Failsafe) *Capture {
	c := &Capture{
		mode:     mode,
		mapping:  mapping,
		failsafe: link,
	}
	for i := range c.inputs {
		c.inputs[i].duration.Store(PulseCenter)
	}
	return c
}

// Mode returns the input mode the engine was built for
func (c *Capture) Mode() InputMode {
	return c.mode
}

// Mapping returns the slot to capture unit table
func (c *Capture) Mapping() ChannelMapping {
	return c.mapping
}

// Polarity reports the edge the slot is waiting for. Board code uses it to
// program the capture polarity after each edge.
func (c *Capture) Polarity(slot int) Edge {
	if slot < 0 || slot >= NumRCChannels {
		return WaitingRisingEdge
	}
	return Edge(c.inputs[slot].state.Load())
}

// HandleEdge is called from the capture interrupt of a PWM slot with the
// captured counter value.
func (c *Capture) HandleEdge(slot int, counter uint16) {
	if slot < 0 || slot >= NumRCChannels {
		return
	}
	in := &c.inputs[slot]
	if Edge(in.state.Load()) == WaitingRisingEdge {
		in.rise = counter
		in.state.Store(uint32(WaitingFallingEdge))
		return
	}

	in.fall = counter
	d := Elapsed16(in.rise, in.fall)
	in.duration.Store(uint32(d))
	in.state.Store(uint32(WaitingRisingEdge))

	// A receiver that loses its link stops every channel, so slot 0 alone
	// is enough to keep the failsafe counter fed.
	if slot == 0 {
		c.active.Store(true)
		if d >= PulseMin && d <= PulseMax {
			c.failsafe.Touch()
		}
	}
}

// HandlePPMEdge is called from the rising edge interrupt of the PPM input
func (c *Capture) HandlePPMEdge(counter uint16) {
	c.active.Store(true)
	p := &c.ppm
	gap := counter - p.lastEdge
	p.lastEdge = counter

	if gap > PPMSyncGap {
		p.channel = 0
		return
	}
	if gap > PulseMin && gap < PulseMax && p.channel < NumRCChannels {
		c.inputs[p.channel].duration.Store(uint32(gap))
		c.failsafe.Touch()
	}
	if p.channel < 0xFF {
		p.channel++
	}
}

// PPMChannel returns the index of the next PPM slot to be committed
func (c *Capture) PPMChannel() int {
	return int(c.ppm.channel)
}

// Active reports whether any receiver edge has been seen
func (c *Capture) Active() bool {
	return c.active.Load()
}

// Read returns the last duration of one slot, or 0 for an unknown slot
func (c *Capture) Read(ch int) uint16 {
	if ch < 0 || ch >= NumRCChannels {
		return 0
	}
	return c.inputs[ch].Duration()
}

// Frame is a consistent copy of every slot's duration
type Frame [NumRCChannels]uint16

// Read returns one slot of the frame, or 0 for an unknown slot
func (f *Frame) Read(ch int) uint16 {
	if ch < 0 || ch >= NumRCChannels {
		return 0
	}
	return f[ch]
}

// Snapshot copies all durations with edge interrupts masked, so the frame
// never mixes values from either side of a capture.
func (c *Capture) Snapshot() Frame {
	var f Frame
	state := disableInterrupts()
	for i := range c.inputs {
		f[i] = c.inputs[i].Duration()
	}
	restoreInterrupts(state)
	return f
}
