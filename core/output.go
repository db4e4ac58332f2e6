// Output dispatch: pulse widths for motors and servos
package core

// Outputs writes pulse widths to the compare registers available in the
// current input mode.
type Outputs struct {
	drv   OutputDriver
	count int
}

// NewOutputs binds the output table to a driver. In PWM input mode TIM3 is
// busy capturing, leaving six outputs; otherwise all ten are usable.
func NewOutputs(mode InputMode, drv OutputDriver) *Outputs {
	count := MaxOutputs
	if mode == InputPWM {
		count = pwmOutputs
	}
	return &Outputs{drv: drv, count: count}
}

// ChannelCount returns how many outputs can be written
func (o *Outputs) ChannelCount() int {
	return o.count
}

// Write loads a pulse width, in microseconds, into output ch. Out of range
// channels are ignored.
func (o *Outputs) Write(ch int, pulse uint16) {
	if ch < 0 || ch >= o.count || o.drv == nil {
		return
	}
	o.drv.SetCompare(OutputRegisters[ch], pulse)
}

// Init presets every available output to pulse, normally Pulse1MS
func (o *Outputs) Init(pulse uint16) {
	for ch := 0; ch < o.count; ch++ {
		o.Write(ch, pulse)
	}
}
