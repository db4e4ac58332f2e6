// Package mixer maps throttle and axis corrections onto motors
package mixer

import "flightcore/core"

// MinCommand is the pulse sent to motors while disarmed
const MinCommand = 1000

// Rule is one motor's contribution from throttle, roll, pitch and yaw
type Rule struct {
	Throttle, Roll, Pitch, Yaw int32
}

// QuadX is the four motor X layout: rear right, front right, rear left,
// front left.
var QuadX = []Rule{
	{1, -1, 1, -1},
	{1, -1, -1, 1},
	{1, 1, 1, 1},
	{1, 1, -1, -1},
}

// Table is a core.Mixer driven by a rule per motor
type Table struct {
	cfg    *core.Config
	rules  []Rule
	raw    []int32
	motors []uint16
}

// New creates a mixer for the given layout
func New(cfg *core.Config, rules []Rule) *Table {
	return &Table{
		cfg:    cfg,
		rules:  rules,
		raw:    make([]int32, len(rules)),
		motors: make([]uint16, len(rules)),
	}
}

// Mix computes the motor pulses and writes them to the outputs
func (m *Table) Mix(out *core.Outputs, cmd *core.Command, axisPID *[3]int16, st *core.FlightState) {
	minT := int32(m.cfg.MinThrottle)
	maxT := int32(m.cfg.MaxThrottle)

	raw := m.raw
	maxMotor := int32(0)
	for i, r := range m.rules {
		raw[i] = int32(cmd[core.Throttle])*r.Throttle +
			int32(axisPID[core.Roll])*r.Roll +
			int32(axisPID[core.Pitch])*r.Pitch +
			int32(axisPID[core.Yaw])*r.Yaw
		if raw[i] > maxMotor {
			maxMotor = raw[i]
		}
	}

	for i := range raw {
		// keep the differential when one motor saturates
		if maxMotor > maxT {
			raw[i] -= maxMotor - maxT
		}
		v := raw[i]
		if v < minT {
			v = minT
		}
		if v > maxT {
			v = maxT
		}
		if !st.Armed {
			v = MinCommand
		}
		m.motors[i] = uint16(v)
		out.Write(i, m.motors[i])
	}
}

// Motors returns the pulses of the last Mix
func (m *Table) Motors() []uint16 {
	return m.motors
}
