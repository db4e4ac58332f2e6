package core

import "math"

// Command is the shaped stick command: roll, pitch and yaw in [-500, 500],
// throttle in [MinThrottle, MaxThrottle].
type Command [4]int16

// Lookup is the RC rate/expo curve sampled every 100 us of stick travel
type Lookup [7]int16

// BuildLookup computes the rate/expo curve from the config
func BuildLookup(cfg *Config) Lookup {
	var lut Lookup
	for i := int32(0); i < int32(len(lut)); i++ {
		lut[i] = int16((2500 + int32(cfg.RCExpo8)*(i*i-25)) * i * int32(cfg.RCRate8) / 1250)
	}
	return lut
}

// DynGains are the P and D gains after throttle and stick scaling
type DynGains struct {
	P [3]uint8
	D [3]uint8
}

// ComputeCommand shapes rc into a command and computes the dynamic gains
// for this tick.
func ComputeCommand(rc *[NumRCChannels]int16, cfg *Config, lut *Lookup) (Command, DynGains) {
	var cmd Command
	var dyn DynGains

	// roll and pitch gains fade with throttle
	var prop2 int32
	switch t := int32(rc[Throttle]); {
	case t < 1500:
		prop2 = 100
	case t < 2000:
		prop2 = 100 - int32(cfg.DynThrPID)*(t-1500)/500
	default:
		prop2 = 100 - int32(cfg.DynThrPID)
	}

	mid := int32(cfg.MidRC)
	for axis := Roll; axis <= Yaw; axis++ {
		tmp := min(abs(int32(rc[axis])-mid), 500)
		var prop1 int32
		if axis != Yaw {
			tmp = applyDeadband(tmp, int32(cfg.Deadband))
			idx := tmp / 100
			v := int32(lut[idx])
			if idx < int32(len(lut))-1 {
				v += (tmp - idx*100) * (int32(lut[idx+1]) - int32(lut[idx])) / 100
			}
			cmd[axis] = int16(v)
			prop1 = 100 - int32(cfg.RollPitchRate)*tmp/500
			prop1 = prop1 * prop2 / 100
		} else {
			tmp = applyDeadband(tmp, int32(cfg.YawDeadband))
			cmd[axis] = int16(tmp)
			prop1 = 100 - int32(cfg.YawRate)*tmp/500
		}
		dyn.P[axis] = uint8(int32(cfg.P8[axis]) * prop1 / 100)
		dyn.D[axis] = uint8(int32(cfg.D8[axis]) * prop1 / 100)
		if int32(rc[axis]) < mid {
			cmd[axis] = -cmd[axis]
		}
	}

	minCheck := int32(cfg.MinCheck)
	thr := constrain(int32(rc[Throttle]), minCheck, 2000)
	span := int32(cfg.MaxThrottle) - int32(cfg.MinThrottle)
	cmd[Throttle] = int16(int32(cfg.MinThrottle) + span*(thr-minCheck)/(2000-minCheck))

	return cmd, dyn
}

func applyDeadband(v, band int32) int32 {
	if band == 0 {
		return v
	}
	if v > band {
		return v - band
	}
	return 0
}

// headFree rotates roll and pitch from the pilot's frame, fixed at arming,
// into the craft frame.
func headFree(cmd *Command, heading, hold int16) {
	rad := float64(heading-hold) * math.Pi / 180
	cosDiff := float32(math.Cos(rad))
	sinDiff := float32(math.Sin(rad))
	roll := float32(cmd[Roll])
	pitch := float32(cmd[Pitch])
	cmd[Pitch] = int16(pitch*cosDiff + roll*sinDiff)
	cmd[Roll] = int16(roll*cosDiff - pitch*sinDiff)
}
