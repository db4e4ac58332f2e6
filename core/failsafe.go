package core

import "sync/atomic"

// Failsafe counts 50 Hz ticks since the receiver last produced a plausible
// pulse. Capture clears it from interrupt context; the RC task advances it.
type Failsafe struct {
	count  atomic.Int32
	locked bool
}

// Touch clears the counter. Safe on a nil receiver and from interrupts.
func (f *Failsafe) Touch() {
	if f == nil {
		return
	}
	f.count.Store(0)
}

// Count returns the ticks since the last Touch
func (f *Failsafe) Count() int32 {
	return f.count.Load()
}

// Engaged reports whether the first stage (neutral sticks, safe throttle) applies
func (f *Failsafe) Engaged(cfg *Config) bool {
	return f.Count() > 5*int32(cfg.FailsafeDelay)
}

// Tripped reports whether the second stage (forced disarm) applies
func (f *Failsafe) Tripped(cfg *Config) bool {
	return f.Count() > 5*(int32(cfg.FailsafeDelay)+int32(cfg.FailsafeOffDelay))
}

// Locked reports whether arming is blocked after a failsafe disarm
func (f *Failsafe) Locked() bool {
	return f.locked
}

// apply runs once per RC tick, after conditioning and before gestures.
// It returns true when it disarmed the craft.
func (f *Failsafe) apply(cfg *Config, st *FlightState, rc *[NumRCChannels]int16) bool {
	disarmed := false
	if st.Armed && f.Engaged(cfg) {
		rc[Roll] = int16(cfg.MidRC)
		rc[Pitch] = int16(cfg.MidRC)
		rc[Yaw] = int16(cfg.MidRC)
		rc[Throttle] = int16(cfg.FailsafeThrottle)
		if f.Count() == 5*int32(cfg.FailsafeDelay)+1 {
			RecordEvent(EvtFailsafe, uint32(f.Count()))
		}
		if f.Tripped(cfg) {
			st.Armed = false
			st.OkToArm = false
			f.locked = true
			disarmed = true
			RecordEvent(EvtFailsafeDisarm, uint32(f.Count()))
		}
		st.FailsafeEvents++
	}
	if f.locked && !f.Tripped(cfg) {
		f.locked = false
	}
	f.count.Add(1)
	return disarmed
}
