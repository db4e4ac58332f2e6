package core

// Mode is the tagged arming/calibration state reported to telemetry
type Mode uint8

const (
	ModeDisarmed Mode = iota
	ModeArmed
	ModeCalibratingGyro
	ModeCalibratingAccel
	ModeCalibratingMag
	ModeTrimAdjust
)

func (m Mode) String() string {
	switch m {
	case ModeDisarmed:
		return "disarmed"
	case ModeArmed:
		return "armed"
	case ModeCalibratingGyro:
		return "cal-gyro"
	case ModeCalibratingAccel:
		return "cal-accel"
	case ModeCalibratingMag:
		return "cal-mag"
	case ModeTrimAdjust:
		return "trim"
	}
	return "unknown"
}

// Calibration windows, in IMU samples
const (
	CalibratingGyroCycles = 400
	CalibratingAccCycles  = 400
	InflightAccCalCycles  = 50
	DebounceTicks         = 20
)

// Calibration holds the pending calibration requests. The IMU counts the
// windows down.
type Calibration struct {
	Gyro  uint16
	Accel uint16
	Mag   bool
}

// InflightCal tracks accelerometer calibration taken while flying level
type InflightCal struct {
	Armed           bool
	Active          uint16
	MeasurementDone bool
	Save            bool
}

// FlightState is the mutable state shared by the RC task, the control loop
// and the collaborators. It is only touched from the main loop.
type FlightState struct {
	Armed   bool
	OkToArm bool

	Cal           Calibration
	Inflight      InflightCal
	CalibratedAcc bool

	AccMode      bool
	MagMode      bool
	BaroMode     bool
	HeadFreeMode bool
	PassThruMode bool
	GPSModeHome  bool
	GPSModeHold  bool

	HeadFreeHold int16
	MagHold      int16

	FailsafeEvents uint16
	Trimming       bool
}

// Mode returns the state shown to the pilot. Calibration takes precedence
// over arming.
func (s *FlightState) Mode() Mode {
	switch {
	case s.Cal.Gyro > 0:
		return ModeCalibratingGyro
	case s.Cal.Accel > 0:
		return ModeCalibratingAccel
	case s.Cal.Mag:
		return ModeCalibratingMag
	case s.Trimming:
		return ModeTrimAdjust
	case s.Armed:
		return ModeArmed
	}
	return ModeDisarmed
}

// Gesture is a recognized stick command
type Gesture uint8

const (
	GestureNone Gesture = iota
	GestureGyroCal
	GestureInflightCal
	GestureArmSwitch
	GestureDisarm
	GestureArm
	GestureAccCal
	GestureMagCal
	GestureTrimPitchUp
	GestureTrimPitchDown
	GestureTrimRollUp
	GestureTrimRollDown
	numGestures
)

var gestureNames = [numGestures]string{
	"none", "gyro-cal", "inflight-cal", "arm-switch", "disarm", "arm",
	"acc-cal", "mag-cal", "trim-pitch-up", "trim-pitch-down",
	"trim-roll-up", "trim-roll-down",
}

func (g Gesture) String() string {
	if g >= numGestures {
		return "unknown"
	}
	return gestureNames[g]
}

// Debouncer requires a gesture to be held for DebounceTicks consecutive
// ticks. It fires once, on the tick the count reaches DebounceTicks.
type Debouncer struct {
	gesture Gesture
	count   uint8
}

// Hold records this tick's gesture and reports whether it just became
// effective.
func (d *Debouncer) Hold(g Gesture) bool {
	if g != d.gesture {
		d.gesture = g
		d.count = 0
	}
	if g == GestureNone || d.count >= DebounceTicks {
		return false
	}
	d.count++
	return d.count == DebounceTicks
}

// Reset clears the count
func (d *Debouncer) Reset() {
	d.gesture = GestureNone
	d.count = 0
}

// Count returns how long the current gesture has been held
func (d *Debouncer) Count() uint8 {
	return d.count
}

// stickEnv is what a gesture action may read and change
type stickEnv struct {
	rc      *[NumRCChannels]int16
	cfg     *Config
	st      *FlightState
	opts    *Options
	heading int16
	store   Store
}

type transition struct {
	debounced bool
	apply     func(env *stickEnv)
}

var transitions = [numGestures]transition{
	GestureNone: {false, func(*stickEnv) {}},
	GestureGyroCal: {true, func(env *stickEnv) {
		env.st.Cal.Gyro = CalibratingGyroCycles
		RecordEvent(EvtGyroCal, 0)
	}},
	GestureInflightCal: {true, func(env *stickEnv) {
		in := &env.st.Inflight
		if in.MeasurementDone {
			in.MeasurementDone = false
			in.Save = true
		} else {
			in.Armed = !in.Armed
		}
		RecordEvent(EvtInflightCal, boolToU32(in.Armed))
	}},
	GestureArmSwitch: {false, func(env *stickEnv) {
		if env.opts[BoxArm] && env.st.OkToArm {
			arm(env)
		} else if env.st.Armed {
			disarm(env)
		}
	}},
	GestureDisarm: {true, disarm},
	GestureArm: {true, func(env *stickEnv) {
		if env.st.OkToArm {
			arm(env)
		}
	}},
	GestureAccCal: {true, func(env *stickEnv) {
		env.st.Cal.Accel = CalibratingAccCycles
		RecordEvent(EvtAccCal, 0)
	}},
	GestureMagCal: {true, func(env *stickEnv) {
		env.st.Cal.Mag = true
		RecordEvent(EvtMagCal, 0)
	}},
	GestureTrimPitchUp:   {false, trim(Pitch, 2)},
	GestureTrimPitchDown: {false, trim(Pitch, -2)},
	GestureTrimRollUp:    {false, trim(Roll, 2)},
	GestureTrimRollDown:  {false, trim(Roll, -2)},
}

func arm(env *stickEnv) {
	if env.st.Armed {
		return
	}
	env.st.Armed = true
	env.st.HeadFreeHold = env.heading
	RecordEvent(EvtArm, 0)
}

func disarm(env *stickEnv) {
	if !env.st.Armed {
		return
	}
	env.st.Armed = false
	RecordEvent(EvtDisarm, 0)
}

func trim(axis int, step int16) func(env *stickEnv) {
	return func(env *stickEnv) {
		env.cfg.AccTrim[axis] += step
		env.st.Trimming = true
		if IsDebugEnabled() {
			DebugAsync("[ARM] trim " + itoa(axis) + " = " + itoa(int(env.cfg.AccTrim[axis])))
		}
		if env.store != nil {
			if err := env.store.Save(env.cfg); err != nil {
				DebugAsync("[ARM] trim save failed: " + err.Error())
			}
		}
		RecordEvent(EvtTrim, uint32(axis))
	}
}

// classify maps stick positions and state to at most one gesture. The
// order of the checks is the priority of the gestures.
func classify(rc *[NumRCChannels]int16, cfg *Config, st *FlightState) Gesture {
	lo := func(ch int) bool { return rc[ch] < int16(cfg.MinCheck) }
	hi := func(ch int) bool { return rc[ch] > int16(cfg.MaxCheck) }

	if lo(Throttle) {
		switch {
		case lo(Yaw) && lo(Pitch) && !st.Armed:
			return GestureGyroCal
		case cfg.HasFeature(FeatureInflightAccCal) && !st.Armed && lo(Yaw) && hi(Pitch) && hi(Roll):
			return GestureInflightCal
		case Configured(cfg, BoxArm):
			return GestureArmSwitch
		case (lo(Yaw) || lo(Roll)) && st.Armed:
			return GestureDisarm
		case hi(Yaw) != hi(Roll) && !hi(Pitch) && !st.Armed && st.Cal.Gyro == 0 && st.CalibratedAcc:
			return GestureArm
		}
		return GestureNone
	}

	if hi(Throttle) && !st.Armed {
		switch {
		case lo(Yaw) && lo(Pitch):
			return GestureAccCal
		case hi(Yaw) && lo(Pitch):
			return GestureMagCal
		case hi(Pitch):
			return GestureTrimPitchUp
		case lo(Pitch):
			return GestureTrimPitchDown
		case hi(Roll):
			return GestureTrimRollUp
		case lo(Roll):
			return GestureTrimRollDown
		}
	}
	return GestureNone
}

// Arming interprets stick gestures once per RC tick
type Arming struct {
	debounce Debouncer
}

// Debounce exposes the gesture hold counter
func (a *Arming) Debounce() *Debouncer {
	return &a.debounce
}

// Update classifies the sticks and runs the matching transition when it is
// due. It returns the gesture seen and whether its action ran.
func (a *Arming) Update(rc *[NumRCChannels]int16, cfg *Config, st *FlightState, opts *Options, heading int16, store Store) (Gesture, bool) {
	st.Trimming = false
	g := classify(rc, cfg, st)
	tr := transitions[g]

	fire := true
	if tr.debounced {
		fire = a.debounce.Hold(g)
	} else {
		a.debounce.Reset()
	}
	if g == GestureNone {
		fire = false
	}
	if fire {
		tr.apply(&stickEnv{rc: rc, cfg: cfg, st: st, opts: opts, heading: heading, store: store})
	}
	return g, fire
}

// updateInflightCal advances the in-flight accelerometer calibration flow
// after the gestures of the tick.
func updateInflightCal(rc *[NumRCChannels]int16, cfg *Config, st *FlightState, opts *Options) {
	if !cfg.HasFeature(FeatureInflightAccCal) {
		return
	}
	in := &st.Inflight
	if in.Armed && st.Armed && rc[Throttle] > int16(cfg.MinCheck) && !opts[BoxArm] {
		in.Active = InflightAccCalCycles
		in.Armed = false
	}
	if opts[BoxPassThru] {
		if !in.Armed {
			in.Armed = true
			in.Active = InflightAccCalCycles
		}
	} else if in.MeasurementDone && !st.Armed {
		in.Armed = false
		in.MeasurementDone = false
		in.Save = true
	}
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
