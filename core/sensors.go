package core

// Attitude is what the IMU reports each tick. Angles are in 0.1 degree,
// heading in degrees, gyro in raw sensor units.
type Attitude struct {
	Angle        [2]int16
	Gyro         [3]int16
	Heading      int16
	SmallAngle25 bool
}

// IMU reads the inertial sensors, runs the attitude estimate and consumes
// the calibration counters in FlightState (Cal.Gyro, Cal.Accel,
// Inflight.Active), decrementing them as samples are taken.
type IMU interface {
	Compute(st *FlightState) Attitude
}

// AuxTask is one slow sensor job (mag read, baro update, altitude
// estimate) run on loop iterations without RC work.
type AuxTask interface {
	Run()
}

// Altimeter supplies the altitude hold correction
type Altimeter interface {
	// HoldAltitude latches the current estimate as the hold target and
	// clears the altitude controller.
	HoldAltitude()
	// BaroPID returns the throttle correction for the current tick
	BaroPID() int16
}

// Navigator supplies the GPS angle bias for the active GPS mode
type Navigator interface {
	// HoldPosition latches the current position for position hold
	HoldPosition()
	// Angles returns the roll and pitch bias toward the target. ok is false
	// without a home fix.
	Angles(home bool, heading int16) (angles [2]int16, ok bool)
}

// Mixer turns the axis corrections into motor and servo pulses
type Mixer interface {
	Mix(out *Outputs, cmd *Command, axisPID *[3]int16, st *FlightState)
}

// Store persists the configuration
type Store interface {
	Save(cfg *Config) error
}

// Collaborators bundles the optional external components of the controller.
// Any of them may be nil.
type Collaborators struct {
	IMU       IMU
	AuxTasks  []AuxTask
	Altimeter Altimeter
	Navigator Navigator
	Mixer     Mixer
	Store     Store
	Battery   *Battery
}
