package core

// Controller owns every piece of flight state and runs one control loop
// iteration per Loop call. Edge handlers reach it only through Capture.
type Controller struct {
	cfg   *Config
	clock Clock
	col   Collaborators

	sched   Scheduler
	rcTimer Timer

	capture  *Capture
	outputs  *Outputs
	failsafe Failsafe
	cond     Conditioner
	arming   Arming
	pid      PIDState
	lut      Lookup

	state    FlightState
	options  Options
	rcData   [NumRCChannels]int16
	cmd      Command
	dyn      DynGains
	att      Attitude
	axisPID  [3]int16
	gpsAngle [2]int16

	throttleHold      int16
	taskOrder         int
	previousTime      uint32
	cycleTime         uint32
	calibratedAccTime uint32
	rcTicks           uint32
}

// NewController wires the flight core to a clock and an output driver.
// Every output is preset to the idle pulse.
func NewController(cfg *Config, clock Clock, drv OutputDriver, col Collaborators) *Controller {
	c := &Controller{
		cfg:   cfg,
		clock: clock,
		col:   col,
	}
	c.capture = NewCapture(cfg.Input, DefaultChannelMapping, &c.failsafe)
	c.outputs = NewOutputs(cfg.Input, drv)
	c.outputs.Init(Pulse1MS)
	for i := range c.rcData {
		c.rcData[i] = int16(cfg.MidRC)
	}
	c.cond.Reset(cfg)
	c.lut = BuildLookup(cfg)

	now := clock.Micros()
	c.previousTime = now
	c.calibratedAccTime = now
	c.rcTimer = Timer{WakeTime: now, Handler: c.rcEvent}
	c.sched.Schedule(&c.rcTimer)
	return c
}

// rcEvent runs the 50 Hz receiver task and reschedules itself
func (c *Controller) rcEvent(t *Timer) uint8 {
	t.WakeTime = c.sched.Now() + RCInterval
	c.rcTask()
	return SF_RESCHEDULE
}

// Loop runs one iteration of the control loop
func (c *Controller) Loop() {
	now := c.clock.Micros()
	setEventClock(now)

	if c.sched.Dispatch(now) == 0 {
		c.runAuxTask()
	}

	c.annex(now)

	if c.col.IMU != nil {
		c.att = c.col.IMU.Compute(&c.state)
	}
	c.persistInflightCal()

	now = c.clock.Micros()
	c.cycleTime = now - c.previousTime
	c.previousTime = now

	c.headingHold()
	c.altitudeHold()
	c.gpsBias()

	c.axisPID = c.pid.Compute(c.cfg, &c.cmd, &c.dyn, &c.att, c.gpsAngle, c.state.AccMode)

	if c.col.Mixer != nil {
		c.col.Mixer.Mix(c.outputs, &c.cmd, &c.axisPID, &c.state)
	}
}

// rcTask samples the receiver and updates arming and flight modes
func (c *Controller) rcTask() {
	c.rcTicks++
	frame := c.capture.Snapshot()
	c.cond.Compute(&frame, c.cfg, &c.rcData)

	c.failsafe.apply(c.cfg, &c.state, &c.rcData)

	if c.rcData[Throttle] < int16(c.cfg.MinCheck) {
		c.pid.ResetIntegrals()
	}
	c.arming.Update(&c.rcData, c.cfg, &c.state, &c.options, c.att.Heading, c.col.Store)
	updateInflightCal(&c.rcData, c.cfg, &c.state, &c.options)

	c.options = ComputeOptions(&c.rcData, c.cfg)
	c.updateModes()
}

// updateModes applies the aux switch options to the flight modes
func (c *Controller) updateModes() {
	cfg, st, opts := c.cfg, &c.state, &c.options

	if (opts[BoxAcc] || c.failsafe.Engaged(cfg)) && cfg.HasSensor(SensorAcc) {
		if !st.AccMode {
			c.pid.ResetAngleIntegrals()
			st.AccMode = true
		}
	} else {
		st.AccMode = false
	}

	if !opts[BoxArm] && !c.failsafe.Locked() {
		st.OkToArm = true
	}

	if cfg.HasSensor(SensorBaro) {
		if opts[BoxBaro] {
			if !st.BaroMode {
				st.BaroMode = true
				c.throttleHold = c.cmd[Throttle]
				if c.col.Altimeter != nil {
					c.col.Altimeter.HoldAltitude()
				}
			}
		} else {
			st.BaroMode = false
		}
	}

	if cfg.HasSensor(SensorMag) {
		if opts[BoxMag] {
			if !st.MagMode {
				st.MagMode = true
				st.MagHold = c.att.Heading
			}
		} else {
			st.MagMode = false
		}
		st.HeadFreeMode = opts[BoxHeadFree]
	}

	if cfg.HasSensor(SensorGPS) {
		st.GPSModeHome = opts[BoxGPSHome]
		if opts[BoxGPSHold] {
			if !st.GPSModeHold {
				st.GPSModeHold = true
				if c.col.Navigator != nil {
					c.col.Navigator.HoldPosition()
				}
			}
		} else {
			st.GPSModeHold = false
		}
	}

	st.PassThruMode = opts[BoxPassThru]
}

// runAuxTask runs one slow sensor job per loop without RC work
func (c *Controller) runAuxTask() {
	if len(c.col.AuxTasks) == 0 {
		return
	}
	if c.taskOrder >= len(c.col.AuxTasks) {
		c.taskOrder = 0
	}
	c.col.AuxTasks[c.taskOrder].Run()
	c.taskOrder++
}

// annex shapes the command and tracks accelerometer calibration
func (c *Controller) annex(now uint32) {
	c.cmd, c.dyn = ComputeCommand(&c.rcData, c.cfg, &c.lut)
	if c.state.HeadFreeMode {
		headFree(&c.cmd, c.att.Heading, c.state.HeadFreeHold)
	}

	if c.cfg.HasFeature(FeatureVBat) && c.col.Battery != nil {
		c.col.Battery.Update()
	}

	if !c.cfg.HasSensor(SensorAcc) {
		c.state.CalibratedAcc = true
		return
	}
	if timerIsBefore(c.calibratedAccTime, now) {
		if !c.att.SmallAngle25 {
			c.state.CalibratedAcc = false
			c.calibratedAccTime = now + accCheckInterval
		} else {
			c.state.CalibratedAcc = true
		}
	}
}

// persistInflightCal saves an in-flight calibration the IMU left pending
func (c *Controller) persistInflightCal() {
	if !c.state.Inflight.Save {
		return
	}
	c.state.Inflight.Save = false
	if c.col.Store == nil {
		return
	}
	if err := c.col.Store.Save(c.cfg); err != nil {
		DebugAsync("[CAL] save failed: " + err.Error())
	}
}

func (c *Controller) headingHold() {
	if !c.cfg.HasSensor(SensorMag) {
		return
	}
	st := &c.state
	if abs(c.cmd[Yaw]) < 70 && st.MagMode {
		dif := wrap180(c.att.Heading - st.MagHold)
		if c.att.SmallAngle25 {
			c.cmd[Yaw] -= int16(int32(dif) * int32(c.cfg.P8[PIDMag]) / 30)
		}
	} else {
		st.MagHold = c.att.Heading
	}
}

func (c *Controller) altitudeHold() {
	if !c.cfg.HasSensor(SensorBaro) || !c.state.BaroMode {
		return
	}
	if abs(int32(c.cmd[Throttle])-int32(c.throttleHold)) > 20 {
		c.state.BaroMode = false
	}
	var correction int16
	if c.col.Altimeter != nil {
		correction = c.col.Altimeter.BaroPID()
	}
	c.cmd[Throttle] = c.throttleHold + correction
}

func (c *Controller) gpsBias() {
	c.gpsAngle = [2]int16{}
	if !c.cfg.HasSensor(SensorGPS) || c.col.Navigator == nil {
		return
	}
	st := &c.state
	if !st.GPSModeHome && !st.GPSModeHold {
		return
	}
	if angles, ok := c.col.Navigator.Angles(!st.GPSModeHold, c.att.Heading); ok {
		c.gpsAngle = angles
	}
}

// Capture returns the input capture engine for the board's edge handlers
func (c *Controller) Capture() *Capture {
	return c.capture
}

// Outputs returns the output dispatch
func (c *Controller) Outputs() *Outputs {
	return c.outputs
}

// Config returns the live configuration
func (c *Controller) Config() *Config {
	return c.cfg
}

// State returns the flight state
func (c *Controller) State() *FlightState {
	return &c.state
}

// Failsafe returns the failsafe counter
func (c *Controller) Failsafe() *Failsafe {
	return &c.failsafe
}

// Options returns the aux box states of the last RC tick
func (c *Controller) Options() Options {
	return c.options
}

// RCData returns the conditioned receiver channels
func (c *Controller) RCData() [NumRCChannels]int16 {
	return c.rcData
}

// Command returns the shaped command of the last loop
func (c *Controller) Command() Command {
	return c.cmd
}

// AxisPID returns the corrections of the last loop
func (c *Controller) AxisPID() [3]int16 {
	return c.axisPID
}

// CycleTime returns the duration of the last loop in microseconds
func (c *Controller) CycleTime() uint32 {
	return c.cycleTime
}

// RCTicks returns how many RC tasks have run
func (c *Controller) RCTicks() uint32 {
	return c.rcTicks
}
