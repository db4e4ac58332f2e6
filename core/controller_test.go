package core

import "testing"

type fakeIMU struct {
	att   Attitude
	calls int
}

func (f *fakeIMU) Compute(st *FlightState) Attitude {
	f.calls++
	if st.Cal.Gyro > 0 {
		st.Cal.Gyro--
	}
	if st.Cal.Accel > 0 {
		st.Cal.Accel--
	}
	return f.att
}

type countTask struct{ runs int }

func (c *countTask) Run() { c.runs++ }

type fakeAltimeter struct {
	holds      int
	correction int16
}

func (f *fakeAltimeter) HoldAltitude()  { f.holds++ }
func (f *fakeAltimeter) BaroPID() int16 { return f.correction }

type fakeNavigator struct {
	holds  int
	home   bool
	angles [2]int16
}

func (f *fakeNavigator) HoldPosition() { f.holds++ }
func (f *fakeNavigator) Angles(home bool, heading int16) ([2]int16, bool) {
	f.home = home
	return f.angles, true
}

type recordingMixer struct {
	calls int
	last  [3]int16
}

func (m *recordingMixer) Mix(out *Outputs, cmd *Command, axisPID *[3]int16, st *FlightState) {
	m.calls++
	m.last = *axisPID
	out.Write(0, uint16(cmd[Throttle]))
}

type rig struct {
	clock *ManualClock
	regs  *RegisterFile
	imu   *fakeIMU
	ctl   *Controller
	edge  uint16
}

func newRig(cfg *Config, col Collaborators) *rig {
	r := &rig{clock: &ManualClock{}, regs: NewRegisterFile(), imu: &fakeIMU{}}
	r.clock.Set(1000)
	r.imu.att.SmallAngle25 = true
	if col.IMU == nil {
		col.IMU = r.imu
	}
	r.ctl = NewController(cfg, r.clock, r.regs, col)
	return r
}

// feed delivers one PWM pulse on every receiver slot
func (r *rig) feed(widths [NumRCChannels]uint16) {
	c := r.ctl.Capture()
	for slot, w := range widths {
		r.edge += 3000
		c.HandleEdge(slot, r.edge)
		c.HandleEdge(slot, r.edge+w)
	}
}

// tick runs one RC period with the given sticks
func (r *rig) tick(widths *[NumRCChannels]uint16) {
	if widths != nil {
		r.feed(*widths)
	}
	r.ctl.Loop()
	r.clock.Advance(RCInterval)
}

func rcWidths(throttle, roll, pitch, yaw uint16) [NumRCChannels]uint16 {
	return [NumRCChannels]uint16{roll, pitch, yaw, throttle, 1500, 1500, 1500, 1500}
}

func TestControllerRCCadence(t *testing.T) {
	task := &countTask{}
	r := newRig(DefaultConfig(), Collaborators{AuxTasks: []AuxTask{task}})

	r.ctl.Loop()
	if r.ctl.RCTicks() != 1 || task.runs != 0 {
		t.Fatalf("first loop should run the RC task, ticks=%d aux=%d", r.ctl.RCTicks(), task.runs)
	}
	for i := 0; i < 5; i++ {
		r.clock.Advance(3000)
		r.ctl.Loop()
	}
	if r.ctl.RCTicks() != 1 || task.runs != 5 {
		t.Errorf("expected aux work between RC ticks, ticks=%d aux=%d", r.ctl.RCTicks(), task.runs)
	}
	r.clock.Advance(6000)
	r.ctl.Loop()
	if r.ctl.RCTicks() != 2 {
		t.Errorf("expected second RC tick after 20ms, got %d", r.ctl.RCTicks())
	}
	if r.ctl.CycleTime() != 6000 {
		t.Errorf("expected cycle time 6000, got %d", r.ctl.CycleTime())
	}
}

func TestControllerIdleOutputs(t *testing.T) {
	r := newRig(DefaultConfig(), Collaborators{})
	for ch := 0; ch < r.ctl.Outputs().ChannelCount(); ch++ {
		if v, _ := r.regs.Get(OutputRegisters[ch]); v != Pulse1MS {
			t.Errorf("output %d not at idle pulse: %d", ch, v)
		}
	}
}

func TestControllerStickArmAndFailsafe(t *testing.T) {
	cfg := DefaultConfig()
	mixer := &recordingMixer{}
	r := newRig(cfg, Collaborators{Mixer: mixer})

	arm := rcWidths(1000, 1500, 1500, 2000)
	for i := 0; i < 30 && !r.ctl.State().Armed; i++ {
		r.tick(&arm)
	}
	if !r.ctl.State().Armed {
		t.Fatal("controller did not arm from the stick gesture")
	}

	hover := rcWidths(1500, 1500, 1500, 1500)
	for i := 0; i < 10; i++ {
		r.tick(&hover)
	}
	if !r.ctl.State().Armed {
		t.Fatal("disarmed while flying")
	}
	if r.ctl.Failsafe().Count() > 1 {
		t.Fatalf("failsafe counting with signal present: %d", r.ctl.Failsafe().Count())
	}
	if mixer.calls == 0 {
		t.Fatal("mixer never called")
	}

	// receiver goes silent
	stage1, stage2 := 5*int(cfg.FailsafeDelay), 5*(int(cfg.FailsafeDelay)+int(cfg.FailsafeOffDelay))
	for i := 0; i <= stage1+1; i++ {
		r.tick(nil)
	}
	rc := r.ctl.RCData()
	if rc[Throttle] != int16(cfg.FailsafeThrottle) || rc[Roll] != int16(cfg.MidRC) {
		t.Errorf("expected failsafe sticks, got %v", rc)
	}
	if !r.ctl.State().AccMode {
		t.Error("failsafe should force level mode")
	}
	if st := r.ctl.Status(); st.Flags&StatusFailsafe == 0 {
		t.Error("status does not report failsafe")
	}

	for i := 0; i < stage2 && r.ctl.State().Armed; i++ {
		r.tick(nil)
	}
	st := r.ctl.State()
	if st.Armed || st.OkToArm {
		t.Fatalf("expected failsafe disarm, armed=%v okToArm=%v", st.Armed, st.OkToArm)
	}
	if st.FailsafeEvents == 0 {
		t.Error("no failsafe events counted")
	}

	// still silent: stays locked
	r.tick(nil)
	if st.OkToArm {
		t.Error("okToArm restored without signal")
	}

	// signal back with the sticks centered
	r.tick(&hover)
	r.tick(&hover)
	if !st.OkToArm {
		t.Error("okToArm not restored after signal returned")
	}
}

func TestControllerGyroCalibration(t *testing.T) {
	r := newRig(DefaultConfig(), Collaborators{})
	cal := rcWidths(1000, 1500, 1000, 1000)
	for i := 0; i < 30; i++ {
		r.tick(&cal)
		if r.ctl.State().Mode() == ModeCalibratingGyro {
			return
		}
	}
	t.Errorf("gyro calibration not started, mode %v", r.ctl.State().Mode())
}

func TestControllerAltitudeHold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sensors |= SensorBaro
	cfg.Activate1[BoxBaro] = auxHigh
	alt := &fakeAltimeter{correction: 30}
	r := newRig(cfg, Collaborators{Altimeter: alt})

	w := rcWidths(1500, 1500, 1500, 1500)
	w[Aux1] = 2000
	for i := 0; i < 6; i++ {
		r.tick(&w)
	}
	if !r.ctl.State().BaroMode || alt.holds != 1 {
		t.Fatalf("baro mode not entered once: mode=%v holds=%d", r.ctl.State().BaroMode, alt.holds)
	}
	if got := r.ctl.Command()[Throttle]; got != r.ctl.throttleHold+30 {
		t.Errorf("expected hold throttle %d, got %d", r.ctl.throttleHold+30, got)
	}

	// moving the stick away from the hold drops the reference; the still
	// active box latches a new one
	w[Throttle] = 1800
	for i := 0; i < 6; i++ {
		r.tick(&w)
	}
	if alt.holds < 2 {
		t.Errorf("expected a new hold reference after throttle moved, holds=%d", alt.holds)
	}
}

func TestControllerHeadingHold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sensors |= SensorMag
	cfg.Activate1[BoxMag] = auxHigh
	r := newRig(cfg, Collaborators{})
	r.imu.att.Heading = 100

	w := rcWidths(1500, 1500, 1500, 1500)
	w[Aux1] = 2000
	for i := 0; i < 6; i++ {
		r.tick(&w)
	}
	if !r.ctl.State().MagMode || r.ctl.State().MagHold != 100 {
		t.Fatalf("mag mode not latched: %+v", *r.ctl.State())
	}

	r.imu.att.Heading = 115
	r.tick(&w)
	if got := r.ctl.Command()[Yaw]; got != -20 {
		t.Errorf("expected yaw correction -20, got %d", got)
	}

	// across north
	r.ctl.State().MagHold = 175
	r.imu.att.Heading = -175
	r.tick(&w)
	if got := r.ctl.Command()[Yaw]; got != -13 {
		t.Errorf("expected wrapped correction -13, got %d", got)
	}
}

func TestControllerGPSBias(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sensors |= SensorGPS
	cfg.Activate1[BoxGPSHold] = auxHigh
	nav := &fakeNavigator{angles: [2]int16{12, -7}}
	r := newRig(cfg, Collaborators{Navigator: nav})

	w := rcWidths(1500, 1500, 1500, 1500)
	r.tick(&w)
	if r.ctl.gpsAngle != [2]int16{} {
		t.Errorf("GPS bias without a GPS mode: %v", r.ctl.gpsAngle)
	}

	w[Aux1] = 2000
	for i := 0; i < 6; i++ {
		r.tick(&w)
	}
	if nav.holds != 1 || nav.home {
		t.Errorf("position hold not latched: holds=%d home=%v", nav.holds, nav.home)
	}
	if r.ctl.gpsAngle != nav.angles {
		t.Errorf("expected bias %v, got %v", nav.angles, r.ctl.gpsAngle)
	}
}

func TestControllerPersistsInflightCal(t *testing.T) {
	store := &memStore{}
	r := newRig(DefaultConfig(), Collaborators{Store: store})
	r.ctl.State().Inflight.Save = true
	r.ctl.Loop()
	if store.saves != 1 || r.ctl.State().Inflight.Save {
		t.Errorf("expected one save and request cleared, saves=%d", store.saves)
	}
}

func TestControllerEndToEndZero(t *testing.T) {
	mixer := &recordingMixer{}
	r := newRig(DefaultConfig(), Collaborators{Mixer: mixer})
	idle := rcWidths(1000, 1500, 1500, 1500)
	for i := 0; i < 8; i++ {
		r.tick(&idle)
	}
	if r.ctl.AxisPID() != [3]int16{} || mixer.last != [3]int16{} {
		t.Errorf("expected zero corrections, got %v", r.ctl.AxisPID())
	}
	if v, _ := r.regs.Get(OutputRegisters[0]); v != r.ctl.Config().MinThrottle {
		t.Errorf("mixer output %d, want %d", v, r.ctl.Config().MinThrottle)
	}
}
