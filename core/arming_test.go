package core

import (
	"errors"
	"testing"
)

type memStore struct {
	saves int
	last  Config
	err   error
}

func (m *memStore) Save(cfg *Config) error {
	m.saves++
	m.last = *cfg
	return m.err
}

func sticks(cfg *Config, throttle, roll, pitch, yaw int16) *[NumRCChannels]int16 {
	rc := centered(cfg)
	rc[Throttle] = throttle
	rc[Roll] = roll
	rc[Pitch] = pitch
	rc[Yaw] = yaw
	return &rc
}

func readyToArm() *FlightState {
	return &FlightState{OkToArm: true, CalibratedAcc: true}
}

func TestArmDebounce(t *testing.T) {
	cfg := DefaultConfig()
	st := readyToArm()
	var a Arming
	var opts Options
	rc := sticks(cfg, 1000, 1500, 1500, 2000)

	for tick := 1; tick < DebounceTicks; tick++ {
		g, fired := a.Update(rc, cfg, st, &opts, 0, nil)
		if g != GestureArm {
			t.Fatalf("tick %d: expected arm gesture, got %v", tick, g)
		}
		if fired || st.Armed {
			t.Fatalf("tick %d: armed before %d ticks", tick, DebounceTicks)
		}
	}
	if a.Debounce().Count() != DebounceTicks-1 {
		t.Errorf("expected count %d, got %d", DebounceTicks-1, a.Debounce().Count())
	}

	if _, fired := a.Update(rc, cfg, st, &opts, 123, nil); !fired || !st.Armed {
		t.Fatal("expected arm on tick 20")
	}
	if st.HeadFreeHold != 123 {
		t.Errorf("expected head free hold 123, got %d", st.HeadFreeHold)
	}
}

func TestDebounceResetsOnOtherInput(t *testing.T) {
	cfg := DefaultConfig()
	st := readyToArm()
	var a Arming
	var opts Options
	hold := sticks(cfg, 1000, 1500, 1500, 2000)
	idle := sticks(cfg, 1000, 1500, 1500, 1500)

	for i := 0; i < 10; i++ {
		a.Update(hold, cfg, st, &opts, 0, nil)
	}
	a.Update(idle, cfg, st, &opts, 0, nil)
	if a.Debounce().Count() != 0 {
		t.Fatalf("expected count 0 after release, got %d", a.Debounce().Count())
	}

	for i := 0; i < DebounceTicks-1; i++ {
		a.Update(hold, cfg, st, &opts, 0, nil)
	}
	if st.Armed {
		t.Error("armed from a split hold")
	}
}

func TestDebouncerFiresOnce(t *testing.T) {
	var d Debouncer
	fires := 0
	for i := 0; i < 100; i++ {
		if d.Hold(GestureGyroCal) {
			fires++
		}
	}
	if fires != 1 {
		t.Errorf("expected one fire, got %d", fires)
	}
	if d.Hold(GestureNone) || d.Count() != 0 {
		t.Error("no gesture must reset the count")
	}
}

func TestStickGestures(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name  string
		armed bool
		rc    *[NumRCChannels]int16
		want  Gesture
		check func(st *FlightState) bool
	}{
		{"gyro cal", false, sticks(cfg, 1000, 1500, 1000, 1000), GestureGyroCal,
			func(st *FlightState) bool { return st.Cal.Gyro == CalibratingGyroCycles }},
		{"disarm yaw", true, sticks(cfg, 1000, 1500, 1500, 1000), GestureDisarm,
			func(st *FlightState) bool { return !st.Armed }},
		{"disarm roll", true, sticks(cfg, 1000, 1000, 1500, 1500), GestureDisarm,
			func(st *FlightState) bool { return !st.Armed }},
		{"arm roll", false, sticks(cfg, 1000, 2000, 1500, 1500), GestureArm,
			func(st *FlightState) bool { return st.Armed }},
		{"arm yaw", false, sticks(cfg, 1000, 1500, 1500, 2000), GestureArm,
			func(st *FlightState) bool { return st.Armed }},
		{"arm rejects yaw and roll together", false, sticks(cfg, 1000, 2000, 1500, 2000), GestureNone,
			func(st *FlightState) bool { return !st.Armed }},
		{"arm needs pitch not high", false, sticks(cfg, 1000, 2000, 2000, 1500), GestureNone,
			func(st *FlightState) bool { return !st.Armed }},
		{"acc cal", false, sticks(cfg, 2000, 1500, 1000, 1000), GestureAccCal,
			func(st *FlightState) bool { return st.Cal.Accel == CalibratingAccCycles }},
		{"mag cal", false, sticks(cfg, 2000, 1500, 1000, 2000), GestureMagCal,
			func(st *FlightState) bool { return st.Cal.Mag }},
		{"no high throttle gestures when armed", true, sticks(cfg, 2000, 1500, 1000, 1000), GestureNone,
			func(st *FlightState) bool { return st.Cal.Accel == 0 }},
		{"mid throttle", false, sticks(cfg, 1500, 1000, 1000, 1000), GestureNone,
			func(st *FlightState) bool { return st.Mode() == ModeDisarmed }},
	}

	for _, tt := range tests {
		st := readyToArm()
		st.Armed = tt.armed
		var a Arming
		var opts Options
		var g Gesture
		for i := 0; i < DebounceTicks; i++ {
			g, _ = a.Update(tt.rc, cfg, st, &opts, 0, nil)
		}
		if g != tt.want {
			t.Errorf("%s: expected gesture %v, got %v", tt.name, tt.want, g)
		}
		if !tt.check(st) {
			t.Errorf("%s: unexpected state %+v", tt.name, *st)
		}
	}
}

func TestArmBlocked(t *testing.T) {
	cfg := DefaultConfig()
	rc := sticks(cfg, 1000, 1500, 1500, 2000)

	blocked := map[string]*FlightState{
		"uncalibrated acc": {OkToArm: true},
		"gyro cal running": {OkToArm: true, CalibratedAcc: true, Cal: Calibration{Gyro: 10}},
		"failsafe lock":    {CalibratedAcc: true},
	}
	for name, st := range blocked {
		var a Arming
		var opts Options
		for i := 0; i < DebounceTicks; i++ {
			a.Update(rc, cfg, st, &opts, 0, nil)
		}
		if st.Armed {
			t.Errorf("%s: armed", name)
		}
	}
}

func TestArmSwitch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Activate1[BoxArm] = auxHigh
	st := readyToArm()
	var a Arming

	rc := sticks(cfg, 1000, 1500, 1500, 1500)
	rc[Aux1] = 2000
	opts := ComputeOptions(rc, cfg)

	g, fired := a.Update(rc, cfg, st, &opts, 45, nil)
	if g != GestureArmSwitch || !fired || !st.Armed {
		t.Fatalf("switch should arm immediately, got %v fired=%v armed=%v", g, fired, st.Armed)
	}
	if st.HeadFreeHold != 45 {
		t.Errorf("expected head free hold 45, got %d", st.HeadFreeHold)
	}

	rc[Aux1] = 1000
	opts = ComputeOptions(rc, cfg)
	a.Update(rc, cfg, st, &opts, 0, nil)
	if st.Armed {
		t.Error("switch off should disarm immediately")
	}

	// switch on without okToArm stays disarmed
	st.OkToArm = false
	rc[Aux1] = 2000
	opts = ComputeOptions(rc, cfg)
	a.Update(rc, cfg, st, &opts, 0, nil)
	if st.Armed {
		t.Error("armed without okToArm")
	}
}

func TestTrimAdjust(t *testing.T) {
	cfg := DefaultConfig()
	st := &FlightState{}
	store := &memStore{}
	var a Arming
	var opts Options

	rc := sticks(cfg, 2000, 1500, 2000, 1500)
	for i := 0; i < 3; i++ {
		a.Update(rc, cfg, st, &opts, 0, store)
	}
	if cfg.AccTrim[Pitch] != 6 {
		t.Errorf("expected pitch trim 6, got %d", cfg.AccTrim[Pitch])
	}
	if store.saves != 3 || store.last.AccTrim[Pitch] != 6 {
		t.Errorf("expected 3 saves ending at 6, got %d saves, trim %d", store.saves, store.last.AccTrim[Pitch])
	}
	if st.Mode() != ModeTrimAdjust {
		t.Errorf("expected trim mode, got %v", st.Mode())
	}

	rc = sticks(cfg, 2000, 1000, 1500, 1500)
	store.err = errors.New("flash busy")
	a.Update(rc, cfg, st, &opts, 0, store)
	if cfg.AccTrim[Roll] != -2 {
		t.Errorf("expected roll trim -2, got %d", cfg.AccTrim[Roll])
	}

	rc = sticks(cfg, 1500, 1500, 1500, 1500)
	a.Update(rc, cfg, st, &opts, 0, store)
	if st.Mode() != ModeDisarmed {
		t.Errorf("expected disarmed after release, got %v", st.Mode())
	}
}

func TestInflightCalGesture(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Features |= FeatureInflightAccCal
	st := &FlightState{}
	var a Arming
	var opts Options

	rc := sticks(cfg, 1000, 2000, 2000, 1000)
	for i := 0; i < 3*DebounceTicks; i++ {
		a.Update(rc, cfg, st, &opts, 0, nil)
	}
	if !st.Inflight.Armed {
		t.Fatal("expected in-flight calibration armed once")
	}

	// with a measurement done the gesture requests a save
	st.Inflight.MeasurementDone = true
	a.Update(sticks(cfg, 1500, 1500, 1500, 1500), cfg, st, &opts, 0, nil)
	for i := 0; i < DebounceTicks; i++ {
		a.Update(rc, cfg, st, &opts, 0, nil)
	}
	if !st.Inflight.Save || st.Inflight.MeasurementDone {
		t.Errorf("expected save request, got %+v", st.Inflight)
	}
}

func TestInflightCalFlow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Features |= FeatureInflightAccCal
	st := &FlightState{Armed: true}
	st.Inflight.Armed = true
	var opts Options

	rc := sticks(cfg, 1500, 1500, 1500, 1500)
	updateInflightCal(rc, cfg, st, &opts)
	if st.Inflight.Active != InflightAccCalCycles || st.Inflight.Armed {
		t.Errorf("airborne start failed: %+v", st.Inflight)
	}

	st.Inflight = InflightCal{}
	opts[BoxPassThru] = true
	updateInflightCal(rc, cfg, st, &opts)
	if !st.Inflight.Armed || st.Inflight.Active != InflightAccCalCycles {
		t.Errorf("passthru start failed: %+v", st.Inflight)
	}

	opts[BoxPassThru] = false
	st.Armed = false
	st.Inflight.MeasurementDone = true
	updateInflightCal(rc, cfg, st, &opts)
	if !st.Inflight.Save || st.Inflight.Armed || st.Inflight.MeasurementDone {
		t.Errorf("landing save failed: %+v", st.Inflight)
	}
}

func TestModePrecedence(t *testing.T) {
	st := FlightState{Armed: true}
	if st.Mode() != ModeArmed {
		t.Errorf("expected armed, got %v", st.Mode())
	}
	st.Cal.Mag = true
	if st.Mode() != ModeCalibratingMag {
		t.Errorf("expected mag cal, got %v", st.Mode())
	}
	st.Cal.Accel = 1
	if st.Mode() != ModeCalibratingAccel {
		t.Errorf("expected acc cal, got %v", st.Mode())
	}
	st.Cal.Gyro = 1
	if st.Mode() != ModeCalibratingGyro {
		t.Errorf("expected gyro cal, got %v", st.Mode())
	}
}
