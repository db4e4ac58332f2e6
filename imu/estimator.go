// Package imu turns raw accelerometer and gyro samples into the attitude
// the flight core consumes, and runs the calibration windows requested by
// stick gestures.
package imu

import (
	"math"

	"flightcore/core"
)

const (
	// smallAngle is 25 degrees in 0.1 degree units
	smallAngle = 250
	// accWeight is the share of the accelerometer angle in each update
	accWeight = 0.02
)

// Sensors supplies raw samples in roll, pitch, yaw axis order with z up
type Sensors interface {
	Acceleration() ([3]int16, error)
	Rotation() ([3]int16, error)
}

// Scale describes the raw units of a sensor pair
type Scale struct {
	// AccOneG is the raw accelerometer reading for 1 g
	AccOneG int16
	// GyroDPS is degrees per second per raw gyro count
	GyroDPS float32
}

// Estimator is a complementary filter implementing core.IMU
type Estimator struct {
	cfg   *core.Config
	src   Sensors
	clock core.Clock
	store core.Store
	scale Scale

	gyroZero    [3]int16
	gyroSum     [3]int32
	accSum      [3]int32
	inflightSum [3]int32
	inflight    [3]int16
	measured    bool

	angle   [2]float32 // 0.1 degree
	heading float32    // degrees
	last    uint32
	started bool

	att    core.Attitude
	errors uint32
}

// New creates an estimator. store may be nil, in which case accelerometer
// calibrations only live in cfg.
func New(cfg *core.Config, src Sensors, clock core.Clock, store core.Store, scale Scale) *Estimator {
	return &Estimator{cfg: cfg, src: src, clock: clock, store: store, scale: scale}
}

// Compute reads one sample pair and updates the attitude. A failed read
// returns the previous attitude.
func (e *Estimator) Compute(st *core.FlightState) core.Attitude {
	acc, err := e.src.Acceleration()
	if err != nil {
		e.errors++
		return e.att
	}
	gyro, err := e.src.Rotation()
	if err != nil {
		e.errors++
		return e.att
	}

	e.calibrateGyro(st, gyro)
	e.calibrateAcc(st, acc)
	e.calibrateInflight(st, acc)

	for i := range gyro {
		gyro[i] -= e.gyroZero[i]
	}
	for i := range acc {
		acc[i] -= e.cfg.AccZero[i]
	}

	now := e.clock.Micros()
	var dt float32
	if e.started {
		dt = float32(now-e.last) / core.TimerFreq
	}
	e.last = now

	for axis := core.Roll; axis <= core.Pitch; axis++ {
		accAngle := float32(math.Atan2(float64(acc[axis]), float64(acc[core.Yaw])) * 1800 / math.Pi)
		if !e.started {
			e.angle[axis] = accAngle
			continue
		}
		gyroAngle := e.angle[axis] + float32(gyro[axis])*e.scale.GyroDPS*dt*10
		e.angle[axis] = (1-accWeight)*gyroAngle + accWeight*accAngle
	}
	e.started = true

	e.heading += float32(gyro[core.Yaw]) * e.scale.GyroDPS * dt
	for e.heading > 180 {
		e.heading -= 360
	}
	for e.heading <= -180 {
		e.heading += 360
	}

	e.att.Gyro = gyro
	e.att.Angle[core.Roll] = round16(e.angle[core.Roll])
	e.att.Angle[core.Pitch] = round16(e.angle[core.Pitch])
	e.att.Heading = round16(e.heading)
	e.att.SmallAngle25 = abs16(e.att.Angle[core.Roll]) < smallAngle &&
		abs16(e.att.Angle[core.Pitch]) < smallAngle
	return e.att
}

func (e *Estimator) calibrateGyro(st *core.FlightState, g [3]int16) {
	if st.Cal.Gyro == 0 {
		return
	}
	if st.Cal.Gyro == core.CalibratingGyroCycles {
		e.gyroSum = [3]int32{}
	}
	for i := range g {
		e.gyroSum[i] += int32(g[i])
	}
	if st.Cal.Gyro == 1 {
		for i := range e.gyroZero {
			e.gyroZero[i] = int16(e.gyroSum[i] / core.CalibratingGyroCycles)
		}
	}
	st.Cal.Gyro--
}

func (e *Estimator) calibrateAcc(st *core.FlightState, a [3]int16) {
	if st.Cal.Accel == 0 {
		return
	}
	if st.Cal.Accel == core.CalibratingAccCycles {
		e.accSum = [3]int32{}
	}
	for i := range a {
		e.accSum[i] += int32(a[i])
	}
	if st.Cal.Accel == 1 {
		e.cfg.AccZero = e.zero(e.accSum, core.CalibratingAccCycles)
		e.cfg.AccTrim = [2]int16{}
		e.save()
	}
	st.Cal.Accel--
}

// calibrateInflight averages the level samples taken in flight and applies
// them once the pilot has landed and asked for the save.
func (e *Estimator) calibrateInflight(st *core.FlightState, a [3]int16) {
	in := &st.Inflight
	if in.Active > 0 {
		if in.Active == core.InflightAccCalCycles {
			e.inflightSum = [3]int32{}
		}
		for i := range a {
			e.inflightSum[i] += int32(a[i])
		}
		if in.Active == 1 {
			e.inflight = e.zero(e.inflightSum, core.InflightAccCalCycles)
			e.measured = true
			in.MeasurementDone = true
		}
		in.Active--
	}
	if in.Save && e.measured {
		e.cfg.AccZero = e.inflight
		e.cfg.AccTrim = [2]int16{}
		e.measured = false
	}
}

func (e *Estimator) zero(sum [3]int32, n int32) [3]int16 {
	var z [3]int16
	for i := range z {
		z[i] = int16(sum[i] / n)
	}
	z[core.Yaw] -= e.scale.AccOneG
	return z
}

func (e *Estimator) save() {
	if e.store == nil {
		return
	}
	if err := e.store.Save(e.cfg); err != nil {
		core.DebugAsync("[IMU] save failed: " + err.Error())
	}
}

// GyroZero returns the offsets found by the last gyro calibration
func (e *Estimator) GyroZero() [3]int16 {
	return e.gyroZero
}

// Errors returns the number of failed sensor reads
func (e *Estimator) Errors() uint32 {
	return e.errors
}

func round16(v float32) int16 {
	return int16(math.Round(float64(v)))
}

func abs16(v int16) int16 {
	if v < 0 {
		return -v
	}
	return v
}
