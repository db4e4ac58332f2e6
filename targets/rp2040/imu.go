//go:build rp2040

package main

import (
	"fmt"
	"machine"

	"tinygo.org/x/drivers/adxl345"
	"tinygo.org/x/drivers/lsm6ds3tr"

	"flightcore/imu"
)

// ADXL345 in 10-bit mode at +-8 g, LSM6DS3TR gyro at 1000 dps
const (
	accOneG      = 64
	gyroMicroDPS = 35000
)

// boardSensors reads acceleration from an ADXL345 and rotation from an
// LSM6DS3TR on the same bus.
type boardSensors struct {
	acc  adxl345.Device
	gyro *lsm6ds3tr.Device
}

func newBoardSensors(bus *machine.I2C) (*boardSensors, error) {
	s := &boardSensors{
		acc:  adxl345.New(bus),
		gyro: lsm6ds3tr.New(bus),
	}

	s.acc.Configure()
	s.acc.SetRate(adxl345.RATE_400HZ)
	s.acc.SetRange(adxl345.RANGE_8G)
	s.acc.UseLowPower(false)

	err := s.gyro.Configure(lsm6ds3tr.Configuration{
		AccelRange:      lsm6ds3tr.ACCEL_8G,
		AccelSampleRate: lsm6ds3tr.ACCEL_SR_416,
		GyroRange:       lsm6ds3tr.GYRO_1000DPS,
		GyroSampleRate:  lsm6ds3tr.GYRO_SR_416,
	})
	if err != nil {
		return nil, fmt.Errorf("configure gyro: %w", err)
	}
	if !s.gyro.Connected() {
		return nil, fmt.Errorf("gyro not found at 0x%02x", s.gyro.Address)
	}
	return s, nil
}

// Acceleration returns raw accelerometer counts
func (s *boardSensors) Acceleration() ([3]int16, error) {
	x, y, z := s.acc.ReadRawAcceleration()
	return [3]int16{x, y, z}, nil
}

// Rotation returns gyro counts at the configured range
func (s *boardSensors) Rotation() ([3]int16, error) {
	x, y, z, err := s.gyro.ReadRotation()
	if err != nil {
		return [3]int16{}, err
	}
	return [3]int16{
		int16(x / gyroMicroDPS),
		int16(y / gyroMicroDPS),
		int16(z / gyroMicroDPS),
	}, nil
}

// sensorScale matches the units returned by boardSensors
var sensorScale = imu.Scale{
	AccOneG: accOneG,
	GyroDPS: float32(gyroMicroDPS) / 1e6,
}
