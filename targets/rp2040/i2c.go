//go:build rp2040

package main

import (
	"errors"
	"machine"
)

const sensorBusFrequency = 400000

// configureSensorBus brings up the I2C bus shared by the accelerometer and
// the gyro.
func configureSensorBus(bus uint8, sda, scl machine.Pin) (*machine.I2C, error) {
	var i2c *machine.I2C
	switch bus {
	case 0:
		i2c = machine.I2C0
	case 1:
		i2c = machine.I2C1
	default:
		return nil, errors.New("unsupported I2C bus ID")
	}

	err := i2c.Configure(machine.I2CConfig{
		Frequency: sensorBusFrequency,
		SDA:       sda,
		SCL:       scl,
	})
	if err != nil {
		return nil, err
	}
	return i2c, nil
}
