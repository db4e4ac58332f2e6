//go:build rp2040

package main

import (
	"machine"

	"flightcore/core"
	"flightcore/targets/pio"
)

// outputPeriod is the hardware PWM frame, 400 Hz for ESCs
const outputPeriod = 2500 // us

// pwmPeripheral is an interface for PWM hardware peripherals
// This abstracts over TinyGo's unexported *pwmGroup type
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// outputPins are the pins behind core.OutputRegisters, in the same order.
// The first six use PWM slices 5-7; the last four are PIO driven and only
// enabled when the receiver does not use PWM capture.
var outputPins = [core.MaxOutputs]machine.Pin{
	machine.GPIO10, machine.GPIO11,
	machine.GPIO12, machine.GPIO13, machine.GPIO14, machine.GPIO15,
	machine.GPIO16, machine.GPIO17, machine.GPIO18, machine.GPIO19,
}

type hwOutput struct {
	pwm     pwmPeripheral
	channel uint8
}

// RP2040OutputDriver implements core.OutputDriver with hardware PWM slices
// and PIO oneshot state machines.
type RP2040OutputDriver struct {
	hw      map[core.OutputRegister]hwOutput
	oneshot map[core.OutputRegister]*pio.Oneshot
}

// NewRP2040OutputDriver configures the pins usable in the given input mode
func NewRP2040OutputDriver(mode core.InputMode) (*RP2040OutputDriver, error) {
	d := &RP2040OutputDriver{
		hw:      make(map[core.OutputRegister]hwOutput),
		oneshot: make(map[core.OutputRegister]*pio.Oneshot),
	}

	count := core.NewOutputs(mode, nil).ChannelCount()
	for i := 0; i < count; i++ {
		reg := core.OutputRegisters[i]
		pin := outputPins[i]

		if reg.Timer == 3 {
			o, err := pio.NewOneshot(pin)
			if err != nil {
				return nil, err
			}
			d.oneshot[reg] = o
			continue
		}

		// RP2040: GPIO pin N maps to slice (N >> 1) & 0x7, channel N & 1
		pwm := getPWMPeripheral(uint8((uint32(pin) >> 1) & 0x7))
		err := pwm.Configure(machine.PWMConfig{
			Period: outputPeriod * 1000,
		})
		if err != nil {
			return nil, err
		}
		channel, err := pwm.Channel(pin)
		if err != nil {
			return nil, err
		}
		d.hw[reg] = hwOutput{pwm: pwm, channel: channel}
	}
	return d, nil
}

// SetCompare sets the pulse width of one output in microseconds
func (d *RP2040OutputDriver) SetCompare(reg core.OutputRegister, value uint16) {
	if o, ok := d.oneshot[reg]; ok {
		o.Write(value)
		return
	}
	out, ok := d.hw[reg]
	if !ok {
		return
	}
	if value > outputPeriod {
		value = outputPeriod
	}
	top := out.pwm.Top()
	out.pwm.Set(out.channel, uint32(uint64(value)*uint64(top+1)/outputPeriod))
}

// Stop drives every output low and halts the PIO outputs
func (d *RP2040OutputDriver) Stop() {
	for _, o := range d.oneshot {
		o.Stop()
	}
	for _, out := range d.hw {
		out.pwm.Set(out.channel, 0)
	}
}

// getPWMPeripheral returns the PWM peripheral for a given slice number
func getPWMPeripheral(sliceNum uint8) pwmPeripheral {
	switch sliceNum {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}
