//go:build rp2040

package main

import (
	"errors"
	"machine"
	"sync"

	"flightcore/core"
)

// RpAdcDriver implements core.ADCDriver using TinyGo's machine.ADC.
type RpAdcDriver struct {
	mu sync.Mutex

	// Per-channel TinyGo ADC handles for ADC0-ADC3
	channels map[core.ADCChannelID]*machine.ADC
}

// NewRPAdcDriver initializes the ADC block
func NewRPAdcDriver() *RpAdcDriver {
	machine.InitADC()
	return &RpAdcDriver{
		channels: make(map[core.ADCChannelID]*machine.ADC),
	}
}

// ConfigureChannel sets the channel's pin to analog input
func (d *RpAdcDriver) ConfigureChannel(ch core.ADCChannelID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.channels[ch]; ok {
		return nil
	}

	var adc machine.ADC
	switch ch {
	case 0:
		adc = machine.ADC{Pin: machine.ADC0}
	case 1:
		adc = machine.ADC{Pin: machine.ADC1}
	case 2:
		adc = machine.ADC{Pin: machine.ADC2}
	case 3:
		adc = machine.ADC{Pin: machine.ADC3}
	default:
		return errors.New("unsupported ADC channel")
	}

	if err := adc.Configure(machine.ADCConfig{}); err != nil {
		return err
	}
	d.channels[ch] = &adc
	return nil
}

// ReadRaw returns a raw 12-bit ADC value (0-4095) from a channel.
func (d *RpAdcDriver) ReadRaw(ch core.ADCChannelID) (core.ADCValue, error) {
	d.mu.Lock()
	adc, ok := d.channels[ch]
	d.mu.Unlock()
	if !ok {
		return 0, errors.New("ADC channel not configured")
	}

	// machine.ADC.Get scales to 16 bits; the converter is 12 bits
	return core.ADCValue(adc.Get() >> 4), nil
}
