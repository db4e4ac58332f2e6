//go:build rp2040

package main

import (
	"machine"

	"flightcore/core"
)

// capturePins are the receiver inputs for slots 0-7. In PPM mode only the
// first pin is used.
var capturePins = [core.NumRCChannels]machine.Pin{
	machine.GPIO2, machine.GPIO3, machine.GPIO4, machine.GPIO5,
	machine.GPIO6, machine.GPIO7, machine.GPIO8, machine.GPIO9,
}

// startCapture attaches pin interrupts that timestamp edges with the low
// 16 bits of the hardware timer.
func startCapture(c *core.Capture) error {
	switch c.Mode() {
	case core.InputPPM:
		pin := capturePins[0]
		pin.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
		return pin.SetInterrupt(machine.PinRising, func(machine.Pin) {
			c.HandlePPMEdge(captureCounter())
		})

	case core.InputPWM:
		for slot, pin := range capturePins {
			pin.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
			err := pin.SetInterrupt(machine.PinToggle, pwmEdgeHandler(c, slot))
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// pwmEdgeHandler drops edges that do not match the polarity the slot is
// waiting for, standing in for reprogramming a timer's capture polarity.
func pwmEdgeHandler(c *core.Capture, slot int) func(machine.Pin) {
	return func(p machine.Pin) {
		counter := captureCounter()
		high := p.Get()
		if high == (c.Polarity(slot) == core.WaitingRisingEdge) {
			c.HandleEdge(slot, counter)
		}
	}
}

// stopCapture detaches every receiver interrupt
func stopCapture() {
	for _, pin := range capturePins {
		pin.SetInterrupt(0, nil)
	}
}
