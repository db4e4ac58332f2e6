//go:build rp2040

// Package pio drives servo and ESC outputs from PIO state machines, for
// outputs that have no free hardware PWM slice.
package pio

import (
	"errors"
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// PIO program for one pulse per command word.
// Command word format:
//
//	Bits 0-15:  high cycles
//	Bits 16-31: low cycles after the pulse
//
// Program flow:
//  1. Pull 32-bit command from FIFO (the pin idles low while empty)
//  2. Extract high cycles into X, low cycles into Y
//  3. Drive the pin high for X+2 cycles, then low for Y+2 cycles
//
// buildOneshotProgram creates the pulse program using AssemblerV0
func buildOneshotProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),          // 0: pull block
		asm.Out(rp2pio.OutDestX, 16).Encode(),   // 1: out x, 16 (high cycles)
		asm.Out(rp2pio.OutDestY, 16).Encode(),   // 2: out y, 16 (low cycles)
		asm.Set(rp2pio.SetDestPins, 1).Encode(), // 3: set pins, 1
		// high_loop:
		asm.Jmp(4, rp2pio.JmpXNZeroDec).Encode(), // 4: jmp x--, 4
		asm.Set(rp2pio.SetDestPins, 0).Encode(),  // 5: set pins, 0
		// low_loop:
		asm.Jmp(6, rp2pio.JmpYNZeroDec).Encode(), // 6: jmp y--, 6
		// .wrap
	}
}

const (
	oneshotOrigin = 0 // Load at offset 0 for correct jump addresses

	// clkDiv brings the 125 MHz system clock to 1 MHz, one cycle per us
	clkDiv = 125

	// loopOverhead is the set and final jump cycles around each count
	loopOverhead = 2

	// MinGap is the low time after each pulse, in microseconds
	MinGap = 50
)

var (
	ErrNoStateMachine = errors.New("no free PIO state machine")

	programLoaded [2]bool
	programOffset [2]uint8
)

// Oneshot emits one pulse of the requested width per Write
type Oneshot struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	pin    machine.Pin
	pioNum uint8
	smNum  uint8
}

// NewOneshot claims a free state machine and binds it to pin
func NewOneshot(pin machine.Pin) (*Oneshot, error) {
	pioNum, smNum, ok := allocatePIO()
	if !ok {
		return nil, ErrNoStateMachine
	}

	pioHW := rp2pio.PIO0
	if pioNum == 1 {
		pioHW = rp2pio.PIO1
	}
	o := &Oneshot{
		pio:    pioHW,
		sm:     pioHW.StateMachine(smNum),
		pin:    pin,
		pioNum: pioNum,
		smNum:  smNum,
	}
	if err := o.init(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Oneshot) init() error {
	// Claim the state machine first
	o.sm.TryClaim()

	// Every state machine of a block shares one copy of the program
	program := buildOneshotProgram()
	if !programLoaded[o.pioNum] {
		offset, err := o.pio.AddProgram(program, oneshotOrigin)
		if err != nil {
			return err
		}
		programOffset[o.pioNum] = offset
		programLoaded[o.pioNum] = true
	}
	offset := programOffset[o.pioNum]

	o.pin.Configure(machine.PinConfig{Mode: o.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(o.pin, 1)
	// shift right, explicit PULL, 32-bit threshold
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(clkDiv, 0)

	// Initialize state machine before pin directions
	o.sm.Init(offset, cfg)
	o.sm.SetPindirsConsecutive(o.pin, 1, true)
	o.sm.SetPinsConsecutive(o.pin, 1, false)
	o.sm.SetEnabled(true)
	return nil
}

// Write queues one pulse of pulse microseconds. It returns false, dropping
// the pulse, when the FIFO is full; the control loop writes again next
// iteration.
func (o *Oneshot) Write(pulse uint16) bool {
	if pulse < loopOverhead {
		pulse = loopOverhead
	}
	if o.sm.IsTxFIFOFull() {
		return false
	}
	cmd := uint32(pulse-loopOverhead) | uint32(MinGap-loopOverhead)<<16
	o.sm.TxPut(cmd)
	return true
}

// Stop halts the state machine and drops queued pulses
func (o *Oneshot) Stop() {
	o.sm.SetEnabled(false)
	o.sm.ClearFIFOs()
	o.sm.Restart()
	o.sm.SetPinsConsecutive(o.pin, 1, false)
}
