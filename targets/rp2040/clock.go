//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWL = timerBase + 0x0C // Raw timer low word
)

var (
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// hardwareTime returns the low 32 bits of the 1 MHz timer. This is the
// loop clock; its low 16 bits are the capture counter.
func hardwareTime() uint32 {
	return timerRAWL.Get()
}

// captureCounter returns the free-running 16-bit capture time base
func captureCounter() uint16 {
	return uint16(timerRAWL.Get())
}
