//go:build !tinygo

package core

// irqState is a placeholder for the saved interrupt mask on regular Go.
type irqState uintptr

// disableInterrupts is a no-op on regular Go. Capture state shared with
// edge handlers is held in atomics, so host builds stay race free without it.
func disableInterrupts() irqState {
	return 0
}

// restoreInterrupts is a no-op on regular Go
func restoreInterrupts(state irqState) {
	_ = state
}
