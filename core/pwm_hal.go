package core

import "sync"

// OutputRegister identifies a timer compare register driving one output
type OutputRegister struct {
	Timer   uint8
	Channel uint8
}

// OutputRegisters lists the compare registers in output order: TIM1 CH1 and
// CH4, TIM4 CH1-4, then TIM3 CH1-4. The last four are only free when
// receiver capture does not use TIM3.
var OutputRegisters = [MaxOutputs]OutputRegister{
	{1, 1}, {1, 4},
	{4, 1}, {4, 2}, {4, 3}, {4, 4},
	{3, 1}, {3, 2}, {3, 3}, {3, 4},
}

// OutputDriver is the abstract output interface that core code uses.
// Platform-specific implementations program the actual compare hardware.
type OutputDriver interface {
	// SetCompare loads a pulse width in microseconds into a compare register
	SetCompare(reg OutputRegister, value uint16)
}

// Global driver registered by target code at boot.
var outputDriver OutputDriver

// SetOutputDriver is called by target-specific code to register its driver.
func SetOutputDriver(d OutputDriver) {
	outputDriver = d
}

// MustOutput returns the configured driver or panics if missing.
func MustOutput() OutputDriver {
	if outputDriver == nil {
		panic("output driver not configured")
	}
	return outputDriver
}

// RegisterFile is an OutputDriver that only remembers the last value written
// to each register. Used on hosts without output hardware.
type RegisterFile struct {
	mu   sync.Mutex
	regs map[OutputRegister]uint16
}

// NewRegisterFile returns an empty register file
func NewRegisterFile() *RegisterFile {
	return &RegisterFile{regs: make(map[OutputRegister]uint16)}
}

// SetCompare records value for reg
func (r *RegisterFile) SetCompare(reg OutputRegister, value uint16) {
	r.mu.Lock()
	r.regs[reg] = value
	r.mu.Unlock()
}

// Get returns the last value written to reg and whether it was ever written
func (r *RegisterFile) Get(reg OutputRegister) (uint16, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.regs[reg]
	return v, ok
}
