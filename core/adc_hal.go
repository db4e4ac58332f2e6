package core

// ADCChannelID selects one analog input on the target.
type ADCChannelID uint8

// ADCValue is a raw sample scaled to 12 bits.
type ADCValue uint16

// ADCMax is the largest value ReadRaw can return.
const ADCMax = 4095

// ADCDriver samples analog inputs for the battery monitor.
type ADCDriver interface {
	// ConfigureChannel puts the channel's pin in analog mode.
	ConfigureChannel(ch ADCChannelID) error

	// ReadRaw takes a single blocking sample.
	ReadRaw(ch ADCChannelID) (ADCValue, error)
}

var adcDriver ADCDriver

// SetADCDriver registers the target's analog driver.
func SetADCDriver(d ADCDriver) {
	adcDriver = d
}

// MustADC returns the registered driver. Targets without one never
// enable the vbat feature, so a missing driver here is a wiring bug.
func MustADC() ADCDriver {
	if adcDriver == nil {
		panic("adc: no driver registered")
	}
	return adcDriver
}
