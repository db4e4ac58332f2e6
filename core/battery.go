// Battery voltage monitoring from a divided ADC input
package core

import "fmt"

const (
	// vbatFreq is how many Update calls pass between samples
	vbatFreq     = 6
	vbatSamples  = 8
	maxCellCount = 8
)

// Battery averages the pack voltage over the last eight samples and
// derives the cell count at start up.
type Battery struct {
	drv ADCDriver
	ch  ADCChannelID
	cfg *Config

	samples [vbatSamples]ADCValue
	index   uint8
	timer   uint8

	vbat    uint8 // 0.1 V
	cells   uint8
	warning uint8 // 0.1 V
}

// NewBattery configures the ADC channel, takes an initial reading and
// counts the cells from it.
func NewBattery(drv ADCDriver, ch ADCChannelID, cfg *Config) (*Battery, error) {
	if err := drv.ConfigureChannel(ch); err != nil {
		return nil, fmt.Errorf("battery adc channel %d: %w", ch, err)
	}
	raw, err := drv.ReadRaw(ch)
	if err != nil {
		return nil, fmt.Errorf("battery adc read: %w", err)
	}

	b := &Battery{drv: drv, ch: ch, cfg: cfg}
	for i := range b.samples {
		b.samples[i] = raw
	}
	b.vbat = b.toVoltage(raw)

	cells := uint8(1)
	for ; cells < maxCellCount; cells++ {
		if uint16(b.vbat) < uint16(cells)*uint16(cfg.VBatMaxCell) {
			break
		}
	}
	b.cells = cells
	b.warning = uint8(min(uint16(cells)*uint16(cfg.VBatMinCell), 0xFF))
	return b, nil
}

// toVoltage converts a raw reading to 0.1 V through the divider scale
func (b *Battery) toVoltage(raw ADCValue) uint8 {
	v := uint32(raw) * 33 * uint32(b.cfg.VBatScale) / (ADCMax * 10)
	return uint8(min(v, 0xFF))
}

// Update samples the battery every vbatFreq calls. A failed read keeps the
// previous average.
func (b *Battery) Update() {
	b.timer++
	if b.timer%vbatFreq != 0 {
		return
	}
	raw, err := b.drv.ReadRaw(b.ch)
	if err != nil {
		return
	}
	b.samples[b.index%vbatSamples] = raw
	b.index++

	var sum uint32
	for _, s := range b.samples {
		sum += uint32(s)
	}
	b.vbat = b.toVoltage(ADCValue(sum / vbatSamples))
}

// Voltage returns the averaged pack voltage in 0.1 V
func (b *Battery) Voltage() uint8 {
	return b.vbat
}

// Cells returns the detected cell count
func (b *Battery) Cells() uint8 {
	return b.cells
}

// Low reports whether the pack is below the per cell minimum
func (b *Battery) Low() bool {
	return b.vbat < b.warning
}
