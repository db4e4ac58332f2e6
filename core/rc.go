package core

// RawReader supplies raw pulse widths by receiver slot
type RawReader interface {
	Read(ch int) uint16
}

// ReadRaw returns the pulse width of logical channel ch after the channel
// remap. Implausible widths read as the stick center.
func ReadRaw(src RawReader, cfg *Config, ch int) int16 {
	data := src.Read(int(cfg.RCMap[ch]))
	if data < PulseMin || data > PulseMax {
		return int16(cfg.MidRC)
	}
	return int16(data)
}

// Conditioner smooths receiver channels over the last four RC ticks
type Conditioner struct {
	history [NumRCChannels][4]int16
	index   uint8
}

// Reset fills the history with the stick center
func (c *Conditioner) Reset(cfg *Config) {
	for ch := range c.history {
		for i := range c.history[ch] {
			c.history[ch][i] = int16(cfg.MidRC)
		}
	}
	c.index = 0
}

// Compute reads one sample per channel and updates rcData
func (c *Conditioner) Compute(src RawReader, cfg *Config, rcData *[NumRCChannels]int16) {
	c.index++
	slot := c.index % 4
	for ch := 0; ch < NumRCChannels; ch++ {
		c.history[ch][slot] = ReadRaw(src, cfg, ch)
		var sum int32
		for _, v := range c.history[ch] {
			sum += int32(v)
		}
		mean := int16((sum + 2) / 4)
		rcData[ch] = Smooth(rcData[ch], mean)
	}
}

// Smooth applies the hysteresis step: the smoothed value v follows the mean
// m only when they differ by more than 3.
func Smooth(v, m int16) int16 {
	if m < v-3 {
		return m + 2
	}
	if m > v+3 {
		return m - 2
	}
	return v
}
