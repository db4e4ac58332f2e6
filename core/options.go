package core

// Aux switch boxes. Each is activated by AUX channel positions chosen in
// Config.Activate1 (AUX1, AUX2) and Config.Activate2 (AUX3, AUX4).
const (
	BoxAcc = iota
	BoxBaro
	BoxMag
	BoxCamStab
	BoxCamTrig
	BoxArm
	BoxGPSHome
	BoxGPSHold
	BoxPassThru
	BoxHeadFree
	BoxBeeperOn
	CheckboxItems
)

var boxNames = [CheckboxItems]string{
	"ACC", "BARO", "MAG", "CAMSTAB", "CAMTRIG", "ARM",
	"GPS HOME", "GPS HOLD", "PASSTHRU", "HEADFREE", "BEEPER",
}

// BoxName returns the display name of a box
func BoxName(box int) string {
	if box < 0 || box >= CheckboxItems {
		return "?"
	}
	return boxNames[box]
}

// Aux switch position bits, per channel: low, mid, high
const (
	auxLow  = 1 << 0
	auxMid  = 1 << 1
	auxHigh = 1 << 2
)

// auxPosition returns the position bit of one AUX channel. Exactly 1300 or
// 1700 matches no position.
func auxPosition(v int16) uint8 {
	switch {
	case v < 1300:
		return auxLow
	case v > 1300 && v < 1700:
		return auxMid
	case v > 1700:
		return auxHigh
	}
	return 0
}

// Options is the active state of every aux box
type Options [CheckboxItems]bool

// ComputeOptions decodes the AUX channels against the activation masks
func ComputeOptions(rc *[NumRCChannels]int16, cfg *Config) Options {
	var opts Options
	pair1 := auxPosition(rc[Aux1]) | auxPosition(rc[Aux2])<<3
	pair2 := auxPosition(rc[Aux3]) | auxPosition(rc[Aux4])<<3
	for i := range opts {
		opts[i] = pair1&cfg.Activate1[i] != 0 || pair2&cfg.Activate2[i] != 0
	}
	return opts
}

// Configured reports whether any AUX position activates box
func Configured(cfg *Config, box int) bool {
	return cfg.Activate1[box] > 0 || cfg.Activate2[box] > 0
}
