package core

import (
	"encoding/json"
	"fmt"
)

// Receiver channel order in RCData
const (
	Roll = iota
	Pitch
	Yaw
	Throttle
	Aux1
	Aux2
	Aux3
	Aux4
)

// PID gain slots in Config.P8/I8/D8
const (
	PIDRoll = iota
	PIDPitch
	PIDYaw
	PIDAlt
	PIDGPS
	PIDLevel
	PIDMag
	PIDVel
	PIDItems
)

// Sensor is a bit in Config.Sensors
type Sensor uint8

const (
	SensorAcc Sensor = 1 << iota
	SensorBaro
	SensorMag
	SensorGPS
)

// Feature is a bit in Config.Features
type Feature uint32

const (
	FeatureInflightAccCal Feature = 1 << iota
	FeatureVBat
)

// Config holds every tunable the flight core reads. Only the gesture trim
// adjust writes to it at run time.
type Config struct {
	Input InputMode `json:"input"`

	RCMap       [NumRCChannels]uint8 `json:"rcmap"`
	Deadband    uint8                `json:"deadband"`
	YawDeadband uint8                `json:"yaw_deadband"`

	MidRC       uint16 `json:"midrc"`
	MinCheck    uint16 `json:"mincheck"`
	MaxCheck    uint16 `json:"maxcheck"`
	MinThrottle uint16 `json:"minthrottle"`
	MaxThrottle uint16 `json:"maxthrottle"`

	P8 [PIDItems]uint8 `json:"p8"`
	I8 [PIDItems]uint8 `json:"i8"`
	D8 [PIDItems]uint8 `json:"d8"`

	DynThrPID     uint8 `json:"dyn_thr_pid"`
	RollPitchRate uint8 `json:"roll_pitch_rate"`
	YawRate       uint8 `json:"yaw_rate"`
	RCRate8       uint8 `json:"rc_rate"`
	RCExpo8       uint8 `json:"rc_expo"`

	AccTrim [2]int16 `json:"acc_trim"`
	AccZero [3]int16 `json:"acc_zero"`

	Activate1 [CheckboxItems]uint8 `json:"activate1"`
	Activate2 [CheckboxItems]uint8 `json:"activate2"`

	// Failsafe timings are in 0.1 s units
	FailsafeDelay    uint8  `json:"failsafe_delay"`
	FailsafeOffDelay uint8  `json:"failsafe_off_delay"`
	FailsafeThrottle uint16 `json:"failsafe_throttle"`

	// Battery divider scale and per cell limits, in 0.1 V
	VBatScale   uint8 `json:"vbat_scale"`
	VBatMinCell uint8 `json:"vbat_min_cell"`
	VBatMaxCell uint8 `json:"vbat_max_cell"`

	Features Feature `json:"features"`
	Sensors  Sensor  `json:"sensors"`

	// Debug enables debug messages on the target's console
	Debug bool `json:"debug"`
}

// HasSensor reports whether s is fitted
func (c *Config) HasSensor(s Sensor) bool {
	return c.Sensors&s != 0
}

// HasFeature reports whether f is enabled
func (c *Config) HasFeature(f Feature) bool {
	return c.Features&f != 0
}

// DefaultConfig returns the stock tuning for a quad in PWM input mode
func DefaultConfig() *Config {
	c := &Config{
		Input:         InputPWM,
		RCMap:         [NumRCChannels]uint8{0, 1, 2, 3, 4, 5, 6, 7},
		MidRC:         1500,
		MinCheck:      1100,
		MaxCheck:      1900,
		MinThrottle:   1150,
		MaxThrottle:   1850,
		DynThrPID:     0,
		RollPitchRate: 0,
		YawRate:       0,
		RCRate8:       90,
		RCExpo8:       65,

		FailsafeDelay:    10,
		FailsafeOffDelay: 200,
		FailsafeThrottle: 1200,

		VBatScale:   110,
		VBatMinCell: 33,
		VBatMaxCell: 43,

		Sensors: SensorAcc,
	}

	c.P8[PIDRoll], c.I8[PIDRoll], c.D8[PIDRoll] = 40, 30, 23
	c.P8[PIDPitch], c.I8[PIDPitch], c.D8[PIDPitch] = 40, 30, 23
	c.P8[PIDYaw], c.I8[PIDYaw], c.D8[PIDYaw] = 85, 45, 0
	c.P8[PIDAlt], c.I8[PIDAlt], c.D8[PIDAlt] = 16, 15, 7
	c.P8[PIDGPS], c.D8[PIDGPS] = 10, 15
	c.P8[PIDLevel], c.I8[PIDLevel], c.D8[PIDLevel] = 90, 45, 100
	c.P8[PIDMag] = 40

	return c
}

// LoadConfig parses a JSON configuration over the defaults
func LoadConfig(jsonData []byte) (*Config, error) {
	config := DefaultConfig()

	if err := json.Unmarshal(jsonData, config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := applyDefaults(config); err != nil {
		return nil, err
	}

	return config, nil
}

// applyDefaults repairs zero values and rejects settings the core cannot run with
func applyDefaults(config *Config) error {
	def := DefaultConfig()

	if config.MidRC == 0 {
		config.MidRC = def.MidRC
	}
	if config.MinCheck == 0 {
		config.MinCheck = def.MinCheck
	}
	if config.MaxCheck == 0 {
		config.MaxCheck = def.MaxCheck
	}
	if config.MinThrottle == 0 {
		config.MinThrottle = def.MinThrottle
	}
	if config.MaxThrottle == 0 {
		config.MaxThrottle = def.MaxThrottle
	}
	if config.FailsafeThrottle == 0 {
		config.FailsafeThrottle = def.FailsafeThrottle
	}
	if config.VBatScale == 0 {
		config.VBatScale = def.VBatScale
	}
	if config.VBatMinCell == 0 {
		config.VBatMinCell = def.VBatMinCell
	}
	if config.VBatMaxCell == 0 {
		config.VBatMaxCell = def.VBatMaxCell
	}

	for i, ch := range config.RCMap {
		if ch >= NumRCChannels {
			return fmt.Errorf("rcmap[%d] = %d: channel out of range", i, ch)
		}
	}
	if config.MinCheck >= 2000 {
		return fmt.Errorf("mincheck %d must be below 2000", config.MinCheck)
	}
	if config.MinCheck >= config.MaxCheck {
		return fmt.Errorf("mincheck %d must be below maxcheck %d", config.MinCheck, config.MaxCheck)
	}
	if config.MinThrottle > config.MaxThrottle {
		return fmt.Errorf("minthrottle %d above maxthrottle %d", config.MinThrottle, config.MaxThrottle)
	}
	if config.VBatMinCell >= config.VBatMaxCell {
		return fmt.Errorf("vbat_min_cell %d must be below vbat_max_cell %d", config.VBatMinCell, config.VBatMaxCell)
	}
	if config.DynThrPID > 100 || config.RollPitchRate > 100 || config.YawRate > 100 {
		return fmt.Errorf("rate scaling must be at most 100")
	}

	return nil
}
