package core

import (
	"fmt"

	"flightcore/protocol"
)

// StatusMessageID tags a status payload
const StatusMessageID = 1

// Status flag bits
const (
	StatusArmed = 1 << iota
	StatusOkToArm
	StatusAccMode
	StatusMagMode
	StatusBaroMode
	StatusHeadFree
	StatusPassThru
	StatusGPSHome
	StatusGPSHold
	StatusCalibratedAcc
	StatusFailsafe
	StatusLowBattery
)

// Status is the telemetry snapshot sent to the ground
type Status struct {
	Clock          uint32
	CycleTime      uint32
	Mode           Mode
	Flags          uint32
	FailsafeCount  int32
	FailsafeEvents uint16
	VBat           uint8
	RCData         [NumRCChannels]int16
	AxisPID        [3]int16
}

// Armed reports the armed flag
func (s *Status) Armed() bool {
	return s.Flags&StatusArmed != 0
}

// Status captures the telemetry snapshot of the last loop
func (c *Controller) Status() Status {
	st := &c.state
	var flags uint32
	set := func(b bool, bit uint32) {
		if b {
			flags |= bit
		}
	}
	set(st.Armed, StatusArmed)
	set(st.OkToArm, StatusOkToArm)
	set(st.AccMode, StatusAccMode)
	set(st.MagMode, StatusMagMode)
	set(st.BaroMode, StatusBaroMode)
	set(st.HeadFreeMode, StatusHeadFree)
	set(st.PassThruMode, StatusPassThru)
	set(st.GPSModeHome, StatusGPSHome)
	set(st.GPSModeHold, StatusGPSHold)
	set(st.CalibratedAcc, StatusCalibratedAcc)
	set(c.failsafe.Engaged(c.cfg), StatusFailsafe)

	var vbat uint8
	if b := c.col.Battery; b != nil && c.cfg.HasFeature(FeatureVBat) {
		vbat = b.Voltage()
		set(b.Low(), StatusLowBattery)
	}

	return Status{
		Clock:          c.previousTime,
		CycleTime:      c.cycleTime,
		Mode:           st.Mode(),
		Flags:          flags,
		FailsafeCount:  c.failsafe.Count(),
		FailsafeEvents: st.FailsafeEvents,
		VBat:           vbat,
		RCData:         c.rcData,
		AxisPID:        c.axisPID,
	}
}

// Encode writes the status as a VLQ payload
func (s *Status) Encode(output protocol.OutputBuffer) {
	protocol.EncodeVLQUint(output, StatusMessageID)
	protocol.EncodeVLQUint(output, s.Clock)
	protocol.EncodeVLQUint(output, s.CycleTime)
	protocol.EncodeVLQUint(output, uint32(s.Mode))
	protocol.EncodeVLQUint(output, s.Flags)
	protocol.EncodeVLQInt(output, s.FailsafeCount)
	protocol.EncodeVLQUint(output, uint32(s.FailsafeEvents))
	protocol.EncodeVLQUint(output, uint32(s.VBat))
	for _, v := range s.RCData {
		protocol.EncodeVLQInt(output, int32(v))
	}
	for _, v := range s.AxisPID {
		protocol.EncodeVLQInt(output, int32(v))
	}
}

// DecodeStatus parses a payload written by Encode
func DecodeStatus(data *[]byte) (Status, error) {
	var s Status

	id, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return s, err
	}
	if id != StatusMessageID {
		return s, fmt.Errorf("unexpected message id %d", id)
	}

	var hdr [4]uint32
	for i := range hdr {
		if hdr[i], err = protocol.DecodeVLQUint(data); err != nil {
			return s, fmt.Errorf("status header %d: %w", i, err)
		}
	}
	s.Clock, s.CycleTime, s.Mode, s.Flags = hdr[0], hdr[1], Mode(hdr[2]), hdr[3]

	if s.FailsafeCount, err = protocol.DecodeVLQInt(data); err != nil {
		return s, fmt.Errorf("failsafe count: %w", err)
	}
	events, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return s, fmt.Errorf("failsafe events: %w", err)
	}
	s.FailsafeEvents = uint16(events)

	vbat, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return s, fmt.Errorf("vbat: %w", err)
	}
	s.VBat = uint8(vbat)

	for i := range s.RCData {
		v, err := protocol.DecodeVLQInt(data)
		if err != nil {
			return s, fmt.Errorf("rc channel %d: %w", i, err)
		}
		s.RCData[i] = int16(v)
	}
	for i := range s.AxisPID {
		v, err := protocol.DecodeVLQInt(data)
		if err != nil {
			return s, fmt.Errorf("axis %d: %w", i, err)
		}
		s.AxisPID[i] = int16(v)
	}
	return s, nil
}
