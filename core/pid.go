package core

// Integrator limits
const (
	gyroIMax  = 16000
	angleIMax = 10000
	gyroIKill = 640
)

// PIDState is the memory of the stabilization loop
type PIDState struct {
	gyroI    [3]int32
	angleI   [2]int32
	lastGyro [3]int16
	delta1   [3]int16
	delta2   [3]int16
}

// ResetIntegrals clears every integrator
func (p *PIDState) ResetIntegrals() {
	p.gyroI = [3]int32{}
	p.angleI = [2]int32{}
}

// ResetAngleIntegrals clears the level mode integrators
func (p *PIDState) ResetAngleIntegrals() {
	p.angleI = [2]int32{}
}

// GyroI returns the rate mode integrator of an axis
func (p *PIDState) GyroI(axis int) int32 {
	return p.gyroI[axis]
}

// AngleI returns the level mode integrator of roll or pitch
func (p *PIDState) AngleI(axis int) int32 {
	return p.angleI[axis]
}

// Compute runs one tick of the three axis loops. Roll and pitch hold an
// angle when level is set; otherwise every axis holds a rate.
func (p *PIDState) Compute(cfg *Config, cmd *Command, dyn *DynGains, att *Attitude, gpsAngle [2]int16, level bool) [3]int16 {
	var out [3]int16
	for axis := Roll; axis <= Yaw; axis++ {
		gyro := int32(att.Gyro[axis])
		rc := int32(cmd[axis])
		var pTerm, iTerm int32

		if level && axis != Yaw {
			errorAngle := constrain(2*rc-int32(gpsAngle[axis]), -500, 500) -
				int32(att.Angle[axis]) + int32(cfg.AccTrim[axis])
			limit := int32(cfg.D8[PIDLevel]) * 5
			pTerm = constrain(errorAngle*int32(cfg.P8[PIDLevel])/100, -limit, limit)

			p.angleI[axis] = constrain(p.angleI[axis]+errorAngle, -angleIMax, angleIMax)
			iTerm = (p.angleI[axis] * int32(cfg.I8[PIDLevel])) >> 12
		} else {
			var err int32
			if cfg.P8[axis] != 0 {
				err = rc * 10 * 8 / int32(cfg.P8[axis])
			}
			err -= gyro
			pTerm = rc

			p.gyroI[axis] = constrain(p.gyroI[axis]+err, -gyroIMax, gyroIMax)
			if abs(gyro) > gyroIKill {
				p.gyroI[axis] = 0
			}
			iTerm = (p.gyroI[axis] / 125 * int32(cfg.I8[axis])) >> 6
		}
		pTerm -= gyro * int32(dyn.P[axis]) / 10 / 8

		delta := int16(gyro) - p.lastGyro[axis]
		p.lastGyro[axis] = int16(gyro)
		deltaSum := int32(p.delta1[axis]) + int32(p.delta2[axis]) + int32(delta)
		p.delta2[axis] = p.delta1[axis]
		p.delta1[axis] = delta

		dTerm := (deltaSum * int32(dyn.D[axis])) >> 5

		out[axis] = int16(pTerm + iTerm - dTerm)
	}
	return out
}
