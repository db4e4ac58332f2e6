//go:build rp2040

package main

import (
	_ "embed"
	"machine"
	"time"

	"flightcore/core"
	"flightcore/imu"
	"flightcore/mixer"
	"flightcore/protocol"
)

//go:embed config.json
var configJSON []byte

const (
	// batteryChannel is ADC0 on GP26 behind the divider
	batteryChannel = 0

	// telemetryEvery sends one status frame per this many RC ticks
	telemetryEvery = 5
)

var (
	outputs      *RP2040OutputDriver
	outputBuffer *protocol.ScratchOutput
	telemetrySeq uint8

	// Debug counters
	loopPanics    uint32
	framesSent    uint32
	writeFailures uint32
)

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitUSB()
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	cfg, err := core.LoadConfig(configJSON)
	if err != nil {
		halt(led, "config: "+err.Error())
	}

	clock := core.NewSystemClock()
	clock.Update(hardwareTime())

	outputs, err = NewRP2040OutputDriver(cfg.Input)
	if err != nil {
		halt(led, "outputs: "+err.Error())
	}
	core.SetOutputDriver(outputs)

	col := core.Collaborators{
		Mixer: mixer.New(cfg, mixer.QuadX),
	}

	if cfg.HasFeature(core.FeatureVBat) {
		core.SetADCDriver(NewRPAdcDriver())
		battery, err := core.NewBattery(core.MustADC(), batteryChannel, cfg)
		if err != nil {
			halt(led, err.Error())
		}
		col.Battery = battery
	}

	bus, err := configureSensorBus(0, machine.GPIO20, machine.GPIO21)
	if err != nil {
		halt(led, "i2c: "+err.Error())
	}
	sensors, err := newBoardSensors(bus)
	if err != nil {
		halt(led, "imu: "+err.Error())
	}
	col.IMU = imu.New(cfg, sensors, clock, nil, sensorScale)

	ctl := core.NewController(cfg, clock, core.MustOutput(), col)
	ctl.State().Cal.Gyro = core.CalibratingGyroCycles

	if err := startCapture(ctl.Capture()); err != nil {
		halt(led, "capture: "+err.Error())
	}

	outputBuffer = protocol.NewScratchOutput()
	core.SetDebugWriter(func(s string) {
		USBWriteBytes([]byte(s + "\r\n"))
	})
	core.InitAsyncDebug()
	core.SetDebugEnabled(cfg.Debug)

	lastTelemetry := ctl.RCTicks()
	for {
		// Recover from panics in the main loop to prevent a firmware crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					loopPanics++
					outputBuffer.Reset()
				}
			}()

			clock.Update(hardwareTime())
			ctl.Loop()

			if ticks := ctl.RCTicks(); ticks-lastTelemetry >= telemetryEvery {
				lastTelemetry = ticks
				sendStatus(ctl)
				led.Set(ctl.State().Armed)
			}
		}()
	}
}

// sendStatus frames the controller status and writes it to USB
func sendStatus(ctl *core.Controller) {
	st := ctl.Status()
	outputBuffer.Reset()
	if err := protocol.EncodeFrame(outputBuffer, telemetrySeq, st.Encode); err != nil {
		return
	}
	telemetrySeq++

	result := outputBuffer.Result()
	written := 0
	for written < len(result) {
		n, err := USBWriteBytes(result[written:])
		if err != nil || n == 0 {
			// Host not listening; drop the frame
			writeFailures++
			return
		}
		written += n
	}
	framesSent++
}

// halt stops capture and the outputs, then reports msg while blinking the
// LED forever
func halt(led machine.Pin, msg string) {
	stopCapture()
	if outputs != nil {
		outputs.Stop()
	}
	for {
		USBWriteBytes([]byte("[FATAL] " + msg + "\r\n"))
		led.High()
		time.Sleep(100 * time.Millisecond)
		led.Low()
		time.Sleep(900 * time.Millisecond)
	}
}
