//go:build linux && !tinygo

package main

import (
	"fmt"

	"flightcore/core"
	"flightcore/host/serial"
	"flightcore/protocol"
)

// telemetry writes status frames to a serial port
type telemetry struct {
	port serial.Port
	out  *protocol.ScratchOutput
	seq  uint8
	sent uint32
}

func openTelemetry(device string, baud int) (*telemetry, error) {
	cfg := serial.DefaultConfig(device)
	cfg.Baud = baud
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	return &telemetry{port: port, out: protocol.NewScratchOutput()}, nil
}

func (t *telemetry) Send(st *core.Status) error {
	t.out.Reset()
	if err := protocol.EncodeFrame(t.out, t.seq, st.Encode); err != nil {
		return err
	}
	t.seq++
	if _, err := t.port.Write(t.out.Result()); err != nil {
		return fmt.Errorf("write status frame: %w", err)
	}
	t.sent++
	return nil
}

func (t *telemetry) Close() error {
	return t.port.Close()
}
