//go:build linux && !tinygo

package main

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"flightcore/core"
)

// lineCapture feeds GPIO edge events from the kernel into the capture
// engine. Event timestamps stand in for the hardware capture counter.
type lineCapture struct {
	capture *core.Capture
	lines   *gpiocdev.Lines
	slots   map[int]int // line offset -> capture slot
	events  uint32
}

func startLineCapture(chip string, offsets []int, c *core.Capture) (*lineCapture, error) {
	lc := &lineCapture{capture: c, slots: make(map[int]int)}

	edge := gpiocdev.WithBothEdges
	switch c.Mode() {
	case core.InputPPM:
		offsets = offsets[:1]
		edge = gpiocdev.WithRisingEdge
	case core.InputDisabled:
		return lc, nil
	}
	if len(offsets) > core.NumRCChannels {
		offsets = offsets[:core.NumRCChannels]
	}
	for slot, off := range offsets {
		lc.slots[off] = slot
	}

	lines, err := gpiocdev.RequestLines(chip, offsets,
		gpiocdev.WithPullDown,
		edge,
		gpiocdev.WithEventHandler(lc.handle))
	if err != nil {
		return nil, fmt.Errorf("request lines %v on %s: %w", offsets, chip, err)
	}
	lc.lines = lines
	return lc, nil
}

func (lc *lineCapture) handle(evt gpiocdev.LineEvent) {
	lc.events++
	counter := uint16(evt.Timestamp.Microseconds())

	if lc.capture.Mode() == core.InputPPM {
		if evt.Type == gpiocdev.LineEventRisingEdge {
			lc.capture.HandlePPMEdge(counter)
		}
		return
	}

	slot, ok := lc.slots[evt.Offset]
	if !ok {
		return
	}
	rising := evt.Type == gpiocdev.LineEventRisingEdge
	if rising == (lc.capture.Polarity(slot) == core.WaitingRisingEdge) {
		lc.capture.HandleEdge(slot, counter)
	}
}

func (lc *lineCapture) Close() error {
	if lc.lines == nil {
		return nil
	}
	return lc.lines.Close()
}
