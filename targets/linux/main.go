//go:build linux && !tinygo

// Command linux runs the flight core on a Raspberry Pi class board as a
// bench harness: receiver edges come from GPIO lines, outputs land in a
// register file and status frames go out on a serial port.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"flightcore/core"
	"flightcore/mixer"
)

var (
	configPath = flag.String("config", "", "JSON config file (defaults when empty)")
	chip       = flag.String("chip", "gpiochip0", "GPIO chip")
	lineList   = flag.String("lines", "17,27,22,23,24,25,5,6", "GPIO offsets for receiver slots 0-7")
	device     = flag.String("device", "", "Serial device for status frames (disabled when empty)")
	baud       = flag.Int("baud", 115200, "Telemetry baud rate")
	period     = flag.Duration("loop", 2*time.Millisecond, "Control loop period")
	verbose    = flag.Bool("verbose", false, "Print debug messages and outputs")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	offsets, err := parseLines(*lineList)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	core.SetDebugWriter(func(s string) { fmt.Println(s) })
	core.SetDebugEnabled(*verbose)

	regs := core.NewRegisterFile()
	core.SetOutputDriver(regs)
	ctl := core.NewController(cfg, core.NewSystemClock(), core.MustOutput(), core.Collaborators{
		Mixer: mixer.New(cfg, mixer.QuadX),
	})

	lc, err := startLineCapture(*chip, offsets, ctl.Capture())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer lc.Close()

	var tm *telemetry
	if *device != "" {
		if tm, err = openTelemetry(*device, *baud); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer tm.Close()
	}

	fmt.Printf("Flight core bench: input=%s outputs=%d loop=%v\n",
		cfg.Input, ctl.Outputs().ChannelCount(), *period)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	ticker := time.NewTicker(*period)
	defer ticker.Stop()

	lastTicks := ctl.RCTicks()
	for {
		select {
		case <-sig:
			core.SetDebugEnabled(true)
			core.DumpEventRing()
			fmt.Printf("Edges: %d, frames sent: %d\n", lc.events, framesSent(tm))
			return
		case <-ticker.C:
		}

		ctl.Loop()
		if ticks := ctl.RCTicks(); ticks != lastTicks {
			lastTicks = ticks
			st := ctl.Status()
			if tm != nil {
				if err := tm.Send(&st); err != nil {
					core.DebugPrintln("[TELEMETRY] " + err.Error())
				}
			}
			if *verbose && ticks%50 == 0 {
				printOutputs(regs, ctl.Outputs().ChannelCount(), &st)
			}
		}
	}
}

func loadConfig(path string) (*core.Config, error) {
	if path == "" {
		cfg := core.DefaultConfig()
		// no accelerometer on the bench
		cfg.Sensors = 0
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return core.LoadConfig(data)
}

// parseLines parses a comma separated list of GPIO offsets
func parseLines(s string) ([]int, error) {
	var offsets []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("bad GPIO offset %q", f)
		}
		offsets = append(offsets, n)
	}
	if len(offsets) == 0 {
		return nil, fmt.Errorf("no GPIO offsets given")
	}
	return offsets, nil
}

func printOutputs(regs *core.RegisterFile, count int, st *core.Status) {
	var b strings.Builder
	for ch := 0; ch < count; ch++ {
		v, _ := regs.Get(core.OutputRegisters[ch])
		fmt.Fprintf(&b, " %4d", v)
	}
	fmt.Printf("[%s] rc=%v out=%s\n", st.Mode, st.RCData, b.String())
}

func framesSent(tm *telemetry) uint32 {
	if tm == nil {
		return 0
	}
	return tm.sent
}
