package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"flightcore/core"
	"flightcore/host/link"
	"flightcore/host/serial"
	"flightcore/protocol"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud    = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	verbose = flag.Bool("verbose", false, "Print RC channels and PID outputs")
	count   = flag.Int("n", 0, "Stop after this many status frames (0 = run until interrupted)")
)

func main() {
	flag.Parse()

	fmt.Printf("Flightcore Host %s\n", protocol.Version)
	fmt.Printf("Listening on %s...\n", *device)

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud

	l, err := link.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		l.Close()
	}()

	for n := 0; *count == 0 || n < *count; n++ {
		st, err := l.Next()
		if err == link.ErrClosed || err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		printStatus(&st)
	}

	l.Close()
	fmt.Printf("Frames lost: %d, bytes dropped: %d\n", l.Lost(), l.Dropped())
}

var flagNames = []struct {
	bit  uint32
	name string
}{
	{core.StatusArmed, "ARMED"},
	{core.StatusOkToArm, "OK_TO_ARM"},
	{core.StatusAccMode, "ANGLE"},
	{core.StatusMagMode, "MAG"},
	{core.StatusBaroMode, "BARO"},
	{core.StatusHeadFree, "HEADFREE"},
	{core.StatusPassThru, "PASSTHRU"},
	{core.StatusGPSHome, "GPS_HOME"},
	{core.StatusGPSHold, "GPS_HOLD"},
	{core.StatusCalibratedAcc, "ACC_OK"},
	{core.StatusFailsafe, "FAILSAFE"},
	{core.StatusLowBattery, "LOW_BAT"},
}

func printStatus(st *core.Status) {
	var flags []string
	for _, f := range flagNames {
		if st.Flags&f.bit != 0 {
			flags = append(flags, f.name)
		}
	}
	fmt.Printf("[%10d] %-16s cycle=%5dus fs=%d/%d vbat=%d.%dV %s\n",
		st.Clock, st.Mode, st.CycleTime,
		st.FailsafeCount, st.FailsafeEvents,
		st.VBat/10, st.VBat%10,
		strings.Join(flags, ","))

	if *verbose {
		fmt.Printf("             rc=%v pid=%v\n", st.RCData, st.AxisPID)
	}
}
