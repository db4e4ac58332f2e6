package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// FlightEvent records one state change for post-flight inspection
type FlightEvent struct {
	EventType uint8  // Event type code
	Clock     uint32 // Loop time at the event
	Value     uint32 // Context-dependent value
}

// Event type codes
const (
	EvtArm            = 1 // Motors armed
	EvtDisarm         = 2 // Motors disarmed by the pilot
	EvtFailsafe       = 3 // Failsafe stage one entered, value = counter
	EvtFailsafeDisarm = 4 // Failsafe forced disarm, value = counter
	EvtGyroCal        = 5 // Gyro calibration requested
	EvtAccCal         = 6 // Accelerometer calibration requested
	EvtMagCal         = 7 // Magnetometer calibration requested
	EvtTrim           = 8 // Accelerometer trim changed, value = axis
	EvtInflightCal    = 9 // In-flight calibration toggled, value = armed
)

const (
	EventRingSize = 32 // Keep last 32 events
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	eventRing     [EventRingSize]FlightEvent
	eventRingHead uint8 // Next write position
	eventClock    uint32

	debugChan    chan string
	droppedDebug uint32
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug moves DebugAsync output onto a worker goroutine so a slow
// writer (USB CDC) never stalls the control loop. Call once after
// SetDebugWriter.
func InitAsyncDebug() {
	debugChan = make(chan string, 16)
	go debugOutputWorker()
}

func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
// Blocks if debug is enabled (use DebugAsync for non-blocking)
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync is DebugPrintln for the control loop. With the worker running
// it queues the message and drops it when the queue is full; without it
// the message is written directly.
func DebugAsync(msg string) {
	if !debugEnabled {
		return
	}
	if debugChan == nil {
		DebugPrintln(msg)
		return
	}
	select {
	case debugChan <- msg:
	default:
		droppedDebug++
	}
}

// DroppedDebug returns how many queued messages were lost to a full queue
func DroppedDebug() uint32 {
	return droppedDebug
}

// setEventClock stamps subsequent events; the controller calls it every loop
func setEventClock(now uint32) {
	eventClock = now
}

// RecordEvent stores an event in the ring buffer. Never blocks.
func RecordEvent(eventType uint8, value uint32) {
	idx := eventRingHead
	eventRing[idx] = FlightEvent{
		EventType: eventType,
		Clock:     eventClock,
		Value:     value,
	}
	eventRingHead = (idx + 1) % EventRingSize
}

// Events returns the recorded events, oldest first
func Events() []FlightEvent {
	var out []FlightEvent
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.EventType != 0 {
			out = append(out, evt)
		}
	}
	return out
}

// EventName returns the log name of an event type
func EventName(eventType uint8) string {
	switch eventType {
	case EvtArm:
		return "ARM"
	case EvtDisarm:
		return "DISARM"
	case EvtFailsafe:
		return "FAILSAFE"
	case EvtFailsafeDisarm:
		return "FAILSAFE_DISARM!"
	case EvtGyroCal:
		return "CAL_GYRO"
	case EvtAccCal:
		return "CAL_ACC"
	case EvtMagCal:
		return "CAL_MAG"
	case EvtTrim:
		return "TRIM"
	case EvtInflightCal:
		return "CAL_INFLIGHT"
	}
	return "UNKNOWN"
}

// DumpEventRing outputs the event ring through the debug writer
func DumpEventRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[EVENT] === Event Ring Dump ===")
	for _, evt := range Events() {
		debugPrintln("[EVENT] " + EventName(evt.EventType) +
			" clock=" + utoa(evt.Clock) +
			" v=" + utoa(evt.Value))
	}
	debugPrintln("[EVENT] === End Dump ===")
}

// ClearEventRing clears the event buffer
func ClearEventRing() {
	for i := range eventRing {
		eventRing[i] = FlightEvent{}
	}
	eventRingHead = 0
}
