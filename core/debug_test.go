package core

import (
	"strings"
	"testing"
	"time"
)

func TestEventRing(t *testing.T) {
	ClearEventRing()
	defer ClearEventRing()

	setEventClock(500)
	RecordEvent(EvtArm, 0)
	setEventClock(900)
	RecordEvent(EvtFailsafe, 51)

	events := Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].EventType != EvtArm || events[1].Clock != 900 || events[1].Value != 51 {
		t.Errorf("unexpected events %+v", events)
	}

	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(string) {})
	DumpEventRing()

	if len(lines) != 4 || !strings.Contains(lines[2], "FAILSAFE clock=900 v=51") {
		t.Errorf("unexpected dump %q", lines)
	}
}

func TestEventRingWraps(t *testing.T) {
	ClearEventRing()
	defer ClearEventRing()

	for i := 0; i < EventRingSize+5; i++ {
		RecordEvent(EvtTrim, uint32(i))
	}
	events := Events()
	if len(events) != EventRingSize {
		t.Fatalf("expected %d events, got %d", EventRingSize, len(events))
	}
	if events[0].Value != 5 || events[EventRingSize-1].Value != EventRingSize+4 {
		t.Errorf("ring order wrong: first %d last %d", events[0].Value, events[EventRingSize-1].Value)
	}
}

func TestItoa(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{7, "7"},
		{-42, "-42"},
		{123456, "123456"},
	}
	for _, tt := range tests {
		if got := itoa(tt.n); got != tt.want {
			t.Errorf("itoa(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
	if got := utoa(4294967295); got != "4294967295" {
		t.Errorf("utoa(max) = %q", got)
	}
}

func TestDebugAsync(t *testing.T) {
	got := make(chan string, 4)
	SetDebugWriter(func(s string) { got <- s })
	defer SetDebugWriter(func(string) {})

	SetDebugEnabled(false)
	DebugAsync("hidden")
	SetDebugEnabled(true)
	defer SetDebugEnabled(false)

	// no worker yet, so the message is written inline
	DebugAsync("direct")
	select {
	case s := <-got:
		if s != "direct" {
			t.Errorf("expected direct, got %q", s)
		}
	default:
		t.Fatal("inline write missing")
	}

	InitAsyncDebug()
	defer func() {
		close(debugChan)
		debugChan = nil
	}()
	DebugAsync("queued")
	select {
	case s := <-got:
		if s != "queued" {
			t.Errorf("expected queued, got %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("worker never wrote the queued message")
	}
	if DroppedDebug() != 0 {
		t.Errorf("expected no drops, got %d", DroppedDebug())
	}
}
