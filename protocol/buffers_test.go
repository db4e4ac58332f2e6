package protocol

import (
	"bytes"
	"testing"
)

func TestScratchOutput(t *testing.T) {
	s := NewScratchOutput()
	s.Output([]byte{1, 2, 3})
	s.Output([]byte{4})

	if s.CurPosition() != 4 {
		t.Errorf("expected position 4, got %d", s.CurPosition())
	}
	s.Update(0, 9)
	s.Update(10, 9) // past the written data, ignored

	if got := s.Result(); !bytes.Equal(got, []byte{9, 2, 3, 4}) {
		t.Errorf("unexpected contents % x", got)
	}
	if got := s.DataSince(2); !bytes.Equal(got, []byte{3, 4}) {
		t.Errorf("DataSince(2) = % x", got)
	}
	if s.DataSince(5) != nil {
		t.Error("DataSince past the end must be nil")
	}

	s.Reset()
	if len(s.Result()) != 0 || s.CurPosition() != 0 {
		t.Error("Reset did not empty the buffer")
	}
}

func TestScratchOutputOverflow(t *testing.T) {
	s := NewScratchOutput()
	s.Output(make([]byte, MessageMax-2))
	s.Output([]byte{1, 2, 3, 4, 5})

	if s.CurPosition() != MessageMax {
		t.Errorf("expected a full buffer, got %d", s.CurPosition())
	}
	if s.Overflow() != 3 {
		t.Errorf("expected 3 dropped bytes, got %d", s.Overflow())
	}
	s.Reset()
	if s.Overflow() != 0 {
		t.Error("Reset must clear the overflow count")
	}
}
