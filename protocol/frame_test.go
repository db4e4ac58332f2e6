package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func encodeTestFrame(t *testing.T, seq uint8, values ...int32) []byte {
	t.Helper()
	out := NewScratchOutput()
	err := EncodeFrame(out, seq, func(o OutputBuffer) {
		for _, v := range values {
			EncodeVLQInt(o, v)
		}
	})
	if err != nil {
		t.Fatalf("EncodeFrame failed: %v", err)
	}
	return append([]byte(nil), out.Result()...)
}

func TestEncodeFrameLayout(t *testing.T) {
	frame := encodeTestFrame(t, 0x13, 1, 2)

	if int(frame[MessagePositionLen]) != len(frame) {
		t.Errorf("length byte %d, frame is %d bytes", frame[0], len(frame))
	}
	if frame[MessagePositionSeq] != MessageDest|0x03 {
		t.Errorf("expected sequence 0x13, got 0x%02x", frame[1])
	}
	if frame[len(frame)-1] != MessageValueSync {
		t.Errorf("missing sync byte")
	}
	crc := CRC16(frame[:len(frame)-MessageTrailerSize])
	if frame[len(frame)-3] != byte(crc>>8) || frame[len(frame)-2] != byte(crc) {
		t.Errorf("CRC mismatch")
	}
}

func TestEncodeFrameTooLarge(t *testing.T) {
	out := NewScratchOutput()
	err := EncodeFrame(out, 0, func(o OutputBuffer) {
		o.Output(make([]byte, MessageLengthMax))
	})
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("expected ErrFrameTooLarge, got %v", err)
	}
	if len(out.Result()) != 0 {
		t.Errorf("partial frame written: %d bytes", len(out.Result()))
	}
}

func TestFrameDecoderRoundTrip(t *testing.T) {
	var stream []byte
	for seq := uint8(0); seq < 20; seq++ {
		stream = append(stream, encodeTestFrame(t, seq, int32(seq)*100, -5)...)
	}

	dec := NewFrameDecoder()
	// deliver in small chunks like a serial port would
	for i := 0; i < len(stream); i += 7 {
		end := min(i+7, len(stream))
		dec.Feed(stream[i:end])
	}

	for seq := 0; seq < 20; seq++ {
		block, ok := dec.Next()
		if !ok {
			t.Fatalf("frame %d missing", seq)
		}
		if block.Sequence != uint8(seq)&MessageSeqMask {
			t.Errorf("frame %d: sequence %d", seq, block.Sequence)
		}
		data := block.Data
		v, err := DecodeVLQInt(&data)
		if err != nil || v != int32(seq)*100 {
			t.Errorf("frame %d: decoded %d (%v)", seq, v, err)
		}
	}
	if _, ok := dec.Next(); ok {
		t.Error("unexpected extra frame")
	}
	if dec.Dropped() != 0 {
		t.Errorf("dropped %d bytes from a clean stream", dec.Dropped())
	}
}

func TestFrameDecoderPartial(t *testing.T) {
	frame := encodeTestFrame(t, 1, 12345)
	dec := NewFrameDecoder()

	dec.Feed(frame[:len(frame)-1])
	if _, ok := dec.Next(); ok {
		t.Fatal("decoded an incomplete frame")
	}
	dec.Feed(frame[len(frame)-1:])
	if _, ok := dec.Next(); !ok {
		t.Fatal("frame not decoded after completion")
	}
	if dec.Buffered() != 0 {
		t.Errorf("%d bytes left over", dec.Buffered())
	}
}

func TestFrameDecoderResync(t *testing.T) {
	good1 := encodeTestFrame(t, 1, 111)
	bad := encodeTestFrame(t, 2, 222)
	bad[2] ^= 0xFF // corrupt the payload
	good2 := encodeTestFrame(t, 3, 333)

	var stream bytes.Buffer
	stream.Write([]byte{0x01, 0x02, 0x03}) // line noise before the first sync
	stream.WriteByte(MessageValueSync)
	stream.Write(good1)
	stream.Write(bad)
	stream.Write(good2)

	dec := NewFrameDecoder()
	dec.Feed(stream.Bytes())

	var got []int32
	for {
		block, ok := dec.Next()
		if !ok {
			break
		}
		data := block.Data
		v, _ := DecodeVLQInt(&data)
		got = append(got, v)
	}
	if len(got) != 2 || got[0] != 111 || got[1] != 333 {
		t.Errorf("expected [111 333], got %v", got)
	}
	if dec.Dropped() == 0 {
		t.Error("expected dropped bytes to be counted")
	}
}
