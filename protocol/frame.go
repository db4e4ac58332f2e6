package protocol

import (
	"bytes"
	"errors"
)

const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10
)

var ErrFrameTooLarge = errors.New("frame exceeds maximum message length")

// EncodeFrame writes one message block: length, sequence, the payload
// written by frameData, CRC16 and the sync byte. Nothing is written if the
// block would exceed MessageLengthMax.
func EncodeFrame(output OutputBuffer, seq uint8, frameData func(output OutputBuffer)) error {
	scratch := NewScratchOutput()

	// Write header (length placeholder and sequence)
	scratch.Output([]byte{0, (seq & MessageSeqMask) | MessageDest})

	frameData(scratch)

	changed := len(scratch.DataSince(0))
	if scratch.Overflow() > 0 || changed+MessageTrailerSize > MessageLengthMax {
		return ErrFrameTooLarge
	}
	scratch.Update(MessagePositionLen, uint8(changed+MessageTrailerSize))

	crc := CRC16(scratch.DataSince(0))
	scratch.Output([]byte{
		uint8((crc & 0xFF00) >> 8),
		uint8(crc & 0xFF),
		MessageValueSync,
	})

	output.Output(scratch.Result())
	return nil
}

// FrameDecoder extracts message blocks from a byte stream. Corrupt or
// truncated blocks are skipped by scanning forward to the next sync byte.
type FrameDecoder struct {
	buf          []byte
	synchronized bool
	dropped      int
}

// NewFrameDecoder creates a decoder that assumes the stream starts on a block boundary
func NewFrameDecoder() *FrameDecoder {
	return &FrameDecoder{synchronized: true}
}

// Feed appends received bytes
func (d *FrameDecoder) Feed(data []byte) {
	d.buf = append(d.buf, data...)
}

// Buffered returns the number of bytes waiting to be decoded
func (d *FrameDecoder) Buffered() int {
	return len(d.buf)
}

// Dropped returns how many bytes were discarded while resynchronizing
func (d *FrameDecoder) Dropped() int {
	return d.dropped
}

// Next returns the next valid block. ok is false when more data is needed.
func (d *FrameDecoder) Next() (block MessageBlock, ok bool) {
	for len(d.buf) > 0 {
		if !d.synchronized {
			// Look for sync byte to resynchronize
			syncPos := bytes.IndexByte(d.buf, MessageValueSync)
			if syncPos < 0 {
				d.dropped += len(d.buf)
				d.buf = d.buf[:0]
				return block, false
			}
			d.dropped += syncPos
			d.buf = d.buf[syncPos+1:]
			d.synchronized = true
			continue
		}

		// Skip leading sync bytes
		if d.buf[0] == MessageValueSync {
			d.buf = d.buf[1:]
			continue
		}

		if len(d.buf) < MessageLengthMin {
			return block, false
		}

		msgLen := int(d.buf[MessagePositionLen])
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
			d.synchronized = false
			continue
		}

		seq := d.buf[MessagePositionSeq]
		if seq&^MessageSeqMask != MessageDest {
			d.synchronized = false
			continue
		}

		// Wait for full message
		if len(d.buf) < msgLen {
			return block, false
		}

		if d.buf[msgLen-MessageTrailerSync] != MessageValueSync {
			d.synchronized = false
			continue
		}

		frameCRC := uint16(d.buf[msgLen-MessageTrailerCRC])<<8 |
			uint16(d.buf[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(d.buf[:msgLen-MessageTrailerSize]) {
			d.synchronized = false
			continue
		}

		block = MessageBlock{
			Length:   uint8(msgLen),
			Sequence: seq & MessageSeqMask,
			Data:     append([]byte(nil), d.buf[MessageHeaderSize:msgLen-MessageTrailerSize]...),
			CRC:      frameCRC,
		}
		d.buf = d.buf[msgLen:]
		return block, true
	}
	return block, false
}
