// Package link reads status telemetry from a flight controller over a
// serial port.
package link

import (
	"io"

	"github.com/pkg/errors"

	"flightcore/core"
	"flightcore/host/serial"
	"flightcore/protocol"
)

// ErrClosed is returned by Next after Close
var ErrClosed = errors.New("link closed")

// Link decodes frames arriving on a port into status snapshots
type Link struct {
	port    serial.Port
	decoder *protocol.FrameDecoder
	buf     []byte
	lastSeq int
	lost    int
	closed  bool
}

// Open opens the serial device and discards anything already queued
func Open(cfg *serial.Config) (*Link, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := port.Flush(); err != nil {
		port.Close()
		return nil, errors.Wrap(err, "flush port")
	}
	return New(port), nil
}

// New wraps an already open port
func New(port serial.Port) *Link {
	return &Link{
		port:    port,
		decoder: protocol.NewFrameDecoder(),
		buf:     make([]byte, protocol.MessageMax),
		lastSeq: -1,
	}
}

// Next blocks until a status frame is decoded. Frames with other message
// ids are skipped.
func (l *Link) Next() (core.Status, error) {
	for {
		if l.closed {
			return core.Status{}, ErrClosed
		}

		for {
			block, ok := l.decoder.Next()
			if !ok {
				break
			}
			l.trackSequence(block.Sequence)

			data := block.Data
			id, err := protocol.DecodeVLQUint(&data)
			if err != nil || id != core.StatusMessageID {
				continue
			}
			data = block.Data
			st, err := core.DecodeStatus(&data)
			if err != nil {
				return st, errors.Wrapf(err, "decode status seq %d", block.Sequence)
			}
			return st, nil
		}

		n, err := l.port.Read(l.buf)
		if n > 0 {
			l.decoder.Feed(l.buf[:n])
		}
		if err != nil && err != io.EOF {
			return core.Status{}, errors.Wrap(err, "read port")
		}
		if err == io.EOF && n == 0 {
			return core.Status{}, io.EOF
		}
	}
}

func (l *Link) trackSequence(seq uint8) {
	if l.lastSeq >= 0 {
		expected := uint8(l.lastSeq+1) & protocol.MessageSeqMask
		if seq != expected {
			l.lost += int((seq - expected) & protocol.MessageSeqMask)
		}
	}
	l.lastSeq = int(seq)
}

// Lost returns how many frames were missed according to the sequence numbers
func (l *Link) Lost() int {
	return l.lost
}

// Dropped returns the bytes discarded while resynchronizing
func (l *Link) Dropped() int {
	return l.decoder.Dropped()
}

// Close closes the port
func (l *Link) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	return errors.Wrap(l.port.Close(), "close port")
}
