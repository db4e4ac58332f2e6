// Package protocol implements the framing used for flight core telemetry:
// VLQ encoded integers inside CRC16 checked message blocks.
package protocol

// Version of the telemetry format
const Version = "0.1.0"

// Protocol constants
const (
	MessageMax = 512 // Maximum output buffer size, several frames

	// Message sequence masks
	MessageSeqMask = 0x0F
)

// MessageBlock represents a decoded message block
type MessageBlock struct {
	Length   uint8
	Sequence uint8
	Data     []byte
	CRC      uint16
}
