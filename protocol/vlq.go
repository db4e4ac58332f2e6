package protocol

import "errors"

var (
	ErrTruncatedVLQ = errors.New("truncated VLQ value")
	ErrOverlongVLQ  = errors.New("VLQ value longer than 5 bytes")
)

// vlqShifts are the bit offsets of the optional leading bytes, most
// significant first. Each byte carries 7 bits; bits 5-6 of the first byte
// double as the sign so small negative values stay one byte long.
var vlqShifts = [...]uint8{28, 21, 14, 7}

const vlqMaxLen = len(vlqShifts) + 1

// EncodeVLQInt appends v using the fewest bytes that keep its sign
func EncodeVLQInt(output OutputBuffer, v int32) {
	var buf [vlqMaxLen]byte
	n := 0
	for _, shift := range vlqShifts {
		lo := -(int32(1) << (shift - 2))
		hi := int32(3) << (shift - 2)
		if n > 0 || v < lo || v >= hi {
			buf[n] = byte(v>>shift)&0x7F | 0x80
			n++
		}
	}
	buf[n] = byte(v) & 0x7F
	output.Output(buf[:n+1])
}

// EncodeVLQUint appends v; values above MaxInt32 use the full five bytes
func EncodeVLQUint(output OutputBuffer, v uint32) {
	EncodeVLQInt(output, int32(v))
}

// DecodeVLQInt reads one value from the front of data and advances data
// past it.
func DecodeVLQInt(data *[]byte) (int32, error) {
	buf := *data
	if len(buf) == 0 {
		return 0, ErrTruncatedVLQ
	}

	c := uint32(buf[0])
	v := c & 0x7F
	if c&0x60 == 0x60 {
		// negative: extend the sign from bit 5
		v |= ^uint32(0x1F)
	}

	i := 1
	for c&0x80 != 0 {
		if i >= len(buf) {
			return 0, ErrTruncatedVLQ
		}
		if i >= vlqMaxLen {
			return 0, ErrOverlongVLQ
		}
		c = uint32(buf[i])
		v = v<<7 | c&0x7F
		i++
	}

	*data = buf[i:]
	return int32(v), nil
}

// DecodeVLQUint reads one unsigned value
func DecodeVLQUint(data *[]byte) (uint32, error) {
	v, err := DecodeVLQInt(data)
	return uint32(v), err
}
