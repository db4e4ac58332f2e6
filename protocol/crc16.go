package protocol

// CRC16 is the CRC-16/MCRF4XX checksum (reflected CCITT polynomial, seed
// 0xFFFF, no final xor) over a block's header and payload.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		b ^= uint8(crc)
		b ^= b << 4
		w := uint16(b)
		crc = (w<<8 | crc>>8) ^ (w >> 4) ^ (w << 3)
	}
	return crc
}
