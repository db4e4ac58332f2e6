//go:build rp2040

package pio

const (
	pioBlocks   = 2
	smsPerBlock = 4
)

var (
	smInUse [pioBlocks][smsPerBlock]bool
	cursor  uint8
)

// allocatePIO hands out the next free state machine, walking every
// block before reusing one. Output pins are claimed once at boot and
// never released.
func allocatePIO() (block, sm uint8, ok bool) {
	for n := 0; n < pioBlocks*smsPerBlock; n++ {
		slot := cursor
		cursor = (cursor + 1) % (pioBlocks * smsPerBlock)

		b, s := slot/smsPerBlock, slot%smsPerBlock
		if !smInUse[b][s] {
			smInUse[b][s] = true
			return b, s, true
		}
	}
	return 0, 0, false
}
