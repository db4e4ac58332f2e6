package protocol

// OutputBuffer receives encoded bytes. Frames are built by appending and
// then patching the length byte in place.
type OutputBuffer interface {
	Output(data []byte)

	// CurPosition returns the number of bytes written so far
	CurPosition() int

	// Update overwrites an already written byte
	Update(pos int, val byte)

	// DataSince returns the bytes written from pos on
	DataSince(pos int) []byte
}

// ScratchOutput is an OutputBuffer backed by a fixed MessageMax array, so
// encoding a frame never allocates. Bytes past the end are dropped and
// counted.
type ScratchOutput struct {
	buf      [MessageMax]byte
	pos      int
	overflow int
}

// NewScratchOutput returns an empty buffer
func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	n := copy(s.buf[s.pos:], data)
	s.pos += n
	s.overflow += len(data) - n
}

func (s *ScratchOutput) CurPosition() int {
	return s.pos
}

func (s *ScratchOutput) Update(pos int, val byte) {
	if pos >= 0 && pos < s.pos {
		s.buf[pos] = val
	}
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos < 0 || pos > s.pos {
		return nil
	}
	return s.buf[pos:s.pos]
}

// Result returns everything written since the last Reset
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

// Overflow returns how many bytes did not fit
func (s *ScratchOutput) Overflow() int {
	return s.overflow
}

// Reset empties the buffer
func (s *ScratchOutput) Reset() {
	s.pos = 0
	s.overflow = 0
}
