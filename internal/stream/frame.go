package stream

// FrameBuffer chunks a binary stream into fixed-length frames. The frame
// length is given in bits; frames occupy whole bytes on the wire, so a frame
// whose bit length is not a multiple of 8 is left-padded with zero bits at
// the most-significant end up to the next byte boundary (see PadBits).
// A remainder shorter than one frame is buffered across calls and never
// reported as an error.
type FrameBuffer struct {
	frameBits int
	buf       []byte
}

// NewFrameBuffer returns a frame buffer for frames of the given bit length.
func NewFrameBuffer(frameBits int) *FrameBuffer {
	return &FrameBuffer{frameBits: frameBits}
}

// FrameBytes returns the wire size of one frame in bytes.
func (f *FrameBuffer) FrameBytes() int {
	return (f.frameBits + 7) / 8
}

// PadBits returns how many zero bits pad the most-significant end of each
// frame.
func (f *FrameBuffer) PadBits() int {
	return f.FrameBytes()*8 - f.frameBits
}

// Push appends chunk to the buffer and returns every complete frame now
// available, in stream order. Returned frames alias freshly copied storage
// and stay valid after later pushes.
func (f *FrameBuffer) Push(chunk []byte) [][]byte {
	f.buf = append(f.buf, chunk...)

	size := f.FrameBytes()
	if size == 0 {
		return nil
	}

	var frames [][]byte
	for len(f.buf) >= size {
		frame := make([]byte, size)
		copy(frame, f.buf[:size])
		frames = append(frames, frame)
		f.buf = f.buf[size:]
	}
	if len(frames) > 0 {
		// Re-home the remainder so the consumed prefix can be collected.
		f.buf = append([]byte(nil), f.buf...)
	}
	return frames
}

// Pending returns how many buffered bytes are waiting for the rest of a
// frame.
func (f *FrameBuffer) Pending() int {
	return len(f.buf)
}

// Reset discards any buffered partial frame. Frames never span a disconnect
// boundary.
func (f *FrameBuffer) Reset() {
	f.buf = nil
}

// ExtractBits reads bitLen bits starting bitOff bits into frame, treating the
// frame as one big-endian bit string (bit 0 is the most-significant bit of
// frame[0]). The result is the unsigned integer formed by those bits; bitLen
// must be at most 64.
func ExtractBits(frame []byte, bitOff, bitLen int) uint64 {
	var v uint64
	for i := 0; i < bitLen; i++ {
		pos := bitOff + i
		bit := frame[pos/8] >> (7 - pos%8) & 1
		v = v<<1 | uint64(bit)
	}
	return v
}
