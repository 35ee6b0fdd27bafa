package stream

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFrameBufferChunking(t *testing.T) {
	f := NewFrameBuffer(24) // 3-byte frames
	if got := f.Push([]byte{0x01, 0x02}); got != nil {
		t.Errorf("Push() = %v, want nil for partial frame", got)
	}
	if f.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", f.Pending())
	}

	got := f.Push([]byte{0x03, 0x04, 0x05, 0x06, 0x07})
	want := [][]byte{{0x01, 0x02, 0x03}, {0x04, 0x05, 0x06}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
	if f.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", f.Pending())
	}
}

func TestFrameBufferFramesSurviveLaterPushes(t *testing.T) {
	f := NewFrameBuffer(16)
	first := f.Push([]byte{0xAA, 0xBB})
	f.Push([]byte{0xCC, 0xDD})
	if first[0][0] != 0xAA || first[0][1] != 0xBB {
		t.Errorf("earlier frame was clobbered: %v", first[0])
	}
}

func TestFrameBufferBitPadding(t *testing.T) {
	tests := []struct {
		frameBits   int
		wantBytes   int
		wantPadBits int
	}{
		{8, 1, 0},
		{12, 2, 4},
		{16, 2, 0},
		{17, 3, 7},
	}
	for _, tt := range tests {
		f := NewFrameBuffer(tt.frameBits)
		if got := f.FrameBytes(); got != tt.wantBytes {
			t.Errorf("FrameBytes(%d bits) = %d, want %d", tt.frameBits, got, tt.wantBytes)
		}
		if got := f.PadBits(); got != tt.wantPadBits {
			t.Errorf("PadBits(%d bits) = %d, want %d", tt.frameBits, got, tt.wantPadBits)
		}
	}
}

func TestFrameBufferReset(t *testing.T) {
	f := NewFrameBuffer(24)
	f.Push([]byte{0x01})
	f.Reset()
	if f.Pending() != 0 {
		t.Errorf("Pending() after Reset = %d, want 0", f.Pending())
	}
	// The stale byte must not prepend itself to fresh frames.
	got := f.Push([]byte{0x10, 0x20, 0x30})
	want := [][]byte{{0x10, 0x20, 0x30}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("frames after Reset mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractBits(t *testing.T) {
	// 0b0001_0000_0101: 4-bit id 0b0001 after 4 pad bits, then 0b0101.
	frame := []byte{0x01, 0x05}
	tests := []struct {
		name   string
		bitOff int
		bitLen int
		want   uint64
	}{
		{"pad bits", 0, 4, 0},
		{"id field", 4, 4, 1},
		{"data field", 8, 8, 5},
		{"spanning byte boundary", 6, 4, 4}, // bits 01 00 -> 0b0100
		{"whole frame", 0, 16, 0x0105},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractBits(frame, tt.bitOff, tt.bitLen); got != tt.want {
				t.Errorf("ExtractBits(%d, %d) = %d, want %d", tt.bitOff, tt.bitLen, got, tt.want)
			}
		})
	}
}
