// Package decode turns candidate stream units into typed packets. One decoder
// variant exists per wire encoding; all of them share the same contract: feed
// a chunk of bytes, get back zero or more packets, and a malformed unit only
// ever costs itself. Cross-unit state (the type-1 pending id, the type-2/3
// frame remainder) is owned by the decoder instance and dropped on Reset.
package decode

import (
	"fmt"
	"strings"

	"github.com/packetplot/packetplot/internal/packetformat"
	"github.com/packetplot/packetplot/internal/timeutil"
)

// ParsedPacket is one identified packet recovered from the stream. It is
// immutable once emitted.
type ParsedPacket struct {
	// ID is the whitelisted packet id the unit matched.
	ID string
	// Value is the packet payload rendered as a string.
	Value string
	// Plaintext is the human-readable "id: value" rendering shown on the
	// raw monitor.
	Plaintext string
	// ParseTime is a monotonic nanosecond timestamp assigned at emission.
	ParseTime int64
	// Seq increases by one per emitted packet on this decoder instance.
	Seq uint64
}

// Decoder consumes stream chunks in arrival order and produces packets.
// Implementations are not safe for concurrent use; the pipeline has exactly
// one stream consumer.
type Decoder interface {
	// Decode feeds the next chunk and returns the packets completed by it.
	Decode(chunk []byte) []ParsedPacket

	// Reset discards all cross-unit state. Called on disconnect and on
	// configuration reload.
	Reset()
}

// New returns the decoder variant selected by the descriptor type.
func New(desc *packetformat.Descriptor, clock timeutil.Clock) (Decoder, error) {
	e := &emitter{clock: clock}
	switch desc.Type {
	case packetformat.TypeHumanReadable:
		return newType0(desc, e), nil
	case packetformat.TypeCompressedCSV:
		return newType1(desc, e), nil
	case packetformat.TypeEncodedBytes:
		return newType2(desc, e), nil
	case packetformat.TypeEncodedBits:
		return newType3(desc, e), nil
	default:
		return nil, fmt.Errorf("decode: unsupported packet type %d", desc.Type)
	}
}

// emitter stamps packets with their timestamp and sequence index.
type emitter struct {
	clock timeutil.Clock
	seq   uint64
}

func (e *emitter) emit(id, value string) ParsedPacket {
	p := ParsedPacket{
		ID:        id,
		Value:     value,
		Plaintext: id + ": " + value,
		ParseTime: e.clock.Nanos(),
		Seq:       e.seq,
	}
	e.seq++
	return p
}

// splitFirst cuts s at the earliest occurrence of any delimiter, preferring
// the longest delimiter on a position tie. It reports whether a delimiter
// occurred at all.
func splitFirst(s string, delims []string) (before, after string, found bool) {
	pos, match := -1, ""
	for _, d := range delims {
		if d == "" {
			continue
		}
		i := strings.Index(s, d)
		if i < 0 {
			continue
		}
		if pos < 0 || i < pos || (i == pos && len(d) > len(match)) {
			pos, match = i, d
		}
	}
	if pos < 0 {
		return s, "", false
	}
	return s[:pos], s[pos+len(match):], true
}
