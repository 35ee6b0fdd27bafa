package decode

import (
	"encoding/hex"

	"github.com/packetplot/packetplot/internal/packetformat"
	"github.com/packetplot/packetplot/internal/stream"
)

// type2Decoder handles fixed-length binary frames with byte-aligned fields,
// in the shape of a stripped-down CAN data frame. Each field is rendered as a
// lowercase 0x-prefixed hex string of exactly its byte width, so id matching
// keeps leading zeroes. A frame whose ID field is not whitelisted is dropped
// whole; a remainder shorter than one frame waits for more bytes.
type type2Decoder struct {
	desc    *packetformat.Descriptor
	frames  *stream.FrameBuffer
	emitter *emitter

	idField   int
	dataField int
	offsets   []int
}

func newType2(desc *packetformat.Descriptor, e *emitter) *type2Decoder {
	d := &type2Decoder{
		desc:    desc,
		frames:  stream.NewFrameBuffer(desc.FrameBits()),
		emitter: e,
	}
	offset := 0
	for i, kind := range desc.HeaderOrder {
		d.offsets = append(d.offsets, offset)
		offset += desc.HeaderLen[i]
		switch kind {
		case packetformat.FieldID:
			d.idField = i
		case packetformat.FieldDATA:
			d.dataField = i
		}
	}
	return d
}

func (d *type2Decoder) Decode(chunk []byte) []ParsedPacket {
	var packets []ParsedPacket
	for _, frame := range d.frames.Push(chunk) {
		id := d.renderField(frame, d.idField)
		if !d.desc.HasPacketID(id) {
			continue
		}
		packets = append(packets, d.emitter.emit(id, d.renderField(frame, d.dataField)))
	}
	return packets
}

func (d *type2Decoder) renderField(frame []byte, field int) string {
	start := d.offsets[field]
	end := start + d.desc.HeaderLen[field]
	return "0x" + hex.EncodeToString(frame[start:end])
}

func (d *type2Decoder) Reset() {
	d.frames.Reset()
}
