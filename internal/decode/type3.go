package decode

import (
	"fmt"
	"strconv"

	"github.com/packetplot/packetplot/internal/packetformat"
	"github.com/packetplot/packetplot/internal/stream"
)

// type3Decoder handles fixed-length binary frames with bit-packed fields.
// A frame whose total bit length is not a multiple of 8 occupies the next
// whole byte on the wire, left-padded with zero bits at the most-significant
// end; field boundaries are the unpadded header lengths offset by that
// padding. The ID field is rendered as a 0b-prefixed binary string of exactly
// its bit width for whitelist matching; the DATA field is rendered as the
// decimal value of its bits.
type type3Decoder struct {
	desc    *packetformat.Descriptor
	frames  *stream.FrameBuffer
	emitter *emitter

	idField   int
	dataField int
	offsets   []int
}

func newType3(desc *packetformat.Descriptor, e *emitter) *type3Decoder {
	d := &type3Decoder{
		desc:    desc,
		frames:  stream.NewFrameBuffer(desc.FrameBits()),
		emitter: e,
	}
	offset := d.frames.PadBits()
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

func (d *type3Decoder) Decode(chunk []byte) []ParsedPacket {
	var packets []ParsedPacket
	for _, frame := range d.frames.Push(chunk) {
		id := d.renderID(frame)
		if !d.desc.HasPacketID(id) {
			continue
		}
		data := stream.ExtractBits(frame, d.offsets[d.dataField], d.desc.HeaderLen[d.dataField])
		packets = append(packets, d.emitter.emit(id, strconv.FormatUint(data, 10)))
	}
	return packets
}

func (d *type3Decoder) renderID(frame []byte) string {
	width := d.desc.HeaderLen[d.idField]
	v := stream.ExtractBits(frame, d.offsets[d.idField], width)
	return fmt.Sprintf("0b%0*b", width, v)
}

func (d *type3Decoder) Reset() {
	d.frames.Reset()
}
