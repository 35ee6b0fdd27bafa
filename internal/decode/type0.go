package decode

import (
	"strings"

	"github.com/packetplot/packetplot/internal/packetformat"
	"github.com/packetplot/packetplot/internal/stream"
)

// type0Decoder handles human-readable delimited text, e.g.
// "motor speed: 200 rpm\n". Each fragment stands alone: a malformed fragment
// is dropped without affecting its neighbours.
type type0Decoder struct {
	desc     *packetformat.Descriptor
	splitter *stream.Splitter
	emitter  *emitter
}

func newType0(desc *packetformat.Descriptor, e *emitter) *type0Decoder {
	return &type0Decoder{
		desc:     desc,
		splitter: stream.NewSplitter(desc.PacketDelimiters),
		emitter:  e,
	}
}

func (d *type0Decoder) Decode(chunk []byte) []ParsedPacket {
	var packets []ParsedPacket
	for _, fragment := range d.splitter.Push(chunk) {
		idPart, dataPart, ok := splitFirst(fragment, d.desc.DataDelimiters)
		if !ok {
			idPart, dataPart = fragment, ""
		}
		if !d.desc.HasPacketID(idPart) {
			continue
		}
		for _, ignored := range d.desc.Ignore {
			dataPart = strings.ReplaceAll(dataPart, ignored, "")
		}
		packets = append(packets, d.emitter.emit(idPart, dataPart))
	}
	return packets
}

func (d *type0Decoder) Reset() {
	d.splitter.Reset()
}
