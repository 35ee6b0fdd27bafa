package decode

import (
	"github.com/packetplot/packetplot/internal/packetformat"
	"github.com/packetplot/packetplot/internal/stream"
)

// type1Decoder handles paired specifier tokens, e.g. "id:temp;data:128;".
// An ID token parks its value in the single pending slot; the next DATA token
// pairs with it and emits a packet. A new ID token overwrites an unpaired
// pending id, and a DATA token with no pending id is discarded, so a broken
// pairing costs at most the packets directly involved and the decoder never
// buffers more than one id.
type type1Decoder struct {
	desc     *packetformat.Descriptor
	splitter *stream.Splitter
	emitter  *emitter

	pendingID *string
}

func newType1(desc *packetformat.Descriptor, e *emitter) *type1Decoder {
	return &type1Decoder{
		desc:     desc,
		splitter: stream.NewSplitter(desc.PacketDelimiters),
		emitter:  e,
	}
}

func (d *type1Decoder) Decode(chunk []byte) []ParsedPacket {
	var packets []ParsedPacket
	for _, token := range d.splitter.Push(chunk) {
		specifier, value, ok := splitFirst(token, d.desc.DataDelimiters)
		if !ok {
			continue
		}
		switch specifier {
		case d.desc.Specifiers[0]:
			v := value
			d.pendingID = &v
		case d.desc.Specifiers[1]:
			if d.pendingID == nil {
				continue
			}
			id := *d.pendingID
			d.pendingID = nil
			if !d.desc.HasPacketID(id) {
				continue
			}
			packets = append(packets, d.emitter.emit(id, value))
		}
	}
	return packets
}

func (d *type1Decoder) Reset() {
	d.splitter.Reset()
	d.pendingID = nil
}
