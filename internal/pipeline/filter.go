package pipeline

import (
	"fmt"
	"log"

	"github.com/packetplot/packetplot/internal/decode"
	"github.com/packetplot/packetplot/internal/packetformat"
)

// Filter scrubs decoded packets before routing. The whitelist check repeats
// the decoder's own filtering so a configuration reload mid-stream cannot let
// stale packets through; the optional user hook can then reject or rewrite
// the value. A hook that panics rejects that packet only.
type Filter struct {
	desc *packetformat.Descriptor
}

// NewFilter builds the filter stage for a descriptor.
func NewFilter(desc *packetformat.Descriptor) *Filter {
	return &Filter{desc: desc}
}

// Apply returns the (possibly rewritten) packet and whether it passed.
func (f *Filter) Apply(p decode.ParsedPacket) (decode.ParsedPacket, bool) {
	if !f.desc.HasPacketID(p.ID) {
		return p, false
	}
	if f.desc.Filter == nil {
		return p, true
	}

	accept, value, err := runHook(f.desc.Filter, p.ID, p.Value)
	if err != nil {
		log.Printf("filter hook failed on packet %q: %v", p.ID, err)
		return p, false
	}
	if !accept {
		return p, false
	}
	if value != p.Value {
		p.Value = value
		p.Plaintext = p.ID + ": " + value
	}
	return p, true
}

// runHook invokes the user hook, converting a panic into a rejection error so
// one bad packet can never abort the stream.
func runHook(fn packetformat.FilterFunc, id, value string) (accept bool, newValue string, err error) {
	defer func() {
		if r := recover(); r != nil {
			accept = false
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	accept, newValue = fn(id, value)
	return accept, newValue, nil
}
