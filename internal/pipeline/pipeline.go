// Package pipeline wires the decode, filter, and routing stages behind a
// single stream consumer. Chunks are processed in strict arrival order; the
// emitted sample and raw-packet streams fan out through grow-not-drop queues
// so a slow downstream reader can never stall or corrupt decoding.
package pipeline

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/packetplot/packetplot/internal/decode"
	"github.com/packetplot/packetplot/internal/packetformat"
	"github.com/packetplot/packetplot/internal/timeutil"
)

// Pipeline is the per-connection decode→filter→route engine. All mutable
// decoder and series state is owned here and rebuilt wholesale on Reset or
// Reload; there is no overlap window where old and new state coexist.
type Pipeline struct {
	clock timeutil.Clock

	mu        sync.Mutex
	desc      *packetformat.Descriptor
	dec       decode.Decoder
	filter    *Filter
	router    *Router
	sessionID string
	rawSeq    uint64

	samples *queue[Sample]
	packets *queue[decode.ParsedPacket]
}

// New builds a pipeline for the given descriptor. A nil descriptor is the
// "no configuration" mode: raw chunks surface on the packet stream as
// plaintext and no samples are produced.
func New(desc *packetformat.Descriptor, clock timeutil.Clock) (*Pipeline, error) {
	p := &Pipeline{
		clock:   clock,
		samples: newQueue[Sample](),
		packets: newQueue[decode.ParsedPacket](),
	}
	if err := p.install(desc); err != nil {
		return nil, err
	}
	return p, nil
}

// install swaps in a fresh descriptor plus all derived state. Caller must
// hold p.mu or be the constructor.
func (p *Pipeline) install(desc *packetformat.Descriptor) error {
	var dec decode.Decoder
	var filter *Filter
	var router *Router
	if desc != nil {
		var err error
		dec, err = decode.New(desc, p.clock)
		if err != nil {
			return err
		}
		filter = NewFilter(desc)
		router = NewRouter(desc)
	}
	p.desc = desc
	p.dec = dec
	p.filter = filter
	p.router = router
	p.sessionID = uuid.NewString()
	return nil
}

// SessionID identifies the current connection/configuration epoch. It changes
// on every Reset and Reload.
func (p *Pipeline) SessionID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessionID
}

// Descriptor returns the active descriptor, or nil in raw mode.
func (p *Pipeline) Descriptor() *packetformat.Descriptor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.desc
}

// Samples returns the routed sample stream in emission order.
func (p *Pipeline) Samples() <-chan Sample {
	return p.samples.Out()
}

// Packets returns the raw parsed packet stream for monitor display and
// capture.
func (p *Pipeline) Packets() <-chan decode.ParsedPacket {
	return p.packets.Out()
}

// Feed processes one stream chunk synchronously.
func (p *Pipeline) Feed(chunk []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dec == nil {
		p.rawSeq++
		p.packets.Push(decode.ParsedPacket{
			Value:     string(chunk),
			Plaintext: string(chunk),
			ParseTime: p.clock.Nanos(),
			Seq:       p.rawSeq - 1,
		})
		return
	}

	for _, pkt := range p.dec.Decode(chunk) {
		p.packets.Push(pkt)
		pkt, ok := p.filter.Apply(pkt)
		if !ok {
			continue
		}
		for _, sample := range p.router.Route(pkt) {
			p.samples.Push(sample)
		}
	}
}

// Run consumes chunks until the channel closes or the context is cancelled.
// Cancellation is immediate: a chunk already delivered but not yet processed
// is not decoded after the cancellation point.
func (p *Pipeline) Run(ctx context.Context, chunks <-chan []byte) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-chunks:
			if !ok {
				return nil
			}
			// Re-check cancellation so a buffered chunk cannot sneak
			// past a concurrent disconnect.
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			p.Feed(chunk)
		}
	}
}

// Reset discards all decoder state and series, keeping the current
// descriptor. Called on reconnect.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	// install cannot fail for a descriptor that was already accepted once.
	_ = p.install(p.desc)
}

// Reload atomically replaces the descriptor and resets all decoder and
// series state. On error the previous configuration remains active.
func (p *Pipeline) Reload(desc *packetformat.Descriptor) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	prevDesc, prevDec, prevFilter, prevRouter, prevSession := p.desc, p.dec, p.filter, p.router, p.sessionID
	if err := p.install(desc); err != nil {
		p.desc, p.dec, p.filter, p.router, p.sessionID = prevDesc, prevDec, prevFilter, prevRouter, prevSession
		return err
	}
	return nil
}

// Snapshot returns a copy of every live series.
func (p *Pipeline) Snapshot() []Series {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.router == nil {
		return nil
	}
	return p.router.Snapshot()
}

// SeriesByID returns a copy of one live series.
func (p *Pipeline) SeriesByID(id string) (Series, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.router == nil {
		return Series{}, false
	}
	return p.router.SeriesByID(id)
}

// Close shuts down the outgoing streams. Queued values are still delivered.
func (p *Pipeline) Close() {
	p.samples.Close()
	p.packets.Close()
}
