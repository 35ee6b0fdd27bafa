package pipeline

import (
	"sort"
	"strconv"

	"github.com/packetplot/packetplot/internal/decode"
	"github.com/packetplot/packetplot/internal/packetformat"
)

// Router assigns accepted packets to their graph series and computes each
// sample's x-coordinate under the series' ordering mode. Series are created
// lazily on the first matching packet and are append-only until the router is
// discarded on disconnect or reload.
type Router struct {
	defs  map[string]packetformat.GraphDef
	order []string

	// byY and byX map packet ids to the graph keys consuming them as the
	// data and inline-index source respectively.
	byY map[string][]string
	byX map[string][]string

	states map[string]*seriesState
}

type seriesState struct {
	def    packetformat.GraphDef
	series Series

	// time mode: last x handed out, for the strict-monotonicity bump.
	lastX float64

	// inline mode: last value seen from the index packet id, plus the
	// y-values parked until the first index value arrives.
	inlineX    float64
	haveInline bool
	pendingY   []string
}

// NewRouter builds a router over the descriptor's graph definitions.
func NewRouter(desc *packetformat.Descriptor) *Router {
	r := &Router{
		defs:   desc.GraphDefs,
		byY:    make(map[string][]string),
		byX:    make(map[string][]string),
		states: make(map[string]*seriesState),
	}
	for key := range desc.GraphDefs {
		r.order = append(r.order, key)
	}
	sort.Strings(r.order)
	for _, key := range r.order {
		def := desc.GraphDefs[key]
		r.byY[def.Y.PacketID] = append(r.byY[def.Y.PacketID], key)
		if def.Mode() == packetformat.XModeInline {
			r.byX[def.X.PacketID] = append(r.byX[def.X.PacketID], key)
		}
	}
	return r
}

// Route feeds one accepted packet through the graph definitions and returns
// the samples it produced, in series-key order.
func (r *Router) Route(p decode.ParsedPacket) []Sample {
	var out []Sample

	// The packet may be the inline index source for some series: record its
	// value and release any samples parked waiting for a first index value.
	for _, key := range r.byX[p.ID] {
		st := r.state(key)
		x, err := strconv.ParseFloat(p.Value, 64)
		if err != nil {
			continue
		}
		st.inlineX = x
		st.haveInline = true
		for _, y := range st.pendingY {
			out = append(out, st.append(x, y))
		}
		st.pendingY = nil
	}

	for _, key := range r.byY[p.ID] {
		st := r.state(key)
		switch st.def.Mode() {
		case packetformat.XModeInline:
			if st.def.X.PacketID == st.def.Y.PacketID {
				// The packet indexes itself: its own value is the x.
				x, err := strconv.ParseFloat(p.Value, 64)
				if err != nil {
					continue
				}
				out = append(out, st.append(x, p.Value))
			} else if st.haveInline {
				out = append(out, st.append(st.inlineX, p.Value))
			} else {
				st.pendingY = append(st.pendingY, p.Value)
			}

		case packetformat.XModeTime:
			x := float64(p.ParseTime)
			if len(st.series.Samples) > 0 && x <= st.lastX {
				x = st.lastX + 1
			}
			st.lastX = x
			out = append(out, st.append(x, p.Value))

		default: // index
			out = append(out, st.append(float64(len(st.series.Samples)), p.Value))
		}
	}
	return out
}

// Snapshot returns a copy of every live series in deterministic key order.
func (r *Router) Snapshot() []Series {
	var out []Series
	for _, key := range r.order {
		st, ok := r.states[key]
		if !ok {
			continue
		}
		s := st.series
		s.Samples = append([]Sample(nil), st.series.Samples...)
		out = append(out, s)
	}
	return out
}

// SeriesByID returns a copy of one series, if it has matched any packets.
func (r *Router) SeriesByID(id string) (Series, bool) {
	st, ok := r.states[id]
	if !ok {
		return Series{}, false
	}
	s := st.series
	s.Samples = append([]Sample(nil), st.series.Samples...)
	return s, true
}

func (r *Router) state(key string) *seriesState {
	if st, ok := r.states[key]; ok {
		return st
	}
	def := r.defs[key]
	st := &seriesState{
		def: def,
		series: Series{
			ID:     key,
			Title:  def.TitleLabel(),
			XLabel: def.XLabel(),
			YLabel: def.YLabel(),
		},
	}
	r.states[key] = st
	return st
}

func (st *seriesState) append(x float64, y string) Sample {
	s := Sample{Series: st.series.ID, X: x, Y: y}
	st.series.Samples = append(st.series.Samples, s)
	return s
}
