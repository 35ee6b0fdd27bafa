// Package packetformat defines the declarative packet-format descriptor that
// drives the decoding pipeline. A descriptor is built once from a JSON
// configuration document, validated as a whole, and is immutable afterwards;
// swapping in a new configuration always replaces the entire descriptor.
package packetformat

// Type identifies one of the four supported wire encodings.
type Type int

const (
	// TypeHumanReadable is a delimited plaintext stream, e.g. "speed: 200\n".
	TypeHumanReadable Type = 0
	// TypeCompressedCSV is a stream of paired specifier tokens,
	// e.g. "id:0x632;data:0x88;".
	TypeCompressedCSV Type = 1
	// TypeEncodedBytes is a binary stream of fixed-length frames with
	// byte-aligned fields.
	TypeEncodedBytes Type = 2
	// TypeEncodedBits is a binary stream of fixed-length frames with
	// bit-packed fields.
	TypeEncodedBits Type = 3
)

// FieldKind tags a frame field as carrying the packet id or the packet data.
type FieldKind string

const (
	FieldID   FieldKind = "ID"
	FieldDATA FieldKind = "DATA"
)

// FilterFunc is an optional user-supplied accept/transform hook applied to
// every decoded packet. It returns whether the packet is accepted and the
// (possibly rewritten) value. Its execution environment is the caller's
// problem; the pipeline only requires that a panic inside the hook rejects
// that single packet.
type FilterFunc func(id, value string) (accept bool, newValue string)

// XConfig selects how the x-coordinate of a plotted sample is computed.
// Precedence when several fields are set: PacketID (inline) wins over UseTime,
// which wins over the default running index.
type XConfig struct {
	UseTime  bool   `json:"use_time,omitempty"`
	PacketID string `json:"packet_id,omitempty"`
	XAxis    string `json:"x_axis,omitempty"`
}

// YConfig names the packet id whose values populate the series.
type YConfig struct {
	PacketID string `json:"packet_id"`
	YAxis    string `json:"y_axis,omitempty"`
}

// GraphDef describes one plotted series.
type GraphDef struct {
	Title string  `json:"title,omitempty"`
	X     XConfig `json:"x,omitempty"`
	Y     YConfig `json:"y"`
}

// XMode is the resolved ordering policy for a series.
type XMode int

const (
	XModeIndex XMode = iota
	XModeTime
	XModeInline
)

// Mode resolves the ordering policy from the x configuration.
func (g GraphDef) Mode() XMode {
	switch {
	case g.X.PacketID != "":
		return XModeInline
	case g.X.UseTime:
		return XModeTime
	default:
		return XModeIndex
	}
}

// Default labels used when a graph definition leaves them unset.
const (
	DefaultTitle      = "undefined"
	DefaultYAxis      = "undefined"
	DefaultTimeXAxis  = "Time (ns)"
	DefaultIndexXAxis = "Packet Idx"
)

// TitleLabel returns the series title, defaulted.
func (g GraphDef) TitleLabel() string {
	if g.Title != "" {
		return g.Title
	}
	return DefaultTitle
}

// XLabel returns the x-axis label. An explicit x_axis always wins; otherwise
// the label defaults per ordering mode.
func (g GraphDef) XLabel() string {
	if g.X.XAxis != "" {
		return g.X.XAxis
	}
	switch g.Mode() {
	case XModeInline:
		return g.X.PacketID
	case XModeTime:
		return DefaultTimeXAxis
	default:
		return DefaultIndexXAxis
	}
}

// YLabel returns the y-axis label, defaulted.
func (g GraphDef) YLabel() string {
	if g.Y.YAxis != "" {
		return g.Y.YAxis
	}
	return DefaultYAxis
}

// Descriptor is the validated, immutable packet-format description. Only the
// fields mandated by Type (plus its optionals) are populated; see Validate for
// the per-type field table.
type Descriptor struct {
	Type             Type
	PacketDelimiters []string
	PacketIDs        []string
	DataDelimiters   []string
	Ignore           []string
	Specifiers       []string
	HeaderOrder      []FieldKind
	HeaderLen        []int
	GraphDefs        map[string]GraphDef

	// Filter is attached by the host after loading; it never comes from the
	// configuration document itself.
	Filter FilterFunc

	// Descriptive metadata carried through from the document envelope.
	Title       string
	Description string
	ExampleLine string

	idSet map[string]struct{}
}

// HasPacketID reports whether id is one of the whitelisted packet ids.
func (d *Descriptor) HasPacketID(id string) bool {
	_, ok := d.idSet[id]
	return ok
}

// FrameBits returns the total frame length in bits for the fixed-frame types,
// or 0 for the delimited types.
func (d *Descriptor) FrameBits() int {
	var total int
	for _, n := range d.HeaderLen {
		total += n
	}
	switch d.Type {
	case TypeEncodedBytes:
		return total * 8
	case TypeEncodedBits:
		return total
	default:
		return 0
	}
}

// WithFilter returns a shallow copy of the descriptor carrying the given
// filter hook. The original descriptor is not modified.
func (d *Descriptor) WithFilter(fn FilterFunc) *Descriptor {
	copied := *d
	copied.Filter = fn
	return &copied
}

func (d *Descriptor) buildIDSet() {
	d.idSet = make(map[string]struct{}, len(d.PacketIDs))
	for _, id := range d.PacketIDs {
		d.idSet[id] = struct{}{}
	}
}
