package packetformat

import (
	"fmt"
	"strings"
)

// ConfigError reports every violation found while validating a configuration
// document. Validation never stops at the first problem so the user can fix a
// bad file in one pass. A ConfigError is fatal to loading that configuration
// only; any previously active descriptor stays in force.
type ConfigError struct {
	Violations []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid packet configuration: %s", strings.Join(e.Violations, "; "))
}

// maxFieldBits caps a single type-3 field so its value fits an unsigned
// 64-bit integer.
const maxFieldBits = 64

// rawFormat is the unvalidated wire shape of the "packet_format" object.
// Pointer fields distinguish "absent" from zero values.
type rawFormat struct {
	Type             *int                `json:"type"`
	PacketDelimiters []string            `json:"packet_delimiters"`
	PacketIDs        []string            `json:"packet_ids"`
	DataDelimiters   []string            `json:"data_delimiters"`
	Ignore           []string            `json:"ignore"`
	Specifiers       []string            `json:"specifiers"`
	HeaderOrder      []string            `json:"header_order"`
	HeaderLen        []int               `json:"header_len"`
	GraphDefs        map[string]GraphDef `json:"graph_definitions"`
}

// validate checks the raw document and either returns the list of violations
// or nil if the configuration is well formed.
func (r *rawFormat) validate() []string {
	var violations []string
	add := func(format string, args ...any) {
		violations = append(violations, fmt.Sprintf(format, args...))
	}

	if r.Type == nil {
		add("type: mandatory field is missing")
		return violations
	}
	t := Type(*r.Type)
	if t < TypeHumanReadable || t > TypeEncodedBits {
		add("type: unknown packet type %d (want 0-3)", *r.Type)
		return violations
	}

	if len(r.PacketIDs) == 0 {
		add("packet_ids: mandatory field is missing or empty")
	}
	for i, id := range r.PacketIDs {
		if id == "" {
			add("packet_ids[%d]: packet id must not be empty", i)
		}
	}

	switch t {
	case TypeHumanReadable, TypeCompressedCSV:
		if len(r.PacketDelimiters) == 0 {
			add("packet_delimiters: mandatory field is missing or empty")
		}
		for i, delim := range r.PacketDelimiters {
			if delim == "" {
				add("packet_delimiters[%d]: delimiter must not be empty", i)
			}
		}
		for i, delim := range r.DataDelimiters {
			if delim == "" {
				add("data_delimiters[%d]: delimiter must not be empty", i)
			}
		}
		if len(r.HeaderOrder) > 0 || len(r.HeaderLen) > 0 {
			add("header_order/header_len: not valid for type %d", t)
		}
		if t == TypeCompressedCSV {
			if len(r.Specifiers) != 2 {
				add("specifiers: type 1 requires exactly 2 specifiers, got %d", len(r.Specifiers))
			}
			if len(r.Ignore) > 0 {
				add("ignore: not valid for type 1")
			}
		}

	case TypeEncodedBytes, TypeEncodedBits:
		if len(r.PacketDelimiters) > 0 || len(r.DataDelimiters) > 0 {
			add("packet_delimiters/data_delimiters: not valid for type %d", t)
		}
		if len(r.Specifiers) > 0 {
			add("specifiers: not valid for type %d", t)
		}
		if len(r.Ignore) > 0 {
			add("ignore: not valid for type %d", t)
		}
		if len(r.HeaderOrder) == 0 {
			add("header_order: mandatory field is missing or empty")
		}
		if len(r.HeaderLen) == 0 {
			add("header_len: mandatory field is missing or empty")
		}
		if len(r.HeaderOrder) != 0 && len(r.HeaderLen) != 0 && len(r.HeaderOrder) != len(r.HeaderLen) {
			add("header_order/header_len: length mismatch (%d vs %d)", len(r.HeaderOrder), len(r.HeaderLen))
		}
		var idFields, dataFields int
		for i, field := range r.HeaderOrder {
			switch FieldKind(field) {
			case FieldID:
				idFields++
			case FieldDATA:
				dataFields++
			default:
				add("header_order[%d]: unknown field kind %q (want ID or DATA)", i, field)
			}
		}
		if len(r.HeaderOrder) > 0 && idFields != 1 {
			add("header_order: want exactly one ID field, got %d", idFields)
		}
		if len(r.HeaderOrder) > 0 && dataFields != 1 {
			add("header_order: want exactly one DATA field, got %d", dataFields)
		}
		unit := "bytes"
		if t == TypeEncodedBits {
			unit = "bits"
		}
		for i, n := range r.HeaderLen {
			if n < 1 {
				add("header_len[%d]: field length must be at least 1 (%s), got %d", i, unit, n)
			}
			if t == TypeEncodedBits && n > maxFieldBits {
				add("header_len[%d]: bit field wider than %d bits is not supported", i, maxFieldBits)
			}
		}
	}

	ids := make(map[string]struct{}, len(r.PacketIDs))
	for _, id := range r.PacketIDs {
		ids[id] = struct{}{}
	}
	for name, def := range r.GraphDefs {
		if def.Y.PacketID == "" {
			add("graph_definitions[%q]: y.packet_id is mandatory", name)
		} else if _, ok := ids[def.Y.PacketID]; !ok {
			add("graph_definitions[%q]: y.packet_id %q is not listed in packet_ids", name, def.Y.PacketID)
		}
	}

	return violations
}

func (r *rawFormat) descriptor() *Descriptor {
	d := &Descriptor{
		Type:             Type(*r.Type),
		PacketDelimiters: r.PacketDelimiters,
		PacketIDs:        r.PacketIDs,
		DataDelimiters:   r.DataDelimiters,
		Ignore:           r.Ignore,
		Specifiers:       r.Specifiers,
		HeaderLen:        r.HeaderLen,
		GraphDefs:        r.GraphDefs,
	}
	for _, field := range r.HeaderOrder {
		d.HeaderOrder = append(d.HeaderOrder, FieldKind(field))
	}
	d.buildIDSet()
	return d
}
