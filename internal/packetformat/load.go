package packetformat

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// maxConfigSize bounds how large a configuration document may be (1MB).
const maxConfigSize = 1 << 20

// document is the configuration file envelope. Older configurations wrap the
// format in a "packet_format" object alongside descriptive metadata; bare
// documents carry the format fields at the top level.
type document struct {
	PacketTitle       string     `json:"packet_title"`
	PacketDescription string     `json:"packet_description"`
	ExampleLine       string     `json:"example_line"`
	PacketFormat      *rawFormat `json:"packet_format"`
}

// Parse builds a validated Descriptor from a JSON configuration document.
// All validation violations are collected into a single *ConfigError.
func Parse(data []byte) (*Descriptor, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse packet configuration: %w", err)
	}

	raw := doc.PacketFormat
	if raw == nil {
		raw = &rawFormat{}
		if err := json.Unmarshal(data, raw); err != nil {
			return nil, fmt.Errorf("parse packet configuration: %w", err)
		}
	}

	if violations := raw.validate(); len(violations) > 0 {
		return nil, &ConfigError{Violations: violations}
	}

	d := raw.descriptor()
	d.Title = doc.PacketTitle
	d.Description = doc.PacketDescription
	d.ExampleLine = doc.ExampleLine
	return d, nil
}

// Load reads and parses a configuration file. The file must have a .json
// extension and be under the size cap.
func Load(path string) (*Descriptor, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("packet configuration must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("stat packet configuration: %w", err)
	}
	if info.Size() > maxConfigSize {
		return nil, fmt.Errorf("packet configuration too large: %d bytes (max %d)", info.Size(), maxConfigSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("read packet configuration: %w", err)
	}

	return Parse(data)
}
